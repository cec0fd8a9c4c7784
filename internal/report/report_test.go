package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/worked/internal/jira"
	"github.com/joescharf/worked/internal/jql"
	"github.com/joescharf/worked/internal/models"
)

type fakeFetcher struct {
	issues     []models.Issue
	changes    map[string][]models.AssigneeChange
	searchErr  error
	changesErr error

	queries  []string
	pageSize int
	keys     []string
}

func (f *fakeFetcher) Search(_ context.Context, q string, pageSize int) ([]models.Issue, error) {
	f.queries = append(f.queries, q)
	f.pageSize = pageSize
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	out := make([]models.Issue, len(f.issues))
	copy(out, f.issues)
	return out, nil
}

func (f *fakeFetcher) AssigneeChanges(_ context.Context, key string) ([]models.AssigneeChange, error) {
	f.keys = append(f.keys, key)
	if f.changesErr != nil {
		return nil, f.changesErr
	}
	return f.changes[key], nil
}

func spec() jql.FilterSpec {
	return jql.FilterSpec{
		People: []string{"Carol"},
		From:   time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC),
		To:     time.Date(2025, 7, 20, 0, 0, 0, 0, time.UTC),
	}
}

func TestRun(t *testing.T) {
	f := &fakeFetcher{issues: []models.Issue{{Key: "A-1"}, {Key: "A-2"}}}

	res, err := Run(context.Background(), f, spec(), Options{PageSize: 50})
	require.NoError(t, err)

	require.Len(t, f.queries, 1)
	assert.Equal(t, f.queries[0], res.JQL)
	assert.Equal(t, 50, f.pageSize)
	assert.Len(t, res.Issues, 2)
	assert.Empty(t, f.keys, "no changelog fetches without assignee history")
	assert.Nil(t, res.Issues[0].Window)
}

func TestRun_InvalidFilter(t *testing.T) {
	f := &fakeFetcher{}
	s := spec()
	s.People = nil

	_, err := Run(context.Background(), f, s, Options{PageSize: 50})
	assert.ErrorIs(t, err, jql.ErrInvalidFilter)
	assert.Empty(t, f.queries, "no request is made for an invalid filter")
}

func TestRun_SearchError(t *testing.T) {
	f := &fakeFetcher{searchErr: &jira.Error{Kind: jira.ErrAuth, Status: 401}}

	res, err := Run(context.Background(), f, spec(), Options{PageSize: 50})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, jira.ErrAuth)
}

func TestRun_AssigneeHistory(t *testing.T) {
	f := &fakeFetcher{
		issues: []models.Issue{
			{Key: "A-1", Assignee: "Bob", AssigneeAccountID: "b"},
			{Key: "A-2", Assignee: "Carol", AssigneeAccountID: "c"},
		},
		changes: map[string][]models.AssigneeChange{
			"A-1": {
				{Created: time.Date(2025, 7, 12, 0, 0, 0, 0, time.UTC), FromID: "c", FromName: "Carol", ToID: "b", ToName: "Bob"},
			},
		},
	}

	var progress []int
	res, err := Run(context.Background(), f, spec(), Options{
		PageSize:        50,
		AssigneeHistory: true,
		Progress:        func(done, total int) { progress = append(progress, done) },
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"A-1", "A-2"}, f.keys)
	assert.Equal(t, []int{1, 2}, progress)

	w1 := res.Issues[0].Window
	require.NotNil(t, w1)
	assert.Equal(t, "Carol, Bob", w1.Names)
	assert.Equal(t, "Carol", w1.Matched)

	w2 := res.Issues[1].Window
	require.NotNil(t, w2)
	assert.Equal(t, "Carol", w2.Names, "without changes the current assignee holds the whole window")
	assert.Equal(t, "Carol", w2.Matched)
}

func TestRun_AssigneeHistoryError(t *testing.T) {
	f := &fakeFetcher{
		issues:     []models.Issue{{Key: "A-1"}},
		changesErr: errors.New("boom"),
	}

	_, err := Run(context.Background(), f, spec(), Options{PageSize: 50, AssigneeHistory: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "A-1")
}
