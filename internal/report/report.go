// Package report runs a worked-on query end to end: build the JQL, fetch every page and
// optionally attach assignee history for the window.
package report

import (
	"context"
	"fmt"

	"github.com/joescharf/worked/internal/jql"
	"github.com/joescharf/worked/internal/models"
	"github.com/joescharf/worked/internal/window"
)

// Fetcher is the subset of jira.Client the report needs.
type Fetcher interface {
	Search(ctx context.Context, jql string, pageSize int) ([]models.Issue, error)
	AssigneeChanges(ctx context.Context, key string) ([]models.AssigneeChange, error)
}

// Options control how a report is fetched.
type Options struct {
	PageSize        int
	AssigneeHistory bool

	// Progress, when set, is called after each changelog fetch.
	Progress func(done, total int)
}

// Result is a finished report.
type Result struct {
	Filter jql.FilterSpec `json:"filter"`
	JQL    string         `json:"jql"`
	Issues []models.Issue `json:"issues"`
}

// Run builds the query for spec, fetches all matching issues and, if requested, computes
// who held each issue during the window. Fetches happen one after another.
func Run(ctx context.Context, f Fetcher, spec jql.FilterSpec, opts Options) (*Result, error) {
	q, err := jql.Build(spec)
	if err != nil {
		return nil, err
	}

	issues, err := f.Search(ctx, q, opts.PageSize)
	if err != nil {
		return nil, fmt.Errorf("search issues: %w", err)
	}

	if opts.AssigneeHistory {
		if err := annotate(ctx, f, spec, issues, opts.Progress); err != nil {
			return nil, err
		}
	}

	return &Result{Filter: spec, JQL: q, Issues: issues}, nil
}

func annotate(ctx context.Context, f Fetcher, spec jql.FilterSpec, issues []models.Issue, progress func(int, int)) error {
	start, end := jql.WindowBounds(spec.From, spec.To)

	for i := range issues {
		is := &issues[i]
		changes, err := f.AssigneeChanges(ctx, is.Key)
		if err != nil {
			return fmt.Errorf("assignee history for %s: %w", is.Key, err)
		}

		current := models.Holder{ID: is.AssigneeAccountID, Name: is.Assignee}
		w := window.Compute(current, changes, start, end)
		w.Matched = window.Match(w.Holders, spec.People, spec.UseAccountID)
		is.Window = &w

		if progress != nil {
			progress(i+1, len(issues))
		}
	}
	return nil
}
