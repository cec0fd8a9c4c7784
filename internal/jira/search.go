package jira

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gojira "github.com/andygrunwald/go-jira"
	"go.uber.org/zap"

	"github.com/joescharf/worked/internal/models"
)

// cursor tracks pagination progress within a single Search call.
type cursor struct {
	offset int
	limit  int
	token  string
}

func (c cursor) String() string {
	if c.token != "" {
		return fmt.Sprintf("offset %d (page token %s)", c.offset, c.token)
	}
	return fmt.Sprintf("offset %d", c.offset)
}

// Search runs jql and returns every matching issue in server order. Pages are fetched
// one at a time; the first failure aborts the search and no partial result is returned.
func (c *Client) Search(ctx context.Context, jql string, pageSize int) ([]models.Issue, error) {
	if pageSize < 1 || pageSize > MaxPageSize {
		return nil, fmt.Errorf("page size %d out of range 1..%d", pageSize, MaxPageSize)
	}
	if c.mode == SearchEnhanced {
		return c.searchEnhanced(ctx, jql, pageSize)
	}
	return c.searchLegacy(ctx, jql, pageSize)
}

func (c *Client) searchLegacy(ctx context.Context, jql string, pageSize int) ([]models.Issue, error) {
	var out []models.Issue
	cur := cursor{limit: pageSize}
	for {
		c.log.Debug("search page", zap.Int("startAt", cur.offset), zap.Int("maxResults", cur.limit))
		page, resp, err := c.api.Issue.SearchWithContext(ctx, jql, &gojira.SearchOptions{
			StartAt:    cur.offset,
			MaxResults: cur.limit,
			Fields:     Fields,
		})
		if err != nil {
			return nil, classify("search", cur.String(), resp, err)
		}

		issues, err := convert(page)
		if err != nil {
			return nil, &Error{Kind: ErrMalformedResponse, Op: "search", Page: cur.String(), Err: err}
		}
		out = append(out, issues...)

		// Jira may cap maxResults below what was asked for.
		if resp.MaxResults > 0 && resp.MaxResults < cur.limit {
			cur.limit = resp.MaxResults
		}
		cur.offset += len(page)
		c.log.Debug("search page done", zap.Int("received", len(page)), zap.Int("total", resp.Total))

		if len(page) < cur.limit || (resp.Total > 0 && cur.offset >= resp.Total) {
			return out, nil
		}
	}
}

type enhancedRequest struct {
	JQL           string   `json:"jql"`
	MaxResults    int      `json:"maxResults"`
	Fields        []string `json:"fields,omitempty"`
	NextPageToken string   `json:"nextPageToken,omitempty"`
}

type enhancedPage struct {
	Issues        []gojira.Issue `json:"issues"`
	NextPageToken string         `json:"nextPageToken"`
	IsLast        bool           `json:"isLast"`
}

func (c *Client) searchEnhanced(ctx context.Context, jql string, pageSize int) ([]models.Issue, error) {
	var out []models.Issue
	cur := cursor{limit: pageSize}
	for {
		body := enhancedRequest{JQL: jql, MaxResults: cur.limit, Fields: Fields, NextPageToken: cur.token}
		req, err := c.api.NewRequestWithContext(ctx, http.MethodPost, "rest/api/3/search/jql", body)
		if err != nil {
			return nil, fmt.Errorf("build search request: %w", err)
		}

		c.log.Debug("search page", zap.Int("offset", cur.offset), zap.String("nextPageToken", cur.token))
		var page enhancedPage
		resp, err := c.api.Do(req, &page)
		if err != nil {
			return nil, classify("search", cur.String(), resp, err)
		}

		issues, err := convert(page.Issues)
		if err != nil {
			return nil, &Error{Kind: ErrMalformedResponse, Op: "search", Page: cur.String(), Err: err}
		}
		out = append(out, issues...)
		cur.offset += len(page.Issues)

		if page.IsLast || page.NextPageToken == "" {
			return out, nil
		}
		if page.NextPageToken == cur.token {
			return nil, &Error{Kind: ErrMalformedResponse, Op: "search", Page: cur.String(), Err: errors.New("next page token did not advance")}
		}
		cur.token = page.NextPageToken
	}
}

func convert(page []gojira.Issue) ([]models.Issue, error) {
	out := make([]models.Issue, 0, len(page))
	for i, gi := range page {
		if gi.Key == "" {
			return nil, fmt.Errorf("issue %d in page has no key", i)
		}
		out = append(out, toIssue(gi))
	}
	return out, nil
}

func toIssue(gi gojira.Issue) models.Issue {
	is := models.Issue{Key: gi.Key}
	f := gi.Fields
	if f == nil {
		return is
	}

	is.Summary = f.Summary
	if a := f.Assignee; a != nil {
		is.AssigneeAccountID = a.AccountID
		is.Assignee = a.DisplayName
		if is.Assignee == "" {
			is.Assignee = a.AccountID
		}
		if is.Assignee == "" {
			is.Assignee = a.Name
		}
	}
	if f.Status != nil {
		is.Status = f.Status.Name
	}
	is.Type = f.Type.Name
	is.Project = f.Project.Key
	is.Created = time.Time(f.Created).UTC()
	is.Updated = time.Time(f.Updated).UTC()
	if r := time.Time(f.Resolutiondate); !r.IsZero() {
		is.Resolved = r.UTC()
	}
	return is
}
