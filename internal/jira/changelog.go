package jira

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/joescharf/worked/internal/models"
)

// timestamp is the layout Jira uses for changelog entries.
const timestamp = "2006-01-02T15:04:05.999-0700"

type changelogItem struct {
	Field      string `json:"field"`
	From       string `json:"from"`
	FromString string `json:"fromString"`
	To         string `json:"to"`
	ToString   string `json:"toString"`
}

type changelogHistory struct {
	Created string          `json:"created"`
	Items   []changelogItem `json:"items"`
}

// changelogPage covers both the Cloud "values" and the Server "histories" shapes.
type changelogPage struct {
	StartAt    int                `json:"startAt"`
	MaxResults int                `json:"maxResults"`
	Total      *int               `json:"total"`
	IsLast     *bool              `json:"isLast"`
	Values     []changelogHistory `json:"values"`
	Histories  []changelogHistory `json:"histories"`
}

// AssigneeChanges returns every assignee transition recorded for the issue, oldest first.
func (c *Client) AssigneeChanges(ctx context.Context, key string) ([]models.AssigneeChange, error) {
	op := "changelog " + key
	var changes []models.AssigneeChange
	cur := cursor{limit: changelogPageSize}
	for {
		q := url.Values{}
		q.Set("startAt", strconv.Itoa(cur.offset))
		q.Set("maxResults", strconv.Itoa(cur.limit))
		path := fmt.Sprintf("rest/api/3/issue/%s/changelog?%s", url.PathEscape(key), q.Encode())

		req, err := c.api.NewRequestWithContext(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, fmt.Errorf("build changelog request: %w", err)
		}

		c.log.Debug("changelog page", zap.String("issue", key), zap.Int("startAt", cur.offset))
		var page changelogPage
		resp, err := c.api.Do(req, &page)
		if err != nil {
			return nil, classify(op, cur.String(), resp, err)
		}

		histories := page.Values
		if len(histories) == 0 {
			histories = page.Histories
		}
		for _, h := range histories {
			if h.Created == "" {
				continue
			}
			created, err := time.Parse(timestamp, h.Created)
			if err != nil {
				return nil, &Error{Kind: ErrMalformedResponse, Op: op, Page: cur.String(), Err: fmt.Errorf("parse created: %w", err)}
			}
			for _, it := range h.Items {
				if it.Field != "assignee" {
					continue
				}
				changes = append(changes, models.AssigneeChange{
					Created:  created.UTC(),
					FromID:   it.From,
					FromName: it.FromString,
					ToID:     it.To,
					ToName:   it.ToString,
				})
			}
		}

		// Jira may cap maxResults below what was asked for.
		if page.MaxResults > 0 && page.MaxResults < cur.limit {
			cur.limit = page.MaxResults
		}
		cur.offset += len(histories)
		if len(histories) == 0 {
			break
		}
		if page.Total == nil {
			if page.IsLast != nil && !*page.IsLast {
				continue
			}
			break
		}
		if cur.offset >= *page.Total {
			break
		}
	}

	sort.SliceStable(changes, func(i, j int) bool {
		return changes[i].Created.Before(changes[j].Created)
	})
	return changes, nil
}
