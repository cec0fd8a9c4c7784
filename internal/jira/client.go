// Package jira fetches issue search results and changelogs from the Jira REST API.
package jira

import (
	"fmt"
	"net/http"
	"time"

	gojira "github.com/andygrunwald/go-jira"
	"go.uber.org/zap"
)

// SearchAPI selects which search endpoint Search pages through.
type SearchAPI string

const (
	// SearchLegacy is GET /rest/api/2/search, paged by startAt/maxResults/total.
	SearchLegacy SearchAPI = "legacy"
	// SearchEnhanced is POST /rest/api/3/search/jql, paged by nextPageToken.
	SearchEnhanced SearchAPI = "enhanced"
)

// MaxPageSize is the largest page Jira will return.
const MaxPageSize = 1000

// changelogPageSize is the page size used for issue changelogs.
const changelogPageSize = 100

// Fields requested for each issue.
var Fields = []string{"summary", "assignee", "status", "issuetype", "project", "created", "updated", "resolutiondate"}

// Options configure a Client.
type Options struct {
	BaseURL  string
	Email    string
	APIToken string
	API      SearchAPI
	Timeout  time.Duration
	Logger   *zap.Logger

	// Transport overrides the underlying round tripper; nil uses http.DefaultTransport.
	Transport http.RoundTripper
}

// Client talks to one Jira site with basic auth. A Client is not safe for concurrent use.
type Client struct {
	api  *gojira.Client
	mode SearchAPI
	log  *zap.Logger
}

// NewClient creates a Client for the site at opts.BaseURL.
func NewClient(opts Options) (*Client, error) {
	tp := gojira.BasicAuthTransport{
		Username:  opts.Email,
		Password:  opts.APIToken,
		Transport: opts.Transport,
	}
	httpClient := tp.Client()
	httpClient.Timeout = opts.Timeout

	api, err := gojira.NewClient(httpClient, opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("create jira client: %w", err)
	}

	mode := opts.API
	if mode == "" {
		mode = SearchLegacy
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{api: api, mode: mode, log: log}, nil
}
