package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/worked/internal/jira"
	"github.com/joescharf/worked/internal/models"
)

// ---------------------------------------------------------------------------
// Mock implementations
// ---------------------------------------------------------------------------

// mockFetcher implements report.Fetcher for testing.
type mockFetcher struct {
	issues  []models.Issue
	changes map[string][]models.AssigneeChange

	// Track calls for verification.
	queries  []string
	pageSize int

	// Optional error injection.
	searchErr error
}

func (m *mockFetcher) Search(_ context.Context, q string, pageSize int) ([]models.Issue, error) {
	m.queries = append(m.queries, q)
	m.pageSize = pageSize
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.issues, nil
}

func (m *mockFetcher) AssigneeChanges(_ context.Context, key string) ([]models.AssigneeChange, error) {
	return m.changes[key], nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// callToolReq builds a mcpgo.CallToolRequest with the given name and arguments.
func callToolReq(name string, args map[string]any) mcpgo.CallToolRequest {
	return mcpgo.CallToolRequest{
		Params: mcpgo.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

// resultText extracts the concatenated text from a CallToolResult.
func resultText(t *testing.T, result *mcpgo.CallToolResult) string {
	t.Helper()
	var b strings.Builder
	for _, c := range result.Content {
		tc, ok := c.(mcpgo.TextContent)
		if ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}

func baseArgs() map[string]any {
	return map[string]any{
		"users": "alice, Bob Smith",
		"from":  "2025-07-01",
		"to":    "2025-07-31",
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestMCPServer_RegistersTools(t *testing.T) {
	srv := NewServer(&mockFetcher{}, 100, "test")
	require.NotNil(t, srv.MCPServer())

	tool, _ := srv.buildJQLTool()
	assert.Equal(t, "jira_build_jql", tool.Name)
	tool, _ = srv.workedIssuesTool()
	assert.Equal(t, "jira_worked_issues", tool.Name)
	assert.Contains(t, tool.InputSchema.Required, "users")
}

func TestHandleBuildJQL(t *testing.T) {
	srv := NewServer(&mockFetcher{}, 100, "test")

	args := baseArgs()
	args["projects"] = "TBR,IONG"
	result, err := srv.handleBuildJQL(context.Background(), callToolReq("jira_build_jql", args))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	text := resultText(t, result)
	assert.True(t, strings.HasPrefix(text, `assignee WAS IN (alice, "Bob Smith") DURING ("2025-07-01", "2025-07-31")`), text)
	assert.Contains(t, text, "project in (TBR, IONG)")
}

func TestHandleBuildJQL_Errors(t *testing.T) {
	srv := NewServer(&mockFetcher{}, 100, "test")

	t.Run("missing users", func(t *testing.T) {
		args := baseArgs()
		delete(args, "users")
		result, err := srv.handleBuildJQL(context.Background(), callToolReq("jira_build_jql", args))
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, resultText(t, result), "users")
	})

	t.Run("bad date", func(t *testing.T) {
		args := baseArgs()
		args["from"] = "July 1st"
		result, err := srv.handleBuildJQL(context.Background(), callToolReq("jira_build_jql", args))
		require.NoError(t, err)
		assert.True(t, result.IsError)
	})

	t.Run("reversed window", func(t *testing.T) {
		args := baseArgs()
		args["from"] = "2025-08-01"
		result, err := srv.handleBuildJQL(context.Background(), callToolReq("jira_build_jql", args))
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, resultText(t, result), "invalid filter")
	})
}

func TestHandleWorkedIssues(t *testing.T) {
	m := &mockFetcher{issues: []models.Issue{
		{Key: "TEST-1", Summary: "Fix login", Assignee: "Alice", Status: "Done", Type: "Bug",
			Created: time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC), Updated: time.Date(2025, 7, 3, 0, 0, 0, 0, time.UTC)},
	}}
	srv := NewServer(m, 250, "test")

	result, err := srv.handleWorkedIssues(context.Background(), callToolReq("jira_worked_issues", baseArgs()))
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))

	var out struct {
		JQL    string         `json:"jql"`
		Issues []models.Issue `json:"issues"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &out))
	require.Len(t, out.Issues, 1)
	assert.Equal(t, "TEST-1", out.Issues[0].Key)
	assert.Nil(t, out.Issues[0].Window)
	require.Len(t, m.queries, 1)
	assert.Equal(t, m.queries[0], out.JQL)
	assert.Equal(t, 250, m.pageSize)
}

func TestHandleWorkedIssues_AssigneeHistory(t *testing.T) {
	m := &mockFetcher{issues: []models.Issue{{Key: "TEST-1", Assignee: "Alice", AssigneeAccountID: "a"}}}
	srv := NewServer(m, 100, "test")

	args := baseArgs()
	args["assignee_history"] = true
	result, err := srv.handleWorkedIssues(context.Background(), callToolReq("jira_worked_issues", args))
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))
	assert.Contains(t, resultText(t, result), `"matched":"Alice"`)
}

func TestHandleWorkedIssues_AuthError(t *testing.T) {
	m := &mockFetcher{searchErr: &jira.Error{Kind: jira.ErrAuth, Op: "search", Status: 401}}
	srv := NewServer(m, 100, "test")

	result, err := srv.handleWorkedIssues(context.Background(), callToolReq("jira_worked_issues", baseArgs()))
	require.NoError(t, err, "tool failures are reported in the result, not as transport errors")
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "JIRA_API_TOKEN")
}
