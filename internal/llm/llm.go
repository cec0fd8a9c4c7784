package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/joescharf/worked/internal/models"
)

// maxPromptIssues caps how many issues are listed in a single prompt.
const maxPromptIssues = 500

// SummaryInput describes the report being summarized.
type SummaryInput struct {
	People []string
	From   string
	To     string
	JQL    string
}

// Client wraps the Anthropic API for report summaries.
type Client struct {
	api   *anthropic.Client
	model anthropic.Model
}

// NewClient creates an LLM client with the given API key and model.
func NewClient(apiKey, model string) *Client {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	client := anthropic.NewClient(opts...)
	return &Client{
		api:   &client,
		model: anthropic.Model(model),
	}
}

// buildSummaryPrompt constructs the system and user prompts for a worked-on summary.
func buildSummaryPrompt(in SummaryInput, issues []models.Issue) (system string, user string) {
	system = `You summarize Jira activity for a status report. You are given the people the report covers, a date window, and the issues they worked on during it.

Write a short plain-text summary:
- One paragraph per person, starting with their name followed by a colon
- Group related issues into themes instead of listing every key
- Mention issue keys in parentheses when you reference specific work
- Call out anything still in progress or blocked at the end of each paragraph
- If a person has no issues, say so in one sentence

Rules:
- Only use information present in the issue list; never invent work
- No markdown headings, tables, or code fencing
- Keep the whole summary under 300 words`

	var sb strings.Builder
	fmt.Fprintf(&sb, "People: %s\n", strings.Join(in.People, ", "))
	fmt.Fprintf(&sb, "Window: %s to %s (inclusive)\n", in.From, in.To)
	if in.JQL != "" {
		fmt.Fprintf(&sb, "Query: %s\n", in.JQL)
	}
	fmt.Fprintf(&sb, "\nIssues (%d):\n", len(issues))

	for i, is := range issues {
		if i == maxPromptIssues {
			fmt.Fprintf(&sb, "... and %d more not listed\n", len(issues)-maxPromptIssues)
			break
		}
		who := is.Assignee
		if is.Window != nil && is.Window.Names != "" {
			who = is.Window.Names
		}
		fmt.Fprintf(&sb, "- %s [%s, %s] %s (assignee: %s)\n", is.Key, is.Type, is.Status, is.Summary, who)
	}
	user = sb.String()
	return
}

// Summarize sends the report to the LLM and returns a narrative summary.
func (c *Client) Summarize(ctx context.Context, in SummaryInput, issues []models.Issue) (string, error) {
	systemPrompt, userPrompt := buildSummaryPrompt(in, issues)

	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API call: %w", err)
	}

	// Extract text from response
	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}

	text = stripFence(text)
	if text == "" {
		return "", fmt.Errorf("no text content in API response")
	}
	return text, nil
}

// stripFence removes a surrounding markdown code fence if present.
func stripFence(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		lines := strings.SplitN(text, "\n", 2)
		if len(lines) > 1 {
			text = lines[1]
		} else {
			text = ""
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}
	return text
}
