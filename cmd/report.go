package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joescharf/worked/internal/config"
	"github.com/joescharf/worked/internal/export"
	"github.com/joescharf/worked/internal/jql"
	"github.com/joescharf/worked/internal/llm"
	"github.com/joescharf/worked/internal/models"
	"github.com/joescharf/worked/internal/output"
	"github.com/joescharf/worked/internal/report"
)

// Filter flags, shared by the root command and `worked jql`.
var (
	filterUsers        string
	filterFrom         string
	filterTo           string
	filterProjects     string
	filterExtra        string
	filterInProgress   string
	filterUseAccountID bool
)

// Report flags.
var (
	reportCSV             string
	reportJSON            string
	reportPageSize        int
	reportAssigneeHistory bool
	reportSummary         bool
)

// summaryWidth caps the Summary column of the console table.
const summaryWidth = 60

type summarizer interface {
	Summarize(ctx context.Context, in llm.SummaryInput, issues []models.Issue) (string, error)
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&filterUsers, "users", "", "Comma-separated display names, usernames, or account ids (required)")
	cmd.Flags().StringVar(&filterFrom, "from", "", "Window start date, YYYY-MM-DD (inclusive, required)")
	cmd.Flags().StringVar(&filterTo, "to", "", "Window end date, YYYY-MM-DD (inclusive, required)")
	cmd.Flags().StringVar(&filterProjects, "project", "", "Comma-separated project keys, e.g. TBR,IONG")
	cmd.Flags().StringVar(&filterExtra, "extra-jql", "", "Extra JQL ANDed onto the query, e.g. 'issuetype in (Bug, Story)'")
	cmd.Flags().StringVar(&filterInProgress, "in-progress-statuses", "", "Comma-separated statuses that also count as work, e.g. 'In Progress,In Review'")
	cmd.Flags().BoolVar(&filterUseAccountID, "use-accountid", false, "Treat --users as Jira account ids")
	_ = cmd.MarkFlagRequired("users")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
}

func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&reportCSV, "csv", "", "Also write the issues to this CSV file")
	cmd.Flags().StringVar(&reportJSON, "json", "", "Also write the issues to this JSON file")
	cmd.Flags().IntVar(&reportPageSize, "page-size", 100, "Issues requested per search page (1-1000)")
	cmd.Flags().BoolVar(&reportAssigneeHistory, "assignee-history", false, "Show who held each issue during the window (one extra request per issue)")
	cmd.Flags().BoolVar(&reportSummary, "summary", false, "Print an AI-written summary of the report (needs ANTHROPIC_API_KEY)")
}

// filterSpec builds a FilterSpec from the filter flags. Unparseable dates are
// configuration errors, everything else is checked by jql.Build.
func filterSpec() (jql.FilterSpec, error) {
	from, err := jql.ParseDate(filterFrom)
	if err != nil {
		return jql.FilterSpec{}, fmt.Errorf("%w: --from: %w", config.ErrConfiguration, err)
	}
	to, err := jql.ParseDate(filterTo)
	if err != nil {
		return jql.FilterSpec{}, fmt.Errorf("%w: --to: %w", config.ErrConfiguration, err)
	}
	return jql.FilterSpec{
		People:             jql.SplitList(filterUsers),
		From:               from,
		To:                 to,
		Projects:           jql.SplitList(filterProjects),
		Extra:              filterExtra,
		UseAccountID:       filterUseAccountID,
		InProgressStatuses: jql.SplitList(filterInProgress),
	}, nil
}

func reportRun(ctx context.Context) error {
	spec, err := filterSpec()
	if err != nil {
		return err
	}

	if dryRun {
		q, err := jql.Build(spec)
		if err != nil {
			return err
		}
		ui.DryRunMsg("Would search Jira with:")
		fmt.Fprintln(ui.Out, q)
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var sum summarizer
	if reportSummary {
		if sum = newLLMClient(cfg); sum == nil {
			return fmt.Errorf("%w: --summary needs ANTHROPIC_API_KEY (set env var or anthropic.api_key in config)", config.ErrConfiguration)
		}
	}

	f, err := newFetcher(cfg)
	if err != nil {
		return err
	}

	res, err := report.Run(ctx, f, spec, report.Options{
		PageSize:        cfg.PageSize,
		AssigneeHistory: reportAssigneeHistory,
		Progress: func(done, total int) {
			ui.VerboseLog("assignee history %d/%d", done, total)
		},
	})
	if err != nil {
		return err
	}

	printReport(res, reportAssigneeHistory)

	if reportCSV != "" {
		if err := export.WriteFile(reportCSV, export.FormatCSV, res.Issues); err != nil {
			return err
		}
		ui.Success("CSV written: %s", reportCSV)
	}
	if reportJSON != "" {
		if err := export.WriteFile(reportJSON, export.FormatJSON, res.Issues); err != nil {
			return err
		}
		ui.Success("JSON written: %s", reportJSON)
	}

	if sum != nil {
		text, err := sum.Summarize(ctx, llm.SummaryInput{
			People: spec.People,
			From:   filterFrom,
			To:     filterTo,
			JQL:    res.JQL,
		}, res.Issues)
		if err != nil {
			return fmt.Errorf("summary: %w", err)
		}
		fmt.Fprintln(ui.Out)
		fmt.Fprintln(ui.Out, text)
	}
	return nil
}

func printReport(res *report.Result, withWindow bool) {
	ui.Info("JQL: %s", res.JQL)
	ui.Info("Total issues: %d", len(res.Issues))
	if len(res.Issues) == 0 {
		return
	}
	fmt.Fprintln(ui.Out)

	headers := []string{"KEY", "TYPE", "STATUS", "ASSIGNEE", "UPDATED", "SUMMARY"}
	if withWindow {
		headers = append(headers, "IN WINDOW")
	}
	table := ui.Table(headers)
	for _, is := range res.Issues {
		updated := ""
		if !is.Updated.IsZero() {
			updated = is.Updated.Format(jql.DateLayout)
		}
		row := []string{
			output.Cyan(is.Key),
			output.TypeColor(is.Type),
			output.StatusColor(is.Status),
			is.Assignee,
			updated,
			output.Truncate(is.Summary, summaryWidth),
		}
		if withWindow {
			row = append(row, windowCell(is.Window))
		}
		_ = table.Append(row)
	}
	_ = table.Render()
}

// windowCell lists the holders during the window, marking matched users in green.
func windowCell(w *models.AssigneeWindow) string {
	if w == nil || len(w.Holders) == 0 {
		return "-"
	}
	matched := make(map[string]bool)
	for _, m := range jql.SplitList(w.Matched) {
		matched[m] = true
	}
	names := make([]string, 0, len(w.Holders))
	for _, h := range w.Holders {
		name := h.Name
		if name == "" {
			name = h.ID
		}
		if name == "" {
			name = "Unassigned"
		} else if matched[name] {
			name = output.Green(name)
		}
		names = append(names, name)
	}
	return strings.Join(names, ", ")
}
