package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joescharf/worked/internal/jql"
)

var jqlCmd = &cobra.Command{
	Use:   "jql",
	Short: "Print the JQL for a filter without contacting Jira",
	Long: `Print the JQL the report would run, so it can be pasted into Jira's
issue search. No credentials are needed.`,
	Example: `  worked jql --users "Alice Example" --from 2025-07-01 --to 2025-07-31 --project TBR`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return jqlRun()
	},
}

func init() {
	addFilterFlags(jqlCmd)
	rootCmd.AddCommand(jqlCmd)
}

func jqlRun() error {
	spec, err := filterSpec()
	if err != nil {
		return err
	}
	q, err := jql.Build(spec)
	if err != nil {
		return err
	}
	fmt.Fprintln(ui.Out, q)
	return nil
}
