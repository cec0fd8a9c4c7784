package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/joescharf/worked/internal/config"
	"github.com/joescharf/worked/internal/jira"
	"github.com/joescharf/worked/internal/output"
	"github.com/joescharf/worked/internal/report"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui *output.UI

	verbose bool
	dryRun  bool

	// configErr holds a config file read failure, reported by loadConfig.
	configErr error
)

var rootCmd = &cobra.Command{
	Use:   "worked --users <names> --from <date> --to <date>",
	Short: "Report the Jira issues a set of people worked on in a date window",
	Long: `worked asks Jira which issues were assigned to the given people while
their status changed during a date window, prints them as a table and
optionally exports them to CSV or JSON.

Credentials come from JIRA_BASE_URL, JIRA_EMAIL and JIRA_API_TOKEN
(or base_url, email and api_token in ~/.config/worked/config.yaml).`,
	Example: `  worked --users "Alice Example,bob" --from 2025-07-01 --to 2025-07-31
  worked --users 5b10ac8d82e05b22cc7d4ef5 --use-accountid --from 2025-07-01 --to 2025-07-31 \
      --project TBR,IONG --extra-jql 'issuetype in (Bug, Story)' --csv july.csv`,
	Args:              cobra.NoArgs,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, jira.ErrAuth) {
			fmt.Fprintf(os.Stderr, "Hint: %s\n", jira.AuthHint)
		}
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return reportRun(cmd.Context())
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output, including HTTP request logs")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "Print the JQL without contacting Jira")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/worked/config.yaml)")

	addFilterFlags(rootCmd)
	addReportFlags(rootCmd)
}

func initConfig() {
	config.SetDefaults(viper.GetViper())
	_ = viper.BindPFlag("page_size", rootCmd.Flags().Lookup("page-size"))

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	configErr = readConfig(cfgFile)
}

// readConfig reads cfgFile when set. Otherwise it reads config.yaml from the config
// dir, which may be absent.
func readConfig(cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", cfgFile, err)
		}
		return nil
	}

	dir, err := configDirFunc()
	if err != nil {
		return fmt.Errorf("cannot find home directory: %w", err)
	}
	viper.AddConfigPath(dir)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	err = viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err == nil || errors.As(err, &notFound) {
		return nil
	}
	return fmt.Errorf("read config: %w", err)
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose
	ui.DryRun = dryRun
}

// loadConfig resolves and validates settings. It never touches the network.
func loadConfig() (config.Config, error) {
	if configErr != nil {
		return config.Config{}, fmt.Errorf("%w: %w", config.ErrConfiguration, configErr)
	}
	return config.Load(viper.GetViper())
}

// newLogger returns a debug console logger with --verbose and a no-op logger otherwise.
func newLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	cfg.OutputPaths = []string{"stderr"}
	lggr, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return lggr
}

// newFetcher builds the Jira client, replaceable in tests.
var newFetcher = func(cfg config.Config) (report.Fetcher, error) {
	return jira.NewClient(jira.Options{
		BaseURL:  cfg.BaseURL,
		Email:    cfg.Email,
		APIToken: cfg.APIToken,
		API:      cfg.SearchAPI,
		Timeout:  cfg.Timeout,
		Logger:   newLogger(),
	})
}

// defaultConfigDir returns ~/.config/worked.
func defaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "worked"), nil
}
