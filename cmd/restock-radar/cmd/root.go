package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/restock-radar/restock-radar/internal/config"
	"github.com/restock-radar/restock-radar/internal/logger"
	"github.com/restock-radar/restock-radar/internal/service/checker"
	"github.com/restock-radar/restock-radar/internal/version"
)

var (
	// configPath stores the path to the configuration YAML file.
	configPath string
	// stateFile optionally overrides the snapshot file from configuration.
	stateFile string
	// watchlist optionally narrows monitoring to the given product aliases.
	watchlist []string
	// dryRun skips notification sending while still fetching and persisting.
	dryRun bool
	// logLevel sets the minimum severity written to stderr.
	logLevel string

	// rootCmd represents the base command for a single stock check cycle.
	rootCmd = &cobra.Command{
		Use:   "restock-radar",
		Short: "Check product stock and email alerts on availability changes.",
		Long: `Stock monitor that polls the Amul shop API and emails alerts on changes.

Runs one check cycle: fetches current stock, compares it against the last
persisted snapshot, prints a status table, and sends email notifications for
products that came back in stock or sold out. The new snapshot is persisted
so the next run only reports fresh transitions.

Schedule this with cron or a systemd timer for continuous monitoring.
SMTP credentials are read from the SMTP_USERNAME and SMTP_PASSWORD
environment variables or a local .env file, never from the settings file.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			applyLogLevel()

			checkerOptions := &checker.Options{
				ConfigPath: configPath,
				StateFile:  stateFile,
				Watchlist:  watchlist,
				DryRun:     dryRun,
			}

			return checker.Run(ctx, checkerOptions)
		},
	}

	// notifyTestCmd sends a low-priority test email to verify SMTP settings.
	notifyTestCmd = &cobra.Command{
		Use:   "notify-test",
		Short: "Send a test email to verify notification settings.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			applyLogLevel()

			return checker.RunNotifyTest(ctx, configPath)
		},
	}
)

// Execute runs the restock-radar CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// applyLogLevel adjusts the global logger from the --log-level flag.
// Unknown values keep the default level so a typo never silences the run.
func applyLogLevel() {
	if level, ok := logger.ParseLogLevel(logLevel); ok {
		logger.SetLevel(level)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().StringVarP(&configPath,
		"config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel,
		"log-level", "info", "minimum log level (debug, info, warn, error)")

	rootCmd.Flags().StringVar(&stateFile, "state-file", "", "override snapshot file path")
	rootCmd.Flags().StringSliceVar(&watchlist, "watch", nil, "monitor only the given product aliases")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "report changes without sending notifications")

	rootCmd.AddCommand(notifyTestCmd)
}
