package checker

import (
	"context"
	"fmt"
	"os"

	"github.com/restock-radar/restock-radar/internal/config"
	"github.com/restock-radar/restock-radar/internal/logger"
	"github.com/restock-radar/restock-radar/internal/notifier"
	state "github.com/restock-radar/restock-radar/internal/repository/state"
	"github.com/restock-radar/restock-radar/internal/runlock"
	"github.com/restock-radar/restock-radar/internal/source"
)

// Options controls a single stock check run.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// StateFile provides an optional snapshot file path override.
	StateFile string
	// Watchlist provides an optional product alias override for this run.
	Watchlist []string
	// DryRun skips notification sending while still fetching and persisting.
	DryRun bool
}

// Run executes one complete check cycle and returns an error only for
// conditions that should fail the scheduled run: configuration problems,
// an overlapping run, fetch exhaustion or cancellation.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "restock-radar")

	// Load settings from configuration file.
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	// Command line overrides win over config values.
	if opts.StateFile != "" {
		cfg.StateFile = opts.StateFile
	}

	if len(opts.Watchlist) > 0 {
		cfg.WatchedProducts = opts.Watchlist
	}

	// Refuse to run while a previous run against the same state is alive.
	lock, err := runlock.Acquire(ctx, cfg.StateFile+".pid")
	if err != nil {
		return err
	}

	defer lock.Release(ctx)

	src, err := source.NewAmulSource(cfg.Source)
	if err != nil {
		return fmt.Errorf("initialise stock source: %w", err)
	}

	repo := state.NewFileRepository(cfg.StateFile)
	sender := buildNotifier(ctx, cfg, opts.DryRun)

	return NewService(cfg, repo, src, sender, os.Stdout).Execute(ctx)
}

// buildNotifier constructs the email notifier for this run, or nil when
// notifications cannot or should not be sent. A missing or broken channel
// never fails the run: the state diff and persistence still matter.
func buildNotifier(ctx context.Context, cfg *config.Config, dryRun bool) notifier.Notifier {
	if dryRun {
		logger.Info(ctx, "Dry run, notifications disabled")
		return nil
	}

	if !cfg.Email.Enabled {
		logger.Info(ctx, "Email notifications are disabled in configuration")
		return nil
	}

	if len(cfg.Email.Recipients) == 0 {
		logger.Warn(ctx, "No recipients configured, skipping notifications")
		return nil
	}

	creds, err := config.LoadCredentials()
	if err != nil {
		logger.WarnKV(ctx, "Notifications skipped", "error", err)
		return nil
	}

	sender, err := notifier.NewEmailNotifier(cfg.Email, creds)
	if err != nil {
		logger.WarnKV(ctx, "Notifications skipped", "error", err)
		return nil
	}

	logger.InfoKV(ctx, "Email notifier configured", "settings", cfg.Email.Summary())

	return sender
}

// RunNotifyTest sends the low-priority test notification to verify the
// delivery channel end to end.
func RunNotifyTest(ctx context.Context, configPath string) error {
	ctx = logger.WithName(ctx, "notify-test")

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if !cfg.Email.Enabled {
		return fmt.Errorf("email notifications are disabled in %s", configPath)
	}

	creds, err := config.LoadCredentials()
	if err != nil {
		return err
	}

	sender, err := notifier.NewEmailNotifier(cfg.Email, creds)
	if err != nil {
		return err
	}

	if err := sender.Send(ctx, notifier.NewTestNotification(cfg.Email.Recipients)); err != nil {
		return fmt.Errorf("send test notification: %w", err)
	}

	logger.InfoKV(ctx, "Test notification sent", "recipients", len(cfg.Email.Recipients))

	return nil
}
