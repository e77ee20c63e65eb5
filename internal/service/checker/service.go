package checker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/restock-radar/restock-radar/internal/config"
	"github.com/restock-radar/restock-radar/internal/domain/stock"
	"github.com/restock-radar/restock-radar/internal/logger"
	"github.com/restock-radar/restock-radar/internal/notifier"
	state "github.com/restock-radar/restock-radar/internal/repository/state"
	"github.com/restock-radar/restock-radar/internal/retry"
	"github.com/restock-radar/restock-radar/internal/source"
)

// Service runs one stock check cycle: load state, fetch, diff, notify,
// persist, report. Collaborators are injected so tests can substitute
// doubles for the source and the notifier.
type Service struct {
	// cfg is the validated run configuration.
	cfg *config.Config
	// repo persists the snapshot between runs.
	repo state.Repository
	// src fetches current product states.
	src source.StockSource
	// sender delivers notifications; nil disables sending for this run.
	sender notifier.Notifier
	// out receives the human-readable status table (stdout in production).
	out io.Writer
}

// NewService wires a checker service from its collaborators.
func NewService(
	cfg *config.Config,
	repo state.Repository,
	src source.StockSource,
	sender notifier.Notifier,
	out io.Writer,
) *Service {
	return &Service{
		cfg:    cfg,
		repo:   repo,
		src:    src,
		sender: sender,
		out:    out,
	}
}

// Execute performs the run.
//
// Only two conditions fail the run: the fetch exhausting its retries and
// external cancellation. Notification and persistence failures are logged
// with remediation hints and the run still completes, because the next
// run's baseline matters more than this run's delivery.
func (s *Service) Execute(ctx context.Context) error {
	started := time.Now()

	// Step 1: previous snapshot; any load failure degrades to a cold start.
	previous := s.loadPrevious(ctx)

	// Step 2: current stock. Nothing to diff or notify without it.
	products, err := s.fetchCurrent(ctx)
	if err != nil {
		return err
	}

	current := stock.SnapshotOf(products)

	logger.InfoKV(ctx, "State comparison",
		"previous_products", len(previous),
		"previous_in_stock", previous.InStockCount(),
		"current_products", len(current),
		"current_in_stock", current.InStockCount())

	// Step 3: classify transitions.
	newlyInStock, newlyOutOfStock := stock.Diff(previous, current)

	// Step 4: status table for the operator.
	s.printStatus(products, newlyInStock, newlyOutOfStock)

	// Step 5: alerts. Failures must not block persistence.
	if err := s.sendAlerts(ctx, newlyInStock, newlyOutOfStock); err != nil {
		return err
	}

	// Step 6: persist the new baseline, always.
	s.persist(ctx, current)

	logger.InfoKV(ctx, "Run complete",
		"total", len(current),
		"in_stock", current.InStockCount(),
		"newly_in_stock", len(newlyInStock),
		"newly_out_of_stock", len(newlyOutOfStock),
		"duration", time.Since(started).String())

	return nil
}

// loadPrevious returns the last persisted snapshot, degrading to an empty
// one when the state cannot be read.
func (s *Service) loadPrevious(ctx context.Context) stock.Snapshot {
	previous, err := s.repo.Load(ctx)
	if err != nil {
		logger.WarnKV(ctx, "Failed to load previous state, starting with empty snapshot",
			"error", err,
			"hint", "inspect or delete the state file if it is corrupt")

		return stock.Snapshot{}
	}

	return previous
}

// fetchCurrent retrieves the current product states with the API retry policy.
func (s *Service) fetchCurrent(ctx context.Context) ([]stock.Product, error) {
	if s.cfg.SelectiveMonitoring() {
		logger.InfoKV(ctx, "Selective monitoring enabled",
			"watched_products", len(s.cfg.WatchedProducts))
	} else {
		logger.Info(ctx, "Monitoring all products")
	}

	logger.InfoKV(ctx, "Fetching current stock data", "source", s.src.Name())

	products, err := retry.Do(ctx, retry.ForAPICalls(), "stock fetch from "+s.src.Name(),
		func(ctx context.Context) ([]stock.Product, error) {
			return s.src.Fetch(ctx, s.cfg.WatchedProducts)
		})
	if err != nil {
		if errors.Is(err, retry.ErrCancelled) {
			return nil, err
		}

		logger.ErrorKV(ctx, "Failed to fetch stock data",
			"error", err,
			"hint", "check connectivity and whether the shop API is reachable")

		return nil, fmt.Errorf("fetch stock data: %w", err)
	}

	if len(products) == 0 {
		logger.Warn(ctx, "Source returned no products; nothing will be notified this run")
	}

	return products, nil
}

// sendAlerts delivers one restock and one sold-out notification as needed.
// Only external cancellation is propagated; delivery failures are logged
// and the run continues to persistence.
func (s *Service) sendAlerts(ctx context.Context, newlyInStock, newlyOutOfStock []stock.Product) error {
	if s.sender == nil {
		if len(newlyInStock) > 0 || len(newlyOutOfStock) > 0 {
			logger.WarnKV(ctx, "Stock changes detected but notifications are off",
				"newly_in_stock", len(newlyInStock), "newly_out_of_stock", len(newlyOutOfStock))
		}

		return nil
	}

	if len(newlyInStock) == 0 && len(newlyOutOfStock) == 0 {
		logger.Info(ctx, "No stock changes detected, no notifications sent")
		return nil
	}

	recipients := s.cfg.Email.Recipients

	if len(newlyInStock) > 0 {
		alert := notifier.NewRestockAlert(recipients, newlyInStock)
		if err := s.deliver(ctx, "restock alert", alert); err != nil {
			return err
		}
	}

	if len(newlyOutOfStock) > 0 {
		alert := notifier.NewSoldOutAlert(recipients, newlyOutOfStock)
		if err := s.deliver(ctx, "sold-out alert", alert); err != nil {
			return err
		}
	}

	return nil
}

// deliver sends one notification under the email retry policy.
func (s *Service) deliver(ctx context.Context, label string, alert notifier.Notification) error {
	err := retry.DoVoid(ctx, retry.ForEmailDelivery(), label, func(ctx context.Context) error {
		return s.sender.Send(ctx, alert)
	})
	if err == nil {
		logger.InfoKV(ctx, "Notification sent",
			"kind", label, "recipients", len(alert.Recipients), "products", len(alert.Products))

		return nil
	}

	if errors.Is(err, retry.ErrCancelled) {
		return err
	}

	logger.ErrorKV(ctx, "Failed to send notification",
		"kind", label,
		"error", err,
		"affected_products", productNames(alert.Products),
		"hint", "check SMTP settings and credentials; changes will not be re-alerted")

	return nil
}

// persist saves the new baseline; a failure is non-fatal but warns about
// duplicate notifications on the next run.
func (s *Service) persist(ctx context.Context, current stock.Snapshot) {
	if err := s.repo.Save(ctx, current); err != nil {
		logger.ErrorKV(ctx, "Failed to save state",
			"error", err,
			"hint", "check file permissions and disk space; notifications may repeat next run")
	}
}

// printStatus writes the human-readable stock table to the status stream.
func (s *Service) printStatus(products []stock.Product, newlyInStock, newlyOutOfStock []stock.Product) {
	if s.out == nil {
		return
	}

	if s.cfg.SelectiveMonitoring() {
		fmt.Fprintf(s.out, "Selective monitoring: %d watched product(s)\n\n", len(s.cfg.WatchedProducts))
	} else {
		fmt.Fprintf(s.out, "Full monitoring: all protein products\n\n")
	}

	inStock := 0

	for _, product := range products {
		fmt.Fprintln(s.out, product.Summary())

		if product.InStock() {
			inStock++
		}
	}

	fmt.Fprintf(s.out, "\n=== Current Stock Summary ===\n")
	fmt.Fprintf(s.out, "Total products monitored: %d\n", len(products))
	fmt.Fprintf(s.out, "Currently in stock: %d\n", inStock)
	fmt.Fprintf(s.out, "Currently out of stock: %d\n", len(products)-inStock)
	fmt.Fprintf(s.out, "Newly in stock: %d\n", len(newlyInStock))
	fmt.Fprintf(s.out, "Newly out of stock: %d\n", len(newlyOutOfStock))
}

// productNames projects products onto their display names for log entries.
func productNames(products []stock.Product) []string {
	names := make([]string, 0, len(products))
	for _, product := range products {
		names = append(names, product.Name)
	}

	return names
}
