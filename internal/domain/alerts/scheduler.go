// Package alerts runs the background notification evaluator.
package alerts

import (
	"context"
	"log/slog"
	"time"

	"github.com/pennyvault/pennyvault/internal/domain/ingest/repository"
	"github.com/pennyvault/pennyvault/internal/domain/ingest/service"
	"github.com/pennyvault/pennyvault/pkg/observability"
)

// Evaluator computes alert conditions over the ledger.
type Evaluator interface {
	Evaluate(ctx context.Context) error
}

// Scheduler runs the evaluator on a fixed interval. A cycle is skipped
// entirely while an import batch is in flight, so alerts never fire off a
// half-imported ledger.
type Scheduler struct {
	interval  time.Duration
	guard     *service.ImportGuard
	evaluator Evaluator
	logger    *slog.Logger
}

// NewScheduler creates a new alert scheduler
func NewScheduler(interval time.Duration, guard *service.ImportGuard, evaluator Evaluator, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		interval:  interval,
		guard:     guard,
		evaluator: evaluator,
		logger:    logger,
	}
}

// Run blocks until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("alert scheduler started", slog.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("alert scheduler stopped")
			return
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

func (s *Scheduler) runCycle(ctx context.Context) {
	if s.guard.Active() {
		observability.SchedulerCyclesSkipped.Inc()
		s.logger.Debug("skipping alert cycle, import in progress")
		return
	}

	if err := s.evaluator.Evaluate(ctx); err != nil {
		s.logger.Error("alert evaluation failed", slog.Any("error", err))
	}
}

// ActivityEvaluator flags unusually large daily transaction volume. A real
// deployment would fan out to the notification transport; here it only logs,
// the transport being an external collaborator.
type ActivityEvaluator struct {
	repo      repository.LedgerRepository
	threshold int64
	logger    *slog.Logger
}

// NewActivityEvaluator creates a new activity evaluator
func NewActivityEvaluator(repo repository.LedgerRepository, threshold int64, logger *slog.Logger) *ActivityEvaluator {
	return &ActivityEvaluator{repo: repo, threshold: threshold, logger: logger}
}

// Evaluate counts transactions posted in the last day and logs when the
// volume crosses the threshold.
func (e *ActivityEvaluator) Evaluate(ctx context.Context) error {
	since := time.Now().AddDate(0, 0, -1)
	count, err := e.repo.CountTransactionsSince(ctx, since)
	if err != nil {
		return err
	}

	if count >= e.threshold {
		e.logger.Info("high transaction volume detected",
			slog.Int64("count", count),
			slog.Int64("threshold", e.threshold))
	}
	return nil
}
