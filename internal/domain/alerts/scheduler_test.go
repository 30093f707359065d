package alerts

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/pennyvault/pennyvault/internal/domain/ingest/service"
)

type countingEvaluator struct {
	calls chan struct{}
}

func (e *countingEvaluator) Evaluate(ctx context.Context) error {
	select {
	case e.calls <- struct{}{}:
	default:
	}
	return nil
}

func TestScheduler_RunsEvaluator(t *testing.T) {
	guard := service.NewImportGuard()
	eval := &countingEvaluator{calls: make(chan struct{}, 1)}
	sched := NewScheduler(time.Millisecond, guard, eval, slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sched.Run(ctx)

	select {
	case <-eval.calls:
	case <-time.After(time.Second):
		t.Fatal("evaluator was never invoked")
	}
}

func TestScheduler_SkipsWhileImportInFlight(t *testing.T) {
	guard := service.NewImportGuard()
	eval := &countingEvaluator{calls: make(chan struct{}, 1)}
	sched := NewScheduler(time.Millisecond, guard, eval, slog.New(slog.DiscardHandler))

	release := guard.Begin()
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sched.Run(ctx)

	select {
	case <-eval.calls:
		t.Fatal("evaluator ran while an import was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	// Releasing the guard lets the next cycle through.
	release()
	select {
	case <-eval.calls:
	case <-time.After(time.Second):
		t.Fatal("evaluator did not resume after the import finished")
	}
}
