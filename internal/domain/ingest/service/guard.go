package service

import "sync/atomic"

// ImportGuard signals that an import batch is in flight. The alert scheduler
// polls it to avoid evaluating a half-imported ledger. A counter rather than
// a flag, so overlapping imports against different accounts keep the signal
// raised until the last one finishes.
type ImportGuard struct {
	active atomic.Int64
}

// NewImportGuard returns a guard shared between the import service and the
// alert scheduler.
func NewImportGuard() *ImportGuard {
	return &ImportGuard{}
}

// Begin raises the in-progress signal and returns the release function. The
// caller must invoke release exactly once, typically via defer, so the
// signal drops on every exit path.
func (g *ImportGuard) Begin() (release func()) {
	g.active.Add(1)
	var done atomic.Bool
	return func() {
		if done.CompareAndSwap(false, true) {
			g.active.Add(-1)
		}
	}
}

// Active reports whether any import is currently in flight.
func (g *ImportGuard) Active() bool {
	return g.active.Load() > 0
}
