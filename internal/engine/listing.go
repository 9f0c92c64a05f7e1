package engine

import (
	"context"
	"errors"
	"time"

	"rbx-extract/internal/assettypes"
	"rbx-extract/internal/locale"
	"rbx-extract/internal/logging"
	"rbx-extract/internal/metrics"
)

// Refresh starts a listing pass for category and returns its handle. A pass
// already running is told to stop; the new pass starts once it has exited.
// Of several refreshes issued back to back only the last one runs.
func (e *Engine) Refresh(category assettypes.Category) *Task {
	gen := e.requestListing()
	return startTask(func() error {
		return e.runListing(gen, category)
	})
}

// RefreshSync runs a listing pass and waits for it.
func (e *Engine) RefreshSync(category assettypes.Category) error {
	return e.Refresh(category).Wait()
}

// requestListing claims a new generation and signals any running pass.
func (e *Engine) requestListing() uint64 {
	e.listMu.Lock()
	defer e.listMu.Unlock()

	e.listGen++
	if e.listRunning {
		e.stopRequested = true
		if e.listCancel != nil {
			e.listCancel()
		}
	}
	return e.listGen
}

// stale reports whether the pass of generation gen must stop.
func (e *Engine) stale(gen uint64) bool {
	e.listMu.Lock()
	defer e.listMu.Unlock()
	return e.stopRequested || gen != e.listGen
}

// beginListing waits for the running pass to exit, then marks gen as running.
func (e *Engine) beginListing(gen uint64) (context.Context, error) {
	e.listMu.Lock()
	defer e.listMu.Unlock()

	for e.listRunning {
		if gen != e.listGen {
			return nil, ErrPreempted
		}
		e.listCond.Wait()
	}
	if gen != e.listGen {
		return nil, ErrPreempted
	}

	ctx, cancel := context.WithCancel(e.base)
	e.listRunning = true
	e.stopRequested = false
	e.listCancel = cancel
	metrics.ListingIsRunning.Set(1)
	return ctx, nil
}

func (e *Engine) endListing() {
	e.listMu.Lock()
	defer e.listMu.Unlock()

	if e.listCancel != nil {
		e.listCancel()
		e.listCancel = nil
	}
	e.listRunning = false
	metrics.ListingIsRunning.Set(0)
	e.listCond.Broadcast()
}

func (e *Engine) runListing(gen uint64, category assettypes.Category) error {
	ctx, err := e.beginListing(gen)
	if err != nil {
		metrics.ListingRunsTotal.WithLabelValues("preempted").Inc()
		logging.Debug("Listing of %s superseded before it started", category)
		return err
	}
	defer e.endListing()

	start := time.Now()
	logging.Info("Listing %s assets...", category)

	e.clearIndex()

	gate := func() bool { return !e.stale(gen) }
	rep := reporter{e: e, gate: gate}
	emit := func(a assettypes.AssetInfo) {
		if !gate() {
			return
		}
		e.appendIndex(a)
		if e.onEmit != nil {
			e.onEmit(a)
		}
	}

	for _, src := range e.sources {
		if !gate() {
			break
		}
		if err := src.Enumerate(ctx, category, rep, emit); err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			logging.Error("Failed to list %s assets from %s: %v", category, src.Origin(), err)
		}
	}

	if !gate() {
		metrics.ListingRunsTotal.WithLabelValues("preempted").Inc()
		logging.Debug("Listing of %s stopped by a newer refresh", category)
		return ErrPreempted
	}

	duration := time.Since(start)
	metrics.ListingRunsTotal.WithLabelValues("completed").Inc()
	metrics.ListingLastRunDuration.Set(duration.Seconds())
	logging.Info("Listed %d %s assets in %v", len(e.Index()), category, duration)

	e.setStatus(locale.Idling)
	return nil
}
