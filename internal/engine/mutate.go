package engine

import (
	"context"
	"errors"
	"fmt"

	"rbx-extract/internal/assettypes"
	"rbx-extract/internal/locale"
	"rbx-extract/internal/logging"
	"rbx-extract/internal/metrics"
	"rbx-extract/internal/source"
)

// ClearCache deletes the content of every source, then resets the index to
// the "no files" placeholder whatever the outcome. A failing source does not
// stop the others. It returns a finished task with ErrBusy when a mutating
// task is already running.
func (e *Engine) ClearCache() *Task {
	if !e.tryStartTask() {
		logging.Warn("Clear skipped: %v", ErrBusy)
		return doneTask(ErrBusy)
	}

	return startTask(func() error {
		defer e.finishTask()

		var errs []error
		rep := reporter{e: e}
		for _, src := range e.sources {
			origin := src.Origin().String()
			if err := src.Clear(e.base, rep); err != nil {
				metrics.CacheClearsTotal.WithLabelValues(origin, "error").Inc()
				logging.Error("Failed to clear %s cache: %v", origin, err)
				errs = append(errs, fmt.Errorf("clear %s: %w", origin, err))
				continue
			}
			metrics.CacheClearsTotal.WithLabelValues(origin, "success").Inc()
			logging.Info("Cleared %s cache", origin)
		}

		e.clearIndex()
		e.appendIndex(e.noFiles())
		e.setStatus(locale.Idling)
		return errors.Join(errs...)
	})
}

// SwapAssets exchanges the content of a and b. Every source is tried; the
// call succeeds if any source succeeds.
func (e *Engine) SwapAssets(ctx context.Context, a, b assettypes.AssetInfo) error {
	return e.mutatePair(ctx, "swap", locale.Swapped, a, b, source.Source.Swap)
}

// CopyAssets replaces the content of b with that of a. Every source is
// tried; the call succeeds if any source succeeds.
func (e *Engine) CopyAssets(ctx context.Context, a, b assettypes.AssetInfo) error {
	return e.mutatePair(ctx, "copy", locale.Copied, a, b, source.Source.Copy)
}

type pairOp func(src source.Source, ctx context.Context, a, b assettypes.AssetInfo) error

func (e *Engine) mutatePair(ctx context.Context, op, doneKey string, a, b assettypes.AssetInfo, fn pairOp) error {
	var errs []error
	// Sources reject assets of another origin, so at most one can succeed
	// and stopping at it leaves the others untouched either way.
	for _, src := range e.sources {
		err := fn(src, ctx, a, b)
		if err == nil {
			metrics.SwapCopyTotal.WithLabelValues(op, "success").Inc()
			logging.Info("%s %s -> %s in %s source", op, a.Name, b.Name, src.Origin())
			e.setStatus(doneKey, a.Name, b.Name)
			return nil
		}
		errs = append(errs, fmt.Errorf("%s source: %w", src.Origin(), err))
	}

	metrics.SwapCopyTotal.WithLabelValues(op, "error").Inc()
	err := errors.Join(errs...)
	if err == nil {
		err = source.ErrNoConnection
	}
	logging.Error("Error opening file for %s of %s and %s: %v", op, a.Name, b.Name, err)
	e.setStatus(locale.FailedOpeningFile)
	return err
}
