/*
Package workers sizes and runs the bounded goroutine pools used to scan the
cache directory.

Worker counts come from GOMAXPROCS, so container CPU limits are respected:

	n := workers.ForIO(16) // 2 per CPU, at most 16

The SCAN_WORKERS environment variable overrides the computed count (still
capped by the limit).

Each fans a slice of items out to a pool and stops dispatching once the
context is cancelled:

	err := workers.Each(ctx, n, paths, func(ctx context.Context, p string) {
		// inspect p
	})
*/
package workers
