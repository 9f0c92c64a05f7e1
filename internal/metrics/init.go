package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, outcome := range []string{"completed", "preempted"} {
		ListingRunsTotal.WithLabelValues(outcome)
	}

	origins := []string{"directory", "database"}
	categories := []string{"music", "sounds", "images", "ktx", "rbxm", "all"}

	for _, origin := range origins {
		for _, category := range categories {
			AssetsListedTotal.WithLabelValues(origin, category)
		}
		for _, status := range []string{"success", "error"} {
			CacheClearsTotal.WithLabelValues(origin, status)
		}
	}

	for _, category := range categories {
		for _, status := range []string{"success", "error"} {
			ExtractionsTotal.WithLabelValues(category, status)
		}
	}

	for _, status := range []string{"success", "failed"} {
		DecompressionsTotal.WithLabelValues(status)
	}

	for _, op := range []string{"swap", "copy"} {
		for _, status := range []string{"success", "error"} {
			SwapCopyTotal.WithLabelValues(op, status)
		}
	}

	for _, outcome := range []string{"commit", "rollback"} {
		DBTransactionDuration.WithLabelValues(outcome)
	}

	for _, format := range []string{"png", "webp", "unknown"} {
		for _, status := range []string{"success", "error"} {
			PreviewGenerationsTotal.WithLabelValues(format, status)
		}
	}

	volumes := []string{"cache", "output", "unknown"}
	for _, op := range []string{"stat", "read", "write"} {
		for _, vol := range volumes {
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemTransientErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}
}
