// Package metrics provides Prometheus instrumentation for the asset extractor.
//
// All metrics are registered with the default Prometheus registry through
// promauto and are prefixed with "rbx_extract_".
//
// # Metric Categories
//
// ## Listing
//
//   - ListingRunsTotal: Counter of listing passes by outcome (completed/preempted)
//   - ListingLastRunDuration: Gauge of the last completed pass duration
//   - AssetsListedTotal: Counter of emitted assets by origin and category
//   - ListingIsRunning: Gauge indicating if a listing pass is active
//
// ## Extraction
//
//   - ExtractionsTotal: Counter of written assets by category and status
//   - ExtractedBytesTotal: Counter of payload bytes written
//   - DecompressionsTotal: Counter of zstd decode attempts by status
//   - SignatureMissesTotal: Counter of slices that fell back to the raw buffer
//   - TaskIsRunning: Gauge indicating if an extract or clear task is active
//   - CacheClearsTotal: Counter of backend clears by origin and status
//   - SwapCopyTotal: Counter of swap/copy requests by operation and status
//
// ## Database
//
//   - DBQueryTotal, DBQueryDuration: per-operation query counts and latency
//   - DBTransactionDuration: swap/copy transaction latency by outcome
//   - DBConnectionState: Gauge of the connection state
//
// ## Filesystem
//
// Retry counters and durations for cache directory reads that hit transient
// errors, labelled by operation and volume ("cache", "output").
//
// # Collector
//
// [Collector] periodically samples a [StatsProvider] (the engine) and updates
// the index and task gauges:
//
//	collector := metrics.NewCollector(statsProvider, 15*time.Second)
//	collector.Start()
//	defer collector.Stop()
//
// # Usage
//
// Mount promhttp.Handler() on the control server to expose them:
//
//	r.Handle("/metrics", promhttp.Handler())
package metrics
