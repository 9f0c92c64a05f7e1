package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rbx_extract_http_requests_total",
			Help: "Total number of control server requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rbx_extract_http_request_duration_seconds",
			Help:    "Control server request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rbx_extract_http_requests_in_flight",
			Help: "Number of control server requests currently being served",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rbx_extract_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rbx_extract_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"operation"},
	)

	DBTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rbx_extract_db_transaction_duration_seconds",
			Help:    "Duration of swap/copy transactions in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"outcome"}, // "commit", "rollback"
	)

	DBConnectionState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rbx_extract_db_connection_open",
			Help: "Whether the cache database connection is open (1 = open, 0 = closed)",
		},
	)
)

// Listing metrics
var (
	ListingRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rbx_extract_listing_runs_total",
			Help: "Total number of listing passes by outcome",
		},
		[]string{"outcome"}, // "completed", "preempted"
	)

	ListingLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rbx_extract_listing_last_run_duration_seconds",
			Help: "Duration of the last completed listing pass in seconds",
		},
	)

	AssetsListedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rbx_extract_assets_listed_total",
			Help: "Total number of assets emitted by listing passes",
		},
		[]string{"origin", "category"},
	)

	ListingIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rbx_extract_listing_running",
			Help: "Whether a listing pass is currently running (1 = running, 0 = idle)",
		},
	)
)

// Extraction metrics
var (
	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rbx_extract_extractions_total",
			Help: "Total number of assets extracted to disk by status",
		},
		[]string{"category", "status"},
	)

	ExtractedBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rbx_extract_extracted_bytes_total",
			Help: "Total number of payload bytes written by extractions",
		},
	)

	DecompressionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rbx_extract_decompressions_total",
			Help: "Total number of zstd decompression attempts by status",
		},
		[]string{"status"}, // "success", "failed"
	)

	SignatureMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rbx_extract_signature_misses_total",
			Help: "Total number of payload slices that fell back to the unmodified buffer",
		},
	)

	TaskIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rbx_extract_task_running",
			Help: "Whether a mutating task (extract or clear) is running (1 = running, 0 = idle)",
		},
	)

	CacheClearsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rbx_extract_cache_clears_total",
			Help: "Total number of backend cache clears by origin and status",
		},
		[]string{"origin", "status"},
	)

	SwapCopyTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rbx_extract_swap_copy_total",
			Help: "Total number of swap/copy requests by operation and status",
		},
		[]string{"operation", "status"},
	)
)

// Index metrics
var (
	IndexSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rbx_extract_index_size",
			Help: "Number of entries in the shared asset index",
		},
	)

	FilteredIndexSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rbx_extract_filtered_index_size",
			Help: "Number of entries in the filtered asset index",
		},
	)

	IndexProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rbx_extract_progress_ratio",
			Help: "Progress of the current operation (0.0-1.0)",
		},
	)
)

// Preview metrics
var (
	PreviewGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rbx_extract_preview_generations_total",
			Help: "Total number of preview thumbnails rendered by status",
		},
		[]string{"format", "status"},
	)

	PreviewGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rbx_extract_preview_generation_duration_seconds",
			Help:    "Preview thumbnail rendering duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)
)

// Filesystem metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rbx_extract_filesystem_retry_attempts_total",
			Help: "Total number of filesystem operation retries after transient errors",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rbx_extract_filesystem_retry_success_total",
			Help: "Total number of filesystem operations that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rbx_extract_filesystem_retry_failures_total",
			Help: "Total number of filesystem operations that failed after all retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemTransientErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rbx_extract_filesystem_transient_errors_total",
			Help: "Total number of transient filesystem errors observed",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rbx_extract_filesystem_retry_duration_seconds",
			Help:    "Duration of filesystem operations including retries",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"operation", "volume"},
	)
)

// AppInfo exposes build information as labels.
var AppInfo = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "rbx_extract_app_info",
		Help: "Application build information",
	},
	[]string{"version", "commit", "go_version"},
)
