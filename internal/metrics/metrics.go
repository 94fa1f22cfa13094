package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_image_decoder_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_image_decoder_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ai_image_decoder_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_image_decoder_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_image_decoder_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_image_decoder_db_transaction_duration_seconds",
			Help:    "Database transaction duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"result"}, // "commit" or "rollback"
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ai_image_decoder_db_connections_open",
			Help: "Number of open database connections",
		},
	)

	DBSizeBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ai_image_decoder_db_size_bytes",
			Help: "Size of SQLite database files in bytes",
		},
		[]string{"file"}, // "main", "wal", "shm"
	)
)

// Scan metrics
var (
	ScanRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_image_decoder_scan_runs_total",
			Help: "Total number of scans by terminal state",
		},
		[]string{"state"}, // "idle", "failed"
	)

	ScanConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ai_image_decoder_scan_conflicts_total",
			Help: "Scan start requests rejected because a scan was already running",
		},
	)

	ScanRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ai_image_decoder_scan_running",
			Help: "Whether a scan is currently running (1 = running, 0 = idle)",
		},
	)

	ScanLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ai_image_decoder_scan_last_run_timestamp",
			Help: "Unix timestamp of the last scan completion",
		},
	)

	ScanLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ai_image_decoder_scan_last_run_duration_seconds",
			Help: "Duration of the last scan in seconds",
		},
	)

	ScanFilesDiscovered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ai_image_decoder_scan_files_discovered_total",
			Help: "Candidate files emitted by the directory scanner",
		},
	)

	ScanEntriesUnreadable = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ai_image_decoder_scan_entries_unreadable_total",
			Help: "Directory entries skipped because they could not be read",
		},
	)

	ScanFilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_image_decoder_scan_files_total",
			Help: "Files handled by the ingest pipeline by outcome",
		},
		[]string{"outcome"}, // processed, duplicate, unchanged, skipped, error
	)

	ScanFileErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_image_decoder_scan_file_errors_total",
			Help: "Per-file failures by kind",
		},
		[]string{"kind"}, // io, unsupported, malformed, storage
	)

	ScanFileDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ai_image_decoder_scan_file_duration_seconds",
			Help:    "Time spent ingesting a single file",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)
)

// Extraction metrics
var (
	ExtractionTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_image_decoder_extraction_total",
			Help: "Container decodes by format and status",
		},
		[]string{"format", "status"}, // status: ok, malformed
	)

	ExtractionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_image_decoder_extraction_duration_seconds",
			Help:    "Container decode duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"format"},
	)

	PromptsParsedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_image_decoder_prompts_parsed_total",
			Help: "Prompts resolved from metadata by source layout",
		},
		[]string{"source"},
	)

	TagsDerivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_image_decoder_tags_derived_total",
			Help: "Tag links derived from prompts and settings by category",
		},
		[]string{"category"},
	)
)

// Library metrics
var (
	LibraryImagesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ai_image_decoder_library_images_total",
			Help: "Total number of image records",
		},
	)

	LibraryPromptsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ai_image_decoder_library_prompts_total",
			Help: "Total number of prompt records",
		},
	)

	LibraryTagsTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ai_image_decoder_library_tags_total",
			Help: "Total number of tags by category",
		},
		[]string{"category"},
	)

	LibraryCollectionsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ai_image_decoder_library_collections_total",
			Help: "Total number of collections",
		},
	)
)

// Filesystem metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_image_decoder_filesystem_retry_attempts_total",
			Help: "Retries after a stale NFS file handle",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_image_decoder_filesystem_retry_success_total",
			Help: "Operations that succeeded after at least one retry",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_image_decoder_filesystem_retry_failures_total",
			Help: "Operations that failed after exhausting retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_image_decoder_filesystem_retry_duration_seconds",
			Help:    "Total time spent in a retried filesystem operation",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_image_decoder_filesystem_stale_errors_total",
			Help: "ESTALE errors observed",
		},
		[]string{"operation", "volume"},
	)
)

// Memory backpressure metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ai_image_decoder_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ai_image_decoder_memory_paused",
			Help: "Whether scan workers are held for memory (1) or not (0)",
		},
	)

	MemoryGCPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ai_image_decoder_memory_gc_pauses_total",
			Help: "Times scan workers were paused for memory",
		},
	)
)

// HTTPRateLimitedTotal counts requests rejected by the API rate limiter.
var HTTPRateLimitedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ai_image_decoder_http_rate_limited_total",
		Help: "Requests rejected with 429 Too Many Requests",
	},
	[]string{"path"},
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ai_image_decoder_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
