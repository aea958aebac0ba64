package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_indexer_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_indexer_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_indexer_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_indexer_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_indexer_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_indexer_db_connections_open",
			Help: "Number of open database connections",
		},
	)
)

// Job metrics. The "job" label is the job kind: "scan" or "phash".
var (
	JobRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_indexer_job_runs_total",
			Help: "Total number of job runs by final status",
		},
		[]string{"job", "status"}, // completed, cancelled, failed
	)

	JobRunning = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_indexer_job_running",
			Help: "Whether a job of this kind is currently running (1 = running, 0 = idle)",
		},
		[]string{"job"},
	)

	JobItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_indexer_job_items_total",
			Help: "Total number of job items by outcome",
		},
		[]string{"job", "outcome"}, // written, dropped, failed, write_failed, discarded
	)

	JobWorkers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_indexer_job_workers",
			Help: "Number of workers used by the most recent run of this job kind",
		},
		[]string{"job"},
	)

	JobLastRunDuration = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_indexer_job_last_run_duration_seconds",
			Help: "Duration of the last run of this job kind in seconds",
		},
		[]string{"job"},
	)

	JobLastRunTimestamp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_indexer_job_last_run_timestamp",
			Help: "Unix timestamp of the end of the last run of this job kind",
		},
		[]string{"job"},
	)
)

// Scan metrics
var (
	ScanCandidates = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_indexer_scan_candidates",
			Help: "Number of candidate files discovered by the most recent scan",
		},
	)

	ScanDiscoveryWarnings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_indexer_scan_discovery_warnings_total",
			Help: "Total number of files or directories skipped during discovery",
		},
		[]string{"reason"}, // missing_root, symlink_escape, walk_error
	)

	ScanGateDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_indexer_scan_gate_decisions_total",
			Help: "Total number of change-gate decisions by action",
		},
		[]string{"action"}, // skip, hash_only, full_probe
	)
)

// Probe metrics
var (
	ProbeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_indexer_probe_duration_seconds",
			Help:    "Duration of external metadata probes in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	ProbeFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_indexer_probe_failures_total",
			Help: "Total number of failed metadata probes",
		},
		[]string{"reason"}, // error, timeout, no_metadata
	)
)

// Hash metrics
var (
	QuickHashDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_indexer_quick_hash_duration_seconds",
			Help:    "Duration of quick hash computations in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	PhashDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_indexer_phash_duration_seconds",
			Help:    "Duration of perceptual hash computations in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	PhashFramesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_indexer_phash_frames_total",
			Help: "Total number of sampled frames by extraction status",
		},
		[]string{"status"}, // success, error
	)

	PhashResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_indexer_phash_results_total",
			Help: "Total number of perceptual hash attempts by result",
		},
		[]string{"result"}, // hashed, no_hash
	)
)

// Filesystem metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_indexer_filesystem_retry_attempts_total",
			Help: "Total number of filesystem operation retries after stale NFS handles",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_indexer_filesystem_retry_success_total",
			Help: "Total number of filesystem operations that succeeded after a retry",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_indexer_filesystem_retry_failures_total",
			Help: "Total number of filesystem operations that failed after all retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_indexer_filesystem_stale_errors_total",
			Help: "Total number of ESTALE errors observed",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_indexer_filesystem_retry_duration_seconds",
			Help:    "Total duration of filesystem operations including retries",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"operation", "volume"},
	)
)

// Library metrics, refreshed by the Collector
var (
	MediaFilesTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_indexer_media_files_total",
			Help: "Number of indexed media files by category",
		},
		[]string{"category"},
	)

	MediaFilesHashed = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_indexer_media_files_hashed",
			Help: "Number of indexed media files carrying a hash, by hash kind",
		},
		[]string{"kind"}, // quick, phash
	)

	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_indexer_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
