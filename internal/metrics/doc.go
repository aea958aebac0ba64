// Package metrics provides Prometheus instrumentation for the media indexer.
//
// All metrics are prefixed with "media_indexer_" and registered with the
// default registry through promauto.
//
// # Metric Categories
//
// ## Jobs
//
// Both long-running job kinds (label job="scan" and job="phash") report:
//   - JobRunsTotal: runs by final status (completed, cancelled, failed)
//   - JobRunning: 1 while a run is active
//   - JobItemsTotal: items by outcome (written, dropped, failed, discarded)
//   - JobWorkers, JobLastRunDuration, JobLastRunTimestamp
//
// ## Scan pipeline
//
//   - ScanCandidates: files discovered by the latest scan
//   - ScanDiscoveryWarnings: skipped roots and symlink escapes
//   - ScanGateDecisions: skip / hash_only / full_probe decisions
//   - ProbeDuration, ProbeFailures: external metadata probing
//   - QuickHashDuration, PhashDuration, PhashFramesTotal, PhashResultsTotal
//
// ## Infrastructure
//
//   - HTTP request totals, durations and in-flight gauge
//   - Database query totals and durations, open connections
//   - Filesystem retry counters for stale NFS handles (via NewFilesystemObserver)
//
// ## Library
//
// MediaFilesTotal and MediaFilesHashed are refreshed periodically by a
// Collector reading from a StatsProvider (the database).
//
// Call InitializeMetrics once at startup so every label combination is
// exported from the first scrape.
package metrics
