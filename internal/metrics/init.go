package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, job := range []string{"scan", "phash"} {
		JobRunning.WithLabelValues(job)
		JobWorkers.WithLabelValues(job)
		JobLastRunDuration.WithLabelValues(job)
		JobLastRunTimestamp.WithLabelValues(job)
		for _, status := range []string{"completed", "cancelled", "failed"} {
			JobRunsTotal.WithLabelValues(job, status)
		}
		for _, outcome := range []string{"written", "dropped", "failed", "write_failed", "discarded"} {
			JobItemsTotal.WithLabelValues(job, outcome)
		}
	}

	for _, reason := range []string{"missing_root", "symlink_escape", "walk_error"} {
		ScanDiscoveryWarnings.WithLabelValues(reason)
	}

	for _, action := range []string{"skip", "hash_only", "full_probe"} {
		ScanGateDecisions.WithLabelValues(action)
	}

	for _, reason := range []string{"error", "timeout", "no_metadata"} {
		ProbeFailures.WithLabelValues(reason)
	}

	PhashFramesTotal.WithLabelValues("success")
	PhashFramesTotal.WithLabelValues("error")
	PhashResultsTotal.WithLabelValues("hashed")
	PhashResultsTotal.WithLabelValues("no_hash")

	volumes := []string{"media", "database", "unknown"}
	for _, op := range []string{"stat", "open"} {
		for _, vol := range volumes {
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}

	for _, category := range []string{"video", "audio", "vr"} {
		MediaFilesTotal.WithLabelValues(category)
	}
	MediaFilesHashed.WithLabelValues("quick")
	MediaFilesHashed.WithLabelValues("phash")

	for _, op := range []string{"initialize_schema", "is_unchanged", "needs_hash_only",
		"get_file_by_path", "upsert_media_record", "upsert_quick_hash", "upsert_quick_hash_by_path",
		"upsert_perceptual_hash", "list_unhashed_videos", "start_run", "finish_run", "fail_run",
		"get_run", "latest_run", "library_stats"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}
}
