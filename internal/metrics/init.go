package metrics

// Label values pre-populated by InitializeMetrics so every series is exported
// from the first scrape.
var (
	Formats       = []string{"png", "jpeg", "webp"}
	FileOutcomes  = []string{"processed", "duplicate", "unchanged", "skipped", "error"}
	ErrorKinds    = []string{"io", "unsupported", "malformed", "storage"}
	TagCategories = []string{"style", "subject", "technique", "quality", "model", "negative"}
)

// InitializeMetrics pre-populates all expected label combinations.
// Call this once at startup.
func InitializeMetrics() {
	for _, state := range []string{"idle", "failed"} {
		ScanRunsTotal.WithLabelValues(state)
	}
	for _, outcome := range FileOutcomes {
		ScanFilesTotal.WithLabelValues(outcome)
	}
	for _, kind := range ErrorKinds {
		ScanFileErrorsTotal.WithLabelValues(kind)
	}

	for _, format := range Formats {
		ExtractionTotal.WithLabelValues(format, "ok")
		ExtractionTotal.WithLabelValues(format, "malformed")
		ExtractionDuration.WithLabelValues(format)
	}

	for _, source := range []string{"parameters", "comfyui", "novelai", "exif", "xmp", "comment"} {
		PromptsParsedTotal.WithLabelValues(source)
	}
	for _, category := range TagCategories {
		TagsDerivedTotal.WithLabelValues(category)
		LibraryTagsTotal.WithLabelValues(category)
	}

	for _, file := range []string{"main", "wal", "shm"} {
		DBSizeBytes.WithLabelValues(file)
	}

	volumes := []string{"scan", "database", "unknown"}
	for _, op := range []string{"stat", "open"} {
		for _, vol := range volumes {
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}

	for _, op := range []string{"initialize_schema", "find_image_by_path", "find_image_by_hash",
		"find_collection_by_path", "load_extraction", "touch_image", "commit_ingest",
		"record_scan_root", "list_collections", "stats"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}
	for _, result := range []string{"commit", "rollback"} {
		DBTransactionDuration.WithLabelValues(result)
	}
}
