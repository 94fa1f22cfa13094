// Package metrics provides Prometheus instrumentation for the image decoder.
//
// All metrics are registered with the default registry via promauto and are
// prefixed with "ai_image_decoder_".
//
// # Metric Categories
//
// ## HTTP Metrics
//
//   - HTTPRequestsTotal: requests by method, path and status
//   - HTTPRequestDuration: request duration by method and path
//   - HTTPRequestsInFlight: requests currently being served
//
// ## Database Metrics
//
//   - DBQueryTotal / DBQueryDuration: queries by operation
//   - DBTransactionDuration: per-file ingest transactions by result
//   - DBConnectionsOpen: open connections
//   - DBSizeBytes: SQLite file sizes (main, WAL, SHM)
//
// ## Scan Metrics
//
//   - ScanRunsTotal: finished scans by terminal state
//   - ScanConflictsTotal: start requests rejected while busy
//   - ScanRunning, ScanLastRunTimestamp, ScanLastRunDuration
//   - ScanFilesDiscovered, ScanEntriesUnreadable
//   - ScanFilesTotal: files by outcome (processed, duplicate, unchanged, skipped, error)
//   - ScanFileErrorsTotal: failures by kind (io, unsupported, malformed, storage)
//   - ScanFileDuration: per-file pipeline time
//
// ## Extraction Metrics
//
//   - ExtractionTotal / ExtractionDuration: container decodes by format
//   - PromptsParsedTotal: resolved prompts by source layout
//   - TagsDerivedTotal: derived tag links by category
//
// ## Library Metrics
//
// Refreshed by [Collector] from a [StatsProvider]:
//   - LibraryImagesTotal, LibraryPromptsTotal, LibraryCollectionsTotal
//   - LibraryTagsTotal by category
//
// ## Filesystem Metrics
//
// Recorded through [NewFilesystemObserver] for NFS stale-handle retries.
//
// # Usage
//
//	mux.Handle("/metrics", promhttp.Handler())
//
//	collector := metrics.NewCollector(db, dbPath, time.Minute)
//	collector.Start()
//	defer collector.Stop()
//
// Files ingested per second by outcome:
//
//	sum(rate(ai_image_decoder_scan_files_total[5m])) by (outcome)
//
// P95 decode latency by format:
//
//	histogram_quantile(0.95, sum(rate(ai_image_decoder_extraction_duration_seconds_bucket[5m])) by (le, format))
package metrics
