// Package logging provides a simple leveled logging interface for the
// image decoder.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information (per-chunk salvage, dedup hits)
//   - INFO: General operational messages (scan start/finish)
//   - WARN: Per-file failures that do not stop a scan
//   - ERROR: Coordinator-level faults
//   - FATAL: Fatal errors that terminate the application
//
// The log level is configured via the LOG_LEVEL environment variable, or
// DEBUG=true. Components that log a lot (scan workers, extractors, the
// database layer) use a Logger created with New so every line carries the
// component name.
package logging
