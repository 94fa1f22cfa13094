// Package database provides the SQLite store for ingested images.
//
// It holds:
//   - image records keyed by absolute path, with content hash and dimensions
//   - raw extracted fields, parsed prompts and generation settings
//   - categorized tags and their links to images
//   - folder-backed collections and their membership
//   - the roots that have been scanned
//
// Each ingested file is written by [Database.CommitIngest] as one
// transaction. The database uses WAL mode so readers are not blocked while
// a scan commits, and write transactions are serialized in-process.
package database
