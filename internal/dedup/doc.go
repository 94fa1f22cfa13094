// Package dedup decides, from a file's path and content hash, how much of the
// ingestion pipeline a file needs.
//
//	path known, same hash       Unchanged: refresh last_scanned_at only
//	path known, hash differs    Changed:   extract again and replace
//	path unknown                New:       extract, or copy from a known hash
//
// For Changed and New files Index.Extract runs the decoder at most once per
// hash: a hash already stored is copied from the store, and concurrent workers
// holding the same hash share one decode through singleflight. Extractions
// that finished but are not committed yet are held until Committed is called
// so a later worker cannot slip in between.
//
// Hashes are hex BLAKE2b-256 over the raw file bytes.
package dedup
