// Package ingest coordinates scans: it walks a root, runs every candidate
// file through sniffing, hashing, decoding, prompt parsing, tagging and
// collection assignment, and commits one unit per file to the store.
//
// A Coordinator runs at most one scan at a time. Its state moves from idle
// to scanning and back to idle when the walk is exhausted or stopped, or to
// failed when the store stops answering. A failure confined to one file is
// counted and logged, and the scan moves on.
package ingest
