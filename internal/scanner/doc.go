// Package scanner walks a scan root and streams candidate image files.
//
// The walk is lazy: candidates are sent to a bounded channel as they are
// found, so consumers can start before the tree has been fully listed.
// Hidden entries, unreadable entries and files whose extension is not a
// known image extension are skipped. Unreadable entries are counted but
// never fail the walk.
package scanner
