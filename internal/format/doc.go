// Package format classifies image files by container format.
//
// It is a dependency-free foundation that the scanner, the extractors and the
// ingestion coordinator all import without creating cycles.
//
// # Sniffing
//
// Classification is by magic number, never by extension:
//
//	PNG   89 50 4E 47 0D 0A 1A 0A
//	JPEG  FF D8 FF
//	WebP  "RIFF" <size> "WEBP"
//
// Sniff needs at most SniffLen bytes. Anything else is FormatUnknown, which
// callers treat as a skip rather than an error.
//
// # Extensions
//
// Extensions only decide which files the scanner offers as candidates:
//
//	ext := strings.ToLower(filepath.Ext(name))
//	if format.IsCandidate(ext) {
//	    // hand the path to the pipeline, which sniffs the content
//	}
package format
