// Package extraction decodes the metadata containers of PNG, JPEG and WebP
// files into raw key/value fields.
//
// Every format has a Reader. Readers walk the container directly through an
// io.ReaderAt and never decode pixel data; only pixel dimensions that sit in
// a fixed header are reported.
//
// # Field Sources
//
//	PNG   tEXt, zTXt, iTXt keyword/text pairs        source generation
//	JPEG  COM segment                                key "Comment", source generation
//	JPEG  APP1 "Exif\0\0"                            source exif
//	JPEG  APP1 XMP packet                            source xmp
//	WebP  "EXIF" and "XMP " chunks                   source exif / xmp
//
// EXIF tags kept: ImageDescription, UserComment, Make, Model. From XMP only
// dc:description is kept, found by string search rather than XML parsing, so
// it is a best-effort reading.
//
// # Damaged Files
//
// A declared chunk or segment length is checked against the bytes remaining
// before anything is read. When the walk hits something it cannot trust it
// stops and returns the fields decoded so far together with an error wrapping
// ErrMalformedContainer. Callers keep the partial Result.
//
// Duplicate keys are resolved first-wins: once a (key, source) pair has been
// seen, later occurrences in the same file are ignored.
package extraction
