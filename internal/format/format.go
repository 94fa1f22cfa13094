package format

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// Format is a recognized image container.
type Format string

const (
	// FormatPNG is a Portable Network Graphics file.
	FormatPNG Format = "png"
	// FormatJPEG is a JFIF/EXIF JPEG file.
	FormatJPEG Format = "jpeg"
	// FormatWebP is a RIFF WebP file.
	FormatWebP Format = "webp"
	// FormatUnknown is anything else.
	FormatUnknown Format = "unknown"
)

// SniffLen is the number of leading bytes Sniff inspects.
const SniffLen = 12

// ErrUnsupportedFormat reports a file whose content matched no known format.
var ErrUnsupportedFormat = errors.New("unsupported image format")

var (
	pngSignature = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
	jpegPrefix   = []byte{0xFF, 0xD8, 0xFF}
)

// PNGSignature returns a copy of the 8-byte PNG file signature.
func PNGSignature() []byte {
	return append([]byte(nil), pngSignature...)
}

// Sniff classifies a file from its leading bytes. Short input is fine; it
// simply cannot match the longer signatures.
func Sniff(prefix []byte) Format {
	switch {
	case bytes.HasPrefix(prefix, pngSignature):
		return FormatPNG
	case bytes.HasPrefix(prefix, jpegPrefix):
		return FormatJPEG
	case len(prefix) >= 12 && string(prefix[0:4]) == "RIFF" && string(prefix[8:12]) == "WEBP":
		return FormatWebP
	default:
		return FormatUnknown
	}
}

// SniffReader reads up to SniffLen bytes from the start of r and classifies them.
func SniffReader(r io.ReaderAt) (Format, error) {
	buf := make([]byte, SniffLen)
	n, err := r.ReadAt(buf, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return FormatUnknown, fmt.Errorf("read header: %w", err)
	}
	return Sniff(buf[:n]), nil
}

// CandidateExtensions maps lowercase extensions (with the dot) to the format
// the file usually holds.
var CandidateExtensions = map[string]Format{
	".png":  FormatPNG,
	".jpg":  FormatJPEG,
	".jpeg": FormatJPEG,
	".webp": FormatWebP,
}

// MimeTypes maps formats to their MIME types.
var MimeTypes = map[Format]string{
	FormatPNG:  "image/png",
	FormatJPEG: "image/jpeg",
	FormatWebP: "image/webp",
}

// IsCandidate returns true if the extension is one the scanner should offer.
// The extension should be lowercase and include the leading dot.
func IsCandidate(ext string) bool {
	_, ok := CandidateExtensions[ext]
	return ok
}

// GetMimeType returns the MIME type for a format, or
// "application/octet-stream" if it is not recognized.
func GetMimeType(f Format) string {
	if mime, ok := MimeTypes[f]; ok {
		return mime
	}
	return "application/octet-stream"
}

// String implements fmt.Stringer.
func (f Format) String() string {
	return string(f)
}
