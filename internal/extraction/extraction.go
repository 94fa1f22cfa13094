package extraction

import (
	"errors"
	"fmt"
	"io"

	"ai-image-decoder/internal/format"
	"ai-image-decoder/internal/logging"
	"ai-image-decoder/internal/model"
)

// ErrMalformedContainer reports a container that could only be partly walked.
var ErrMalformedContainer = errors.New("malformed container")

const (
	// maxTextPayload bounds a single text chunk or metadata chunk held in memory.
	maxTextPayload = 16 << 20
	// maxInflated bounds the decompressed size of a zTXt/iTXt chunk.
	maxInflated = 16 << 20
)

var log = logging.New("extract")

// Result is what a Reader recovered from one file.
type Result struct {
	Format   format.Format
	Fields   []model.ExtractedField
	Width    int
	Height   int
	Warnings []string
}

// Field returns the first value stored under key, regardless of source.
func (r *Result) Field(key string) (string, bool) {
	for _, f := range r.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Reader decodes the metadata of one container format.
type Reader interface {
	Format() format.Format
	// Read returns whatever it could decode. A non-nil Result may come with an
	// error wrapping ErrMalformedContainer.
	Read(r io.ReaderAt, size int64) (*Result, error)
}

var readers = map[format.Format]Reader{
	format.FormatPNG:  pngReader{},
	format.FormatJPEG: jpegReader{},
	format.FormatWebP: webpReader{},
}

// ReaderFor returns the Reader for a sniffed format.
func ReaderFor(f format.Format) (Reader, bool) {
	rd, ok := readers[f]
	return rd, ok
}

// Extract sniffs r and runs the matching Reader. Unknown content yields
// format.ErrUnsupportedFormat and a nil Result. A panic inside a reader is
// converted to ErrMalformedContainer.
func Extract(r io.ReaderAt, size int64) (*Result, error) {
	f, err := format.SniffReader(r)
	if err != nil {
		return nil, err
	}
	rd, ok := ReaderFor(f)
	if !ok {
		return nil, format.ErrUnsupportedFormat
	}
	return safeRead(rd, r, size)
}

func safeRead(rd Reader, r io.ReaderAt, size int64) (res *Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			if res == nil {
				res = &Result{Format: rd.Format()}
			}
			err = fmt.Errorf("%w: %s reader panic: %v", ErrMalformedContainer, rd.Format(), p)
			log.Debug("recovered reader panic: %v", p)
		}
	}()
	res, err = rd.Read(r, size)
	if res != nil && errors.Is(err, ErrMalformedContainer) {
		log.Debug("salvaged %d fields from damaged %s: %v", len(res.Fields), rd.Format(), err)
	}
	return res, err
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedContainer, fmt.Sprintf(format, args...))
}

// readAt reads exactly n bytes at off.
func readAt(r io.ReaderAt, off int64, n int) ([]byte, error) {
	buf := make([]byte, n)
	got, err := r.ReadAt(buf, off)
	if got == n {
		return buf, nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return buf[:got], err
}

// fieldSet accumulates fields in order, keeping the first value per
// (key, source).
type fieldSet struct {
	fields []model.ExtractedField
	seen   map[string]struct{}
}

func newFieldSet() *fieldSet {
	return &fieldSet{seen: make(map[string]struct{})}
}

func (s *fieldSet) add(key, value string, src model.FieldSource) bool {
	if key == "" {
		return false
	}
	id := string(src) + "\x00" + key
	if _, dup := s.seen[id]; dup {
		return false
	}
	s.seen[id] = struct{}{}
	s.fields = append(s.fields, model.ExtractedField{Key: key, Value: value, Source: src})
	return true
}

func (s *fieldSet) list() []model.ExtractedField {
	return s.fields
}
