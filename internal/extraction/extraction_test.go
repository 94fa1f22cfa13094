package extraction

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"ai-image-decoder/internal/format"
	"ai-image-decoder/internal/model"
)

func TestExtractUnsupported(t *testing.T) {
	data := []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00")
	res, err := Extract(bytes.NewReader(data), int64(len(data)))
	if !errors.Is(err, format.ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
	if res != nil {
		t.Errorf("res = %+v, want nil", res)
	}
}

type panicReader struct{}

func (panicReader) Format() format.Format { return format.FormatPNG }

func (panicReader) Read(io.ReaderAt, int64) (*Result, error) {
	panic("index out of range")
}

func TestSafeReadRecoversPanic(t *testing.T) {
	res, err := safeRead(panicReader{}, bytes.NewReader(nil), 0)
	if !errors.Is(err, ErrMalformedContainer) {
		t.Errorf("err = %v, want ErrMalformedContainer", err)
	}
	if res == nil || res.Format != format.FormatPNG {
		t.Errorf("res = %+v, want empty png result", res)
	}
}

func TestReaderFor(t *testing.T) {
	for _, f := range []format.Format{format.FormatPNG, format.FormatJPEG, format.FormatWebP} {
		rd, ok := ReaderFor(f)
		if !ok || rd.Format() != f {
			t.Errorf("ReaderFor(%v) = %v, %v", f, rd, ok)
		}
	}
	if _, ok := ReaderFor(format.FormatUnknown); ok {
		t.Error("ReaderFor(unknown) should fail")
	}
}

func TestFieldSetFirstWinsPerSource(t *testing.T) {
	fs := newFieldSet()
	fs.add("Comment", "a", model.SourceGeneration)
	fs.add("Comment", "b", model.SourceGeneration)
	fs.add("Comment", "c", model.SourceExif)
	fs.add("", "ignored", model.SourceExif)

	got := fs.list()
	if len(got) != 2 || got[0].Value != "a" || got[1].Value != "c" {
		t.Errorf("fields = %+v", got)
	}
}

func TestXMPDescription(t *testing.T) {
	tests := []struct {
		name   string
		packet string
		want   string
		ok     bool
	}{
		{
			name:   "alt list",
			packet: string(xmpPacket("a &lt;b&gt; c")),
			want:   "a <b> c",
			ok:     true,
		},
		{
			name:   "plain element",
			packet: `<rdf:Description><dc:description> plain </dc:description></rdf:Description>`,
			want:   "plain",
			ok:     true,
		},
		{
			name:   "attribute double quotes",
			packet: `<rdf:Description dc:description="attr &amp; more"/>`,
			want:   "attr & more",
			ok:     true,
		},
		{
			name:   "attribute single quotes",
			packet: `<rdf:Description dc:description='single'/>`,
			want:   "single",
			ok:     true,
		},
		{
			name:   "unterminated element",
			packet: `<dc:description><rdf:Alt><rdf:li>never closed`,
		},
		{
			name:   "absent",
			packet: `<rdf:Description dc:title="x"/>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := xmpDescription(tt.packet)
			if got != tt.want || ok != tt.ok {
				t.Errorf("xmpDescription() = %q, %v; want %q, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestDecodeUserComment(t *testing.T) {
	tests := []struct {
		name string
		val  []byte
		want string
	}{
		{"ascii", []byte("ASCII\x00\x00\x00hello\x00"), "hello"},
		{"unicode big endian", []byte("UNICODE\x00\x00h\x00i"), "hi"},
		{"unicode little endian", []byte("UNICODE\x00h\x00i\x00"), "hi"},
		{"unicode with BOM", []byte("UNICODE\x00\xff\xfeo\x00k\x00"), "ok"},
		{"undefined code", []byte("\x00\x00\x00\x00\x00\x00\x00\x00raw text"), "raw text"},
		{"too short", []byte("abc"), "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := decodeUserComment(tt.val); got != tt.want {
				t.Errorf("decodeUserComment(%q) = %q, want %q", tt.val, got, tt.want)
			}
		})
	}
}
