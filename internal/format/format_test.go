package format

import (
	"bytes"
	"errors"
	"testing"
)

func TestSniff(t *testing.T) {
	tests := []struct {
		name   string
		prefix []byte
		want   Format
	}{
		{
			name:   "PNG signature",
			prefix: []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 13},
			want:   FormatPNG,
		},
		{
			name:   "PNG signature only",
			prefix: []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A},
			want:   FormatPNG,
		},
		{
			name:   "truncated PNG signature",
			prefix: []byte{0x89, 0x50, 0x4E, 0x47},
			want:   FormatUnknown,
		},
		{
			name:   "JPEG SOI with APP0",
			prefix: []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10},
			want:   FormatJPEG,
		},
		{
			name:   "JPEG SOI without third byte",
			prefix: []byte{0xFF, 0xD8},
			want:   FormatUnknown,
		},
		{
			name:   "WebP",
			prefix: []byte("RIFF\x24\x00\x00\x00WEBPVP8 "),
			want:   FormatWebP,
		},
		{
			name:   "RIFF but WAVE",
			prefix: []byte("RIFF\x24\x00\x00\x00WAVEfmt "),
			want:   FormatUnknown,
		},
		{
			name:   "GIF",
			prefix: []byte("GIF89a\x01\x00\x01\x00\x00\x00"),
			want:   FormatUnknown,
		},
		{
			name:   "empty",
			prefix: nil,
			want:   FormatUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sniff(tt.prefix); got != tt.want {
				t.Errorf("Sniff(%x) = %v, want %v", tt.prefix, got, tt.want)
			}
		})
	}
}

func TestSniffReader(t *testing.T) {
	t.Run("short file", func(t *testing.T) {
		got, err := SniffReader(bytes.NewReader([]byte{0xFF, 0xD8, 0xFF}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != FormatJPEG {
			t.Errorf("got %v, want jpeg", got)
		}
	})

	t.Run("empty file", func(t *testing.T) {
		got, err := SniffReader(bytes.NewReader(nil))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != FormatUnknown {
			t.Errorf("got %v, want unknown", got)
		}
	})

	t.Run("read failure", func(t *testing.T) {
		_, err := SniffReader(failingReaderAt{})
		if err == nil {
			t.Fatal("expected error")
		}
	})
}

type failingReaderAt struct{}

func (failingReaderAt) ReadAt([]byte, int64) (int, error) {
	return 0, errors.New("permission denied")
}

func TestPNGSignatureIsCopy(t *testing.T) {
	sig := PNGSignature()
	sig[0] = 0
	if Sniff(PNGSignature()) != FormatPNG {
		t.Error("mutating the returned signature must not affect sniffing")
	}
}

func TestIsCandidate(t *testing.T) {
	tests := []struct {
		ext  string
		want bool
	}{
		{".png", true},
		{".jpg", true},
		{".jpeg", true},
		{".webp", true},
		{".gif", false},
		{".PNG", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsCandidate(tt.ext); got != tt.want {
			t.Errorf("IsCandidate(%q) = %v, want %v", tt.ext, got, tt.want)
		}
	}
}

func TestGetMimeType(t *testing.T) {
	if got := GetMimeType(FormatPNG); got != "image/png" {
		t.Errorf("png mime = %q", got)
	}
	if got := GetMimeType(FormatWebP); got != "image/webp" {
		t.Errorf("webp mime = %q", got)
	}
	if got := GetMimeType(FormatUnknown); got != "application/octet-stream" {
		t.Errorf("unknown mime = %q", got)
	}
}
