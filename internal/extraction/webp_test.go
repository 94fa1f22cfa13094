package extraction

import (
	"bytes"
	"errors"
	"testing"

	"ai-image-decoder/internal/format"
	"ai-image-decoder/internal/model"
)

func TestWebPChunks(t *testing.T) {
	t.Parallel()

	data := buildWebP(
		vp8x(300, 200),
		riffChunk("EXIF", exifBlock("webp description", "")),
		riffChunk("XMP ", xmpPacket("odd")),
	)

	res, err := Extract(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Format != format.FormatWebP {
		t.Errorf("Format = %v", res.Format)
	}
	if res.Width != 300 || res.Height != 200 {
		t.Errorf("dimensions = %dx%d, want 300x200", res.Width, res.Height)
	}
	if v, _ := res.Field("ImageDescription"); v != "webp description" {
		t.Errorf("ImageDescription = %q", v)
	}
	if v, _ := res.Field(xmpDescriptionKey); v != "odd" {
		t.Errorf("dc:description = %q", v)
	}
	for _, f := range res.Fields {
		if f.Key == xmpDescriptionKey && f.Source != model.SourceXMP {
			t.Errorf("xmp field source = %v", f.Source)
		}
	}
}

func TestWebPRawTIFFExif(t *testing.T) {
	t.Parallel()

	tiff := buildTIFF([]tiffEntry{asciiEntry(0x010E, "no header")}, nil)
	data := buildWebP(vp8x(8, 8), riffChunk("EXIF", tiff))

	res, err := Extract(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := res.Field("ImageDescription"); v != "no header" {
		t.Errorf("ImageDescription = %q", v)
	}
}

func TestWebPOddChunkPadding(t *testing.T) {
	t.Parallel()

	// "ABC" has odd length, so a pad byte must be skipped before XMP.
	data := buildWebP(riffChunk("ICCP", []byte("ABC")), riffChunk("XMP ", xmpPacket("after pad")))
	res, err := Extract(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := res.Field(xmpDescriptionKey); v != "after pad" {
		t.Errorf("dc:description = %q", v)
	}
}

func TestWebPMalformed(t *testing.T) {
	t.Parallel()

	good := riffChunk("XMP ", xmpPacket("kept"))

	t.Run("chunk runs past end", func(t *testing.T) {
		data := buildWebP(good, []byte("EXIF\xff\xff\x00\x00abc"))
		res, err := Extract(bytes.NewReader(data), int64(len(data)))
		if !errors.Is(err, ErrMalformedContainer) {
			t.Errorf("err = %v, want ErrMalformedContainer", err)
		}
		if v, _ := res.Field(xmpDescriptionKey); v != "kept" {
			t.Errorf("salvaged = %+v", res.Fields)
		}
	})

	t.Run("riff size larger than file", func(t *testing.T) {
		data := buildWebP(good)
		data = data[:len(data)-4]
		res, err := Extract(bytes.NewReader(data), int64(len(data)))
		if !errors.Is(err, ErrMalformedContainer) {
			t.Errorf("err = %v, want ErrMalformedContainer", err)
		}
		if res == nil {
			t.Fatal("expected partial result")
		}
	})
}
