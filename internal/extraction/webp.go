package extraction

import (
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/image/webp"

	"ai-image-decoder/internal/format"
)

type webpReader struct{}

func (webpReader) Format() format.Format { return format.FormatWebP }

// Read walks the RIFF chunk list. Chunk sizes are little-endian and odd sized
// chunks carry one pad byte.
func (webpReader) Read(r io.ReaderAt, size int64) (*Result, error) {
	res := &Result{Format: format.FormatWebP}
	fs := newFieldSet()
	err := walkWebP(r, size, res, fs)
	res.Fields = fs.list()

	if cfg, cerr := webp.DecodeConfig(io.NewSectionReader(r, 0, size)); cerr == nil {
		res.Width, res.Height = cfg.Width, cfg.Height
	} else {
		res.Warnings = append(res.Warnings, fmt.Sprintf("webp dimensions: %v", cerr))
	}
	return res, err
}

func walkWebP(r io.ReaderAt, size int64, res *Result, fs *fieldSet) error {
	hdr, err := readAt(r, 0, 12)
	if err != nil || string(hdr[0:4]) != "RIFF" || string(hdr[8:12]) != "WEBP" {
		return malformed("riff header")
	}
	end := int64(binary.LittleEndian.Uint32(hdr[4:8])) + 8
	truncated := end > size
	if truncated {
		end = size
	}

	off := int64(12)
	for end-off >= 8 {
		ch, err := readAt(r, off, 8)
		if err != nil {
			return malformed("read chunk header at %d: %v", off, err)
		}
		fourcc := string(ch[0:4])
		length := int64(binary.LittleEndian.Uint32(ch[4:8]))
		payloadOff := off + 8
		if length > end-payloadOff {
			return malformed("%q chunk length %d runs past end of file", fourcc, length)
		}

		switch fourcc {
		case "EXIF", "XMP ":
			if length > maxTextPayload {
				res.Warnings = append(res.Warnings, fmt.Sprintf("%q chunk of %d bytes skipped", fourcc, length))
				break
			}
			payload, err := readAt(r, payloadOff, int(length))
			if err != nil {
				return malformed("read %q chunk: %v", fourcc, err)
			}
			if fourcc == "EXIF" {
				if err := readExif(payload, fs); err != nil {
					res.Warnings = append(res.Warnings, fmt.Sprintf("exif: %v", err))
				}
			} else {
				readXMP(payload, fs)
			}
		}
		off = payloadOff + length + length&1
	}
	if truncated {
		return malformed("riff size exceeds file size")
	}
	return nil
}
