package extraction

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"ai-image-decoder/internal/format"
	"ai-image-decoder/internal/model"
)

type pngReader struct{}

func (pngReader) Format() format.Format { return format.FormatPNG }

// Read walks the chunk stream after the signature until IEND or end of file.
// CRCs are not verified.
func (pngReader) Read(r io.ReaderAt, size int64) (*Result, error) {
	res := &Result{Format: format.FormatPNG}
	fs := newFieldSet()
	err := walkPNG(r, size, res, fs)
	res.Fields = fs.list()
	return res, err
}

func walkPNG(r io.ReaderAt, size int64, res *Result, fs *fieldSet) error {
	sig, err := readAt(r, 0, 8)
	if err != nil || !bytes.Equal(sig, format.PNGSignature()) {
		return malformed("png signature")
	}

	off := int64(8)
	for off < size {
		if size-off < 8 {
			return malformed("truncated chunk header at %d", off)
		}
		hdr, err := readAt(r, off, 8)
		if err != nil {
			return malformed("read chunk header at %d: %v", off, err)
		}
		length := int64(binary.BigEndian.Uint32(hdr[0:4]))
		typ := hdr[4:8]
		if !isChunkType(typ) {
			return malformed("non-ASCII chunk type %q at %d", typ, off)
		}
		payloadOff := off + 8
		if length > size-payloadOff {
			return malformed("%s chunk length %d runs past end of file", typ, length)
		}

		switch string(typ) {
		case "IHDR":
			if length >= 8 {
				b, err := readAt(r, payloadOff, 8)
				if err == nil {
					res.Width = int(binary.BigEndian.Uint32(b[0:4]))
					res.Height = int(binary.BigEndian.Uint32(b[4:8]))
				}
			}
		case "tEXt", "zTXt", "iTXt":
			if length > maxTextPayload {
				res.Warnings = append(res.Warnings, fmt.Sprintf("%s chunk of %d bytes skipped", typ, length))
				break
			}
			payload, err := readAt(r, payloadOff, int(length))
			if err != nil {
				return malformed("read %s payload: %v", typ, err)
			}
			key, val, err := decodeTextChunk(string(typ), payload)
			if err != nil {
				res.Warnings = append(res.Warnings, err.Error())
				break
			}
			fs.add(key, val, model.SourceGeneration)
		case "IEND":
			return nil
		}

		next := payloadOff + length + 4
		if next > size {
			return malformed("%s chunk missing CRC", typ)
		}
		off = next
	}
	return nil
}

func isChunkType(b []byte) bool {
	for _, c := range b {
		if !(c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z') {
			return false
		}
	}
	return true
}

func decodeTextChunk(typ string, payload []byte) (string, string, error) {
	nul := bytes.IndexByte(payload, 0)
	if nul <= 0 {
		return "", "", fmt.Errorf("%s chunk without keyword", typ)
	}
	key := latin1(payload[:nul])
	rest := payload[nul+1:]

	switch typ {
	case "tEXt":
		return key, latin1(rest), nil

	case "zTXt":
		if len(rest) < 1 {
			return "", "", fmt.Errorf("zTXt %q: missing compression method", key)
		}
		text, err := inflate(rest[1:])
		if err != nil {
			return "", "", fmt.Errorf("zTXt %q: %w", key, err)
		}
		return key, latin1(text), nil

	default: // iTXt
		if len(rest) < 2 {
			return "", "", fmt.Errorf("iTXt %q: truncated header", key)
		}
		compressed := rest[0] == 1
		rest = rest[2:]
		// language tag, then translated keyword
		for i := 0; i < 2; i++ {
			n := bytes.IndexByte(rest, 0)
			if n < 0 {
				return "", "", fmt.Errorf("iTXt %q: truncated header", key)
			}
			rest = rest[n+1:]
		}
		text := rest
		if compressed {
			var err error
			if text, err = inflate(rest); err != nil {
				return "", "", fmt.Errorf("iTXt %q: %w", key, err)
			}
		}
		return key, string(bytes.ToValidUTF8(text, []byte("�"))), nil
	}
}

// latin1 returns b as text. PNG text chunks are ISO-8859-1 by definition but
// most generators write UTF-8 into them, so valid UTF-8 is taken as is.
func latin1(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return string(bytes.ToValidUTF8(b, []byte("�")))
	}
	return string(out)
}

func inflate(b []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("inflate: %w", err)
	}
	defer zr.Close()
	out, err := io.ReadAll(io.LimitReader(zr, maxInflated+1))
	if err != nil {
		return nil, fmt.Errorf("inflate: %w", err)
	}
	if len(out) > maxInflated {
		return nil, fmt.Errorf("inflate: exceeds %d bytes", maxInflated)
	}
	return out, nil
}
