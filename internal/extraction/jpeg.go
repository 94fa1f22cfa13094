package extraction

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"ai-image-decoder/internal/format"
	"ai-image-decoder/internal/model"
)

const (
	markerSOI  = 0xD8
	markerEOI  = 0xD9
	markerSOS  = 0xDA
	markerAPP1 = 0xE1
	markerCOM  = 0xFE
)

var (
	exifPrefix = []byte("Exif\x00\x00")
	xmpPrefix  = []byte("http://ns.adobe.com/xap/1.0/\x00")
)

type jpegReader struct{}

func (jpegReader) Format() format.Format { return format.FormatJPEG }

// Read walks marker segments from SOI up to the first SOS or EOI. Entropy
// coded data is never touched.
func (jpegReader) Read(r io.ReaderAt, size int64) (*Result, error) {
	res := &Result{Format: format.FormatJPEG}
	fs := newFieldSet()
	err := walkJPEG(r, size, res, fs)
	res.Fields = fs.list()
	return res, err
}

func walkJPEG(r io.ReaderAt, size int64, res *Result, fs *fieldSet) error {
	soi, err := readAt(r, 0, 2)
	if err != nil || soi[0] != 0xFF || soi[1] != markerSOI {
		return malformed("jpeg SOI")
	}

	off := int64(2)
	for off < size {
		b, err := readAt(r, off, 1)
		if err != nil {
			return malformed("read marker at %d: %v", off, err)
		}
		if b[0] != 0xFF {
			return malformed("expected marker at %d, got %#x", off, b[0])
		}
		// fill bytes
		for b[0] == 0xFF {
			off++
			if off >= size {
				return malformed("truncated marker")
			}
			if b, err = readAt(r, off, 1); err != nil {
				return malformed("read marker at %d: %v", off, err)
			}
		}
		marker := b[0]
		off++

		switch {
		case marker == markerEOI:
			return nil
		case marker == markerSOI, marker == 0x01, marker >= 0xD0 && marker <= 0xD7:
			continue
		}

		if size-off < 2 {
			return malformed("truncated length for marker %#x", marker)
		}
		lb, err := readAt(r, off, 2)
		if err != nil {
			return malformed("read segment length: %v", err)
		}
		length := int64(binary.BigEndian.Uint16(lb))
		if length < 2 {
			return malformed("segment %#x length %d", marker, length)
		}
		payloadOff := off + 2
		payloadLen := length - 2
		if payloadLen > size-payloadOff {
			return malformed("segment %#x length %d runs past end of file", marker, length)
		}

		switch {
		case marker == markerSOS:
			return nil
		case isSOF(marker):
			if payloadLen >= 5 {
				b, err := readAt(r, payloadOff, 5)
				if err == nil {
					res.Height = int(binary.BigEndian.Uint16(b[1:3]))
					res.Width = int(binary.BigEndian.Uint16(b[3:5]))
				}
			}
		case marker == markerAPP1:
			payload, err := readAt(r, payloadOff, int(payloadLen))
			if err != nil {
				return malformed("read APP1: %v", err)
			}
			readAPP1(payload, res, fs)
		case marker == markerCOM:
			payload, err := readAt(r, payloadOff, int(payloadLen))
			if err != nil {
				return malformed("read COM: %v", err)
			}
			if text := trimText(latin1(payload)); text != "" {
				fs.add("Comment", text, model.SourceGeneration)
			}
		}
		off = payloadOff + payloadLen
	}
	return nil
}

// isSOF reports start-of-frame markers. C4 (DHT), C8 (JPG) and CC (DAC)
// share the range but carry no frame header.
func isSOF(m byte) bool {
	return m >= 0xC0 && m <= 0xCF && m != 0xC4 && m != 0xC8 && m != 0xCC
}

func readAPP1(payload []byte, res *Result, fs *fieldSet) {
	switch {
	case bytes.HasPrefix(payload, exifPrefix):
		if err := readExif(payload, fs); err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("exif: %v", err))
		}
	case bytes.HasPrefix(payload, xmpPrefix):
		readXMP(payload[len(xmpPrefix):], fs)
	}
}
