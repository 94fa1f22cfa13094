package extraction

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"hash/crc32"
)

// Synthetic container builders shared by the reader tests.

func pngChunk(typ string, data []byte) []byte {
	var b []byte
	b = binary.BigEndian.AppendUint32(b, uint32(len(data)))
	b = append(b, typ...)
	b = append(b, data...)
	crc := crc32.ChecksumIEEE(append([]byte(typ), data...))
	return binary.BigEndian.AppendUint32(b, crc)
}

func ihdr(w, h uint32) []byte {
	var d []byte
	d = binary.BigEndian.AppendUint32(d, w)
	d = binary.BigEndian.AppendUint32(d, h)
	d = append(d, 8, 2, 0, 0, 0)
	return pngChunk("IHDR", d)
}

func textChunk(key, value string) []byte {
	return pngChunk("tEXt", []byte(key+"\x00"+value))
}

func zTextChunk(key, value string) []byte {
	return pngChunk("zTXt", append([]byte(key+"\x00\x00"), deflate([]byte(value))...))
}

func iTextChunk(key, value string, compressed bool) []byte {
	d := []byte(key + "\x00")
	text := []byte(value)
	if compressed {
		d = append(d, 1, 0)
		text = deflate(text)
	} else {
		d = append(d, 0, 0)
	}
	d = append(d, "en\x00\x00"...)
	return pngChunk("iTXt", append(d, text...))
}

func buildPNG(chunks ...[]byte) []byte {
	out := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}

func iend() []byte { return pngChunk("IEND", nil) }

func deflate(b []byte) []byte {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	zw.Write(b)
	zw.Close()
	return buf.Bytes()
}

func jpegSegment(marker byte, payload []byte) []byte {
	b := []byte{0xFF, marker}
	b = binary.BigEndian.AppendUint16(b, uint16(len(payload)+2))
	return append(b, payload...)
}

func sof0(w, h uint16) []byte {
	p := []byte{8}
	p = binary.BigEndian.AppendUint16(p, h)
	p = binary.BigEndian.AppendUint16(p, w)
	p = append(p, 1, 1, 0x11, 0)
	return jpegSegment(0xC0, p)
}

func buildJPEG(segments ...[]byte) []byte {
	out := []byte{0xFF, 0xD8}
	for _, s := range segments {
		out = append(out, s...)
	}
	out = append(out, jpegSegment(0xDA, []byte{1, 1, 0, 0, 0x3F, 0})...)
	out = append(out, 0x12, 0x34, 0x56)
	return append(out, 0xFF, 0xD9)
}

type tiffEntry struct {
	tag  uint16
	typ  uint16
	data []byte
}

func asciiEntry(tag uint16, s string) tiffEntry {
	return tiffEntry{tag: tag, typ: 2, data: append([]byte(s), 0)}
}

// buildTIFF writes a little-endian TIFF with IFD0 and, when sub is not
// empty, an Exif sub-IFD linked through tag 0x8769.
func buildTIFF(ifd0, sub []tiffEntry) []byte {
	le := binary.LittleEndian
	entries0 := append([]tiffEntry(nil), ifd0...)
	if len(sub) > 0 {
		entries0 = append(entries0, tiffEntry{tag: 0x8769, typ: 4})
	}
	subOff := 8 + 2 + 12*len(entries0) + 4
	dataOff := subOff
	if len(sub) > 0 {
		dataOff += 2 + 12*len(sub) + 4
	}

	buf := []byte("II*\x00")
	buf = le.AppendUint32(buf, 8)
	var data []byte
	writeIFD := func(entries []tiffEntry) {
		buf = le.AppendUint16(buf, uint16(len(entries)))
		for _, e := range entries {
			d := e.data
			if e.tag == 0x8769 {
				d = le.AppendUint32(nil, uint32(subOff))
			}
			count := len(d)
			if e.typ == 4 {
				count = len(d) / 4
			}
			buf = le.AppendUint16(buf, e.tag)
			buf = le.AppendUint16(buf, e.typ)
			buf = le.AppendUint32(buf, uint32(count))
			if len(d) <= 4 {
				v := make([]byte, 4)
				copy(v, d)
				buf = append(buf, v...)
				continue
			}
			buf = le.AppendUint32(buf, uint32(dataOff+len(data)))
			data = append(data, d...)
			if len(data)%2 == 1 {
				data = append(data, 0)
			}
		}
		buf = le.AppendUint32(buf, 0)
	}
	writeIFD(entries0)
	if len(sub) > 0 {
		writeIFD(sub)
	}
	return append(buf, data...)
}

func exifBlock(description, comment string) []byte {
	ifd0 := []tiffEntry{
		asciiEntry(0x010E, description),
		asciiEntry(0x010F, "TestMake"),
		asciiEntry(0x0110, "TestModel"),
	}
	var sub []tiffEntry
	if comment != "" {
		sub = append(sub, tiffEntry{tag: 0x9286, typ: 7, data: append([]byte("ASCII\x00\x00\x00"), comment...)})
	}
	return append([]byte("Exif\x00\x00"), buildTIFF(ifd0, sub)...)
}

func xmpPacket(description string) []byte {
	return []byte(`<x:xmpmeta xmlns:x="adobe:ns:meta/"><rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">` +
		`<rdf:Description xmlns:dc="http://purl.org/dc/elements/1.1/"><dc:description><rdf:Alt>` +
		`<rdf:li xml:lang="x-default">` + description + `</rdf:li></rdf:Alt></dc:description>` +
		`</rdf:Description></rdf:RDF></x:xmpmeta>`)
}

func riffChunk(fourcc string, data []byte) []byte {
	b := []byte(fourcc)
	b = binary.LittleEndian.AppendUint32(b, uint32(len(data)))
	b = append(b, data...)
	if len(data)%2 == 1 {
		b = append(b, 0)
	}
	return b
}

func vp8x(w, h int) []byte {
	d := []byte{0x0C, 0, 0, 0}
	put24 := func(v int) { d = append(d, byte(v), byte(v>>8), byte(v>>16)) }
	put24(w - 1)
	put24(h - 1)
	return riffChunk("VP8X", d)
}

func buildWebP(chunks ...[]byte) []byte {
	var body []byte
	body = append(body, "WEBP"...)
	for _, c := range chunks {
		body = append(body, c...)
	}
	out := []byte("RIFF")
	out = binary.LittleEndian.AppendUint32(out, uint32(len(body)))
	return append(out, body...)
}
