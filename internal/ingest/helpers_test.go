package ingest

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"os"
	"path/filepath"
	"testing"

	"ai-image-decoder/internal/database"
	"ai-image-decoder/internal/format"
)

func chunk(typ string, data []byte) []byte {
	var b bytes.Buffer
	_ = binary.Write(&b, binary.BigEndian, uint32(len(data)))
	b.WriteString(typ)
	b.Write(data)
	crc := crc32.NewIEEE()
	crc.Write([]byte(typ))
	crc.Write(data)
	_ = binary.Write(&b, binary.BigEndian, crc.Sum32())
	return b.Bytes()
}

func ihdr(w, h uint32) []byte {
	data := make([]byte, 13)
	binary.BigEndian.PutUint32(data[0:], w)
	binary.BigEndian.PutUint32(data[4:], h)
	data[8] = 8
	data[9] = 6
	return chunk("IHDR", data)
}

func text(key, value string) []byte {
	return chunk("tEXt", append(append([]byte(key), 0), value...))
}

// pngWith builds a PNG holding one tEXt chunk per key/value pair.
func pngWith(kv ...string) []byte {
	var b bytes.Buffer
	b.Write(format.PNGSignature())
	b.Write(ihdr(64, 32))
	for i := 0; i+1 < len(kv); i += 2 {
		b.Write(text(kv[i], kv[i+1]))
	}
	b.Write(chunk("IEND", nil))
	return b.Bytes()
}

const sdParameters = "masterpiece, a cat in a hat\nNegative prompt: blurry\nSteps: 20, Sampler: Euler a, CFG scale: 7, Seed: 12345, Size: 512x512, Model: dreamshaper"

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func setupDB(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.New(context.Background(), filepath.Join(t.TempDir(), database.FileName))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
