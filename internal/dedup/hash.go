package dedup

import (
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/blake2b"
)

const hashBufferSize = 256 << 10

// Hash returns the hex BLAKE2b-256 digest of everything read from r.
func Hash(r io.Reader) (string, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", fmt.Errorf("blake2b: %w", err)
	}
	buf := make([]byte, hashBufferSize)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return "", fmt.Errorf("hash: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
