// Package collections maps a file's position under a scan root to the chain
// of folder collections it belongs to.
package collections

import (
	"fmt"
	"path/filepath"
	"strings"

	"ai-image-decoder/internal/model"
)

// NormalizePath returns the absolute, cleaned form of p. It is the identity
// of a collection.
func NormalizePath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("normalize %q: %w", p, err)
	}
	return filepath.Clean(abs), nil
}

// Chain returns every directory strictly below root down to and including
// the directory holding file, root-most first. A file directly in root, or
// outside it, has no collections. The last element is the file's own folder.
func Chain(root, file string) ([]model.Folder, error) {
	r, err := NormalizePath(root)
	if err != nil {
		return nil, err
	}
	f, err := NormalizePath(file)
	if err != nil {
		return nil, err
	}

	rel, err := filepath.Rel(r, filepath.Dir(f))
	if err != nil {
		return nil, nil
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, nil
	}

	parts := strings.Split(rel, string(filepath.Separator))
	chain := make([]model.Folder, 0, len(parts))
	cur := r
	for _, p := range parts {
		cur = filepath.Join(cur, p)
		chain = append(chain, model.Folder{Path: cur, Name: p})
	}
	return chain, nil
}

// Immediate returns the folder a file is a member of, if any.
func Immediate(chain []model.Folder) (model.Folder, bool) {
	if len(chain) == 0 {
		return model.Folder{}, false
	}
	return chain[len(chain)-1], true
}
