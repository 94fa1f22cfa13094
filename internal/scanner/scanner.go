package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"ai-image-decoder/internal/filesystem"
	"ai-image-decoder/internal/format"
	"ai-image-decoder/internal/logging"
	"ai-image-decoder/internal/metrics"
)

var log = logging.New("scan")

// ErrNotDirectory is returned when a scan root is not a directory.
var ErrNotDirectory = errors.New("scan root is not a directory")

// Config configures one directory walk.
type Config struct {
	Root      string
	Recursive bool
	// SkipHidden skips files and directories starting with "."
	SkipHidden bool
}

// Candidate is a file the pipeline should look at.
type Candidate struct {
	Path string
	Info os.FileInfo
}

// Scanner streams candidate files under a root. A Scanner may be run more
// than once; each Run starts a fresh walk.
type Scanner struct {
	config Config

	discovered atomic.Int64
	unreadable atomic.Int64
}

// ValidateRoot returns the absolute, cleaned form of root after checking it
// is a readable directory.
func ValidateRoot(root string) (string, error) {
	if strings.TrimSpace(root) == "" {
		return "", fmt.Errorf("empty scan root: %w", ErrNotDirectory)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", root, err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	abs = filepath.Clean(abs)
	info, err := filesystem.StatWithRetry(abs, filesystem.DefaultRetryConfig())
	if err != nil {
		return "", fmt.Errorf("stat scan root: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s: %w", abs, ErrNotDirectory)
	}
	return abs, nil
}

// New creates a Scanner. config.Root should already be validated.
func New(config Config) *Scanner {
	return &Scanner{config: config}
}

// Root returns the directory being walked.
func (s *Scanner) Root() string {
	return s.config.Root
}

// Discovered returns the candidates emitted by the current walk so far.
func (s *Scanner) Discovered() int64 {
	return s.discovered.Load()
}

// Unreadable returns the entries skipped by the current walk because they
// could not be read.
func (s *Scanner) Unreadable() int64 {
	return s.unreadable.Load()
}

// Run walks the root and sends every candidate file to out, blocking while
// out is full. It does not close out. Unreadable entries below the root are
// counted and skipped; only a failure to read the root itself is returned.
// When ctx is cancelled the walk stops and ctx.Err() is returned.
func (s *Scanner) Run(ctx context.Context, out chan<- Candidate) error {
	s.discovered.Store(0)
	s.unreadable.Store(0)

	root := s.config.Root
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return fs.SkipAll
		default:
		}

		if err != nil {
			if path == root {
				return err
			}
			s.skipUnreadable(path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if path == root {
			return nil
		}

		if s.config.SkipHidden && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if !s.config.Recursive {
				return filepath.SkipDir
			}
			return nil
		}

		if !format.IsCandidate(strings.ToLower(filepath.Ext(d.Name()))) {
			return nil
		}

		info, ok := s.fileInfo(path, d)
		if !ok {
			return nil
		}

		// counted before the send so Discovered never trails a worker
		s.discovered.Add(1)
		select {
		case out <- Candidate{Path: path, Info: info}:
		case <-ctx.Done():
			s.discovered.Add(-1)
			return fs.SkipAll
		}
		metrics.ScanFilesDiscovered.Inc()
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk %s: %w", root, err)
	}
	return ctx.Err()
}

// fileInfo resolves d to the info of a regular file. Symlinks are followed
// to files only; a symlinked directory is not descended into.
func (s *Scanner) fileInfo(path string, d fs.DirEntry) (os.FileInfo, bool) {
	if d.Type()&fs.ModeSymlink != 0 {
		info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())
		if err != nil {
			s.skipUnreadable(path, err)
			return nil, false
		}
		if !info.Mode().IsRegular() {
			log.Debug("Skipping symlink to non-regular file %s", path)
			return nil, false
		}
		return info, true
	}

	if !d.Type().IsRegular() {
		return nil, false
	}
	info, err := d.Info()
	if err != nil {
		s.skipUnreadable(path, err)
		return nil, false
	}
	return info, true
}

func (s *Scanner) skipUnreadable(path string, err error) {
	s.unreadable.Add(1)
	metrics.ScanEntriesUnreadable.Inc()
	log.Warn("Skipping unreadable entry %s: %v", path, err)
}

// Stream runs the walk in its own goroutine and returns the candidate channel
// and a channel that yields the walk's result once the candidates are
// exhausted. buffer bounds the number of candidates held ahead of consumers.
func (s *Scanner) Stream(ctx context.Context, buffer int) (<-chan Candidate, <-chan error) {
	if buffer < 1 {
		buffer = 1
	}
	out := make(chan Candidate, buffer)
	done := make(chan error, 1)
	go func() {
		defer close(done)
		err := s.Run(ctx, out)
		close(out)
		done <- err
	}()
	return out, done
}
