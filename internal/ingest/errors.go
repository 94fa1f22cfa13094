package ingest

import (
	"errors"
	"fmt"
)

var (
	// ErrScanInProgress is returned when a scan is requested while another
	// is running.
	ErrScanInProgress = errors.New("scan already in progress")
	// ErrNotScanning is returned by StopScan when nothing is running.
	ErrNotScanning = errors.New("no scan in progress")
	// ErrInvalidRoot wraps scan roots that cannot be walked.
	ErrInvalidRoot = errors.New("invalid scan root")
	// ErrFileTooLarge is the cause of an io FileError for oversized files.
	ErrFileTooLarge = errors.New("file exceeds size limit")
)

// Kind classifies a per-file failure.
type Kind string

const (
	KindIO          Kind = "io"
	KindUnsupported Kind = "unsupported"
	KindMalformed   Kind = "malformed"
	KindStorage     Kind = "storage"
)

// FileError is a failure confined to one file.
type FileError struct {
	Path string
	Kind Kind
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

func fileError(path string, kind Kind, err error) *FileError {
	return &FileError{Path: path, Kind: kind, Err: err}
}

// fatalError stops the whole scan.
type fatalError struct {
	err error
}

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

func isFatal(err error) bool {
	var fe *fatalError
	return errors.As(err, &fe)
}
