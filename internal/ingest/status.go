package ingest

import "time"

// State is the coordinator's lifecycle state.
type State string

const (
	StateIdle     State = "idle"
	StateScanning State = "scanning"
	StateFailed   State = "failed"
)

// Status is a snapshot of the current or last scan.
//
// Processed counts files that reached the store, including duplicates whose
// extraction was copied. Skipped counts unsupported and unchanged files.
// Errors counts files that could not be ingested. Warnings counts processed
// files whose container was damaged. Unreadable counts directory entries the
// walk could not read; they are not part of Discovered. Total always equals
// Discovered.
type Status struct {
	State          State     `json:"state"`
	ScanID         string    `json:"scanId,omitempty"`
	Root           string    `json:"root,omitempty"`
	Recursive      bool      `json:"recursive"`
	Discovered     int64     `json:"discovered"`
	Total          int64     `json:"total"`
	Processed      int64     `json:"processed"`
	Skipped        int64     `json:"skipped"`
	Errors         int64     `json:"errors"`
	Duplicates     int64     `json:"duplicates"`
	Unchanged      int64     `json:"unchanged"`
	Warnings       int64     `json:"warnings"`
	Unreadable     int64     `json:"unreadable"`
	NewCollections int64     `json:"newCollections"`
	CurrentFile    string    `json:"currentFile,omitempty"`
	Stopped        bool      `json:"stopped,omitempty"`
	StartedAt      time.Time `json:"startedAt,omitempty"`
	FinishedAt     time.Time `json:"finishedAt,omitempty"`
	LastError      string    `json:"lastError,omitempty"`
}

// Done returns the number of discovered files that have been handled.
func (s Status) Done() int64 {
	return s.Processed + s.Skipped + s.Errors
}

// outcome is how one file ended.
type outcome int

const (
	outcomeProcessed outcome = iota
	outcomeDuplicate
	outcomeUnchanged
	outcomeSkipped
	outcomeError
)

func (o outcome) String() string {
	switch o {
	case outcomeProcessed:
		return "processed"
	case outcomeDuplicate:
		return "duplicate"
	case outcomeUnchanged:
		return "unchanged"
	case outcomeSkipped:
		return "skipped"
	default:
		return "error"
	}
}

// apply adds one file's outcome to the counters.
func (s *Status) apply(o outcome, warning bool) {
	switch o {
	case outcomeProcessed:
		s.Processed++
	case outcomeDuplicate:
		s.Processed++
		s.Duplicates++
	case outcomeUnchanged:
		s.Skipped++
		s.Unchanged++
	case outcomeSkipped:
		s.Skipped++
	case outcomeError:
		s.Errors++
	}
	if warning {
		s.Warnings++
	}
}
