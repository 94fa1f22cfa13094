package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"ai-image-decoder/internal/ingest"

	"github.com/pterm/pterm"
	"golang.org/x/term"
	"golang.org/x/time/rate"
)

const (
	progressInterval = 200 * time.Millisecond
	// plainInterval spaces progress lines when output is not a terminal.
	plainInterval = 2 * time.Second
)

// progress receives status snapshots while a scan runs.
type progress interface {
	update(s ingest.Status)
	stop()
}

// newProgress returns a spinner on terminals and periodic plain lines
// everywhere else.
func newProgress(w io.Writer) progress {
	if isTerminal(w) {
		sp, err := pterm.DefaultSpinner.WithWriter(w).WithRemoveWhenDone(true).Start("Scanning...")
		if err == nil {
			return &spinnerProgress{sp: sp}
		}
	}
	return &lineProgress{w: w, every: &rate.Sometimes{Interval: plainInterval}}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

type spinnerProgress struct {
	sp *pterm.SpinnerPrinter
}

func (p *spinnerProgress) update(s ingest.Status) {
	p.sp.UpdateText(progressLine(s))
}

func (p *spinnerProgress) stop() {
	_ = p.sp.Stop()
}

type lineProgress struct {
	w     io.Writer
	every *rate.Sometimes
}

func (p *lineProgress) update(s ingest.Status) {
	p.every.Do(func() {
		fmt.Fprintln(p.w, progressLine(s))
	})
}

func (p *lineProgress) stop() {}

// progressLine renders one status snapshot.
func progressLine(s ingest.Status) string {
	line := fmt.Sprintf("%d/%d files, %d processed, %d skipped, %d errors",
		s.Done(), s.Discovered, s.Processed, s.Skipped, s.Errors)
	if s.CurrentFile != "" {
		line += " | " + filepath.Base(s.CurrentFile)
	}
	return line
}

// scanWithProgress runs a scan and feeds p until it ends.
func scanWithProgress(c *ingest.Coordinator, run func() (ingest.Status, error), p progress) (ingest.Status, error) {
	type result struct {
		status ingest.Status
		err    error
	}
	done := make(chan result, 1)
	go func() {
		s, err := run()
		done <- result{s, err}
	}()

	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()
	defer p.stop()

	for {
		select {
		case r := <-done:
			return r.status, r.err
		case <-ticker.C:
			if c.IsScanning() {
				p.update(c.Status())
			}
		}
	}
}
