package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"ai-image-decoder/internal/database"
	"ai-image-decoder/internal/ingest"
	"ai-image-decoder/internal/startup"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

type scanOptions struct {
	recursive   bool
	workers     int
	skipHidden  bool
	maxFileSize string
}

func newScanCmd(root *rootOptions) *cobra.Command {
	opts := &scanOptions{
		recursive:   root.env.ScanRecursive,
		workers:     root.env.ScanWorkers,
		skipHidden:  root.env.SkipHidden,
		maxFileSize: formatSize(root.env.MaxFileSize),
	}

	cmd := &cobra.Command{
		Use:   "scan <dir>",
		Short: "Scan a directory and store the extracted metadata",
		Long: `Scan walks <dir>, ingests every supported image and stores its prompts,
settings and tags. Unchanged files are skipped on rescans. Press Ctrl+C to
stop after the files in flight; what was stored so far is kept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, root, opts, args[0])
		},
	}

	cmd.Flags().BoolVarP(&opts.recursive, "recursive", "r", opts.recursive, "descend into subdirectories")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", opts.workers, "number of files processed in parallel (0 = auto)")
	cmd.Flags().BoolVar(&opts.skipHidden, "skip-hidden", opts.skipHidden, "skip dot files and dot directories")
	cmd.Flags().StringVar(&opts.maxFileSize, "max-file-size", opts.maxFileSize, "reject larger files, e.g. 64MiB (0 = no limit)")
	return cmd
}

func runScan(cmd *cobra.Command, root *rootOptions, opts *scanOptions, dir string) error {
	maxSize, err := startup.ParseByteSize(opts.maxFileSize)
	if err != nil {
		return fmt.Errorf("invalid --max-file-size: %w", err)
	}
	dir, err = filepath.Abs(dir)
	if err != nil {
		return err
	}

	db, err := openDatabase(cmd, root.dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := ingest.New(db, ingest.Options{
		Workers:     opts.workers,
		SkipHidden:  opts.skipHidden,
		MaxFileSize: maxSize,
	})

	out := cmd.OutOrStdout()
	status, err := scanWithProgress(c, func() (ingest.Status, error) {
		return c.Scan(ctx, dir, opts.recursive)
	}, newProgress(out))
	if status.State == "" {
		return err
	}

	printScanSummary(out, status)
	return err
}

func openDatabase(cmd *cobra.Command, path string) (*database.Database, error) {
	if err := startup.PrepareDatabaseDir(filepath.Dir(path)); err != nil {
		return nil, err
	}
	db, err := database.New(cmd.Context(), path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	return db, nil
}

func printScanSummary(w io.Writer, s ingest.Status) {
	result := color.New(color.FgGreen).Sprint("completed")
	switch {
	case s.State == ingest.StateFailed:
		result = color.New(color.FgRed).Sprint("failed")
	case s.Stopped:
		result = color.New(color.FgYellow).Sprint("stopped")
	}

	errors := fmt.Sprint(s.Errors)
	if s.Errors > 0 {
		errors = color.New(color.FgRed).Sprint(errors)
	}

	data := pterm.TableData{
		{"Root", s.Root},
		{"Result", result},
		{"Discovered", fmt.Sprint(s.Discovered)},
		{"Processed", fmt.Sprint(s.Processed)},
		{"Duplicates", fmt.Sprint(s.Duplicates)},
		{"Skipped", fmt.Sprint(s.Skipped)},
		{"Unchanged", fmt.Sprint(s.Unchanged)},
		{"Errors", errors},
		{"Warnings", fmt.Sprint(s.Warnings)},
		{"New collections", fmt.Sprint(s.NewCollections)},
		{"Duration", s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond).String()},
	}
	if s.Unreadable > 0 {
		data = append(data, []string{"Unreadable entries", fmt.Sprint(s.Unreadable)})
	}
	if s.LastError != "" {
		data = append(data, []string{"Last error", s.LastError})
	}

	fmt.Fprintln(w)
	_ = pterm.DefaultTable.WithBoxed().WithWriter(w).WithData(data).Render()
}

// formatSize renders n for a flag default that ParseByteSize reads back.
func formatSize(n int64) string {
	if n <= 0 {
		return "0"
	}
	return humanize.IBytes(uint64(n))
}
