package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"ai-image-decoder/internal/dedup"
	"ai-image-decoder/internal/logging"
	"ai-image-decoder/internal/metrics"
	"ai-image-decoder/internal/scanner"
	"ai-image-decoder/internal/workers"
)

var log = logging.New("ingest")

// Options tunes a Coordinator. Zero values select defaults.
type Options struct {
	// Workers is the size of the per-file worker pool.
	Workers int
	// QueueSize bounds the discovered files waiting for a worker.
	QueueSize int
	// SkipHidden skips dot files and dot directories.
	SkipHidden bool
	// MaxFileSize rejects larger files as io errors. 0 means no limit.
	MaxFileSize int64
	// Throttle, when set, is waited on before each file.
	Throttle Throttle
}

// Throttle holds workers back, e.g. while memory is short.
type Throttle interface {
	Wait(ctx context.Context) error
}

const defaultQueueSize = 256

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = workers.ForScan()
	}
	if o.QueueSize <= 0 {
		o.QueueSize = defaultQueueSize
	}
	return o
}

// Coordinator runs scans one at a time and reports their progress.
type Coordinator struct {
	store Store
	opts  Options

	mu      sync.Mutex
	status  Status
	scan    *scanner.Scanner
	cancel  context.CancelFunc
	done    chan struct{}
	stopped bool
}

// New creates a Coordinator over store.
func New(store Store, opts Options) *Coordinator {
	return &Coordinator{
		store:  store,
		opts:   opts.withDefaults(),
		status: Status{State: StateIdle},
	}
}

// StartScan begins scanning root in the background and returns the scan ID.
// It fails with ErrScanInProgress while another scan runs. The scan is not
// tied to ctx's cancellation; use StopScan.
func (c *Coordinator) StartScan(ctx context.Context, root string, recursive bool) (string, error) {
	scanCtx, sc, id, err := c.begin(context.WithoutCancel(ctx), root, recursive)
	if err != nil {
		return "", err
	}
	go c.execute(scanCtx, sc, recursive)
	return id, nil
}

// Scan runs a scan to completion and returns its final status. Cancelling
// ctx stops the scan like StopScan does. The error is non-nil when the scan
// could not start or ended Failed.
func (c *Coordinator) Scan(ctx context.Context, root string, recursive bool) (Status, error) {
	scanCtx, sc, _, err := c.begin(ctx, root, recursive)
	if err != nil {
		return Status{}, err
	}
	return c.execute(scanCtx, sc, recursive)
}

// StopScan asks the running scan to stop after the files in flight. It
// returns ErrNotScanning when no scan is running.
func (c *Coordinator) StopScan() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status.State != StateScanning {
		return ErrNotScanning
	}
	if !c.stopped {
		log.Info("Stop requested for scan %s", c.status.ScanID)
	}
	c.stopped = true
	c.cancel()
	return nil
}

// Wait blocks until the running scan, if any, has finished.
func (c *Coordinator) Wait() {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done != nil {
		<-done
	}
}

// IsScanning reports whether a scan is running.
func (c *Coordinator) IsScanning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status.State == StateScanning
}

// Status returns a snapshot of the current or last scan.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.status
	if c.scan != nil {
		s.Discovered = c.scan.Discovered()
		s.Unreadable = c.scan.Unreadable()
	}
	s.Total = s.Discovered
	return s
}

// begin moves Idle/Failed to Scanning.
func (c *Coordinator) begin(ctx context.Context, root string, recursive bool) (context.Context, *scanner.Scanner, string, error) {
	abs, err := scanner.ValidateRoot(root)
	if err != nil {
		return nil, nil, "", fmt.Errorf("%w: %w", ErrInvalidRoot, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status.State == StateScanning {
		metrics.ScanConflictsTotal.Inc()
		return nil, nil, "", ErrScanInProgress
	}

	scanCtx, cancel := context.WithCancel(ctx)
	c.scan = scanner.New(scanner.Config{
		Root:       abs,
		Recursive:  recursive,
		SkipHidden: c.opts.SkipHidden,
	})
	c.status = Status{
		State:     StateScanning,
		ScanID:    uuid.NewString(),
		Root:      abs,
		Recursive: recursive,
		StartedAt: time.Now(),
	}
	c.cancel = cancel
	c.done = make(chan struct{})
	c.stopped = false

	metrics.ScanRunning.Set(1)
	log.Info("Scan %s started: %s (recursive=%v, workers=%d)", c.status.ScanID, abs, recursive, c.opts.Workers)
	return scanCtx, c.scan, c.status.ScanID, nil
}

// execute runs the walk and the worker pool, then records the final state.
// The error is the cause of a Failed scan.
func (c *Coordinator) execute(ctx context.Context, sc *scanner.Scanner, recursive bool) (Status, error) {
	startedAt := c.Status().StartedAt
	r := &run{
		c:         c,
		root:      sc.Root(),
		index:     dedup.NewIndex(c.store),
		scannedAt: startedAt,
	}

	jobs := make(chan scanner.Candidate, c.opts.QueueSize)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		return sc.Run(gctx, jobs)
	})

	for i := 0; i < c.opts.Workers; i++ {
		g.Go(func() error {
			for cand := range jobs {
				if gctx.Err() != nil {
					return nil
				}
				if t := c.opts.Throttle; t != nil {
					if err := t.Wait(gctx); err != nil {
						return nil
					}
				}
				if gctx.Err() != nil {
					return nil
				}
				if err := c.handle(gctx, r, cand); err != nil {
					return err
				}
			}
			return nil
		})
	}

	err := g.Wait()
	return c.finish(ctx, sc, recursive, err)
}

// handle processes one candidate and records its outcome. Only fatal errors
// are returned. A file that has started runs to completion even if the scan
// is stopped meanwhile.
func (c *Coordinator) handle(ctx context.Context, r *run, cand scanner.Candidate) error {
	c.setCurrent(cand.Path)
	start := time.Now()

	res, err := r.process(context.WithoutCancel(ctx), cand)
	metrics.ScanFileDuration.Observe(time.Since(start).Seconds())

	if isFatal(err) {
		return err
	}

	var fe *FileError
	if errors.As(err, &fe) {
		metrics.ScanFileErrorsTotal.WithLabelValues(string(fe.Kind)).Inc()
		if fe.Kind == KindUnsupported {
			log.Debug("Skipping %s: %v", cand.Path, fe.Err)
		} else {
			log.Warn("Failed to ingest %s: %v", cand.Path, err)
		}
	}
	if res.warning != nil {
		metrics.ScanFileErrorsTotal.WithLabelValues(string(KindMalformed)).Inc()
		log.Debug("Salvaged damaged container %s: %v", cand.Path, res.warning)
	}

	metrics.ScanFilesTotal.WithLabelValues(res.outcome.String()).Inc()

	c.mu.Lock()
	c.status.apply(res.outcome, res.warning != nil)
	c.mu.Unlock()
	return nil
}

func (c *Coordinator) finish(ctx context.Context, sc *scanner.Scanner, recursive bool, runErr error) (Status, error) {
	finishedAt := time.Now()

	c.mu.Lock()
	stopped := c.stopped
	c.mu.Unlock()

	state := StateIdle
	var failure error
	var lastErr string
	switch {
	case runErr == nil:
	case isFatal(runErr):
		state = StateFailed
	case errors.Is(runErr, context.Canceled) && ctx.Err() != nil:
		// StopScan, or the caller of Scan cancelled its context
		stopped = true
	default:
		state = StateFailed
	}
	if state == StateFailed {
		failure = runErr
		lastErr = runErr.Error()
	}

	if state == StateIdle && !stopped {
		if err := c.store.RecordScanRoot(context.WithoutCancel(ctx), sc.Root(), recursive, finishedAt); err != nil {
			log.Warn("Failed to record scan root %s: %v", sc.Root(), err)
		}
	}

	c.mu.Lock()
	c.status.State = state
	c.status.Discovered = sc.Discovered()
	c.status.Total = c.status.Discovered
	c.status.Unreadable = sc.Unreadable()
	c.status.CurrentFile = ""
	c.status.Stopped = stopped
	c.status.FinishedAt = finishedAt
	c.status.LastError = lastErr
	c.scan = nil
	c.cancel()
	c.cancel = nil
	final := c.status
	done := c.done
	c.mu.Unlock()

	duration := finishedAt.Sub(final.StartedAt)
	metrics.ScanRunning.Set(0)
	metrics.ScanRunsTotal.WithLabelValues(string(state)).Inc()
	metrics.ScanLastRunTimestamp.Set(float64(finishedAt.Unix()))
	metrics.ScanLastRunDuration.Set(duration.Seconds())

	if state == StateFailed {
		log.Error("Scan %s failed after %v: %s", final.ScanID, duration, lastErr)
	} else {
		log.Info("Scan %s %s in %v: discovered=%d processed=%d skipped=%d errors=%d duplicates=%d unchanged=%d warnings=%d unreadable=%d",
			final.ScanID, finishVerb(stopped), duration.Round(time.Millisecond),
			final.Discovered, final.Processed, final.Skipped, final.Errors,
			final.Duplicates, final.Unchanged, final.Warnings, final.Unreadable)
	}

	close(done)
	return final, failure
}

func finishVerb(stopped bool) string {
	if stopped {
		return "stopped"
	}
	return "complete"
}

func (c *Coordinator) setCurrent(path string) {
	c.mu.Lock()
	c.status.CurrentFile = path
	c.mu.Unlock()
}

func (c *Coordinator) addNewCollection() {
	c.mu.Lock()
	c.status.NewCollections++
	c.mu.Unlock()
}

// RunPeriodic scans root every interval until ctx is done. A tick that finds
// a scan already running is skipped.
func (c *Coordinator) RunPeriodic(ctx context.Context, root string, recursive bool, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			log.Debug("Periodic rescan triggered")
			if _, err := c.StartScan(ctx, root, recursive); err != nil {
				if errors.Is(err, ErrScanInProgress) {
					log.Info("Scan already in progress, skipping periodic rescan")
					continue
				}
				log.Error("Periodic rescan failed to start: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
