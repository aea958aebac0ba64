package indexer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"media-indexer/internal/database"
	"media-indexer/internal/filesystem"
	"media-indexer/internal/hasher"
	"media-indexer/internal/jobs"
	"media-indexer/internal/logging"
	"media-indexer/internal/probe"
	"media-indexer/internal/workers"
)

// ScanStore is the persistence used by a scan.
type ScanStore interface {
	StateStore
	UpsertMediaRecord(ctx context.Context, rec *database.MediaFile) (int64, error)
	UpsertQuickHashByPath(ctx context.Context, path, hash string) error
	StartRun(ctx context.Context) (string, error)
	FinishRun(ctx context.Context, id string, total, written, errorCount int) error
	FailRun(ctx context.Context, id string, written int) error
}

// ScannerConfig tunes a Scanner.
type ScannerConfig struct {
	// Workers is the size of the probe/hash pool.
	Workers int
	// ItemTimeout bounds the work on a single file, including the probe
	// subprocess. Zero disables the limit.
	ItemTimeout time.Duration
	// QuickHash computes the quick hash. Defaults to hasher.QuickHash.
	QuickHash func(path string) (string, error)
}

// RunResult summarizes a finished scan.
type RunResult struct {
	RunID     string
	Total     int
	Written   int
	Errors    int
	Cancelled bool
}

// Scanner coordinates full library scans.
type Scanner struct {
	store      ScanStore
	discoverer *Discoverer
	prober     probe.Prober
	config     ScannerConfig
	tracker    *jobs.Tracker
	log        *logging.Logger
}

// NewScanner creates a scan coordinator.
func NewScanner(store ScanStore, discoverer *Discoverer, prober probe.Prober, config ScannerConfig) *Scanner {
	if config.Workers < 1 {
		config.Workers = workers.DefaultLimit
	}
	if config.QuickHash == nil {
		config.QuickHash = hasher.QuickHash
	}
	return &Scanner{
		store:      store,
		discoverer: discoverer,
		prober:     prober,
		config:     config,
		tracker:    jobs.NewTracker("scan"),
		log:        logging.Prefixed("scan"),
	}
}

// Start begins a scan in the background and returns its job handle. ctx
// governs the whole scan and must outlive the caller, e.g. a server context.
// It returns jobs.ErrAlreadyRunning when a scan is active.
func (s *Scanner) Start(ctx context.Context) (*jobs.Job, error) {
	job, err := s.tracker.Start()
	if err != nil {
		return nil, err
	}

	go func() {
		if _, err := s.run(ctx, job); err != nil {
			s.log.Error("Scan failed: %v", err)
		}
	}()
	return job, nil
}

// Run performs a scan on the calling goroutine.
func (s *Scanner) Run(ctx context.Context) (RunResult, error) {
	job, err := s.tracker.Start()
	if err != nil {
		return RunResult{}, err
	}
	return s.run(ctx, job)
}

// Stop requests cancellation of the active scan.
func (s *Scanner) Stop() error {
	return s.tracker.Stop()
}

// Status returns the progress of the active or most recent scan.
func (s *Scanner) Status() jobs.Status {
	return s.tracker.Status()
}

// Wait blocks until the active scan has finished or ctx is done.
func (s *Scanner) Wait(ctx context.Context) error {
	return s.tracker.Wait(ctx)
}

// Running reports whether a scan is active.
func (s *Scanner) Running() bool {
	return s.tracker.Running()
}

func (s *Scanner) run(ctx context.Context, job *jobs.Job) (result RunResult, err error) {
	status := "failed"
	// Once a run row exists it must always be finalized, even when ctx is
	// cancelled or the scan panics.
	finalizeCtx := context.WithoutCancel(ctx)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scan panicked: %v", r)
		}
		if err != nil && result.RunID != "" {
			if failErr := s.store.FailRun(finalizeCtx, result.RunID, result.Written); failErr != nil {
				err = errors.Join(err, fmt.Errorf("fail run: %w", failErr))
			}
		}
		job.Finish(status)
	}()

	start := time.Now()
	s.log.Info("Starting library scan")

	candidates, err := s.discoverer.Discover(ctx)
	if err != nil {
		return result, fmt.Errorf("discovery: %w", err)
	}

	runID, err := s.store.StartRun(ctx)
	if err != nil {
		return result, fmt.Errorf("start run: %w", err)
	}
	result.RunID = runID
	result.Total = len(candidates)

	job.SetTotal(len(candidates))
	s.log.Info("Scanning %d candidates with %d workers (run %s)", len(candidates), s.config.Workers, runID)

	stats := jobs.Run(ctx, job, candidates, jobs.Options[Candidate]{
		Workers: s.config.Workers,
		Label:   func(c Candidate) string { return filepath.Base(c.Path) },
		Logger:  s.log,
	}, s.work, s.writer(ctx))

	result.Written = stats.Written
	result.Errors = stats.Errors()
	result.Cancelled = stats.Cancelled

	if err = s.store.FinishRun(finalizeCtx, runID, result.Total, result.Written, result.Errors); err != nil {
		return result, fmt.Errorf("finish run: %w", err)
	}

	status = "completed"
	if stats.Cancelled {
		status = "cancelled"
	}
	s.log.Info("Scan %s in %v: %d/%d written, %d dropped, %d errors",
		status, time.Since(start).Round(time.Millisecond), stats.Written, result.Total, stats.Dropped, result.Errors)
	return result, nil
}

// work adapts evaluate to the job runner: skips need no write and failures
// are reported as errors.
func (s *Scanner) work(ctx context.Context, c Candidate) (Outcome, bool, error) {
	switch o := s.evaluate(ctx, c).(type) {
	case SkipOutcome:
		return o, false, nil
	case FailureOutcome:
		return o, false, o.Reason
	default:
		return o, true, nil
	}
}

func (s *Scanner) evaluate(ctx context.Context, c Candidate) Outcome {
	if s.config.ItemTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ItemTimeout)
		defer cancel()
	}

	// The file may have been swapped for a symlink since discovery.
	if err := Contained(c.Root, c.Path); err != nil {
		return FailureOutcome{Reason: err}
	}

	info, err := filesystem.StatWithRetry(c.Path, s.discoverer.Retry)
	if err != nil {
		return FailureOutcome{Reason: err}
	}
	if info.IsDir() {
		return FailureOutcome{Reason: fmt.Errorf("%s is a directory", c.Path)}
	}

	action, err := Classify(ctx, s.store, c.Path, info.Size(), info.ModTime())
	if err != nil {
		return FailureOutcome{Reason: fmt.Errorf("change check: %w", err)}
	}

	switch action {
	case ActionSkip:
		return SkipOutcome{}

	case ActionHashOnly:
		hash, err := s.config.QuickHash(c.Path)
		if err != nil {
			return FailureOutcome{Reason: fmt.Errorf("quick hash: %w", err)}
		}
		return HashOnlyUpdate{Hash: hash}

	default:
		md, err := s.prober.Probe(ctx, c.Path)
		if err != nil {
			return FailureOutcome{Reason: err}
		}
		hash, err := s.config.QuickHash(c.Path)
		if err != nil {
			return FailureOutcome{Reason: fmt.Errorf("quick hash: %w", err)}
		}
		return FullUpdate{
			Record: &database.MediaFile{
				Path:       c.Path,
				Filename:   filepath.Base(c.Path),
				Size:       info.Size(),
				ModTime:    info.ModTime(),
				Category:   c.Category,
				Format:     md.Format,
				Duration:   md.Duration,
				Bitrate:    md.Bitrate,
				Width:      md.Width,
				Height:     md.Height,
				VideoCodec: md.VideoCodec,
				AudioCodec: md.AudioCodec,
			},
			Hash: hash,
		}
	}
}

func (s *Scanner) writer(ctx context.Context) jobs.Writer[Candidate, Outcome] {
	return func(c Candidate, o Outcome) error {
		switch o := o.(type) {
		case HashOnlyUpdate:
			return s.store.UpsertQuickHashByPath(ctx, c.Path, o.Hash)
		case FullUpdate:
			o.Record.QuickHash = o.Hash
			_, err := s.store.UpsertMediaRecord(ctx, o.Record)
			return err
		case SkipOutcome, FailureOutcome:
			return fmt.Errorf("%T reached the writer for %s", o, c.Path)
		default:
			return fmt.Errorf("unknown outcome %T for %s", o, c.Path)
		}
	}
}
