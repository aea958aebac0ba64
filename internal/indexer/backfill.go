package indexer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"media-indexer/internal/database"
	"media-indexer/internal/hasher"
	"media-indexer/internal/jobs"
	"media-indexer/internal/logging"
	"media-indexer/internal/workers"
)

// ErrNoValidDirs is returned when a backfill is restricted to directories
// none of which lie inside a configured root.
var ErrNoValidDirs = errors.New("no requested directory is inside a configured root")

// PhashStore is the persistence used by the backfill.
type PhashStore interface {
	ListUnhashedVideos(ctx context.Context, dirs []string) ([]database.UnhashedVideo, error)
	UpsertPerceptualHash(ctx context.Context, id int64, hash string) error
}

// VideoHasher computes a perceptual hash for a video of known duration.
type VideoHasher interface {
	Hash(ctx context.Context, path string, duration float64) (string, error)
}

// BackfillConfig tunes a Backfill.
type BackfillConfig struct {
	Workers int
	// ItemTimeout bounds hashing a single video. Zero disables the limit.
	ItemTimeout time.Duration
	// Roots are the configured scan roots; requested directories must lie
	// inside one of them.
	Roots []string
}

// BackfillResult summarizes a finished backfill.
type BackfillResult struct {
	Total     int
	Written   int
	NoHash    int
	Errors    int
	Cancelled bool
}

// Backfill computes missing perceptual hashes for stored videos.
type Backfill struct {
	store   PhashStore
	hasher  VideoHasher
	config  BackfillConfig
	tracker *jobs.Tracker
	log     *logging.Logger
}

// NewBackfill creates a backfill coordinator with its own progress tracker.
func NewBackfill(store PhashStore, h VideoHasher, config BackfillConfig) *Backfill {
	if config.Workers < 1 {
		config.Workers = workers.DefaultLimit
	}
	return &Backfill{
		store:   store,
		hasher:  h,
		config:  config,
		tracker: jobs.NewTracker("phash"),
		log:     logging.Prefixed("phash"),
	}
}

// Start begins a backfill in the background. dirs restricts the job to
// videos below those directories; empty means every video. ctx must outlive
// the caller.
func (b *Backfill) Start(ctx context.Context, dirs []string) (*jobs.Job, error) {
	dirs, err := b.FilterDirs(dirs)
	if err != nil {
		return nil, err
	}

	job, err := b.tracker.Start()
	if err != nil {
		return nil, err
	}

	go func() {
		if _, err := b.run(ctx, job, dirs); err != nil {
			b.log.Error("Phash backfill failed: %v", err)
		}
	}()
	return job, nil
}

// Run performs a backfill on the calling goroutine.
func (b *Backfill) Run(ctx context.Context, dirs []string) (BackfillResult, error) {
	dirs, err := b.FilterDirs(dirs)
	if err != nil {
		return BackfillResult{}, err
	}

	job, err := b.tracker.Start()
	if err != nil {
		return BackfillResult{}, err
	}
	return b.run(ctx, job, dirs)
}

// Stop requests cancellation of the active backfill.
func (b *Backfill) Stop() error {
	return b.tracker.Stop()
}

// Status returns the progress of the active or most recent backfill.
func (b *Backfill) Status() jobs.Status {
	return b.tracker.Status()
}

// Wait blocks until the active backfill has finished or ctx is done.
func (b *Backfill) Wait(ctx context.Context) error {
	return b.tracker.Wait(ctx)
}

// Running reports whether a backfill is active.
func (b *Backfill) Running() bool {
	return b.tracker.Running()
}

// FilterDirs cleans the requested directories and drops, with a warning,
// those outside every configured root. An empty request is returned as is.
func (b *Backfill) FilterDirs(dirs []string) ([]string, error) {
	if len(dirs) == 0 {
		return nil, nil
	}

	var kept []string
	for _, dir := range dirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			b.log.Warn("Ignoring directory %q: %v", dir, err)
			continue
		}
		if !b.underRoot(abs) {
			b.log.Warn("Ignoring directory outside configured roots: %s", dir)
			continue
		}
		kept = append(kept, abs)
	}

	if len(kept) == 0 {
		return nil, ErrNoValidDirs
	}
	return kept, nil
}

func (b *Backfill) underRoot(dir string) bool {
	for _, root := range b.config.Roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			continue
		}
		if within(abs, dir) {
			return true
		}
	}
	return false
}

func (b *Backfill) run(ctx context.Context, job *jobs.Job, dirs []string) (result BackfillResult, err error) {
	status := "failed"
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("phash backfill panicked: %v", r)
		}
		job.Finish(status)
	}()

	start := time.Now()

	videos, err := b.store.ListUnhashedVideos(ctx, dirs)
	if err != nil {
		return result, fmt.Errorf("list unhashed videos: %w", err)
	}
	result.Total = len(videos)
	job.SetTotal(len(videos))

	b.log.Info("Phash job starting: %d files to hash, %d workers", len(videos), b.config.Workers)

	stats := jobs.Run(ctx, job, videos, jobs.Options[database.UnhashedVideo]{
		Workers: b.config.Workers,
		Label:   func(v database.UnhashedVideo) string { return filepath.Base(v.Path) },
		Logger:  b.log,
	}, b.work, func(v database.UnhashedVideo, hash string) error {
		return b.store.UpsertPerceptualHash(ctx, v.ID, hash)
	})

	result.Written = stats.Written
	result.NoHash = stats.Dropped
	result.Errors = stats.Errors()
	result.Cancelled = stats.Cancelled

	status = "completed"
	if stats.Cancelled {
		status = "cancelled"
	}
	b.log.Info("Phash job %s in %v: %d/%d files hashed, %d without hash, %d errors",
		status, time.Since(start).Round(time.Millisecond), result.Written, result.Total, result.NoHash, result.Errors)
	return result, nil
}

func (b *Backfill) work(ctx context.Context, v database.UnhashedVideo) (string, bool, error) {
	if b.config.ItemTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.config.ItemTimeout)
		defer cancel()
	}

	hash, err := b.hasher.Hash(ctx, v.Path, v.Duration)
	if errors.Is(err, hasher.ErrNoHash) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return hash, true, nil
}
