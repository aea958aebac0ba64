package handlers

import (
	"context"
	"time"

	"media-indexer/internal/database"
	"media-indexer/internal/jobs"
	"media-indexer/internal/metrics"
)

// JobControl is the part of a background job coordinator shared by the scan
// and the phash backfill.
type JobControl interface {
	Stop() error
	Status() jobs.Status
	Running() bool
}

// ScanControl starts library scans.
type ScanControl interface {
	JobControl
	Start(ctx context.Context) (*jobs.Job, error)
}

// BackfillControl starts perceptual hash backfills.
type BackfillControl interface {
	JobControl
	Start(ctx context.Context, dirs []string) (*jobs.Job, error)
}

// LibraryStore answers the read-only queries behind the status endpoints.
type LibraryStore interface {
	LatestRun(ctx context.Context) (*database.ScanRun, error)
	LibraryStats(ctx context.Context) (metrics.LibraryStats, error)
}

type Handlers struct {
	store     LibraryStore
	scanner   ScanControl
	backfill  BackfillControl
	baseCtx   context.Context
	startedAt time.Time
}

// New creates the handlers. Jobs started over HTTP run under baseCtx rather
// than the request context so they outlive the request.
func New(baseCtx context.Context, store LibraryStore, scanner ScanControl, backfill BackfillControl) *Handlers {
	return &Handlers{
		store:     store,
		scanner:   scanner,
		backfill:  backfill,
		baseCtx:   baseCtx,
		startedAt: time.Now(),
	}
}
