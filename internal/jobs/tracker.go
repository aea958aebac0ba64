package jobs

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"media-indexer/internal/metrics"
)

var (
	// ErrAlreadyRunning is returned by Start while a job of the same kind is active.
	ErrAlreadyRunning = errors.New("job already running")

	// ErrNotRunning is returned by Stop when no job of that kind is active.
	ErrNotRunning = errors.New("job not running")
)

// Status is the progress snapshot exposed to status endpoints.
type Status struct {
	Running     bool    `json:"running"`
	Total       int     `json:"total"`
	Processed   int     `json:"processed"`
	CurrentItem string  `json:"current_item"`
	Percent     float64 `json:"percent"`
}

// percent returns processed/total*100 rounded to one decimal, or 0 for an
// empty job.
func percent(processed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(processed)/float64(total)*1000) / 10
}

// Tracker enforces single-flight for one job kind and remembers the most
// recent job so its final progress stays visible after it finishes.
type Tracker struct {
	name string

	mu     sync.Mutex
	active *Job
	last   *Job
}

// NewTracker creates a tracker. name labels logs and metrics ("scan", "phash").
func NewTracker(name string) *Tracker {
	return &Tracker{name: name}
}

// Name returns the job kind.
func (t *Tracker) Name() string {
	return t.name
}

// Start atomically claims the tracker and returns a fresh Job with zeroed
// progress. The caller must call Job.Finish when the run ends.
func (t *Tracker) Start() (*Job, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active != nil {
		return nil, ErrAlreadyRunning
	}

	job := &Job{
		tracker:   t,
		startedAt: time.Now(),
		cancelCh:  make(chan struct{}),
		done:      make(chan struct{}),
	}
	t.active = job
	t.last = job

	metrics.JobRunning.WithLabelValues(t.name).Set(1)
	return job, nil
}

// Stop requests cooperative cancellation of the active job.
func (t *Tracker) Stop() error {
	t.mu.Lock()
	job := t.active
	t.mu.Unlock()

	if job == nil {
		return ErrNotRunning
	}
	job.RequestCancel()
	return nil
}

// Running reports whether a job of this kind is active.
func (t *Tracker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active != nil
}

// Active returns the running job, or nil.
func (t *Tracker) Active() *Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Wait blocks until no job is active or ctx is done.
func (t *Tracker) Wait(ctx context.Context) error {
	job := t.Active()
	if job == nil {
		return nil
	}
	select {
	case <-job.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status returns the progress of the active job, or the final progress of the
// last finished job with Running false.
func (t *Tracker) Status() Status {
	t.mu.Lock()
	job := t.last
	t.mu.Unlock()

	if job == nil {
		return Status{}
	}
	return job.Status()
}

func (t *Tracker) release(job *Job) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active == job {
		t.active = nil
		metrics.JobRunning.WithLabelValues(t.name).Set(0)
	}
}
