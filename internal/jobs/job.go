package jobs

import (
	"sync"
	"time"

	"media-indexer/internal/metrics"
)

// Job is the progress and cancellation handle of one run. It is created by
// Tracker.Start and shared between the coordinator, Run and status readers.
type Job struct {
	tracker   *Tracker
	startedAt time.Time

	mu              sync.Mutex
	total           int
	processed       int
	current         string
	cancelRequested bool
	finished        bool

	cancelOnce sync.Once
	cancelCh   chan struct{}
	finishOnce sync.Once
	done       chan struct{}
}

// Name returns the job kind of the owning tracker.
func (j *Job) Name() string {
	return j.tracker.name
}

// StartedAt returns when the job was claimed.
func (j *Job) StartedAt() time.Time {
	return j.startedAt
}

// SetTotal sets the number of items the job will process and resets the
// processed counter.
func (j *Job) SetTotal(total int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.total = total
	j.processed = 0
	j.current = ""
}

// Advance records one more completed item.
func (j *Job) Advance(label string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.processed++
	j.current = label
}

// RequestCancel asks the job to stop. Items already being worked on finish,
// but no further results are written.
func (j *Job) RequestCancel() {
	j.mu.Lock()
	if !j.finished {
		j.cancelRequested = true
	}
	j.mu.Unlock()

	j.cancelOnce.Do(func() { close(j.cancelCh) })
}

// Cancelled reports whether cancellation has been requested for the running job.
func (j *Job) Cancelled() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.cancelRequested
}

// cancelRequests is closed on the first RequestCancel.
func (j *Job) cancelRequests() <-chan struct{} {
	return j.cancelCh
}

// Done is closed once Finish has been called.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Status returns a consistent snapshot of the job's progress.
func (j *Job) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	return Status{
		Running:     !j.finished,
		Total:       j.total,
		Processed:   j.processed,
		CurrentItem: j.current,
		Percent:     percent(j.processed, j.total),
	}
}

// Finish clears the running and cancellation flags and releases the
// tracker so a new job of the same kind can start. status labels the run
// metric ("completed", "cancelled", "failed"). Calling Finish more than
// once has no effect.
func (j *Job) Finish(status string) {
	j.finishOnce.Do(func() {
		j.mu.Lock()
		j.finished = true
		j.cancelRequested = false
		j.mu.Unlock()

		name := j.tracker.name
		metrics.JobRunsTotal.WithLabelValues(name, status).Inc()
		metrics.JobLastRunDuration.WithLabelValues(name).Set(time.Since(j.startedAt).Seconds())
		metrics.JobLastRunTimestamp.WithLabelValues(name).Set(float64(time.Now().Unix()))

		j.tracker.release(j)
		close(j.done)
	})
}
