package jobs

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"media-indexer/internal/logging"
	"media-indexer/internal/metrics"
)

// Worker performs the expensive per-item stage. It returns ok=false when the
// item needs no write. It runs concurrently and must not touch shared state
// without its own synchronization.
type Worker[T, R any] func(ctx context.Context, item T) (result R, ok bool, err error)

// Writer performs the write-back for one successful result. All writer calls
// happen on the goroutine that called Run.
type Writer[T, R any] func(item T, result R) error

// Options configures Run.
type Options[T any] struct {
	// Workers is the pool size. Values below 1 mean a single worker.
	Workers int

	// Label names an item for logs and the progress label. Defaults to the
	// base name of fmt.Sprint(item).
	Label func(T) string

	Logger *logging.Logger
}

func (o Options[T]) label(item T) string {
	if o.Label != nil {
		return o.Label(item)
	}
	return filepath.Base(fmt.Sprint(item))
}

// Stats summarizes a finished Run.
type Stats struct {
	// Written counts items whose writer call returned without error.
	Written int
	// Dropped counts items the worker reported as needing no write.
	Dropped int
	// Failed counts items whose worker returned an error or panicked.
	Failed int
	// WriteFailed counts items whose writer returned an error or panicked.
	WriteFailed int
	// Discarded counts results that completed after cancellation.
	Discarded int
	// Cancelled is true when the run stopped on a cancellation request or
	// a cancelled parent context.
	Cancelled bool
}

// Errors is the number of items that failed in either stage.
func (s Stats) Errors() int {
	return s.Failed + s.WriteFailed
}

type completion[T, R any] struct {
	item   T
	result R
	ok     bool
	err    error
}

// Run processes items with a bounded pool of workers and serializes every
// writer call onto the calling goroutine. Results are handled in completion
// order. After each completed item the job's progress is advanced, whether
// the item was written, dropped or discarded.
//
// Cancellation, either through job.RequestCancel or ctx, stops dispatch of
// items not yet started and suppresses all further writes. Workers already
// running are not interrupted by a cancel request; Run waits for them and
// discards their results.
func Run[T, R any](ctx context.Context, job *Job, items []T, opts Options[T], work Worker[T, R], write Writer[T, R]) Stats {
	var stats Stats
	if len(items) == 0 {
		return stats
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(items) {
		workers = len(items)
	}

	name := job.Name()
	log := opts.Logger
	metrics.JobWorkers.WithLabelValues(name).Set(float64(workers))

	// dispatchCtx only gates the hand-off of new items. Workers receive the
	// caller's ctx so a cancel request never kills an in-flight subprocess.
	dispatchCtx, stopDispatch := context.WithCancel(ctx)
	defer stopDispatch()
	go func() {
		select {
		case <-job.cancelRequests():
			stopDispatch()
		case <-dispatchCtx.Done():
		}
	}()

	queue := make(chan T)
	results := make(chan completion[T, R], workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range queue {
				if dispatchCtx.Err() != nil || job.Cancelled() {
					continue
				}
				results <- runWorker(ctx, work, item)
			}
		}()
	}

	go func() {
		defer close(queue)
		for _, item := range items {
			select {
			case queue <- item:
			case <-dispatchCtx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for c := range results {
		completed++
		label := opts.label(c.item)

		switch {
		case stats.Cancelled || job.Cancelled() || ctx.Err() != nil:
			if !stats.Cancelled {
				stats.Cancelled = true
				stopDispatch()
				log.Info("Job cancelled after %d written items", stats.Written)
			}
			stats.Discarded++
			metrics.JobItemsTotal.WithLabelValues(name, "discarded").Inc()
		case c.err != nil:
			stats.Failed++
			metrics.JobItemsTotal.WithLabelValues(name, "failed").Inc()
			log.Warn("Worker failed for %s: %v", label, c.err)
		case !c.ok:
			stats.Dropped++
			metrics.JobItemsTotal.WithLabelValues(name, "dropped").Inc()
		default:
			if err := runWriter(write, c.item, c.result); err != nil {
				stats.WriteFailed++
				metrics.JobItemsTotal.WithLabelValues(name, "write_failed").Inc()
				log.Warn("Writer failed for %s: %v", label, err)
			} else {
				stats.Written++
				metrics.JobItemsTotal.WithLabelValues(name, "written").Inc()
			}
		}

		job.Advance(label)
	}

	// Items never dispatched mean the run was cut short.
	if completed < len(items) {
		stats.Cancelled = true
	}
	return stats
}

func runWorker[T, R any](ctx context.Context, work Worker[T, R], item T) (c completion[T, R]) {
	c.item = item
	defer func() {
		if r := recover(); r != nil {
			c.ok = false
			c.err = fmt.Errorf("worker panic: %v", r)
		}
	}()
	c.result, c.ok, c.err = work(ctx, item)
	return c
}

func runWriter[T, R any](write Writer[T, R], item T, result R) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("writer panic: %v", r)
		}
	}()
	return write(item, result)
}
