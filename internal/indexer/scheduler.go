package indexer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"media-indexer/internal/jobs"
	"media-indexer/internal/logging"
)

// Scheduler triggers a scan at a fixed interval. A tick that finds a scan
// already running is skipped, not queued.
type Scheduler struct {
	scanner  *Scanner
	interval time.Duration

	started  atomic.Bool
	stopOnce sync.Once
	stopChan chan struct{}
	done     chan struct{}
}

// NewScheduler creates a scheduler. It does nothing until Start is called.
func NewScheduler(scanner *Scanner, interval time.Duration) *Scheduler {
	return &Scheduler{
		scanner:  scanner,
		interval: interval,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the periodic loop. A non-positive interval disables it.
func (s *Scheduler) Start(ctx context.Context) {
	if s.interval <= 0 || !s.started.CompareAndSwap(false, true) {
		return
	}
	logging.Info("Periodic scan enabled every %v", s.interval)
	go s.loop(ctx)
}

// Stop ends the loop and waits for an in-progress tick to return. A scan
// already running is not cancelled; use Scanner.Stop for that.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	if s.started.Load() {
		<-s.done
	}
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			logging.Debug("Periodic scan triggered")
			if _, err := s.scanner.Start(ctx); err != nil {
				if errors.Is(err, jobs.ErrAlreadyRunning) {
					logging.Info("Scan already in progress, skipping periodic scan")
					continue
				}
				logging.Error("Periodic scan failed to start: %v", err)
			}
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}
