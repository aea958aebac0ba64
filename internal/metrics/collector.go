package metrics

import (
	"context"
	"time"

	"media-indexer/internal/logging"
)

// LibraryStats is a point-in-time summary of the indexed library.
type LibraryStats struct {
	ByCategory  map[string]int
	QuickHashed int
	Phashed     int
}

// StatsProvider supplies library statistics to the Collector.
type StatsProvider interface {
	LibraryStats(ctx context.Context) (LibraryStats, error)
}

// poolReporter is implemented by providers that also publish connection
// pool gauges.
type poolReporter interface {
	UpdateDBMetrics()
}

// Collector periodically refreshes the library gauges.
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	if pool, ok := c.statsProvider.(poolReporter); ok {
		pool.UpdateDBMetrics()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stats, err := c.statsProvider.LibraryStats(ctx)
	if err != nil {
		logging.Warn("Failed to collect library stats: %v", err)
		return
	}

	for _, category := range []string{"video", "audio", "vr"} {
		MediaFilesTotal.WithLabelValues(category).Set(float64(stats.ByCategory[category]))
	}
	MediaFilesHashed.WithLabelValues("quick").Set(float64(stats.QuickHashed))
	MediaFilesHashed.WithLabelValues("phash").Set(float64(stats.Phashed))

	logging.Debug("Metrics collected: categories=%v, quick=%d, phash=%d",
		stats.ByCategory, stats.QuickHashed, stats.Phashed)
}
