package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeStats struct {
	stats LibraryStats
	err   error
}

func (f *fakeStats) LibraryStats(context.Context) (LibraryStats, error) {
	return f.stats, f.err
}

func TestCollectorCollect(t *testing.T) {
	provider := &fakeStats{stats: LibraryStats{
		ByCategory:  map[string]int{"video": 12, "audio": 3},
		QuickHashed: 14,
		Phashed:     9,
	}}

	c := NewCollector(provider, time.Hour)
	c.collect()

	if v := testutil.ToFloat64(MediaFilesTotal.WithLabelValues("video")); v != 12 {
		t.Errorf("video gauge = %v, want 12", v)
	}
	if v := testutil.ToFloat64(MediaFilesTotal.WithLabelValues("vr")); v != 0 {
		t.Errorf("vr gauge = %v, want 0", v)
	}
	if v := testutil.ToFloat64(MediaFilesHashed.WithLabelValues("phash")); v != 9 {
		t.Errorf("phash gauge = %v, want 9", v)
	}
}

func TestCollectorKeepsGaugesOnError(t *testing.T) {
	MediaFilesHashed.WithLabelValues("quick").Set(5)

	c := NewCollector(&fakeStats{err: errors.New("database is locked")}, time.Hour)
	c.collect()

	if v := testutil.ToFloat64(MediaFilesHashed.WithLabelValues("quick")); v != 5 {
		t.Errorf("quick gauge = %v, want unchanged 5", v)
	}
}

func TestCollectorNilProvider(_ *testing.T) {
	c := NewCollector(nil, time.Hour)
	c.collect()
}

func TestCollectorStartStop(_ *testing.T) {
	c := NewCollector(&fakeStats{}, 10*time.Millisecond)
	c.Start()
	time.Sleep(25 * time.Millisecond)
	c.Stop()
}

type poolStats struct {
	fakeStats
	updates int
}

func (p *poolStats) UpdateDBMetrics() { p.updates++ }

func TestCollectorUpdatesPoolGauges(t *testing.T) {
	provider := &poolStats{}

	c := NewCollector(provider, time.Hour)
	c.collect()

	if provider.updates != 1 {
		t.Errorf("UpdateDBMetrics calls = %d, want 1", provider.updates)
	}
}
