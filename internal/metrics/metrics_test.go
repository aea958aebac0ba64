package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestJobMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"JobRunsTotal", JobRunsTotal},
		{"JobRunning", JobRunning},
		{"JobItemsTotal", JobItemsTotal},
		{"JobWorkers", JobWorkers},
		{"JobLastRunDuration", JobLastRunDuration},
		{"JobLastRunTimestamp", JobLastRunTimestamp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestInitializeMetricsPopulatesLabels(t *testing.T) {
	InitializeMetrics()

	if n := testutil.CollectAndCount(JobItemsTotal); n != 10 {
		t.Errorf("JobItemsTotal series = %d, want 10", n)
	}
	if n := testutil.CollectAndCount(ScanGateDecisions); n != 3 {
		t.Errorf("ScanGateDecisions series = %d, want 3", n)
	}
	if n := testutil.CollectAndCount(MediaFilesTotal); n != 3 {
		t.Errorf("MediaFilesTotal series = %d, want 3", n)
	}
}

func TestFilesystemObserver(t *testing.T) {
	o := NewFilesystemObserver()

	before := testutil.ToFloat64(FilesystemStaleErrors.WithLabelValues("stat", "media"))
	o.ObserveStaleError("stat", "media")
	after := testutil.ToFloat64(FilesystemStaleErrors.WithLabelValues("stat", "media"))

	if after-before != 1 {
		t.Errorf("stale error counter delta = %v, want 1", after-before)
	}
}

func TestSetAppInfo(t *testing.T) {
	SetAppInfo("1.0.0", "abc123", "go1.25")

	if v := testutil.ToFloat64(AppInfo.WithLabelValues("1.0.0", "abc123", "go1.25")); v != 1 {
		t.Errorf("AppInfo = %v, want 1", v)
	}
}
