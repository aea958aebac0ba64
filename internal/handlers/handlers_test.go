package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"media-indexer/internal/database"
	"media-indexer/internal/indexer"
	"media-indexer/internal/jobs"
	"media-indexer/internal/metrics"
	"media-indexer/internal/startup"
)

// =============================================================================
// Fakes
// =============================================================================

type fakeJobs struct {
	mu       sync.Mutex
	running  bool
	status   jobs.Status
	startErr error
	gotCtx   context.Context
	gotDirs  []string
	stops    int
}

func (f *fakeJobs) start(ctx context.Context, dirs []string) (*jobs.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return nil, f.startErr
	}
	if f.running {
		return nil, jobs.ErrAlreadyRunning
	}
	f.running = true
	f.gotCtx = ctx
	f.gotDirs = dirs
	return nil, nil
}

func (f *fakeJobs) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.running {
		return jobs.ErrNotRunning
	}
	f.stops++
	return nil
}

func (f *fakeJobs) Status() jobs.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.status
	s.Running = f.running
	return s
}

func (f *fakeJobs) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

type fakeScanner struct{ fakeJobs }

func (f *fakeScanner) Start(ctx context.Context) (*jobs.Job, error) {
	return f.start(ctx, nil)
}

type fakeBackfill struct{ fakeJobs }

func (f *fakeBackfill) Start(ctx context.Context, dirs []string) (*jobs.Job, error) {
	return f.start(ctx, dirs)
}

type fakeStore struct {
	run      *database.ScanRun
	runErr   error
	stats    metrics.LibraryStats
	statsErr error
}

func (f *fakeStore) LatestRun(context.Context) (*database.ScanRun, error) {
	if f.runErr != nil {
		return nil, f.runErr
	}
	if f.run == nil {
		return nil, sql.ErrNoRows
	}
	return f.run, nil
}

func (f *fakeStore) LibraryStats(context.Context) (metrics.LibraryStats, error) {
	return f.stats, f.statsErr
}

type ctxKey struct{}

type testServer struct {
	router   *mux.Router
	store    *fakeStore
	scanner  *fakeScanner
	backfill *fakeBackfill
	baseCtx  context.Context
}

func newTestServer() *testServer {
	ts := &testServer{
		router:   mux.NewRouter(),
		store:    &fakeStore{},
		scanner:  &fakeScanner{},
		backfill: &fakeBackfill{},
		baseCtx:  context.WithValue(context.Background(), ctxKey{}, "server"),
	}
	New(ts.baseCtx, ts.store, ts.scanner, ts.backfill).Register(ts.router)
	return ts
}

func (ts *testServer) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decodeMap(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.NewDecoder(w.Body).Decode(&m); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return m
}

// =============================================================================
// Scan Endpoint Tests
// =============================================================================

func TestStartScan(t *testing.T) {
	t.Parallel()

	ts := newTestServer()

	w := ts.do(http.MethodPost, "/api/scan", "")
	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d", w.Code)
	}
	if got := decodeMap(t, w)["status"]; got != "started" {
		t.Errorf("Expected status started, got %v", got)
	}

	// The job must run under the server context, not the request's.
	if ts.scanner.gotCtx.Value(ctxKey{}) != "server" {
		t.Error("Expected scan to be started with the base context")
	}
}

func TestStartScanConflict(t *testing.T) {
	t.Parallel()

	ts := newTestServer()
	ts.scanner.running = true
	ts.scanner.status = jobs.Status{Total: 10, Processed: 4, CurrentItem: "a.mkv", Percent: 40}

	w := ts.do(http.MethodPost, "/api/scan", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("Expected status 409, got %d", w.Code)
	}

	var resp conflictResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Error == "" {
		t.Error("Expected an error message")
	}
	if !resp.Progress.Running || resp.Progress.Processed != 4 {
		t.Errorf("Expected current progress in conflict body, got %+v", resp.Progress)
	}
}

func TestStartScanInternalError(t *testing.T) {
	t.Parallel()

	ts := newTestServer()
	ts.scanner.startErr = errors.New("disk on fire")

	w := ts.do(http.MethodPost, "/api/scan", "")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
}

func TestStopScan(t *testing.T) {
	t.Parallel()

	ts := newTestServer()

	if w := ts.do(http.MethodPost, "/api/scan/stop", ""); w.Code != http.StatusConflict {
		t.Errorf("Expected 409 when idle, got %d", w.Code)
	}

	ts.scanner.running = true
	w := ts.do(http.MethodPost, "/api/scan/stop", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if got := decodeMap(t, w)["status"]; got != "stopping" {
		t.Errorf("Expected status stopping, got %v", got)
	}
	if ts.scanner.stops != 1 {
		t.Errorf("Expected 1 stop request, got %d", ts.scanner.stops)
	}
}

func TestScanStatus(t *testing.T) {
	t.Parallel()

	finished := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name        string
		run         *database.ScanRun
		runErr      error
		wantLastRun bool
	}{
		{name: "no runs yet", wantLastRun: false},
		{
			name: "with latest run",
			run: &database.ScanRun{
				ID: "run-1", StartedAt: finished.Add(-time.Minute), FinishedAt: &finished,
				Total: 5, Written: 5, Status: database.RunCompleted,
			},
			wantLastRun: true,
		},
		{name: "store error", runErr: errors.New("locked"), wantLastRun: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ts := newTestServer()
			ts.store.run = tt.run
			ts.store.runErr = tt.runErr
			ts.scanner.status = jobs.Status{Total: 5, Processed: 5, Percent: 100}

			w := ts.do(http.MethodGet, "/api/scan/status", "")
			if w.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d", w.Code)
			}

			body := decodeMap(t, w)
			for _, key := range []string{"running", "total", "processed", "current_item", "percent"} {
				if _, ok := body[key]; !ok {
					t.Errorf("Expected key %q in status body", key)
				}
			}
			if body["total"] != float64(5) {
				t.Errorf("Expected total 5, got %v", body["total"])
			}

			lastRun, ok := body["last_run"].(map[string]any)
			if ok != tt.wantLastRun {
				t.Fatalf("Expected last_run present=%v, got %v", tt.wantLastRun, body["last_run"])
			}
			if ok && lastRun["status"] != string(database.RunCompleted) {
				t.Errorf("Expected completed run, got %v", lastRun["status"])
			}
		})
	}
}

// =============================================================================
// Phash Endpoint Tests
// =============================================================================

func TestStartPhash(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		startErr error
		running  bool
		wantCode int
		wantDirs []string
	}{
		{name: "no body", wantCode: http.StatusAccepted},
		{name: "empty object", body: `{}`, wantCode: http.StatusAccepted},
		{
			name:     "with dirs",
			body:     `{"dirs": ["/media/movies", "/media/tv"]}`,
			wantCode: http.StatusAccepted,
			wantDirs: []string{"/media/movies", "/media/tv"},
		},
		{name: "malformed body", body: `{"dirs": `, wantCode: http.StatusBadRequest},
		{name: "no valid dirs", body: `{"dirs": ["/etc"]}`, startErr: indexer.ErrNoValidDirs, wantCode: http.StatusBadRequest},
		{name: "already running", running: true, wantCode: http.StatusConflict},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ts := newTestServer()
			ts.backfill.running = tt.running
			ts.backfill.startErr = tt.startErr

			w := ts.do(http.MethodPost, "/api/phash", tt.body)
			if w.Code != tt.wantCode {
				t.Fatalf("Expected status %d, got %d (%s)", tt.wantCode, w.Code, w.Body.String())
			}
			if tt.wantCode != http.StatusAccepted {
				return
			}

			if len(ts.backfill.gotDirs) != len(tt.wantDirs) {
				t.Fatalf("Expected dirs %v, got %v", tt.wantDirs, ts.backfill.gotDirs)
			}
			for i := range tt.wantDirs {
				if ts.backfill.gotDirs[i] != tt.wantDirs[i] {
					t.Errorf("dir %d: expected %q, got %q", i, tt.wantDirs[i], ts.backfill.gotDirs[i])
				}
			}
			if ts.backfill.gotCtx.Value(ctxKey{}) != "server" {
				t.Error("Expected backfill to be started with the base context")
			}
		})
	}
}

func TestPhashStopAndStatus(t *testing.T) {
	t.Parallel()

	ts := newTestServer()

	if w := ts.do(http.MethodPost, "/api/phash/stop", ""); w.Code != http.StatusConflict {
		t.Errorf("Expected 409 when idle, got %d", w.Code)
	}

	ts.backfill.running = true
	ts.backfill.status = jobs.Status{Total: 8, Processed: 2, CurrentItem: "clip.mp4", Percent: 25}

	if w := ts.do(http.MethodPost, "/api/phash/stop", ""); w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}

	w := ts.do(http.MethodGet, "/api/phash/status", "")
	var status jobs.Status
	if err := json.NewDecoder(w.Body).Decode(&status); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !status.Running || status.CurrentItem != "clip.mp4" || status.Percent != 25 {
		t.Errorf("Unexpected status %+v", status)
	}
}

func TestScanAndPhashAreIndependent(t *testing.T) {
	t.Parallel()

	ts := newTestServer()

	if w := ts.do(http.MethodPost, "/api/scan", ""); w.Code != http.StatusAccepted {
		t.Fatalf("Expected scan to start, got %d", w.Code)
	}
	if w := ts.do(http.MethodPost, "/api/phash", ""); w.Code != http.StatusAccepted {
		t.Fatalf("Expected backfill to start during a scan, got %d", w.Code)
	}
}

func TestWrongMethodRejected(t *testing.T) {
	t.Parallel()

	ts := newTestServer()

	if w := ts.do(http.MethodGet, "/api/scan", ""); w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", w.Code)
	}
}

// =============================================================================
// Stats, Health and Version Tests
// =============================================================================

func TestGetStats(t *testing.T) {
	t.Parallel()

	ts := newTestServer()
	ts.store.stats = metrics.LibraryStats{
		ByCategory:  map[string]int{"video": 3, "audio": 2},
		QuickHashed: 4,
		Phashed:     1,
	}

	w := ts.do(http.MethodGet, "/api/stats", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp StatsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Total != 5 || resp.QuickHashed != 4 || resp.Phashed != 1 {
		t.Errorf("Unexpected stats %+v", resp)
	}

	ts.store.statsErr = errors.New("locked")
	if w := ts.do(http.MethodGet, "/api/stats", ""); w.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500 on store error, got %d", w.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()

	ts := newTestServer()
	ts.scanner.running = true

	w := ts.do(http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Status != statusHealthy || !resp.Scanning || resp.Hashing {
		t.Errorf("Unexpected health %+v", resp)
	}
	if resp.GoVersion == "" || resp.NumCPU < 1 {
		t.Errorf("Expected system info, got %+v", resp)
	}

	ts.store.statsErr = errors.New("database is locked")
	w = ts.do(http.MethodGet, "/health", "")
	resp = HealthResponse{}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Status != statusDegraded {
		t.Errorf("Expected degraded status, got %q", resp.Status)
	}
}

func TestLivenessAndReadiness(t *testing.T) {
	t.Parallel()

	ts := newTestServer()

	if w := ts.do(http.MethodGet, "/livez", ""); w.Code != http.StatusOK {
		t.Errorf("Expected livez 200, got %d", w.Code)
	}
	if w := ts.do(http.MethodHead, "/livez", ""); w.Body.Len() != 0 {
		t.Errorf("Expected empty HEAD body, got %q", w.Body.String())
	}
	if w := ts.do(http.MethodGet, "/readyz", ""); w.Code != http.StatusOK {
		t.Errorf("Expected readyz 200, got %d", w.Code)
	}

	ts.store.statsErr = errors.New("closed")
	if w := ts.do(http.MethodGet, "/readyz", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected readyz 503, got %d", w.Code)
	}
}

func TestGetVersion(t *testing.T) {
	t.Parallel()

	ts := newTestServer()

	w := ts.do(http.MethodGet, "/version", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("Expected Cache-Control no-cache, got %q", cc)
	}

	var info startup.BuildInfo
	if err := json.NewDecoder(w.Body).Decode(&info); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if info.GoVersion == "" {
		t.Error("Expected GoVersion to be set")
	}
}

func TestMetricsHandler(t *testing.T) {
	t.Parallel()

	h := &Handlers{}
	req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	w := httptest.NewRecorder()

	h.MetricsHandler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Error("Expected Prometheus exposition output")
	}
}
