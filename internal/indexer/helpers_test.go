package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"media-indexer/internal/database"
	"media-indexer/internal/hasher"
	"media-indexer/internal/probe"
)

func setupTestDB(t testing.TB) *database.Database {
	t.Helper()

	db, err := database.New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// writeMedia creates files (relative to dir) with distinct content.
func writeMedia(t testing.TB, dir string, names ...string) []string {
	t.Helper()

	paths := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("media:"+name), 0o644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, path)
	}
	return paths
}

// fakeProber records calls and returns fixed metadata. Paths listed in fail
// return ErrNoMetadata. When gate is set, each call blocks until it is
// closed or ctx ends.
type fakeProber struct {
	mu      sync.Mutex
	calls   map[string]int
	fail    map[string]bool
	gate    chan struct{}
	started chan struct{}
}

func newFakeProber() *fakeProber {
	return &fakeProber{calls: map[string]int{}, fail: map[string]bool{}}
}

func (p *fakeProber) Probe(ctx context.Context, path string) (*probe.Metadata, error) {
	p.mu.Lock()
	p.calls[path]++
	gate, started, fail := p.gate, p.started, p.fail[path]
	p.mu.Unlock()

	if started != nil {
		select {
		case started <- struct{}{}:
		default:
		}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if fail {
		return nil, probe.ErrNoMetadata
	}
	return &probe.Metadata{Format: "matroska,webm", Duration: 42, Bitrate: 1000, VideoCodec: "h264", Width: 640, Height: 480}, nil
}

func (p *fakeProber) total() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.calls {
		n += c
	}
	return n
}

// countingHash wraps hasher.QuickHash and counts invocations.
type countingHash struct {
	mu    sync.Mutex
	calls int
}

func (c *countingHash) hash(path string) (string, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return hasher.QuickHash(path)
}

func (c *countingHash) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// flakyStore fails selected writes and run finalization on top of a real
// database.
type flakyStore struct {
	*database.Database
	failUpsert map[string]bool
	failFinish bool
}

func (s *flakyStore) UpsertMediaRecord(ctx context.Context, rec *database.MediaFile) (int64, error) {
	if s.failUpsert[rec.Path] {
		return 0, errors.New("database is locked")
	}
	return s.Database.UpsertMediaRecord(ctx, rec)
}

func (s *flakyStore) FinishRun(ctx context.Context, id string, total, written, errorCount int) error {
	if s.failFinish {
		return errors.New("disk I/O error")
	}
	return s.Database.FinishRun(ctx, id, total, written, errorCount)
}
