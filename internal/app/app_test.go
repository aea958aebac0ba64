package app

import (
	"context"
	"path/filepath"
	"testing"

	"media-indexer/internal/indexer"
	"media-indexer/internal/mediatypes"
	"media-indexer/internal/startup"
)

func TestRoots(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		media []string
		vr    []string
		want  []indexer.Root
	}{
		{
			name:  "media only",
			media: []string{"/m1", "/m2"},
			want:  []indexer.Root{{Path: "/m1"}, {Path: "/m2"}},
		},
		{
			name:  "separate vr",
			media: []string{"/m"},
			vr:    []string{"/vr"},
			want:  []indexer.Root{{Path: "/m"}, {Path: "/vr", VR: true}},
		},
		{
			name:  "listed in both",
			media: []string{"/m", "/vr"},
			vr:    []string{"/vr"},
			want:  []indexer.Root{{Path: "/m"}, {Path: "/vr", VR: true}},
		},
		{
			name:  "duplicates",
			media: []string{"/m", "/m"},
			want:  []indexer.Root{{Path: "/m"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Roots(tt.media, tt.vr)
			if len(got) != len(tt.want) {
				t.Fatalf("Roots() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("root %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestBuild(t *testing.T) {
	dbDir := t.TempDir()
	config := &startup.Config{
		MediaDirs:    []string{t.TempDir()},
		Classifier:   mediatypes.DefaultClassifier(),
		DatabaseDir:  dbDir,
		DatabasePath: filepath.Join(dbDir, "media.db"),
		ScanWorkers:  2,
		PhashFrames:  4,
		FFprobePath:  "ffprobe",
		FFmpegPath:   "ffmpeg",
	}

	a, err := Build(context.Background(), config)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })

	if a.Scanner == nil || a.Backfill == nil {
		t.Fatal("Expected scanner and backfill to be wired")
	}
	if a.Scanner.Running() || a.Backfill.Running() {
		t.Error("Expected no job to be running after Build")
	}

	// An empty library scans cleanly without touching ffprobe.
	result, err := a.Scanner.Run(context.Background())
	if err != nil {
		t.Fatalf("scan of empty library failed: %v", err)
	}
	if result.Total != 0 || result.RunID == "" {
		t.Errorf("Unexpected result %+v", result)
	}
}
