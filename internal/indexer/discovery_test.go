package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"media-indexer/internal/mediatypes"
)

func discoveredPaths(cands []Candidate) map[string]mediatypes.Category {
	out := make(map[string]mediatypes.Category, len(cands))
	for _, c := range cands {
		out[c.Path] = c.Category
	}
	return out
}

func TestDiscover(t *testing.T) {
	base := t.TempDir()
	media := filepath.Join(base, "media")
	vr := filepath.Join(base, "vr")

	writeMedia(t, media, "a.MP4", "sub/b.mkv", "c.flac", "notes.txt", "noext")
	writeMedia(t, vr, "x.mp4", "y.mp3")
	if err := os.MkdirAll(filepath.Join(media, "folder.mp4"), 0o755); err != nil {
		t.Fatal(err)
	}

	d := NewDiscoverer([]Root{
		{Path: media},
		{Path: vr, VR: true},
		{Path: filepath.Join(base, "missing")},
	}, mediatypes.DefaultClassifier())

	cands, err := d.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	want := map[string]mediatypes.Category{
		filepath.Join(media, "a.MP4"):     mediatypes.CategoryVideo,
		filepath.Join(media, "sub/b.mkv"): mediatypes.CategoryVideo,
		filepath.Join(media, "c.flac"):    mediatypes.CategoryAudio,
		filepath.Join(vr, "x.mp4"):        mediatypes.CategoryVR,
		filepath.Join(vr, "y.mp3"):        mediatypes.CategoryAudio,
	}

	got := discoveredPaths(cands)
	if len(got) != len(want) {
		t.Fatalf("discovered %v, want %v", got, want)
	}
	for path, cat := range want {
		if got[path] != cat {
			t.Errorf("%s: category %q, want %q", path, got[path], cat)
		}
	}
}

func TestDiscoverSymlinkEscape(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "media")
	outside := filepath.Join(base, "private")

	writeMedia(t, root, "real.mkv")
	writeMedia(t, outside, "secret.mp4")

	if err := os.Symlink(filepath.Join(outside, "secret.mp4"), filepath.Join(root, "escape.mp4")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	if err := os.Symlink(filepath.Join(root, "real.mkv"), filepath.Join(root, "alias.mkv")); err != nil {
		t.Fatal(err)
	}
	// Sibling with a shared name prefix is still outside.
	writeMedia(t, root+"2", "sibling.mp4")
	if err := os.Symlink(filepath.Join(root+"2", "sibling.mp4"), filepath.Join(root, "prefix.mp4")); err != nil {
		t.Fatal(err)
	}

	cands, err := NewDiscoverer([]Root{{Path: root}}, mediatypes.DefaultClassifier()).Discover(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	var got []string
	for _, c := range cands {
		got = append(got, filepath.Base(c.Path))
	}
	sort.Strings(got)

	want := []string{"alias.mkv", "real.mkv"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("discovered %v, want %v", got, want)
	}
}

func TestDiscoverSymlinkedRoot(t *testing.T) {
	base := t.TempDir()
	disk := filepath.Join(base, "disk1")
	writeMedia(t, disk, "film.mkv")

	link := filepath.Join(base, "library")
	if err := os.Symlink(disk, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	cands, err := NewDiscoverer([]Root{{Path: link}}, mediatypes.DefaultClassifier()).Discover(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(cands) != 1 {
		t.Fatalf("got %d candidates, want 1", len(cands))
	}
	if want := filepath.Join(link, "film.mkv"); cands[0].Path != want {
		t.Errorf("path = %s, want %s (reported under the configured root)", cands[0].Path, want)
	}
	if err := Contained(cands[0].Root, cands[0].Path); err != nil {
		t.Errorf("candidate not contained in its own root: %v", err)
	}
}

func TestDiscoverNestedVRRoot(t *testing.T) {
	media := t.TempDir()
	vr := filepath.Join(media, "vr")
	writeMedia(t, media, "flat.mp4", "vr/dome.mp4")

	// Order must not matter: the inner root wins either way.
	for _, roots := range [][]Root{
		{{Path: media}, {Path: vr, VR: true}},
		{{Path: vr, VR: true}, {Path: media}},
	} {
		cands, err := NewDiscoverer(roots, mediatypes.DefaultClassifier()).Discover(context.Background())
		if err != nil {
			t.Fatalf("Discover: %v", err)
		}
		if len(cands) != 2 {
			t.Fatalf("got %d candidates, want 2 (no duplicates)", len(cands))
		}
		got := discoveredPaths(cands)
		if got[filepath.Join(vr, "dome.mp4")] != mediatypes.CategoryVR {
			t.Errorf("nested file category %q, want vr", got[filepath.Join(vr, "dome.mp4")])
		}
		if got[filepath.Join(media, "flat.mp4")] != mediatypes.CategoryVideo {
			t.Errorf("outer file category %q, want video", got[filepath.Join(media, "flat.mp4")])
		}
	}
}

func TestDiscoverCancelled(t *testing.T) {
	root := t.TempDir()
	writeMedia(t, root, "a.mkv")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewDiscoverer([]Root{{Path: root}}, mediatypes.DefaultClassifier()).Discover(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestContained(t *testing.T) {
	base := t.TempDir()
	root, err := filepath.EvalSymlinks(base)
	if err != nil {
		t.Fatal(err)
	}
	inside := writeMedia(t, root, "in/file.mkv")[0]

	if err := Contained(root, inside); err != nil {
		t.Errorf("inside file: %v", err)
	}
	if err := Contained(filepath.Join(root, "in"), filepath.Join(root, "in")); err != nil {
		t.Errorf("root itself: %v", err)
	}
	if err := Contained(filepath.Join(root, "in"), root); !errors.Is(err, ErrOutsideRoot) {
		t.Errorf("parent: err = %v, want ErrOutsideRoot", err)
	}
	if err := Contained(root, filepath.Join(root, "missing.mkv")); err == nil || errors.Is(err, ErrOutsideRoot) {
		t.Errorf("missing file: err = %v, want resolution error", err)
	}
}

func TestWithin(t *testing.T) {
	tests := []struct {
		root, path string
		want       bool
	}{
		{"/media", "/media", true},
		{"/media", "/media/a.mkv", true},
		{"/media", "/media/sub/a.mkv", true},
		{"/media", "/media2/a.mkv", false},
		{"/media", "/other/a.mkv", false},
		{"/media", "/", false},
		{"/media", "/media/..hidden.mkv", true},
	}
	for _, tt := range tests {
		if got := within(tt.root, tt.path); got != tt.want {
			t.Errorf("within(%q, %q) = %v, want %v", tt.root, tt.path, got, tt.want)
		}
	}
}
