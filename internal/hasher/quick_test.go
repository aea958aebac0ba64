package hasher

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func mustQuickHash(t *testing.T, path string) string {
	t.Helper()
	h, err := QuickHash(path)
	if err != nil {
		t.Fatalf("QuickHash(%s): %v", path, err)
	}
	return h
}

func TestQuickHashFormat(t *testing.T) {
	h := mustQuickHash(t, writeFile(t, "a.mp4", bytes.Repeat([]byte("hello world"), 1000)))

	if len(h) != 64 {
		t.Errorf("len = %d, want 64", len(h))
	}
	if strings.Trim(h, "0123456789abcdef") != "" {
		t.Errorf("hash %q is not lowercase hex", h)
	}
}

func TestQuickHashProperties(t *testing.T) {
	big := bytes.Repeat([]byte("x"), 200_000)

	tests := []struct {
		name  string
		a, b  []byte
		equal bool
	}{
		{
			name:  "identical content",
			a:     big,
			b:     append([]byte(nil), big...),
			equal: true,
		},
		{
			name: "different content",
			a:    bytes.Repeat([]byte("aaaa"), 50_000),
			b:    bytes.Repeat([]byte("bbbb"), 50_000),
		},
		{
			name: "same head and tail, different size",
			a:    concat(bytes.Repeat([]byte("A"), ChunkSize), bytes.Repeat([]byte("B"), 1000), bytes.Repeat([]byte("C"), ChunkSize)),
			b:    concat(bytes.Repeat([]byte("A"), ChunkSize), bytes.Repeat([]byte("B"), 500), bytes.Repeat([]byte("C"), ChunkSize)),
		},
		{
			name: "extra bytes between identical chunks",
			a:    concat(bytes.Repeat([]byte("A"), ChunkSize), bytes.Repeat([]byte("C"), ChunkSize)),
			b:    concat(bytes.Repeat([]byte("A"), ChunkSize), bytes.Repeat([]byte("P"), 1000), bytes.Repeat([]byte("C"), ChunkSize)),
		},
		{
			name: "small files",
			a:    []byte("tiny"),
			b:    []byte("tinY"),
		},
		{
			name: "tail change past first chunk",
			a:    concat(bytes.Repeat([]byte("A"), ChunkSize), []byte("end1")),
			b:    concat(bytes.Repeat([]byte("A"), ChunkSize), []byte("end2")),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ha := mustQuickHash(t, writeFile(t, "a.bin", tt.a))
			hb := mustQuickHash(t, writeFile(t, "b.bin", tt.b))
			if (ha == hb) != tt.equal {
				t.Errorf("hashes equal = %v, want %v (%s vs %s)", ha == hb, tt.equal, ha, hb)
			}
		})
	}
}

func TestQuickHashIgnoresMiddle(t *testing.T) {
	a := bytes.Repeat([]byte("m"), 3*ChunkSize)
	b := append([]byte(nil), a...)
	b[len(b)/2] = 'z'

	if mustQuickHash(t, writeFile(t, "a", a)) != mustQuickHash(t, writeFile(t, "b", b)) {
		t.Error("bytes outside the sampled chunks changed the hash")
	}
}

func TestQuickHashEmptyFile(t *testing.T) {
	h := mustQuickHash(t, writeFile(t, "empty.mkv", nil))
	if len(h) != 64 {
		t.Errorf("empty file hash = %q", h)
	}
}

func TestQuickHashMatchesReader(t *testing.T) {
	data := bytes.Repeat([]byte{1, 2, 3, 4, 5}, 40_000)

	fromFile := mustQuickHash(t, writeFile(t, "v.mkv", data))
	fromReader, err := quickHashReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatal(err)
	}
	if fromFile != fromReader {
		t.Errorf("file hash %s != reader hash %s", fromFile, fromReader)
	}
}

func TestQuickHashMissingFile(t *testing.T) {
	if _, err := QuickHash(filepath.Join(t.TempDir(), "gone.mkv")); err == nil {
		t.Error("expected error for missing file")
	}
}

func concat(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}
