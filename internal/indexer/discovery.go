package indexer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"media-indexer/internal/filesystem"
	"media-indexer/internal/logging"
	"media-indexer/internal/mediatypes"
	"media-indexer/internal/metrics"
)

// ErrOutsideRoot reports a path whose resolved location escapes its root.
var ErrOutsideRoot = errors.New("path resolves outside its root")

// Root is a configured scan directory.
type Root struct {
	Path string
	// VR marks roots whose video files are categorized as VR.
	VR bool
}

// Candidate is a discovered media file.
type Candidate struct {
	Path     string
	Category mediatypes.Category
	// Root is the symlink-resolved root the file was found under.
	Root string
}

// Discoverer finds media files under a set of roots.
type Discoverer struct {
	Roots      []Root
	Classifier mediatypes.Classifier
	Retry      filesystem.RetryConfig
}

// NewDiscoverer creates a discoverer with the default retry policy.
func NewDiscoverer(roots []Root, classifier mediatypes.Classifier) *Discoverer {
	return &Discoverer{
		Roots:      roots,
		Classifier: classifier,
		Retry:      filesystem.DefaultRetryConfig(),
	}
}

// Discover walks every root and returns the files whose extension is on an
// allow-list. Missing roots, unreadable directories and symlink escapes are
// logged and skipped. The only error returned is ctx's. Result order is
// unspecified.
func (d *Discoverer) Discover(ctx context.Context) ([]Candidate, error) {
	var out []Candidate
	// Nested roots report the same file twice; the innermost root wins so a
	// VR directory inside a media directory keeps its category.
	index := make(map[string]int)
	for _, root := range d.Roots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		found, err := d.walkRoot(ctx, root)
		if err != nil {
			return nil, err
		}
		for _, c := range found {
			if i, ok := index[c.Path]; ok {
				if len(c.Root) > len(out[i].Root) {
					out[i] = c
				}
				continue
			}
			index[c.Path] = len(out)
			out = append(out, c)
		}
	}
	metrics.ScanCandidates.Set(float64(len(out)))
	return out, nil
}

func (d *Discoverer) walkRoot(ctx context.Context, root Root) ([]Candidate, error) {
	absRoot, err := filepath.Abs(root.Path)
	if err != nil {
		absRoot = filepath.Clean(root.Path)
	}

	info, err := filesystem.StatWithRetry(absRoot, d.Retry)
	if err != nil || !info.IsDir() {
		logging.Warn("Scan directory does not exist or is not a directory: %s", root.Path)
		metrics.ScanDiscoveryWarnings.WithLabelValues("missing_root").Inc()
		return nil, nil
	}

	realRoot, err := filesystem.EvalSymlinksWithRetry(absRoot, d.Retry)
	if err != nil {
		logging.Warn("Cannot resolve scan directory %s: %v", root.Path, err)
		metrics.ScanDiscoveryWarnings.WithLabelValues("missing_root").Inc()
		return nil, nil
	}

	// WalkDir does not descend into a root that is itself a symlink, so walk
	// the resolved root and report paths under the configured one.
	var out []Candidate
	err = filepath.WalkDir(realRoot, func(walked string, entry fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		path := walked
		if rel, relErr := filepath.Rel(realRoot, walked); relErr == nil {
			path = filepath.Join(absRoot, rel)
		}

		if err != nil {
			logging.Warn("Error accessing path %s: %v", path, err)
			metrics.ScanDiscoveryWarnings.WithLabelValues("walk_error").Inc()
			return nil
		}

		if entry.IsDir() {
			return nil
		}

		category, ok := d.Classifier.Classify(entry.Name(), root.VR)
		if !ok {
			return nil
		}

		if err := Contained(realRoot, walked); err != nil {
			if errors.Is(err, ErrOutsideRoot) {
				logging.Warn("Skipping symlink escape: %s", path)
				metrics.ScanDiscoveryWarnings.WithLabelValues("symlink_escape").Inc()
			} else {
				logging.Warn("Cannot resolve %s: %v", path, err)
				metrics.ScanDiscoveryWarnings.WithLabelValues("walk_error").Inc()
			}
			return nil
		}

		// A symlink with a media extension may still point at a directory.
		if entry.Type()&fs.ModeSymlink != 0 {
			if target, err := os.Stat(walked); err != nil || target.IsDir() {
				return nil
			}
		}

		out = append(out, Candidate{Path: path, Category: category, Root: realRoot})
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("walk %s: %w", root.Path, err)
	}

	logging.Debug("Discovered %d media files under %s", len(out), root.Path)
	return out, nil
}

// Contained resolves path and reports ErrOutsideRoot when the result is not
// realRoot itself or nested below it. realRoot must already be resolved.
func Contained(realRoot, path string) error {
	resolved, err := filesystem.EvalSymlinksWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return err
	}
	if !within(realRoot, resolved) {
		return fmt.Errorf("%s -> %s: %w", path, resolved, ErrOutsideRoot)
	}
	return nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}
