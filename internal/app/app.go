// Package app assembles the indexer components from a loaded configuration.
// The HTTP server and the mediascan CLI share it.
package app

import (
	"context"
	"fmt"
	"time"

	"media-indexer/internal/database"
	"media-indexer/internal/filesystem"
	"media-indexer/internal/hasher"
	"media-indexer/internal/indexer"
	"media-indexer/internal/metrics"
	"media-indexer/internal/probe"
	"media-indexer/internal/startup"
)

// App holds the wired components.
type App struct {
	DB       *database.Database
	Scanner  *indexer.Scanner
	Backfill *indexer.Backfill
	Roots    []indexer.Root

	// DBInitDuration is how long opening the database took.
	DBInitDuration time.Duration
}

// Build opens the database and wires the scan and backfill coordinators.
// It also installs the filesystem retry observer and volume resolver.
func Build(ctx context.Context, config *startup.Config) (*App, error) {
	roots := Roots(config.MediaDirs, config.VRDirs)

	volumes := map[string]string{config.DatabaseDir: "database"}
	for _, r := range roots {
		volumes[r.Path] = "media"
	}
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(volumes))
	filesystem.SetObserver(metrics.NewFilesystemObserver())

	start := time.Now()
	db, err := database.New(ctx, config.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	discoverer := indexer.NewDiscoverer(roots, config.Classifier)
	prober := probe.NewFFProbe(config.FFprobePath, config.ItemTimeout)
	scanner := indexer.NewScanner(db, discoverer, prober, indexer.ScannerConfig{
		Workers:     config.ScanWorkers,
		ItemTimeout: config.ItemTimeout,
	})

	rootPaths := make([]string, 0, len(roots))
	for _, r := range roots {
		rootPaths = append(rootPaths, r.Path)
	}
	phasher := hasher.NewPerceptualHasher(hasher.NewFFmpegExtractor(config.FFmpegPath), config.PhashFrames)
	backfill := indexer.NewBackfill(db, phasher, indexer.BackfillConfig{
		Workers:     config.ScanWorkers,
		ItemTimeout: config.ItemTimeout,
		Roots:       rootPaths,
	})

	return &App{
		DB:             db,
		Scanner:        scanner,
		Backfill:       backfill,
		Roots:          roots,
		DBInitDuration: time.Since(start),
	}, nil
}

// Close releases the database.
func (a *App) Close() error {
	return a.DB.Close()
}

// Roots merges the media and VR directory lists. A directory listed in both
// is scanned once, as a VR root.
func Roots(mediaDirs, vrDirs []string) []indexer.Root {
	vr := make(map[string]bool, len(vrDirs))
	for _, d := range vrDirs {
		vr[d] = true
	}

	var roots []indexer.Root
	seen := make(map[string]bool)
	for _, d := range mediaDirs {
		if seen[d] {
			continue
		}
		seen[d] = true
		roots = append(roots, indexer.Root{Path: d, VR: vr[d]})
	}
	for _, d := range vrDirs {
		if seen[d] {
			continue
		}
		seen[d] = true
		roots = append(roots, indexer.Root{Path: d, VR: true})
	}
	return roots
}
