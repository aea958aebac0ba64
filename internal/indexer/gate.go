package indexer

import (
	"context"
	"time"

	"media-indexer/internal/metrics"
)

// Action is the work a discovered file needs.
type Action int

const (
	// ActionSkip: stored with the same size and mtime and a quick hash.
	ActionSkip Action = iota
	// ActionHashOnly: stored with the same size and mtime but no quick hash.
	ActionHashOnly
	// ActionFullProbe: not stored, or size or mtime changed.
	ActionFullProbe
)

func (a Action) String() string {
	switch a {
	case ActionSkip:
		return "skip"
	case ActionHashOnly:
		return "hash_only"
	case ActionFullProbe:
		return "full_probe"
	default:
		return "unknown"
	}
}

// StateStore answers the change-detection queries.
type StateStore interface {
	IsUnchanged(ctx context.Context, path string, size int64, modTime time.Time) (bool, error)
	NeedsHashOnly(ctx context.Context, path string, size int64, modTime time.Time) (bool, error)
}

// Classify decides which Action a file with the given size and modification
// time needs.
func Classify(ctx context.Context, store StateStore, path string, size int64, modTime time.Time) (Action, error) {
	action, err := classify(ctx, store, path, size, modTime)
	if err == nil {
		metrics.ScanGateDecisions.WithLabelValues(action.String()).Inc()
	}
	return action, err
}

func classify(ctx context.Context, store StateStore, path string, size int64, modTime time.Time) (Action, error) {
	unchanged, err := store.IsUnchanged(ctx, path, size, modTime)
	if err != nil {
		return ActionFullProbe, err
	}
	if unchanged {
		return ActionSkip, nil
	}

	hashOnly, err := store.NeedsHashOnly(ctx, path, size, modTime)
	if err != nil {
		return ActionFullProbe, err
	}
	if hashOnly {
		return ActionHashOnly, nil
	}
	return ActionFullProbe, nil
}
