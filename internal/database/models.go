package database

import (
	"time"

	"media-indexer/internal/mediatypes"
)

// MediaFile is the persisted record for one scanned media file. Path is the
// unique key. An empty QuickHash means the record has not been
// content-identified yet and is always eligible for processing.
type MediaFile struct {
	ID         int64               `json:"id"`
	Path       string              `json:"path"`
	Filename   string              `json:"filename"`
	Size       int64               `json:"size"`
	ModTime    time.Time           `json:"modTime"`
	Category   mediatypes.Category `json:"category"`
	Format     string              `json:"format,omitempty"`
	Duration   float64             `json:"duration,omitempty"`
	Bitrate    int64               `json:"bitrate,omitempty"`
	Width      int                 `json:"width,omitempty"`
	Height     int                 `json:"height,omitempty"`
	VideoCodec string              `json:"videoCodec,omitempty"`
	AudioCodec string              `json:"audioCodec,omitempty"`
	QuickHash  string              `json:"quickHash,omitempty"`
	Phash      string              `json:"phash,omitempty"`
}

// UnhashedVideo is a visual media record still missing a perceptual hash.
// Duration is 0 when it was not known at probe time.
type UnhashedVideo struct {
	ID       int64
	Path     string
	Duration float64
}

// RunStatus is the lifecycle state of a ScanRun.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// ScanRun records one full library scan.
type ScanRun struct {
	ID         string     `json:"id"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	Total      int        `json:"total"`
	Written    int        `json:"written"`
	Errors     int        `json:"errors"`
	Status     RunStatus  `json:"status"`
}
