// Package probe extracts container and stream metadata from media files by
// running ffprobe.
//
// The pipeline depends only on the Prober interface; FFProbe is the
// production implementation. Any failure to obtain usable metadata is
// reported as an error wrapping ErrNoMetadata so callers can treat the item
// as a per-file probe failure.
package probe
