package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"media-indexer/internal/metrics"
)

// ErrNoMetadata reports that a file could not be probed.
var ErrNoMetadata = errors.New("no metadata")

// Metadata is the subset of ffprobe output persisted for a media file.
type Metadata struct {
	Format     string
	Duration   float64
	Bitrate    int64
	Width      int
	Height     int
	VideoCodec string
	AudioCodec string
}

// Prober extracts metadata from a media file.
type Prober interface {
	Probe(ctx context.Context, path string) (*Metadata, error)
}

// FFProbe is a Prober backed by the ffprobe binary.
type FFProbe struct {
	// Binary is the ffprobe executable. Empty means "ffprobe" on PATH.
	Binary string
	// Timeout bounds a single probe. Zero means no limit beyond ctx.
	Timeout time.Duration
}

// NewFFProbe returns a prober using the given binary and per-call timeout.
func NewFFProbe(binary string, timeout time.Duration) *FFProbe {
	return &FFProbe{Binary: binary, Timeout: timeout}
}

// Probe runs ffprobe against path and parses its JSON output.
func (p *FFProbe) Probe(ctx context.Context, path string) (*Metadata, error) {
	start := time.Now()
	defer func() { metrics.ProbeDuration.Observe(time.Since(start).Seconds()) }()

	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("probe: empty path: %w", ErrNoMetadata)
	}

	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	binary := strings.TrimSpace(p.Binary)
	if binary == "" {
		binary = "ffprobe"
	}

	args := []string{"-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path}

	var stdout bytes.Buffer
	if err := RunTool(ctx, binary, args, &stdout); err != nil {
		reason := "error"
		if errors.Is(err, ErrTimeout) {
			reason = "timeout"
		}
		metrics.ProbeFailures.WithLabelValues(reason).Inc()
		return nil, fmt.Errorf("probe %s: %w: %w", path, ErrNoMetadata, err)
	}

	md, err := Parse(stdout.Bytes())
	if err != nil {
		metrics.ProbeFailures.WithLabelValues("no_metadata").Inc()
		return nil, fmt.Errorf("probe %s: %w", path, err)
	}
	return md, nil
}

type result struct {
	Streams []stream `json:"streams"`
	Format  format   `json:"format"`
}

type stream struct {
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Duration  string `json:"duration"`
	BitRate   string `json:"bit_rate"`
}

type format struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	BitRate    string `json:"bit_rate"`
}

// Parse decodes ffprobe's JSON output. A result without any stream is
// reported as ErrNoMetadata.
func Parse(data []byte) (*Metadata, error) {
	var r result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("ffprobe parse: %w: %w", ErrNoMetadata, err)
	}
	if len(r.Streams) == 0 {
		return nil, fmt.Errorf("ffprobe reported no streams: %w", ErrNoMetadata)
	}

	md := &Metadata{
		Format:   r.Format.FormatName,
		Duration: parseFloat(r.Format.Duration),
		Bitrate:  parseInt(r.Format.BitRate),
	}

	for _, s := range r.Streams {
		switch strings.ToLower(s.CodecType) {
		case "video":
			if md.VideoCodec != "" {
				continue
			}
			md.VideoCodec = s.CodecName
			md.Width, md.Height = s.Width, s.Height
			if md.Duration == 0 {
				md.Duration = parseFloat(s.Duration)
			}
		case "audio":
			if md.AudioCodec != "" {
				continue
			}
			md.AudioCodec = s.CodecName
			if md.Duration == 0 {
				md.Duration = parseFloat(s.Duration)
			}
			if md.Bitrate == 0 {
				md.Bitrate = parseInt(s.BitRate)
			}
		}
	}
	return md, nil
}

// parseFloat returns 0 for empty, malformed or non-finite values.
func parseFloat(value string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func parseInt(value string) int64 {
	return int64(parseFloat(value))
}
