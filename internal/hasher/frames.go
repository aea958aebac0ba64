package hasher

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strconv"
	"time"

	"golang.org/x/image/bmp"

	"media-indexer/internal/logging"
	"media-indexer/internal/probe"
)

// FrameExtractor decodes a single video frame at a timestamp.
type FrameExtractor interface {
	ExtractFrame(ctx context.Context, path string, at time.Duration) (image.Image, error)
}

// FFmpegExtractor extracts frames by running ffmpeg and decoding the BMP it
// writes to stdout.
type FFmpegExtractor struct {
	// Binary is the ffmpeg executable. Empty means "ffmpeg" on PATH.
	Binary string
}

// NewFFmpegExtractor returns an extractor using the given ffmpeg binary.
func NewFFmpegExtractor(binary string) *FFmpegExtractor {
	return &FFmpegExtractor{Binary: binary}
}

func (e *FFmpegExtractor) binary() string {
	if e == nil || e.Binary == "" {
		return "ffmpeg"
	}
	return e.Binary
}

// ExtractFrame seeks before opening the input so ffmpeg only decodes from the
// nearest keyframe, then emits one frame as BMP.
func (e *FFmpegExtractor) ExtractFrame(ctx context.Context, path string, at time.Duration) (image.Image, error) {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-ss", strconv.FormatFloat(at.Seconds(), 'f', 3, 64),
		"-i", path,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "bmp",
		"-",
	}

	var stdout bytes.Buffer
	if err := probe.RunTool(ctx, e.binary(), args, &stdout); err != nil {
		return nil, err
	}

	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no frame at %v for %s", at, path)
	}
	logging.Debug("ffmpeg frame output size: %d bytes", stdout.Len())

	img, err := bmp.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ffmpeg output: %w", err)
	}
	return img, nil
}
