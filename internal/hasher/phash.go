package hasher

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"media-indexer/internal/logging"
	"media-indexer/internal/metrics"
)

// DefaultFrames is the number of frames sampled per video.
const DefaultFrames = 4

// ErrNoHash reports that no perceptual hash could be produced. It is not a
// failure of the caller's batch.
var ErrNoHash = errors.New("no perceptual hash available")

// PerceptualHasher computes perceptual video hashes.
type PerceptualHasher struct {
	Extractor FrameExtractor
	// Frames is the number of sampled frames. Values below 1 use DefaultFrames.
	Frames int
}

// NewPerceptualHasher returns a hasher sampling frames through extractor.
func NewPerceptualHasher(extractor FrameExtractor, frames int) *PerceptualHasher {
	return &PerceptualHasher{Extractor: extractor, Frames: frames}
}

// SampleTimestamps returns n interior timestamps at duration*i/(n+1) for
// i = 1..n. The first and last instants are never sampled.
func SampleTimestamps(duration float64, n int) []time.Duration {
	if n < 1 || !(duration > 0) || math.IsInf(duration, 0) {
		return nil
	}
	out := make([]time.Duration, n)
	for i := 1; i <= n; i++ {
		seconds := duration * float64(i) / float64(n+1)
		out[i-1] = time.Duration(seconds * float64(time.Second))
	}
	return out
}

// Hash returns the pipe-joined per-frame hashes of the video at path, in
// timestamp order. duration is in seconds. It returns ErrNoHash when the
// duration is not positive or no frame could be extracted and hashed. When
// ctx's deadline expires the remaining frames are skipped; cancellation
// returns ctx's error.
func (p *PerceptualHasher) Hash(ctx context.Context, path string, duration float64) (string, error) {
	frames := p.Frames
	if frames < 1 {
		frames = DefaultFrames
	}

	timestamps := SampleTimestamps(duration, frames)
	if len(timestamps) == 0 {
		metrics.PhashResultsTotal.WithLabelValues("no_hash").Inc()
		return "", ErrNoHash
	}

	start := time.Now()
	defer func() { metrics.PhashDuration.Observe(time.Since(start).Seconds()) }()

	hashes := make([]string, 0, len(timestamps))
	for _, at := range timestamps {
		if err := ctx.Err(); err != nil {
			// An expired item deadline keeps the frames hashed so far.
			if errors.Is(err, context.Canceled) {
				return "", err
			}
			break
		}

		h, err := p.frameHash(ctx, path, at)
		if err != nil {
			metrics.PhashFramesTotal.WithLabelValues("error").Inc()
			logging.Warn("Frame extraction failed at %.1fs for %s: %v", at.Seconds(), path, err)
			continue
		}
		metrics.PhashFramesTotal.WithLabelValues("success").Inc()
		hashes = append(hashes, FormatHash(h))
	}

	if len(hashes) == 0 {
		metrics.PhashResultsTotal.WithLabelValues("no_hash").Inc()
		logging.Warn("No frames extracted for phash: %s", path)
		return "", ErrNoHash
	}

	metrics.PhashResultsTotal.WithLabelValues("hashed").Inc()
	return strings.Join(hashes, FrameSeparator), nil
}

func (p *PerceptualHasher) frameHash(ctx context.Context, path string, at time.Duration) (h uint64, err error) {
	img, err := p.Extractor.ExtractFrame(ctx, path, at)
	if err != nil {
		return 0, err
	}
	if img == nil || img.Bounds().Empty() {
		return 0, errors.New("empty frame")
	}
	return DHash(img), nil
}
