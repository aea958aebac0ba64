package hasher

import (
	"fmt"
	"image"
	"math/bits"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	dhashWidth  = 9
	dhashHeight = 8

	// FrameSeparator joins per-frame hashes. It never appears in a hex hash.
	FrameSeparator = "|"
)

// DHash computes a 64-bit difference hash: the image is reduced to a 9x8
// grayscale thumbnail and each bit records whether a pixel's right
// neighbour is brighter, row-major with the first comparison in the high bit.
func DHash(img image.Image) uint64 {
	small := imaging.Resize(imaging.Grayscale(img), dhashWidth, dhashHeight, imaging.Lanczos)

	var hash uint64
	for y := 0; y < dhashHeight; y++ {
		for x := 0; x < dhashWidth-1; x++ {
			left := small.Pix[small.PixOffset(x, y)]
			right := small.Pix[small.PixOffset(x+1, y)]
			hash <<= 1
			if right > left {
				hash |= 1
			}
		}
	}
	return hash
}

// FormatHash renders a frame hash as 16 lowercase hex digits.
func FormatHash(h uint64) string {
	return fmt.Sprintf("%016x", h)
}

// ParseHash is the inverse of FormatHash.
func ParseHash(s string) (uint64, error) {
	if len(s) != 16 {
		return 0, fmt.Errorf("invalid frame hash %q: want 16 hex digits", s)
	}
	return strconv.ParseUint(s, 16, 64)
}

// Distance compares two perceptual video hashes frame by frame and returns
// the mean Hamming distance of the frames present in both. Lower is more
// similar; 0 means every compared frame hash is identical.
func Distance(a, b string) (float64, error) {
	fa, err := splitFrames(a)
	if err != nil {
		return 0, err
	}
	fb, err := splitFrames(b)
	if err != nil {
		return 0, err
	}

	n := min(len(fa), len(fb))
	total := 0
	for i := 0; i < n; i++ {
		total += bits.OnesCount64(fa[i] ^ fb[i])
	}
	return float64(total) / float64(n), nil
}

func splitFrames(phash string) ([]uint64, error) {
	if phash == "" {
		return nil, ErrNoHash
	}
	parts := strings.Split(phash, FrameSeparator)
	out := make([]uint64, 0, len(parts))
	for _, p := range parts {
		h, err := ParseHash(p)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}
