package hasher

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/blake2b"

	"media-indexer/internal/filesystem"
	"media-indexer/internal/metrics"
)

// ChunkSize is the number of bytes read from each end of a file.
const ChunkSize = 64 * 1024

// QuickHash returns the hex encoded quick hash of the file at path.
//
// The digest covers the size as a little-endian uint64, the first ChunkSize
// bytes and, for files larger than ChunkSize, up to ChunkSize trailing bytes
// that do not overlap the leading chunk.
func QuickHash(path string) (string, error) {
	start := time.Now()
	defer func() { metrics.QuickHashDuration.Observe(time.Since(start).Seconds()) }()

	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	return quickHashReader(f, info.Size())
}

func quickHashReader(r io.ReaderAt, size int64) (string, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}

	var sizeBuf [8]byte
	binary.LittleEndian.PutUint64(sizeBuf[:], uint64(size))
	h.Write(sizeBuf[:])

	head := min(size, ChunkSize)
	if _, err := io.Copy(h, io.NewSectionReader(r, 0, head)); err != nil {
		return "", fmt.Errorf("read head: %w", err)
	}

	if size > ChunkSize {
		tail := min(size-ChunkSize, ChunkSize)
		if _, err := io.Copy(h, io.NewSectionReader(r, size-tail, tail)); err != nil {
			return "", fmt.Errorf("read tail: %w", err)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
