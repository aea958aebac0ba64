package workers

import (
	"os"
	"runtime"
	"strconv"
)

// DefaultLimit caps the automatic pool size. Probing and frame extraction
// each spawn an external process per worker, so the pool stays small.
const DefaultLimit = 4

// MaxOverride caps values supplied through an environment override.
const MaxOverride = 64

// Count returns a worker count derived from GOMAXPROCS, which Go sets from
// the container CPU limit.
//
// The multiplier adjusts for task characteristics:
//   - 1.0 for CPU-bound tasks
//   - 2.0 for I/O-bound tasks
//
// The limit parameter caps the worker count. Use 0 for no limit.
func Count(multiplier float64, limit int) int {
	workers := int(float64(runtime.GOMAXPROCS(0)) * multiplier)

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// ForCPU returns worker count for CPU-bound tasks (1 per CPU).
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// ForIO returns worker count for I/O-bound tasks (2 per CPU).
func ForIO(limit int) int {
	return Count(2.0, limit)
}

// FromEnv returns the positive integer stored in the named environment
// variable, capped at MaxOverride. ok is false when the variable is unset or
// not a positive integer.
func FromEnv(name string) (count int, ok bool) {
	raw := os.Getenv(name)
	if raw == "" {
		return 0, false
	}
	count, err := strconv.Atoi(raw)
	if err != nil || count < 1 {
		return 0, false
	}
	if count > MaxOverride {
		count = MaxOverride
	}
	return count, true
}

// Resolve returns the override from envVar when set, otherwise the I/O-bound
// default capped at DefaultLimit.
func Resolve(envVar string) int {
	if count, ok := FromEnv(envVar); ok {
		return count
	}
	return ForIO(DefaultLimit)
}
