// Package memory sets the Go soft memory limit from the container limit.
//
// ffprobe and ffmpeg run as child processes and share the container's
// memory cgroup, so only part of MEMORY_LIMIT is given to the Go heap. Call
// [ConfigureFromEnv] early in main, before the worker pools start.
//
// Environment variables:
//
//   - GOMEMLIMIT: Standard Go setting; when present it wins and is only reported
//   - MEMORY_LIMIT: Container limit in bytes, e.g. from the Kubernetes Downward API
//   - MEMORY_RATIO: Share of MEMORY_LIMIT for the Go heap, in (0, 1] (default: 0.6)
package memory
