/*
Package workers sizes the job runner's worker pool.

The pool executes expensive per-item work: stat calls, ffprobe and ffmpeg
subprocesses and content hashing. Most of that time is spent waiting on the
filesystem or a child process, so the automatic size is two workers per
available CPU, capped at DefaultLimit:

	n := workers.ForIO(workers.DefaultLimit)

GOMAXPROCS is used rather than runtime.NumCPU so container CPU limits are
respected (Go 1.19+ sets GOMAXPROCS from the cgroup quota).

# Environment Variable Override

Resolve reads an override from a named variable, for example SCAN_WORKERS:

	n := workers.Resolve("SCAN_WORKERS")

Values that are not positive integers are ignored; values above MaxOverride
are capped.
*/
package workers
