// Package jobs runs batch work with a bounded worker pool and serialized
// write-back.
//
// Each job kind (library scan, phash backfill) owns one Tracker. A Tracker
// admits at most one running Job at a time: a second Start is rejected with
// ErrAlreadyRunning rather than queued. The Job carries the live progress and
// the cooperative cancellation flag for that run, and is handed to Run
// together with the items to process.
//
// Run executes the expensive worker stage on a pool of goroutines and drains
// results in completion order on the calling goroutine, where the writer is
// invoked. Worker and writer failures, including panics, are logged and
// counted but never abort the batch.
package jobs
