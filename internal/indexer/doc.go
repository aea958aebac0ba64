// Package indexer runs the incremental library scan and the perceptual hash
// backfill.
//
// A scan walks the configured roots (Discoverer), classifies each candidate
// against its stored state (Classify), and hands the candidates to
// jobs.Run. Workers stat, probe and hash files in parallel; the writer
// persists results one at a time on the scan goroutine. Unchanged files that
// already carry a quick hash cost one stat and one database lookup.
//
// Symlinked files are followed only while their target stays inside the
// root they were found under. Containment is checked during discovery and
// again immediately before a worker touches the file.
//
// The backfill computes perceptual hashes for stored video records that do
// not have one, optionally restricted to a set of directories. Both jobs are
// single-flight per kind: a second start is rejected with
// jobs.ErrAlreadyRunning.
package indexer
