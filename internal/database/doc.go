// Package database provides SQLite persistence for the media indexer.
//
// It stores:
//   - Media file records keyed by path, with probe metadata, the quick
//     hash used for change detection and the perceptual video hash
//   - Scan runs with their counts and terminal status
//
// The database uses WAL mode so status readers never block the pipeline's
// writer. Writes are serialized through a mutex because a scan and a phash
// backfill each write from their own goroutine.
package database
