// Command mediascan runs a library scan or a perceptual hash backfill once,
// in the foreground, against the same database the server uses.
//
// Usage:
//
//	mediascan <command> [flags]
//
// Commands:
//
//	scan    Walk every configured root and ingest new or changed files.
//	phash   Compute missing perceptual hashes for stored videos.
//	        -dirs restricts the backfill to a comma-separated list of
//	        directories inside the configured roots.
//	status  Print the latest scan run and library statistics.
//
// Flags:
//
//	-workers  Override SCAN_WORKERS for this run.
//
// Configuration is read from the same environment variables as the server
// (MEDIA_DIRS, VR_DIRS, DATABASE_DIR, ...).
//
// The first interrupt requests a cooperative stop: files already being
// processed finish and are saved. A second interrupt cancels them.
package main
