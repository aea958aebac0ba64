// Package hasher computes content fingerprints for media files.
//
// QuickHash is a fixed-cost identity check: a BLAKE2b-256 digest over the
// file size and its first and last 64 KiB. It is used for change detection
// and exact-duplicate discovery, not for security.
//
// The perceptual video hash samples evenly spaced interior frames through a
// FrameExtractor (ffmpeg by default), computes a 64-bit difference hash per
// frame and joins the per-frame hashes with "|". Frames that fail to extract
// are skipped; when no frame survives, or the duration is unknown, the
// result is ErrNoHash.
package hasher
