// Package mediatypes classifies files found during a library scan.
//
// A file is a candidate only when its extension, compared
// case-insensitively, is on the video or the audio allow-list. Video files
// below a root configured for VR content are reported as CategoryVR so the
// perceptual-hash backfill can treat them like any other visual media.
package mediatypes
