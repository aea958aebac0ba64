// Package handlers provides the HTTP API of the media indexer.
//
// It includes handlers for:
//   - Starting, stopping and polling library scans
//   - Starting, stopping and polling perceptual hash backfills
//   - Library statistics and the latest scan run
//   - Health, readiness, version and Prometheus metrics
package handlers
