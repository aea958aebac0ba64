// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig]:
//
//   - MEDIA_DIRS: Comma-separated scan roots (default: /media)
//   - VR_DIRS: Comma-separated roots whose videos are categorized as vr
//   - VIDEO_EXTENSIONS, AUDIO_EXTENSIONS: Comma-separated extension overrides
//   - DATABASE_DIR: Directory holding media.db (default: /database)
//   - PORT: HTTP server port (default: 8080)
//   - SCAN_WORKERS: Worker pool size for scans and backfills (default: 4)
//   - PHASH_FRAMES: Frames sampled per perceptual hash (default: 4)
//   - ITEM_TIMEOUT: Per-file limit on ffprobe/ffmpeg, 0 disables (default: 10m)
//   - SCAN_INTERVAL: Periodic scan interval, 0 disables (default: 0)
//   - FFPROBE_PATH, FFMPEG_PATH: Tool binaries (default: ffprobe, ffmpeg)
//   - METRICS_ENABLED: Expose /metrics (default: true)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//   - LOG_LEVEL: debug, info, warn, error (default: info)
//
// The database directory is created if needed and must be writable. Media
// roots are only checked; a missing root is a warning.
//
// # Build Information
//
// Version, Commit and BuildTime are injected via ldflags and exposed via
// [GetBuildInfo].
package startup
