package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"media-indexer/internal/hasher"
	"media-indexer/internal/logging"
	"media-indexer/internal/mediatypes"
	"media-indexer/internal/workers"
)

const (
	defaultItemTimeout = 10 * time.Minute
)

// Config holds all application configuration
type Config struct {
	MediaDirs      []string
	VRDirs         []string
	Classifier     mediatypes.Classifier
	DatabaseDir    string
	Port           string
	ScanWorkers    int
	PhashFrames    int
	ItemTimeout    time.Duration
	ScanInterval   time.Duration
	FFprobePath    string
	FFmpegPath     string
	MetricsEnabled bool

	LogHealthChecks bool

	// Derived paths
	DatabasePath string
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	section("CONFIGURATION")

	config := &Config{
		MediaDirs:       splitList(getEnv("MEDIA_DIRS", "/media")),
		VRDirs:          splitList(getEnv("VR_DIRS", "")),
		DatabaseDir:     getEnv("DATABASE_DIR", "/database"),
		Port:            getEnv("PORT", "8080"),
		ScanWorkers:     workers.Resolve("SCAN_WORKERS"),
		PhashFrames:     getEnvInt("PHASH_FRAMES", hasher.DefaultFrames),
		ItemTimeout:     getEnvDuration("ITEM_TIMEOUT", defaultItemTimeout),
		ScanInterval:    getEnvDuration("SCAN_INTERVAL", 0),
		FFprobePath:     getEnv("FFPROBE_PATH", "ffprobe"),
		FFmpegPath:      getEnv("FFMPEG_PATH", "ffmpeg"),
		MetricsEnabled:  getEnvBool("METRICS_ENABLED", true),
		LogHealthChecks: getEnvBool("LOG_HEALTH_CHECKS", true),
		Classifier:      loadClassifier(),
	}

	logging.Info("  MEDIA_DIRS:          %s", strings.Join(config.MediaDirs, ", "))
	logging.Info("  VR_DIRS:             %s", strings.Join(config.VRDirs, ", "))
	logging.Info("  VIDEO_EXTENSIONS:    %s", strings.Join(config.Classifier.Video.Sorted(), " "))
	logging.Info("  AUDIO_EXTENSIONS:    %s", strings.Join(config.Classifier.Audio.Sorted(), " "))
	logging.Info("  DATABASE_DIR:        %s", config.DatabaseDir)
	logging.Info("  PORT:                %s", config.Port)
	logging.Info("  SCAN_WORKERS:        %d", config.ScanWorkers)
	logging.Info("  PHASH_FRAMES:        %d", config.PhashFrames)
	logging.Info("  ITEM_TIMEOUT:        %s", durationString(config.ItemTimeout))
	logging.Info("  SCAN_INTERVAL:       %s", durationString(config.ScanInterval))
	logging.Info("  FFPROBE_PATH:        %s", config.FFprobePath)
	logging.Info("  FFMPEG_PATH:         %s", config.FFmpegPath)
	logging.Info("  METRICS_ENABLED:     %v", config.MetricsEnabled)
	logging.Info("  LOG_HEALTH_CHECKS:   %v", config.LogHealthChecks)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	if len(config.MediaDirs) == 0 && len(config.VRDirs) == 0 {
		return nil, fmt.Errorf("no media directories configured (set MEDIA_DIRS)")
	}

	section("DIRECTORY SETUP")

	var err error
	if config.MediaDirs, err = absAll(config.MediaDirs); err != nil {
		return nil, fmt.Errorf("failed to resolve media directory path: %w", err)
	}
	if config.VRDirs, err = absAll(config.VRDirs); err != nil {
		return nil, fmt.Errorf("failed to resolve VR directory path: %w", err)
	}
	if config.DatabaseDir, err = filepath.Abs(config.DatabaseDir); err != nil {
		return nil, fmt.Errorf("failed to resolve database directory path: %w", err)
	}
	config.DatabasePath = filepath.Join(config.DatabaseDir, "media.db")

	// Media roots are mounted, never created. A missing one is skipped by
	// discovery, so it is only a warning here.
	for _, dir := range append(append([]string{}, config.MediaDirs...), config.VRDirs...) {
		if err := checkMediaDir(dir); err != nil {
			logging.Warn("  Media directory %s: %v", dir, err)
		} else {
			logging.Info("  [OK] Media directory %s", dir)
		}
	}

	if err := ensureDirectory(config.DatabaseDir); err != nil {
		return nil, fmt.Errorf("database directory error: %w", err)
	}
	if err := testWriteAccess(config.DatabaseDir); err != nil {
		return nil, fmt.Errorf("database directory is not writable (required for database): %w", err)
	}
	logging.Info("  [OK] Database directory is writable: %s", config.DatabaseDir)

	return config, nil
}

func loadClassifier() mediatypes.Classifier {
	c := mediatypes.DefaultClassifier()
	if v := os.Getenv("VIDEO_EXTENSIONS"); v != "" {
		c.Video = mediatypes.ParseExtensionList(v)
	}
	if v := os.Getenv("AUDIO_EXTENSIONS"); v != "" {
		c.Audio = mediatypes.ParseExtensionList(v)
	}
	return c
}

// splitList splits a comma-separated list, dropping blanks and duplicates.
func splitList(value string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" || seen[part] {
			continue
		}
		seen[part] = true
		out = append(out, part)
	}
	return out
}

func absAll(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		out = append(out, abs)
	}
	return out, nil
}

func checkMediaDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}
	return nil
}

func ensureDirectory(path string) error {
	logging.Debug("  Checking directory: %s", path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func durationString(d time.Duration) string {
	if d <= 0 {
		return "disabled"
	}
	return d.String()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 1 {
		logging.Warn("Invalid positive integer for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

// getEnvDuration parses a Go duration. "0" disables the feature it controls.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed < 0 {
		logging.Warn("Invalid duration for %s: %q, using default: %s", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
