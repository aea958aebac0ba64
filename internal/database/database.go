package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"media-indexer/internal/logging"
	"media-indexer/internal/metrics"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// Database is the persistence layer used by the scan and phash pipelines.
type Database struct {
	db     *sql.DB
	dbPath string

	// writeMu serializes writes. Each job kind writes from a single
	// goroutine, but a scan and a backfill may run at the same time.
	writeMu sync.Mutex
}

// New opens (creating if necessary) the SQLite database at dbPath and
// applies the schema. The parent directory must already exist.
func New(ctx context.Context, dbPath string) (*Database, error) {
	logging.Info("Database path: %s", dbPath)

	if err := checkDirectoryWritable(filepath.Dir(dbPath)); err != nil {
		logging.Warn("Database permission diagnostics: %v", err)
	}

	// busy_timeout prevents "database is locked" errors while the other job
	// kind holds the write lock.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	d, err := NewWithDB(ctx, db)
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after initialization failure: %v", closeErr)
		}
		return nil, err
	}
	d.dbPath = dbPath

	logging.Info("Database initialized successfully at %s", dbPath)
	return d, nil
}

// NewWithDB wraps an already opened connection pool and applies the schema.
func NewWithDB(ctx context.Context, db *sql.DB) (*Database, error) {
	d := &Database{db: db}
	if err := d.initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}
	return d, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS media_files (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	path TEXT NOT NULL UNIQUE,
	filename TEXT NOT NULL,
	size INTEGER NOT NULL DEFAULT 0,
	mod_time INTEGER NOT NULL,
	category TEXT NOT NULL,
	format TEXT,
	duration REAL,
	bitrate INTEGER,
	width INTEGER,
	height INTEGER,
	video_codec TEXT,
	audio_codec TEXT,
	quick_hash TEXT,
	phash TEXT,
	created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
	updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
);

CREATE INDEX IF NOT EXISTS idx_media_files_category ON media_files(category);
CREATE INDEX IF NOT EXISTS idx_media_files_quick_hash ON media_files(quick_hash);
CREATE INDEX IF NOT EXISTS idx_media_files_unhashed ON media_files(category) WHERE phash IS NULL;

CREATE TABLE IF NOT EXISTS scan_runs (
	id TEXT PRIMARY KEY,
	started_at INTEGER NOT NULL,
	finished_at INTEGER,
	total INTEGER NOT NULL DEFAULT 0,
	written INTEGER NOT NULL DEFAULT 0,
	errors INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_scan_runs_started ON scan_runs(started_at);
`

func (d *Database) initialize(ctx context.Context) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("initialize_schema", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// recordQuery records database query metrics
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}

// UpdateDBMetrics updates database connection metrics
func (d *Database) UpdateDBMetrics() {
	stats := d.db.Stats()
	metrics.DBConnectionsOpen.Set(float64(stats.OpenConnections))
}

// checkDirectoryWritable verifies the database directory accepts new files.
func checkDirectoryWritable(dir string) error {
	dirInfo, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot stat database directory: %w", err)
	}
	logging.Debug("Database directory: %s (mode: %v)", dir, dirInfo.Mode())

	testFile := filepath.Join(dir, ".perm-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return fmt.Errorf("database directory not writable: %w", err)
	}
	_ = os.Remove(testFile)
	return nil
}
