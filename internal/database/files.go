package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"media-indexer/internal/mediatypes"
	"media-indexer/internal/metrics"
)

// ErrNotFound is returned by updates that match no record.
var ErrNotFound = errors.New("media record not found")

// IsUnchanged reports whether path is recorded with the given size and
// modification time and already carries a quick hash.
func (d *Database) IsUnchanged(ctx context.Context, path string, size int64, modTime time.Time) (bool, error) {
	return d.matchState(ctx, "is_unchanged", path, size, modTime, "quick_hash IS NOT NULL")
}

// NeedsHashOnly reports whether path is recorded with the given size and
// modification time but has no quick hash yet.
func (d *Database) NeedsHashOnly(ctx context.Context, path string, size int64, modTime time.Time) (bool, error) {
	return d.matchState(ctx, "needs_hash_only", path, size, modTime, "quick_hash IS NULL")
}

func (d *Database) matchState(ctx context.Context, op, path string, size int64, modTime time.Time, hashCond string) (bool, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery(op, start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `SELECT COUNT(*) FROM media_files WHERE path = ? AND size = ? AND mod_time = ? AND ` + hashCond

	var n int
	err = d.db.QueryRowContext(ctx, query, path, size, modTime.UnixNano()).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

const fileColumns = `id, path, filename, size, mod_time, category, format, duration, bitrate,
	width, height, video_codec, audio_codec, quick_hash, phash`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (*MediaFile, error) {
	var (
		f                                         MediaFile
		modTime                                   int64
		format, videoCodec, audioCodec, qh, phash sql.NullString
		duration                                  sql.NullFloat64
		bitrate, width, height                    sql.NullInt64
		category                                  string
	)

	err := row.Scan(&f.ID, &f.Path, &f.Filename, &f.Size, &modTime, &category, &format,
		&duration, &bitrate, &width, &height, &videoCodec, &audioCodec, &qh, &phash)
	if err != nil {
		return nil, err
	}

	f.ModTime = time.Unix(0, modTime)
	f.Category = mediatypes.Category(category)
	f.Format = format.String
	f.Duration = duration.Float64
	f.Bitrate = bitrate.Int64
	f.Width = int(width.Int64)
	f.Height = int(height.Int64)
	f.VideoCodec = videoCodec.String
	f.AudioCodec = audioCodec.String
	f.QuickHash = qh.String
	f.Phash = phash.String
	return &f, nil
}

// GetFileByPath retrieves a single record by path. It returns sql.ErrNoRows
// when the path has never been recorded.
func (d *Database) GetFileByPath(ctx context.Context, path string) (*MediaFile, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_file_by_path", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var f *MediaFile
	f, err = scanFile(d.db.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM media_files WHERE path = ?`, path))
	return f, err
}

// UpsertMediaRecord inserts or replaces the metadata for rec.Path and
// returns the record id. Stored hashes the record does not carry survive
// only when size and modification time are unchanged; otherwise they are
// cleared so later runs recompute them.
func (d *Database) UpsertMediaRecord(ctx context.Context, rec *MediaFile) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("upsert_media_record", start, err) }()

	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filename := rec.Filename
	if filename == "" {
		filename = filepath.Base(rec.Path)
	}

	query := `
	INSERT INTO media_files (path, filename, size, mod_time, category, format, duration, bitrate,
		width, height, video_codec, audio_codec, quick_hash, phash, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, strftime('%s', 'now'))
	ON CONFLICT(path) DO UPDATE SET
		filename = excluded.filename,
		category = excluded.category,
		format = excluded.format,
		duration = excluded.duration,
		bitrate = excluded.bitrate,
		width = excluded.width,
		height = excluded.height,
		video_codec = excluded.video_codec,
		audio_codec = excluded.audio_codec,
		quick_hash = CASE
			WHEN excluded.quick_hash IS NOT NULL THEN excluded.quick_hash
			WHEN media_files.size = excluded.size AND media_files.mod_time = excluded.mod_time
			THEN media_files.quick_hash
			ELSE NULL
		END,
		phash = CASE
			WHEN excluded.phash IS NOT NULL THEN excluded.phash
			WHEN media_files.size = excluded.size AND media_files.mod_time = excluded.mod_time
			THEN media_files.phash
			ELSE NULL
		END,
		size = excluded.size,
		mod_time = excluded.mod_time,
		updated_at = strftime('%s', 'now')
	RETURNING id
	`

	var id int64
	err = d.db.QueryRowContext(ctx, query,
		rec.Path,
		filename,
		rec.Size,
		rec.ModTime.UnixNano(),
		string(rec.Category),
		nullString(rec.Format),
		nullFloat(rec.Duration),
		nullInt(rec.Bitrate),
		nullInt(int64(rec.Width)),
		nullInt(int64(rec.Height)),
		nullString(rec.VideoCodec),
		nullString(rec.AudioCodec),
		nullString(rec.QuickHash),
		nullString(rec.Phash),
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	rec.ID = id
	return id, nil
}

// UpsertQuickHash sets the quick hash of the record with the given id.
func (d *Database) UpsertQuickHash(ctx context.Context, id int64, hash string) error {
	return d.updateColumn(ctx, "upsert_quick_hash",
		`UPDATE media_files SET quick_hash = ?, updated_at = strftime('%s', 'now') WHERE id = ?`, hash, id)
}

// UpsertQuickHashByPath sets the quick hash of the record stored for path.
func (d *Database) UpsertQuickHashByPath(ctx context.Context, path, hash string) error {
	return d.updateColumn(ctx, "upsert_quick_hash_by_path",
		`UPDATE media_files SET quick_hash = ?, updated_at = strftime('%s', 'now') WHERE path = ?`, hash, path)
}

// UpsertPerceptualHash sets the perceptual hash of the record with the given id.
func (d *Database) UpsertPerceptualHash(ctx context.Context, id int64, hash string) error {
	return d.updateColumn(ctx, "upsert_perceptual_hash",
		`UPDATE media_files SET phash = ?, updated_at = strftime('%s', 'now') WHERE id = ?`, hash, id)
}

func (d *Database) updateColumn(ctx context.Context, op, query string, hash string, key any) error {
	start := time.Now()
	var err error
	defer func() { recordQuery(op, start, err) }()

	if hash == "" {
		err = fmt.Errorf("%s: empty hash", op)
		return err
	}

	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var result sql.Result
	result, err = d.db.ExecContext(ctx, query, hash, key)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		err = fmt.Errorf("%s %v: %w", op, key, ErrNotFound)
	}
	return err
}

// ListUnhashedVideos returns video and VR records without a perceptual hash.
// When dirs is non-empty only records at or below one of those directories
// are returned.
func (d *Database) ListUnhashedVideos(ctx context.Context, dirs []string) ([]UnhashedVideo, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_unhashed_videos", start, err) }()

	query := `SELECT id, path, duration FROM media_files
		WHERE category IN (?, ?) AND phash IS NULL`
	args := []any{string(mediatypes.CategoryVideo), string(mediatypes.CategoryVR)}

	if len(dirs) > 0 {
		clauses := make([]string, 0, len(dirs))
		for _, dir := range dirs {
			dir = filepath.Clean(dir)
			// Paths below dir sort between "dir/" and "dir0" since '0'
			// follows '/'. LIKE would be case-insensitive here.
			prefix := strings.TrimSuffix(dir, "/")
			clauses = append(clauses, `(path = ? OR (path >= ? AND path < ?))`)
			args = append(args, dir, prefix+"/", prefix+"0")
		}
		query += " AND (" + strings.Join(clauses, " OR ") + ")"
	}
	query += " ORDER BY id"

	// Listing a large library can take longer than a point query.
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var rows *sql.Rows
	rows, err = d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UnhashedVideo
	for rows.Next() {
		var v UnhashedVideo
		var duration sql.NullFloat64
		if err = rows.Scan(&v.ID, &v.Path, &duration); err != nil {
			return nil, err
		}
		v.Duration = duration.Float64
		out = append(out, v)
	}
	err = rows.Err()
	return out, err
}

// LibraryStats summarizes the indexed library for the metrics collector.
func (d *Database) LibraryStats(ctx context.Context) (metrics.LibraryStats, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("library_stats", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	stats := metrics.LibraryStats{ByCategory: make(map[string]int)}

	var rows *sql.Rows
	rows, err = d.db.QueryContext(ctx, `
		SELECT category, COUNT(*), COUNT(quick_hash), COUNT(phash)
		FROM media_files GROUP BY category`)
	if err != nil {
		return stats, err
	}
	defer rows.Close()

	for rows.Next() {
		var category string
		var total, quick, phash int
		if err = rows.Scan(&category, &total, &quick, &phash); err != nil {
			return stats, err
		}
		stats.ByCategory[category] = total
		stats.QuickHashed += quick
		stats.Phashed += phash
	}
	err = rows.Err()
	return stats, err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(f float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: f, Valid: f > 0}
}

func nullInt(i int64) sql.NullInt64 {
	return sql.NullInt64{Int64: i, Valid: i > 0}
}
