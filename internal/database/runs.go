package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StartRun records the start of a scan and returns its opaque id.
func (d *Database) StartRun(ctx context.Context) (string, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("start_run", start, err) }()

	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id := uuid.NewString()
	_, err = d.db.ExecContext(ctx,
		`INSERT INTO scan_runs (id, started_at, status) VALUES (?, ?, ?)`,
		id, time.Now().Unix(), string(RunRunning))
	if err != nil {
		return "", err
	}
	return id, nil
}

// FinishRun marks a running scan as completed with its final counts.
func (d *Database) FinishRun(ctx context.Context, id string, total, written, errorCount int) error {
	return d.finalizeRun(ctx, "finish_run", id,
		`UPDATE scan_runs SET finished_at = ?, total = ?, written = ?, errors = ?, status = ?
		 WHERE id = ? AND status = ?`,
		time.Now().Unix(), total, written, errorCount, string(RunCompleted), id, string(RunRunning))
}

// FailRun marks a running scan as failed, keeping the number of records
// written before the failure.
func (d *Database) FailRun(ctx context.Context, id string, written int) error {
	return d.finalizeRun(ctx, "fail_run", id,
		`UPDATE scan_runs SET finished_at = ?, written = ?, status = ?
		 WHERE id = ? AND status = ?`,
		time.Now().Unix(), written, string(RunFailed), id, string(RunRunning))
}

// finalizeRun applies a terminal update. The status guard makes a finished
// run immutable: a second finalization matches no row and is reported.
func (d *Database) finalizeRun(ctx context.Context, op, id, query string, args ...any) error {
	start := time.Now()
	var err error
	defer func() { recordQuery(op, start, err) }()

	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var result sql.Result
	result, err = d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		err = fmt.Errorf("%s: no running scan with id %s", op, id)
	}
	return err
}

const runColumns = `id, started_at, finished_at, total, written, errors, status`

func scanRun(row rowScanner) (*ScanRun, error) {
	var (
		r         ScanRun
		startedAt int64
		finished  sql.NullInt64
		status    string
	)
	if err := row.Scan(&r.ID, &startedAt, &finished, &r.Total, &r.Written, &r.Errors, &status); err != nil {
		return nil, err
	}
	r.StartedAt = time.Unix(startedAt, 0)
	if finished.Valid {
		t := time.Unix(finished.Int64, 0)
		r.FinishedAt = &t
	}
	r.Status = RunStatus(status)
	return &r, nil
}

// GetRun returns the run with the given id, or sql.ErrNoRows.
func (d *Database) GetRun(ctx context.Context, id string) (*ScanRun, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_run", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var r *ScanRun
	r, err = scanRun(d.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM scan_runs WHERE id = ?`, id))
	return r, err
}

// LatestRun returns the most recently started run, or sql.ErrNoRows when no
// scan has ever been started.
func (d *Database) LatestRun(ctx context.Context) (*ScanRun, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("latest_run", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var r *ScanRun
	r, err = scanRun(d.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM scan_runs ORDER BY started_at DESC, rowid DESC LIMIT 1`))
	return r, err
}
