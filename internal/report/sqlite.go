// Package report exports tracker snapshots to a SQLite file. Reports are
// written after a render for inspection; counts are never loaded back.
package report

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/luhtaf/onlyonce/internal/occurrence"
)

// Report is an open SQLite report file.
type Report struct {
	db  *sql.DB
	now func() time.Time
}

// Run summarizes one exported snapshot.
type Run struct {
	ID         string
	Entries    int
	Total      int
	RecordedAt time.Time
}

// Open creates or opens the report at path.
func Open(path string) (*Report, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS occurrences (
  run_id TEXT NOT NULL,
  space TEXT NOT NULL,
  identity_key TEXT NOT NULL,
  count INTEGER NOT NULL,
  recorded_at TEXT NOT NULL,
  PRIMARY KEY (run_id, space, identity_key)
);`); err != nil {
		db.Close()
		return nil, err
	}
	return &Report{db: db, now: time.Now}, nil
}

func (r *Report) Close() error { return r.db.Close() }

// Write stores entries under runID in one transaction. Writing the same run
// again replaces the counts of entries already present.
func (r *Report) Write(ctx context.Context, runID string, entries []occurrence.Entry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO occurrences(run_id, space, identity_key, count, recorded_at)
VALUES(?,?,?,?,?)
ON CONFLICT(run_id, space, identity_key) DO UPDATE SET count=excluded.count, recorded_at=excluded.recorded_at;`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := r.now().UTC().Format(time.RFC3339)
	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, runID, e.Space, e.Key, e.Count, now); err != nil {
			return fmt.Errorf("write %s/%s: %w", e.Space, e.Key, err)
		}
	}
	return tx.Commit()
}

// Entries returns the snapshot stored under runID, sorted by space then key.
func (r *Report) Entries(ctx context.Context, runID string) ([]occurrence.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT space, identity_key, count FROM occurrences
WHERE run_id=? ORDER BY space, identity_key`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []occurrence.Entry
	for rows.Next() {
		var e occurrence.Entry
		if err := rows.Scan(&e.Space, &e.Key, &e.Count); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Runs lists stored runs, oldest first.
func (r *Report) Runs(ctx context.Context) ([]Run, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT run_id, COUNT(*), SUM(count), MAX(recorded_at) FROM occurrences
GROUP BY run_id ORDER BY MAX(recorded_at), run_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			run Run
			ts  string
		)
		if err := rows.Scan(&run.ID, &run.Entries, &run.Total, &ts); err != nil {
			return nil, err
		}
		if run.RecordedAt, err = time.Parse(time.RFC3339, ts); err != nil {
			return nil, fmt.Errorf("run %s: %w", run.ID, err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// GC deletes rows recorded more than olderThanDays ago. Zero or negative
// keeps everything.
func (r *Report) GC(ctx context.Context, olderThanDays int) (int64, error) {
	if olderThanDays <= 0 {
		return 0, nil
	}
	threshold := r.now().AddDate(0, 0, -olderThanDays).UTC().Format(time.RFC3339)
	res, err := r.db.ExecContext(ctx, `DELETE FROM occurrences WHERE recorded_at < ?`, threshold)
	if err != nil {
		return 0, err
	}
	rows, _ := res.RowsAffected()
	return rows, nil
}
