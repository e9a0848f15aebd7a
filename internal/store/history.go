package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/ranktest-cli/internal/model"
)

// History records past runs in SQLite. It is advisory bookkeeping for the
// status command; resumption always re-reads the result files on disk.
type History struct {
	db *sql.DB
}

// NewHistory opens the run-history database and configures WAL mode.
func NewHistory(dsn string) (*History, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "history: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "history: exec %s", pragma)
		}
	}
	return &History{db: db}, nil
}

const historyMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	status        TEXT NOT NULL DEFAULT 'running',
	workers       INTEGER NOT NULL,
	total_items   INTEGER NOT NULL,
	processed     INTEGER NOT NULL DEFAULT 0,
	failed        INTEGER NOT NULL DEFAULT 0,
	compiled_path TEXT NOT NULL DEFAULT '',
	report_path   TEXT NOT NULL DEFAULT '',
	started_at    DATETIME NOT NULL,
	finished_at   DATETIME
);
`

// Migrate creates the schema if it does not exist.
func (h *History) Migrate(ctx context.Context) error {
	if _, err := h.db.ExecContext(ctx, historyMigration); err != nil {
		return eris.Wrap(err, "history: migrate")
	}
	return nil
}

// Close releases the database handle.
func (h *History) Close() error {
	return h.db.Close()
}

// CreateRun inserts a new running record and returns it.
func (h *History) CreateRun(ctx context.Context, workers, totalItems int) (*model.Run, error) {
	run := &model.Run{
		ID:         uuid.NewString(),
		Status:     model.RunStatusRunning,
		Workers:    workers,
		TotalItems: totalItems,
		StartedAt:  time.Now().UTC(),
	}
	_, err := h.db.ExecContext(ctx,
		`INSERT INTO runs (id, status, workers, total_items, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Status, run.Workers, run.TotalItems, run.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "history: create run")
	}
	return run, nil
}

// FinishRun marks a run finished with its final counters and artifact paths.
func (h *History) FinishRun(ctx context.Context, id string, status model.RunStatus, processed, failed int, compiledPath, reportPath string) error {
	_, err := h.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, processed = ?, failed = ?, compiled_path = ?, report_path = ?, finished_at = ? WHERE id = ?`,
		status, processed, failed, compiledPath, reportPath, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "history: finish run %s", id)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (h *History) RecentRuns(ctx context.Context, limit int) ([]model.Run, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT id, status, workers, total_items, processed, failed, compiled_path, report_path, started_at, finished_at
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "history: query runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		var finished sql.NullTime
		if err := rows.Scan(&r.ID, &r.Status, &r.Workers, &r.TotalItems, &r.Processed, &r.Failed,
			&r.CompiledPath, &r.ReportPath, &r.StartedAt, &finished); err != nil {
			return nil, eris.Wrap(err, "history: scan run")
		}
		if finished.Valid {
			r.FinishedAt = finished.Time
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "history: iterate runs")
	}
	return runs, nil
}
