package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/austral-labs/enrich-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	stats      TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS run_records (
	run_id   TEXT NOT NULL REFERENCES runs(id),
	sequence INTEGER NOT NULL,
	record   TEXT NOT NULL,
	enriched INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (run_id, sequence)
);

CREATE TABLE IF NOT EXISTS results (
	run_id       TEXT NOT NULL REFERENCES runs(id),
	sequence     INTEGER NOT NULL,
	result       TEXT NOT NULL,
	status       TEXT NOT NULL,
	processed_at DATETIME NOT NULL,
	PRIMARY KEY (run_id, sequence)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_run_records_enriched ON run_records(run_id, enriched);
CREATE INDEX IF NOT EXISTS idx_results_status ON results(run_id, status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, source string, records []model.Record) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()
	stats := model.ProcessingStats{Total: len(records), StartTime: now}

	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal stats")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin create run")
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, source, status, stats, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, source, string(model.RunStatusRunning), string(statsJSON), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	for _, record := range records {
		recordJSON, err := json.Marshal(record)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: marshal record")
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_records (run_id, sequence, record) VALUES (?, ?, ?)`,
			id, record.SequenceNumber, string(recordJSON),
		)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: insert record %d", record.SequenceNumber)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit create run")
	}

	return &model.Run{
		ID:        id,
		Source:    source,
		Status:    model.RunStatusRunning,
		Stats:     stats,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) UpdateRunStats(ctx context.Context, runID string, stats model.ProcessingStats) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal stats")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET stats = ?, updated_at = ? WHERE id = ?`,
		string(statsJSON), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run stats %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, status model.RunStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, source, status, stats, created_at, updated_at FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, status, stats, created_at, updated_at FROM runs ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer func() { _ = rows.Close() }()

	var runs []model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}

func (s *SQLiteStore) PendingRecords(ctx context.Context, runID string) ([]model.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT record FROM run_records WHERE run_id = ? AND enriched = 0 ORDER BY sequence`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: pending records")
	}
	defer func() { _ = rows.Close() }()

	var records []model.Record
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan record")
		}
		var record model.Record
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal record")
		}
		records = append(records, record)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: iterate records")
}

func (s *SQLiteStore) SaveResult(ctx context.Context, runID string, result model.EnrichmentResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin save result")
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO results (run_id, sequence, result, status, processed_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (run_id, sequence) DO UPDATE SET result = excluded.result, status = excluded.status, processed_at = excluded.processed_at`,
		runID, result.Record.SequenceNumber, string(resultJSON), string(result.Status), result.ProcessedAt.UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert result %d", result.Record.SequenceNumber)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE run_records SET enriched = 1 WHERE run_id = ? AND sequence = ?`,
		runID, result.Record.SequenceNumber,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark record enriched %d", result.Record.SequenceNumber)
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit save result")
}

func (s *SQLiteStore) ListResults(ctx context.Context, runID string, filter ResultFilter) ([]model.EnrichmentResult, error) {
	query := `SELECT result FROM results WHERE run_id = ?`
	args := []any{runID}

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY sequence`

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list results")
	}
	defer func() { _ = rows.Close() }()

	var results []model.EnrichmentResult
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan result")
		}
		var result model.EnrichmentResult
		if err := json.Unmarshal([]byte(raw), &result); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal result")
		}
		results = append(results, result)
	}
	return results, eris.Wrap(rows.Err(), "sqlite: iterate results")
}

// scanner abstracts sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*model.Run, error) {
	var (
		run       model.Run
		status    string
		statsJSON string
	)
	err := row.Scan(&run.ID, &run.Source, &status, &statsJSON, &run.CreatedAt, &run.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Wrap(err, "store: run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: scan run")
	}
	run.Status = model.RunStatus(status)
	if err := json.Unmarshal([]byte(statsJSON), &run.Stats); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal stats")
	}
	return &run, nil
}

func checkRowsAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "store: rows affected")
	}
	if n == 0 {
		return eris.Errorf("store: %s %s not found", kind, id)
	}
	return nil
}
