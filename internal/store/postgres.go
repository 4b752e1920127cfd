package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/austral-labs/enrich-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies
// it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests.
func NewPostgresFromPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         UUID PRIMARY KEY,
	source     TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	stats      JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS run_records (
	run_id   UUID NOT NULL REFERENCES runs(id),
	sequence INTEGER NOT NULL,
	record   JSONB NOT NULL,
	enriched BOOLEAN NOT NULL DEFAULT false,
	PRIMARY KEY (run_id, sequence)
);

CREATE TABLE IF NOT EXISTS results (
	run_id       UUID NOT NULL REFERENCES runs(id),
	sequence     INTEGER NOT NULL,
	result       JSONB NOT NULL,
	status       TEXT NOT NULL,
	processed_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (run_id, sequence)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_run_records_enriched ON run_records(run_id, enriched);
CREATE INDEX IF NOT EXISTS idx_results_status ON results(run_id, status);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, source string, records []model.Record) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()
	stats := model.ProcessingStats{Total: len(records), StartTime: now}

	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal stats")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: begin create run")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO runs (id, source, status, stats, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, source, string(model.RunStatusRunning), statsJSON, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	for _, record := range records {
		recordJSON, err := json.Marshal(record)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: marshal record")
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO run_records (run_id, sequence, record) VALUES ($1, $2, $3)`,
			id, record.SequenceNumber, recordJSON,
		)
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: insert record %d", record.SequenceNumber)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "postgres: commit create run")
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

func (s *PostgresStore) UpdateRunStats(ctx context.Context, runID string, stats model.ProcessingStats) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal stats")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET stats = $1, updated_at = $2 WHERE id = $3`,
		statsJSON, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run stats %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("store: run %s not found", runID)
	}
	return nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, status model.RunStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("store: run %s not found", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, source, status, stats, created_at, updated_at FROM runs WHERE id = $1`,
		runID,
	)
	return scanPgRun(row)
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, source, status, stats, created_at, updated_at FROM runs ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		run, err := scanPgRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: iterate runs")
}

func (s *PostgresStore) PendingRecords(ctx context.Context, runID string) ([]model.Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT record FROM run_records WHERE run_id = $1 AND enriched = false ORDER BY sequence`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: pending records")
	}
	defer rows.Close()

	var records []model.Record
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		var record model.Record
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal record")
		}
		records = append(records, record)
	}
	return records, eris.Wrap(rows.Err(), "postgres: iterate records")
}

func (s *PostgresStore) SaveResult(ctx context.Context, runID string, result model.EnrichmentResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal result")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin save result")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO results (run_id, sequence, result, status, processed_at) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (run_id, sequence) DO UPDATE SET result = EXCLUDED.result, status = EXCLUDED.status, processed_at = EXCLUDED.processed_at`,
		runID, result.Record.SequenceNumber, resultJSON, string(result.Status), result.ProcessedAt.UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert result %d", result.Record.SequenceNumber)
	}

	_, err = tx.Exec(ctx,
		`UPDATE run_records SET enriched = true WHERE run_id = $1 AND sequence = $2`,
		runID, result.Record.SequenceNumber,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: mark record enriched %d", result.Record.SequenceNumber)
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit save result")
}

func (s *PostgresStore) ListResults(ctx context.Context, runID string, filter ResultFilter) ([]model.EnrichmentResult, error) {
	query := `SELECT result FROM results WHERE run_id = $1`
	args := []any{runID}

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` AND status = $2`
	}
	query += ` ORDER BY sequence`

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	args = append(args, limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list results")
	}
	defer rows.Close()

	var results []model.EnrichmentResult
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, eris.Wrap(err, "postgres: scan result")
		}
		var result model.EnrichmentResult
		if err := json.Unmarshal(raw, &result); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal result")
		}
		results = append(results, result)
	}
	return results, eris.Wrap(rows.Err(), "postgres: iterate results")
}

func scanPgRun(row pgx.Row) (*model.Run, error) {
	var (
		run       model.Run
		status    string
		statsJSON []byte
	)
	err := row.Scan(&run.ID, &run.Source, &status, &statsJSON, &run.CreatedAt, &run.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrap(err, "store: run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: scan run")
	}
	run.Status = model.RunStatus(status)
	if err := json.Unmarshal(statsJSON, &run.Stats); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal stats")
	}
	return &run, nil
}
