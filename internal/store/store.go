// Package store persists imported records, enrichment results and run
// progress. Two drivers are provided: SQLite for single-user CLI runs
// and Postgres for shared deployments.
package store

import (
	"context"

	"github.com/austral-labs/enrich-cli/internal/model"
)

// ResultFilter specifies criteria for listing results.
type ResultFilter struct {
	Status model.Status `json:"status,omitempty"`
	Limit  int          `json:"limit,omitempty"`
	Offset int          `json:"offset,omitempty"`
}

// Store defines the persistence interface for the enrichment pipeline.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, source string, records []model.Record) (*model.Run, error)
	UpdateRunStats(ctx context.Context, runID string, stats model.ProcessingStats) error
	CompleteRun(ctx context.Context, runID string, status model.RunStatus) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, limit int) ([]model.Run, error)

	// Records and results
	PendingRecords(ctx context.Context, runID string) ([]model.Record, error)
	SaveResult(ctx context.Context, runID string, result model.EnrichmentResult) error
	ListResults(ctx context.Context, runID string, filter ResultFilter) ([]model.EnrichmentResult, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
