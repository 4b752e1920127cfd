package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/austral-labs/enrich-cli/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "enrich.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testRecords() []model.Record {
	return []model.Record{
		{Name: "Acme SA", Location: "CABA", SequenceNumber: 0},
		{Name: "Beta SRL", Location: "Rosario", SequenceNumber: 1},
		{Name: "Gamma SA", SequenceNumber: 2},
	}
}

func TestSQLite_RunLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	run, err := s.CreateRun(ctx, "records.csv", testRecords())
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusRunning, run.Status)
	assert.Equal(t, 3, run.Stats.Total)

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "records.csv", got.Source)

	require.NoError(t, s.CompleteRun(ctx, run.ID, model.RunStatusComplete))
	got, err = s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, got.Status)

	runs, err := s.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
}

func TestSQLite_PendingShrinksAsResultsLand(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	run, err := s.CreateRun(ctx, "records.csv", testRecords())
	require.NoError(t, err)

	pending, err := s.PendingRecords(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, "Acme SA", pending[0].Name)

	result := model.EnrichmentResult{
		Record:      pending[0],
		ContactInfo: model.ContactInfo{Website: "https://acme.com.ar"},
		Status:      model.StatusPartial,
		ProcessedAt: time.Now(),
	}
	require.NoError(t, s.SaveResult(ctx, run.ID, result))

	pending, err = s.PendingRecords(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "Beta SRL", pending[0].Name)
}

func TestSQLite_SaveResultIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	run, err := s.CreateRun(ctx, "records.csv", testRecords())
	require.NoError(t, err)

	result := model.EnrichmentResult{
		Record:      testRecords()[0],
		Status:      model.StatusFailed,
		ProcessedAt: time.Now(),
		Errors:      []string{"no website found"},
	}
	require.NoError(t, s.SaveResult(ctx, run.ID, result))

	// Re-running the record overwrites its result row.
	result.Status = model.StatusSuccess
	result.ContactInfo = model.ContactInfo{
		Website: "https://acme.com.ar",
		Email:   "contacto@acme.com.ar",
		Phone:   "1145678901",
	}
	require.NoError(t, s.SaveResult(ctx, run.ID, result))

	results, err := s.ListResults(ctx, run.ID, ResultFilter{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, model.StatusSuccess, results[0].Status)
}

func TestSQLite_ListResultsFiltersByStatus(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	run, err := s.CreateRun(ctx, "records.csv", testRecords())
	require.NoError(t, err)

	statuses := []model.Status{model.StatusSuccess, model.StatusPartial, model.StatusFailed}
	for i, record := range testRecords() {
		require.NoError(t, s.SaveResult(ctx, run.ID, model.EnrichmentResult{
			Record:      record,
			Status:      statuses[i],
			ProcessedAt: time.Now(),
		}))
	}

	failed, err := s.ListResults(ctx, run.ID, ResultFilter{Status: model.StatusFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "Gamma SA", failed[0].Record.Name)

	all, err := s.ListResults(ctx, run.ID, ResultFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSQLite_UpdateRunStats(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	run, err := s.CreateRun(ctx, "records.csv", testRecords())
	require.NoError(t, err)

	stats := run.Stats
	stats.Processed = 2
	stats.Successful = 1
	stats.Partial = 1
	require.NoError(t, s.UpdateRunStats(ctx, run.ID, stats))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Stats.Processed)
	assert.Equal(t, 1, got.Stats.Remaining())
}

func TestSQLite_UnknownRun(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	_, err := s.GetRun(ctx, "missing")
	assert.Error(t, err)

	err = s.CompleteRun(ctx, "missing", model.RunStatusComplete)
	assert.Error(t, err)
}
