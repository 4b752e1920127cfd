package enrich

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/austral-labs/enrich-cli/internal/model"
)

// RecordEnricher is the per-record pipeline the batch layer schedules.
type RecordEnricher interface {
	EnrichOne(ctx context.Context, record model.Record) model.EnrichmentResult
}

// BatchConfig controls the batch scheduler.
type BatchConfig struct {
	// Size is the number of records per chunk. All records of a chunk
	// finish before the next chunk starts.
	Size int

	// MaxConcurrent bounds in-flight enrichments within a chunk.
	MaxConcurrent int

	// Delay is the pause between consecutive chunks.
	Delay time.Duration
}

// DefaultBatchConfig returns production batch pacing.
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		Size:          5,
		MaxConcurrent: 3,
		Delay:         2 * time.Second,
	}
}

// ProgressFunc receives a stats snapshot after each completed chunk. It
// is called from the scheduling goroutine, never concurrently.
type ProgressFunc func(model.ProcessingStats)

// Batch fans records out over a bounded slot pool, chunk by chunk.
// Results land at each record's own index, so output order matches
// input order regardless of completion order.
type Batch struct {
	enricher   RecordEnricher
	cfg        BatchConfig
	onProgress ProgressFunc
}

// NewBatch creates a batch scheduler. progress may be nil.
func NewBatch(enricher RecordEnricher, cfg BatchConfig, progress ProgressFunc) *Batch {
	if cfg.Size <= 0 {
		cfg.Size = 5
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 3
	}
	return &Batch{enricher: enricher, cfg: cfg, onProgress: progress}
}

// Run enriches every record and returns one result per input record, in
// input order. Records with an empty name are marked FAILED without
// occupying a slot. Run only returns an error when the context ends;
// results produced up to that point are still returned.
func (b *Batch) Run(ctx context.Context, records []model.Record) ([]model.EnrichmentResult, model.ProcessingStats, error) {
	results := make([]model.EnrichmentResult, len(records))
	tracker := NewTracker(len(records))
	sem := semaphore.NewWeighted(int64(b.cfg.MaxConcurrent))

	log := zap.L().With(
		zap.Int("records", len(records)),
		zap.Int("batch_size", b.cfg.Size),
		zap.Int("max_concurrent", b.cfg.MaxConcurrent),
	)
	log.Info("enrich: batch run started")

	for start := 0; start < len(records); start += b.cfg.Size {
		if start > 0 && b.cfg.Delay > 0 {
			timer := time.NewTimer(b.cfg.Delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return results, tracker.Snapshot(), eris.Wrap(ctx.Err(), "enrich: batch run interrupted")
			case <-timer.C:
			}
		}

		end := min(start+b.cfg.Size, len(records))

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			record := records[i]
			if !record.Valid() {
				results[i] = b.skip(record)
				tracker.Record(model.StatusFailed)
				continue
			}

			if err := sem.Acquire(ctx, 1); err != nil {
				wg.Wait()
				return results, tracker.Snapshot(), eris.Wrap(err, "enrich: acquire slot")
			}

			wg.Add(1)
			go func(i int, record model.Record) {
				defer wg.Done()
				defer sem.Release(1)
				result := b.enricher.EnrichOne(ctx, record)
				results[i] = result
				tracker.Record(result.Status)
			}(i, record)
		}
		wg.Wait()

		snapshot := tracker.Snapshot()
		b.report(snapshot)
		log.Info("enrich: chunk done",
			zap.Int("processed", snapshot.Processed),
			zap.Int("remaining", snapshot.Remaining()),
		)
	}

	stats := tracker.Snapshot()
	log.Info("enrich: batch run finished",
		zap.Int("successful", stats.Successful),
		zap.Int("partial", stats.Partial),
		zap.Int("failed", stats.Failed),
	)
	return results, stats, nil
}

// skip marks a record that never entered the pipeline.
func (b *Batch) skip(record model.Record) model.EnrichmentResult {
	return model.EnrichmentResult{
		Record:      record,
		Status:      model.StatusFailed,
		ProcessedAt: time.Now(),
		Errors:      []string{"record has no name"},
	}
}

func (b *Batch) report(stats model.ProcessingStats) {
	if b.onProgress != nil {
		b.onProgress(stats)
	}
}
