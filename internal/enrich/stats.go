package enrich

import (
	"sync"
	"time"

	"github.com/austral-labs/enrich-cli/internal/model"
)

// Tracker is the mutex-serialized stats accumulator for one batch run.
// Every recorded result increments exactly one status bucket, so
// processed always equals successful+partial+failed.
type Tracker struct {
	mu    sync.Mutex
	stats model.ProcessingStats
	now   func() time.Time
}

// NewTracker starts a run over the given number of records.
func NewTracker(total int) *Tracker {
	t := &Tracker{now: time.Now}
	t.stats = model.ProcessingStats{
		Total:     total,
		StartTime: t.now(),
	}
	return t
}

// Record counts one finished result and returns the updated snapshot.
// The completion estimate is recomputed from the observed per-record
// rate; it stays zero until at least one record has finished.
func (t *Tracker) Record(status model.Status) model.ProcessingStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stats.Processed++
	switch status {
	case model.StatusSuccess:
		t.stats.Successful++
	case model.StatusPartial:
		t.stats.Partial++
	default:
		t.stats.Failed++
	}

	elapsed := t.now().Sub(t.stats.StartTime)
	if elapsed > 0 && t.stats.Processed > 0 {
		perRecord := elapsed / time.Duration(t.stats.Processed)
		t.stats.EstimatedEndTime = t.now().Add(perRecord * time.Duration(t.stats.Remaining()))
	}

	return t.stats
}

// Snapshot returns a copy of the current stats.
func (t *Tracker) Snapshot() model.ProcessingStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}
