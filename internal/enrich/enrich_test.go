package enrich

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/austral-labs/enrich-cli/internal/model"
)

type mockDiscoverer struct {
	website string
	found   bool
	calls   atomic.Int64
}

func (m *mockDiscoverer) Discover(ctx context.Context, record model.Record) (string, bool) {
	m.calls.Add(1)
	return m.website, m.found
}

type mockExtractor struct {
	info   model.ContactInfo
	blowUp bool
	calls  atomic.Int64
}

func (m *mockExtractor) Extract(ctx context.Context, url string) model.ContactInfo {
	m.calls.Add(1)
	if m.blowUp {
		panic("extractor blew up")
	}
	info := m.info
	info.Website = url
	return info
}

type mockGeocoder struct {
	location *model.LocationData
	err      error
}

func (m *mockGeocoder) Locate(ctx context.Context, name, location string) (*model.LocationData, error) {
	return m.location, m.err
}

type mockRegistry struct {
	cuitID    string
	legalName string
	err       error
}

func (m *mockRegistry) Identify(ctx context.Context, name string) (string, string, error) {
	return m.cuitID, m.legalName, m.err
}

func TestEnrichOne_FullContactIsSuccess(t *testing.T) {
	e := NewEnricher(
		&mockDiscoverer{website: "https://acme.com.ar", found: true},
		&mockExtractor{info: model.ContactInfo{Email: "contacto@acme.com.ar", Phone: "1145678901"}},
	)

	result := e.EnrichOne(context.Background(), model.Record{Name: "Acme SA"})

	assert.Equal(t, model.StatusSuccess, result.Status)
	assert.Equal(t, "https://acme.com.ar", result.ContactInfo.Website)
	assert.Empty(t, result.Errors)
	assert.False(t, result.ProcessedAt.IsZero())
}

func TestEnrichOne_NoWebsiteIsFailed(t *testing.T) {
	extractor := &mockExtractor{}
	e := NewEnricher(&mockDiscoverer{found: false}, extractor)

	result := e.EnrichOne(context.Background(), model.Record{Name: "Acme SA"})

	assert.Equal(t, model.StatusFailed, result.Status)
	assert.Contains(t, result.Errors, "no website found")
	assert.Zero(t, extractor.calls.Load(), "extraction must not run without a website")
}

func TestEnrichOne_WebsiteOnlyIsPartial(t *testing.T) {
	e := NewEnricher(
		&mockDiscoverer{website: "https://acme.com.ar", found: true},
		&mockExtractor{},
	)

	result := e.EnrichOne(context.Background(), model.Record{Name: "Acme SA"})

	assert.Equal(t, model.StatusPartial, result.Status)
}

func TestEnrichOne_PanicIsCaught(t *testing.T) {
	e := NewEnricher(
		&mockDiscoverer{website: "https://acme.com.ar", found: true},
		&mockExtractor{blowUp: true},
	)

	result := e.EnrichOne(context.Background(), model.Record{Name: "Acme SA"})

	assert.Equal(t, model.StatusFailed, result.Status)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "extractor blew up")
}

func TestEnrichOne_RegistryFillsMissingFields(t *testing.T) {
	e := NewEnricher(
		&mockDiscoverer{found: false},
		&mockExtractor{},
		WithRegistry(&mockRegistry{cuitID: "30-71234567-8", legalName: "ACME SOCIEDAD ANONIMA"}),
	)

	result := e.EnrichOne(context.Background(), model.Record{Name: "Acme SA", CUIT: "20-11111111-1"})

	// Existing CUIT kept, missing legal name filled.
	assert.Equal(t, "20-11111111-1", result.Record.CUIT)
	assert.Equal(t, "ACME SOCIEDAD ANONIMA", result.Record.LegalName)
}

func TestEnrichOne_GeocodeFailureIsNonFatal(t *testing.T) {
	e := NewEnricher(
		&mockDiscoverer{website: "https://acme.com.ar", found: true},
		&mockExtractor{info: model.ContactInfo{Email: "contacto@acme.com.ar", Phone: "1145678901"}},
		WithGeocoder(&mockGeocoder{err: eris.New("quota exceeded")}),
	)

	result := e.EnrichOne(context.Background(), model.Record{Name: "Acme SA"})

	assert.Equal(t, model.StatusSuccess, result.Status)
	assert.Nil(t, result.Location)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "geocode")
}

// mockRecordEnricher instruments concurrency for batch tests.
type mockRecordEnricher struct {
	status   model.Status
	delay    time.Duration
	inFlight atomic.Int64
	maxSeen  atomic.Int64
	calls    atomic.Int64

	mu    sync.Mutex
	names []string
}

func (m *mockRecordEnricher) EnrichOne(ctx context.Context, record model.Record) model.EnrichmentResult {
	current := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		seen := m.maxSeen.Load()
		if current <= seen || m.maxSeen.CompareAndSwap(seen, current) {
			break
		}
	}
	m.calls.Add(1)

	m.mu.Lock()
	m.names = append(m.names, record.Name)
	m.mu.Unlock()

	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	return model.EnrichmentResult{
		Record:      record,
		Status:      m.status,
		ProcessedAt: time.Now(),
	}
}

func batchRecords(n int) []model.Record {
	records := make([]model.Record, n)
	for i := range records {
		records[i] = model.Record{Name: "Record " + string(rune('A'+i)), SequenceNumber: i}
	}
	return records
}

func TestBatch_ResultsInInputOrder(t *testing.T) {
	enricher := &mockRecordEnricher{status: model.StatusPartial, delay: 5 * time.Millisecond}
	b := NewBatch(enricher, BatchConfig{Size: 5, MaxConcurrent: 3}, nil)

	records := batchRecords(10)
	results, stats, err := b.Run(context.Background(), records)

	require.NoError(t, err)
	require.Len(t, results, 10)
	for i, result := range results {
		assert.Equal(t, records[i].Name, result.Record.Name, "result %d out of position", i)
	}
	assert.Equal(t, 10, stats.Processed)
	assert.Equal(t, 10, stats.Partial)
}

func TestBatch_ConcurrencyBound(t *testing.T) {
	enricher := &mockRecordEnricher{status: model.StatusPartial, delay: 10 * time.Millisecond}
	b := NewBatch(enricher, BatchConfig{Size: 10, MaxConcurrent: 3}, nil)

	_, _, err := b.Run(context.Background(), batchRecords(10))

	require.NoError(t, err)
	assert.LessOrEqual(t, enricher.maxSeen.Load(), int64(3))
}

func TestBatch_SkipsInvalidRecords(t *testing.T) {
	enricher := &mockRecordEnricher{status: model.StatusSuccess}
	b := NewBatch(enricher, BatchConfig{Size: 5, MaxConcurrent: 3}, nil)

	records := []model.Record{
		{Name: "Acme SA"},
		{Name: "   "},
		{Name: "Beta SRL"},
	}
	results, stats, err := b.Run(context.Background(), records)

	require.NoError(t, err)
	assert.Equal(t, int64(2), enricher.calls.Load())

	assert.Equal(t, model.StatusFailed, results[1].Status)
	assert.Contains(t, results[1].Errors, "record has no name")

	// Skipped records still count toward the run totals.
	assert.Equal(t, 3, stats.Processed)
	assert.Equal(t, 2, stats.Successful)
	assert.Equal(t, 1, stats.Failed)
}

func TestBatch_ProgressPerChunk(t *testing.T) {
	enricher := &mockRecordEnricher{status: model.StatusSuccess}

	var snapshots []model.ProcessingStats
	progress := func(s model.ProcessingStats) {
		snapshots = append(snapshots, s)
	}

	b := NewBatch(enricher, BatchConfig{Size: 3, MaxConcurrent: 2}, progress)
	_, stats, err := b.Run(context.Background(), batchRecords(7))

	require.NoError(t, err)

	// One snapshot per chunk, not per record: 7 records in chunks of 3.
	require.Len(t, snapshots, 3)
	assert.Equal(t, 3, snapshots[0].Processed)
	assert.Equal(t, 6, snapshots[1].Processed)
	assert.Equal(t, 7, snapshots[2].Processed)
	assert.Equal(t, stats.Processed, stats.Successful+stats.Partial+stats.Failed)
}

func TestBatch_ChunkCountAndSingleDelay(t *testing.T) {
	enricher := &mockRecordEnricher{status: model.StatusSuccess}

	var snapshots []model.ProcessingStats
	progress := func(s model.ProcessingStats) {
		snapshots = append(snapshots, s)
	}

	delay := 150 * time.Millisecond
	b := NewBatch(enricher, BatchConfig{Size: 5, MaxConcurrent: 3, Delay: delay}, progress)

	startAt := time.Now()
	results, stats, err := b.Run(context.Background(), batchRecords(10))
	elapsed := time.Since(startAt)

	require.NoError(t, err)
	require.Len(t, results, 10)
	assert.Equal(t, 10, stats.Processed)

	// Ten records in chunks of five schedule exactly two chunks.
	require.Len(t, snapshots, 2)
	assert.Equal(t, 5, snapshots[0].Processed)
	assert.Equal(t, 10, snapshots[1].Processed)

	// The inter-chunk pause runs exactly once, between the two chunks.
	assert.GreaterOrEqual(t, elapsed, delay)
	assert.Less(t, elapsed, 2*delay)
}

func TestBatch_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	enricher := &mockRecordEnricher{status: model.StatusSuccess}
	b := NewBatch(enricher, BatchConfig{Size: 5, MaxConcurrent: 1}, nil)

	_, _, err := b.Run(ctx, batchRecords(5))
	assert.Error(t, err)
}

func TestTracker_EstimateAndInvariant(t *testing.T) {
	tracker := NewTracker(4)

	first := tracker.Record(model.StatusSuccess)
	assert.Equal(t, 1, first.Processed)
	assert.Equal(t, 3, first.Remaining())

	tracker.Record(model.StatusPartial)
	tracker.Record(model.StatusFailed)
	last := tracker.Record(model.StatusSuccess)

	assert.Equal(t, 4, last.Processed)
	assert.Equal(t, last.Processed, last.Successful+last.Partial+last.Failed)
	assert.Equal(t, 0, last.Remaining())
}

func TestTracker_EstimateAdvancesWithThroughput(t *testing.T) {
	tracker := NewTracker(10)
	base := time.Now()
	tick := 0
	tracker.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	stats := tracker.Record(model.StatusSuccess)
	assert.False(t, stats.EstimatedEndTime.IsZero())
	assert.True(t, stats.EstimatedEndTime.After(stats.StartTime))
}
