package records

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/austral-labs/enrich-cli/internal/model"
)

func TestParseCSV_SpanishHeader(t *testing.T) {
	input := strings.NewReader(
		"Nombre,Localidad,CUIT,Razón Social\n" +
			"Acme SA,CABA,30-71234567-8,ACME SOCIEDAD ANONIMA\n" +
			"Beta SRL,Córdoba,,\n",
	)

	records, err := ParseCSV(context.Background(), input, CSVOptions{})
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, model.Record{
		Name:      "Acme SA",
		Location:  "CABA",
		CUIT:      "30-71234567-8",
		LegalName: "ACME SOCIEDAD ANONIMA",
	}, records[0])
	assert.Equal(t, "Beta SRL", records[1].Name)
	assert.Equal(t, 1, records[1].SequenceNumber)
}

func TestParseCSV_HeaderlessPositional(t *testing.T) {
	input := strings.NewReader("Acme SA,CABA\nBeta SRL,Rosario\n")

	records, err := ParseCSV(context.Background(), input, CSVOptions{})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Acme SA", records[0].Name)
	assert.Equal(t, "Rosario", records[1].Location)
}

func TestParseCSV_SkipsEmptyRows(t *testing.T) {
	input := strings.NewReader("name\nAcme SA\n\n   \nBeta SRL\n")

	records, err := ParseCSV(context.Background(), input, CSVOptions{})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 0, records[0].SequenceNumber)
	assert.Equal(t, 1, records[1].SequenceNumber)
}

func TestParseCSV_SkipsCompletedRows(t *testing.T) {
	input := strings.NewReader(
		"Nombre,Estado\n" +
			"Acme SA,COMPLETADO\n" +
			"Beta SRL,\n" +
			"Gamma SA,Completado\n" +
			"Delta SRL,pendiente\n",
	)

	records, err := ParseCSV(context.Background(), input, CSVOptions{})
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Skipped rows still consume their sequence number.
	assert.Equal(t, "Beta SRL", records[0].Name)
	assert.Equal(t, 1, records[0].SequenceNumber)
	assert.Equal(t, "Delta SRL", records[1].Name)
	assert.Equal(t, 3, records[1].SequenceNumber)
}

func TestParseCSV_SemicolonDelimiter(t *testing.T) {
	input := strings.NewReader("empresa;ciudad\nAcme SA;CABA\n")

	records, err := ParseCSV(context.Background(), input, CSVOptions{Delimiter: ';'})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Acme SA", records[0].Name)
	assert.Equal(t, "CABA", records[0].Location)
}

func TestMapColumns(t *testing.T) {
	cols, headered := mapColumns([]string{"Razón Social", "CUIT", "Nombre"})
	assert.True(t, headered)
	assert.Equal(t, 2, cols.name)
	assert.Equal(t, 1, cols.cuit)
	assert.Equal(t, 0, cols.legalName)
	assert.Equal(t, -1, cols.location)

	_, headered = mapColumns([]string{"Acme SA", "CABA"})
	assert.False(t, headered)
}

func TestDetectFormat(t *testing.T) {
	format, err := DetectFormat("records.csv")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, format)

	format, err = DetectFormat("https://example.com/base/records.xlsx?v=2")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, format)

	_, err = DetectFormat("records.pdf")
	assert.Error(t, err)
}

func sampleResults() []model.EnrichmentResult {
	return []model.EnrichmentResult{
		{
			Record: model.Record{Name: "Acme SA", Location: "CABA", CUIT: "30-71234567-8"},
			ContactInfo: model.ContactInfo{
				Website: "https://acme.com.ar",
				Email:   "contacto@acme.com.ar",
				Phone:   "1145678901",
			},
			Status:      model.StatusSuccess,
			ProcessedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			Record: model.Record{Name: "Beta SRL", SequenceNumber: 1},
			Status: model.StatusFailed,
			Errors: []string{"no website found"},
		},
	}
}

func TestWriteResultsCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteResultsCSV(&buf, sampleResults()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "status")
	assert.Contains(t, lines[1], "contacto@acme.com.ar")
	assert.Contains(t, lines[1], "SUCCESS")
	assert.Contains(t, lines[2], "no website found")
}

func TestWriteResultsXLSXRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.xlsx")
	require.NoError(t, WriteResultsXLSX(path, sampleResults()))

	records, err := ParseXLSX(path, XLSXOptions{})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Acme SA", records[0].Name)
	assert.Equal(t, "30-71234567-8", records[0].CUIT)
}

func TestHTTPSource_RetriesServerErrors(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("name\nAcme SA\n"))
	}))
	defer srv.Close()

	source := NewHTTPSource(HTTPOptions{MaxRetries: 3, RequestsPerSecond: 1000, RetryBaseDelay: time.Millisecond})
	body, err := source.Download(context.Background(), srv.URL)
	require.NoError(t, err)
	defer func() { _ = body.Close() }()

	records, err := ParseCSV(context.Background(), body, CSVOptions{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(2), hits.Load())
}

func TestHTTPSource_NotFoundIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	source := NewHTTPSource(HTTPOptions{MaxRetries: 3, RequestsPerSecond: 1000, RetryBaseDelay: time.Millisecond})
	_, err := source.Download(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestStage_LocalPathPassthrough(t *testing.T) {
	path, cleanup, err := Stage(context.Background(), "/tmp/records.csv")
	require.NoError(t, err)
	defer cleanup()
	assert.Equal(t, "/tmp/records.csv", path)
}
