package records

import (
	"encoding/csv"
	"io"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/austral-labs/enrich-cli/internal/model"
)

var exportHeader = []string{
	"name", "location", "cuit", "legal_name",
	"website", "email", "phone", "address",
	"status", "processed_at", "errors",
}

func exportRow(result model.EnrichmentResult) []string {
	processedAt := ""
	if !result.ProcessedAt.IsZero() {
		processedAt = result.ProcessedAt.Format(time.RFC3339)
	}
	return []string{
		result.Record.Name,
		result.Record.Location,
		result.Record.CUIT,
		result.Record.LegalName,
		result.ContactInfo.Website,
		result.ContactInfo.Email,
		result.ContactInfo.Phone,
		result.ContactInfo.Address,
		string(result.Status),
		processedAt,
		strings.Join(result.Errors, "; "),
	}
}

// WriteResultsCSV writes enrichment results as CSV, one row per result
// plus a header row.
func WriteResultsCSV(w io.Writer, results []model.EnrichmentResult) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeader); err != nil {
		return eris.Wrap(err, "records: write csv header")
	}
	for _, result := range results {
		if err := writer.Write(exportRow(result)); err != nil {
			return eris.Wrap(err, "records: write csv row")
		}
	}
	writer.Flush()
	return eris.Wrap(writer.Error(), "records: flush csv")
}

// WriteResultsXLSX writes enrichment results as a single-sheet XLSX
// file at the given path.
func WriteResultsXLSX(path string, results []model.EnrichmentResult) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Resultados")
	if err != nil {
		return eris.Wrap(err, "records: add xlsx sheet")
	}

	header := sheet.AddRow()
	for _, name := range exportHeader {
		header.AddCell().Value = name
	}

	for _, result := range results {
		row := sheet.AddRow()
		for _, value := range exportRow(result) {
			row.AddCell().Value = value
		}
	}

	return eris.Wrap(f.Save(path), "records: save xlsx")
}
