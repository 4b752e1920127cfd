package records

import (
	"strings"

	"github.com/austral-labs/enrich-cli/internal/model"
	"github.com/austral-labs/enrich-cli/internal/scorer"
)

// columnMap holds the index of each recognized column, -1 when absent.
type columnMap struct {
	name      int
	location  int
	cuit      int
	legalName int
	status    int
}

// Source files come in Spanish and English variants.
var columnSynonyms = map[string]string{
	"name":         "name",
	"nombre":       "name",
	"empresa":      "name",
	"business":     "name",
	"location":     "location",
	"localidad":    "location",
	"ciudad":       "location",
	"ubicacion":    "location",
	"provincia":    "location",
	"city":         "location",
	"cuit":         "cuit",
	"cuil":         "cuit",
	"tax id":       "cuit",
	"legal name":   "legalName",
	"legal_name":   "legalName",
	"razon social": "legalName",
	"denominacion": "legalName",
	"status":       "status",
	"estado":       "status",
}

// doneMarker flags rows already enriched in a previous spreadsheet run.
const doneMarker = "completado"

// mapColumns resolves header cells to record fields. ok is false when
// no recognizable column is present, meaning the file has no header row
// and positional defaults apply.
func mapColumns(header []string) (columnMap, bool) {
	cols := columnMap{name: -1, location: -1, cuit: -1, legalName: -1, status: -1}
	matched := false

	for i, cell := range header {
		key := strings.ToLower(strings.TrimSpace(scorer.FoldASCII(cell)))
		switch columnSynonyms[key] {
		case "name":
			if cols.name < 0 {
				cols.name = i
				matched = true
			}
		case "location":
			if cols.location < 0 {
				cols.location = i
				matched = true
			}
		case "cuit":
			if cols.cuit < 0 {
				cols.cuit = i
				matched = true
			}
		case "legalName":
			if cols.legalName < 0 {
				cols.legalName = i
				matched = true
			}
		case "status":
			if cols.status < 0 {
				cols.status = i
				matched = true
			}
		}
	}

	if !matched {
		return columnMap{name: 0, location: 1, cuit: 2, legalName: 3, status: -1}, false
	}
	return cols, true
}

// rowRecord builds a Record from one data row using the column map.
func (c columnMap) rowRecord(row []string, sequence int) model.Record {
	cell := func(i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	return model.Record{
		Name:           cell(c.name),
		Location:       cell(c.location),
		CUIT:           cell(c.cuit),
		LegalName:      cell(c.legalName),
		SequenceNumber: sequence,
	}
}

// rowDone reports whether the row's status column marks it as already
// enriched. Such rows are skipped but still consume a sequence number,
// so exports stay aligned with the source file.
func (c columnMap) rowDone(row []string) bool {
	if c.status < 0 || c.status >= len(row) {
		return false
	}
	cell := strings.ToLower(strings.TrimSpace(scorer.FoldASCII(row[c.status])))
	return cell == doneMarker
}

func emptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
