package records

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/austral-labs/enrich-cli/internal/model"
)

// XLSXOptions configures the XLSX parser.
type XLSXOptions struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
}

// ParseXLSX reads business records from a local XLSX file. Header
// handling matches ParseCSV.
func ParseXLSX(path string, opts XLSXOptions) ([]model.Record, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "records: open xlsx")
	}

	sheet, err := getSheet(f, opts)
	if err != nil {
		return nil, err
	}

	var (
		records  []model.Record
		cols     columnMap
		haveCols bool
		sequence int
	)

	for _, row := range sheet.Rows {
		cells := rowToStrings(row)
		if emptyRow(cells) {
			continue
		}

		if !haveCols {
			var headered bool
			cols, headered = mapColumns(cells)
			haveCols = true
			if headered {
				continue
			}
		}

		if cols.rowDone(cells) {
			sequence++
			continue
		}
		records = append(records, cols.rowRecord(cells, sequence))
		sequence++
	}

	zap.L().Debug("records: xlsx parsed",
		zap.String("sheet", sheet.Name),
		zap.Int("records", len(records)),
	)
	return records, nil
}

func getSheet(f *xlsx.File, opts XLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("records: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}

	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("records: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}
	return f.Sheets[opts.SheetIndex], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
