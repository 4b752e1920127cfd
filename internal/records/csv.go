package records

import (
	"context"
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/austral-labs/enrich-cli/internal/model"
)

// CSVOptions configures the CSV parser.
type CSVOptions struct {
	Delimiter  rune // default ','
	Comment    rune // comment character (0 = none)
	LazyQuotes bool
}

// ParseCSV reads business records from CSV data. The first row is
// treated as a header when it contains any recognizable column name;
// otherwise columns are positional (name, location, cuit, legal name).
func ParseCSV(ctx context.Context, r io.Reader, opts CSVOptions) ([]model.Record, error) {
	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	if opts.Comment != 0 {
		reader.Comment = opts.Comment
	}
	reader.LazyQuotes = opts.LazyQuotes
	reader.FieldsPerRecord = -1

	var (
		records  []model.Record
		cols     columnMap
		haveCols bool
		sequence int
	)

	for {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "records: csv parse cancelled")
		}

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "records: read csv row")
		}
		if emptyRow(row) {
			continue
		}

		if !haveCols {
			var headered bool
			cols, headered = mapColumns(row)
			haveCols = true
			if headered {
				continue
			}
		}

		if cols.rowDone(row) {
			sequence++
			continue
		}
		records = append(records, cols.rowRecord(row, sequence))
		sequence++
	}

	zap.L().Debug("records: csv parsed", zap.Int("records", len(records)))
	return records, nil
}
