package main

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/austral-labs/enrich-cli/internal/model"
	"github.com/austral-labs/enrich-cli/internal/records"
)

var (
	importDelimiter string
	importSheet     string
)

var importCmd = &cobra.Command{
	Use:   "import <source>",
	Short: "Import business records and create a run",
	Long:  "Reads records from a local file or an http(s)/ftp URL (CSV or XLSX) and persists them as a new run, ready for enrichment.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		recs, err := loadRecords(ctx, args[0])
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			return eris.Errorf("no records found in %s", args[0])
		}

		run, err := st.CreateRun(ctx, args[0], recs)
		if err != nil {
			return eris.Wrap(err, "create run")
		}

		zap.L().Info("cmd: records imported",
			zap.String("run_id", run.ID),
			zap.String("source", run.Source),
			zap.Int("records", len(recs)),
		)
		fmt.Printf("Imported %d records from %s\n", len(recs), args[0])
		fmt.Printf("Run ID: %s\n", run.ID)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importDelimiter, "delimiter", "", "CSV field delimiter (default comma)")
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "XLSX sheet name (default first sheet)")
	rootCmd.AddCommand(importCmd)
}

// loadRecords reads records from a local path or remote URL, dispatching
// on the detected file format.
func loadRecords(ctx context.Context, ref string) ([]model.Record, error) {
	format, err := records.DetectFormat(ref)
	if err != nil {
		return nil, err
	}

	switch format {
	case records.FormatCSV:
		rc, err := records.Open(ctx, ref)
		if err != nil {
			return nil, err
		}
		defer rc.Close() //nolint:errcheck

		opts := records.CSVOptions{}
		if importDelimiter != "" {
			opts.Delimiter = rune(importDelimiter[0])
		}
		return records.ParseCSV(ctx, rc, opts)

	case records.FormatXLSX:
		path, cleanup, err := records.Stage(ctx, ref)
		if err != nil {
			return nil, err
		}
		defer cleanup()
		return records.ParseXLSX(path, records.XLSXOptions{SheetName: importSheet})

	default:
		return nil, eris.Errorf("unsupported format: %s", format)
	}
}
