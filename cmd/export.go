package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/austral-labs/enrich-cli/internal/model"
	"github.com/austral-labs/enrich-cli/internal/records"
	"github.com/austral-labs/enrich-cli/internal/store"
)

var (
	exportOut    string
	exportStatus string
)

var exportCmd = &cobra.Command{
	Use:   "export <run-id>",
	Short: "Export enrichment results to CSV or XLSX",
	Long:  "Writes the results of a run to a file. The format is taken from the output file's extension (.csv or .xlsx).",
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

		// Fail on an unknown run before touching the output file.
		if _, err := st.GetRun(ctx, args[0]); err != nil {
			return err
		}

		results, err := st.ListResults(ctx, args[0], store.ResultFilter{
			Status: model.Status(strings.ToUpper(exportStatus)),
		})
		if err != nil {
			return err
		}
		if len(results) == 0 {
			return eris.Errorf("no results for run %s", args[0])
		}

		switch strings.ToLower(filepath.Ext(exportOut)) {
		case ".csv":
			f, err := os.Create(exportOut)
			if err != nil {
				return eris.Wrap(err, "create output file")
			}
			defer f.Close() //nolint:errcheck
			if err := records.WriteResultsCSV(f, results); err != nil {
				return err
			}
		case ".xlsx":
			if err := records.WriteResultsXLSX(exportOut, results); err != nil {
				return err
			}
		default:
			return eris.Errorf("output file must end in .csv or .xlsx: %s", exportOut)
		}

		fmt.Printf("Exported %d results to %s\n", len(results), exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file path (.csv or .xlsx)")
	exportCmd.Flags().StringVar(&exportStatus, "status", "", "only export results with this status (SUCCESS, PARTIAL, FAILED)")
	_ = exportCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(exportCmd)
}
