package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var recordsCmd = &cobra.Command{
	Use:   "records <run-id>",
	Short: "List a run's pending records",
	Long:  "Shows the records of a run that have no saved result yet, in the order they will be enriched.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		if _, err := st.GetRun(ctx, args[0]); err != nil {
			return err
		}

		recs, err := st.PendingRecords(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "list pending records")
		}
		if len(recs) == 0 {
			fmt.Fprintln(os.Stderr, "No pending records.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "SEQ\tNAME\tLOCATION\tCUIT")
		for _, r := range recs {
			_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", r.SequenceNumber, r.Name, r.Location, r.CUIT)
		}
		_ = w.Flush()

		fmt.Fprintf(os.Stderr, "%d pending records\n", len(recs))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(recordsCmd)
}
