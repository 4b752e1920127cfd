package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/austral-labs/enrich-cli/internal/model"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect enrichment run history",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List enrichment runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := st.ListRuns(ctx, limit)
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(os.Stdout, runs)
		return nil
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show full details of a run",
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

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	},
}

func init() {
	runsListCmd.Flags().Int("limit", 50, "max number of runs to display")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, runs []model.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSOURCE\tSTATUS\tPROGRESS\tOK\tPARTIAL\tFAILED\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t------\t------\t--------\t--\t-------\t------\t-------")

	for _, r := range runs {
		source := r.Source
		if len(source) > 30 {
			source = source[:27] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%d\t%d\t%d\t%s\n",
			truncateID(r.ID),
			source,
			r.Status,
			r.Stats.Processed,
			r.Stats.Total,
			r.Stats.Successful,
			r.Stats.Partial,
			r.Stats.Failed,
			r.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
