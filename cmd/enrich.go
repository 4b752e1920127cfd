package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/austral-labs/enrich-cli/internal/enrich"
	"github.com/austral-labs/enrich-cli/internal/model"
	"github.com/austral-labs/enrich-cli/internal/store"
)

var (
	enrichRunID string
	enrichYes   bool
	enrichLimit int
)

var enrichCmd = &cobra.Command{
	Use:   "enrich [source]",
	Short: "Enrich business records from a file or resume a run",
	Long:  "Imports records from the given source and enriches them, or resumes the pending records of an existing run with --run. Progress is persisted after every record, so an interrupted run can be resumed.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		run, recs, err := resolveRun(ctx, env.Store, args)
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Println("Nothing to enrich.")
			return nil
		}

		count := len(recs)
		switch {
		case enrichLimit > 0:
			count = capCount(enrichLimit, len(recs))
		case !enrichYes:
			count, err = promptCount(os.Stdin, os.Stdout, len(recs))
			if err != nil {
				return err
			}
			if count == 0 {
				fmt.Println("Cancelled.")
				return nil
			}
		}
		recs = recs[:count]

		_, stats, runErr := runBatch(ctx, env, run.ID, recs)

		status := model.RunStatusComplete
		if runErr != nil {
			status = model.RunStatusInterrupted
		}
		// Use a fresh context: the run context may already be cancelled.
		finishCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := env.Store.UpdateRunStats(finishCtx, run.ID, stats); err != nil {
			zap.L().Warn("cmd: persist final stats failed", zap.Error(err))
		}
		if err := env.Store.CompleteRun(finishCtx, run.ID, status); err != nil {
			zap.L().Warn("cmd: complete run failed", zap.Error(err))
		}

		printSummary(run.ID, stats)
		if runErr != nil && !errors.Is(runErr, context.Canceled) {
			return runErr
		}
		return nil
	},
}

func init() {
	enrichCmd.Flags().StringVar(&enrichRunID, "run", "", "resume the pending records of an existing run")
	enrichCmd.Flags().BoolVarP(&enrichYes, "yes", "y", false, "process all records without prompting")
	enrichCmd.Flags().IntVar(&enrichLimit, "limit", 0, "process only the first N records")
	rootCmd.AddCommand(enrichCmd)
}

// resolveRun either loads the pending records of an existing run or
// imports the source file into a new run.
func resolveRun(ctx context.Context, st store.Store, args []string) (*model.Run, []model.Record, error) {
	if enrichRunID != "" {
		run, err := st.GetRun(ctx, enrichRunID)
		if err != nil {
			return nil, nil, err
		}
		recs, err := st.PendingRecords(ctx, run.ID)
		if err != nil {
			return nil, nil, err
		}
		zap.L().Info("cmd: resuming run",
			zap.String("run_id", run.ID),
			zap.Int("pending", len(recs)),
		)
		return run, recs, nil
	}

	if len(args) == 0 {
		return nil, nil, eris.New("either a source file or --run is required")
	}

	recs, err := loadRecords(ctx, args[0])
	if err != nil {
		return nil, nil, err
	}
	if len(recs) == 0 {
		return nil, nil, eris.Errorf("no records found in %s", args[0])
	}

	run, err := st.CreateRun(ctx, args[0], recs)
	if err != nil {
		return nil, nil, eris.Wrap(err, "create run")
	}
	return run, recs, nil
}

func runBatch(ctx context.Context, env *pipelineEnv, runID string, recs []model.Record) ([]model.EnrichmentResult, model.ProcessingStats, error) {
	enricher := &storingEnricher{
		inner: env.Enricher,
		store: env.Store,
		runID: runID,
	}

	// Called once per completed chunk.
	progress := func(stats model.ProcessingStats) {
		if err := env.Store.UpdateRunStats(ctx, runID, stats); err != nil {
			zap.L().Warn("cmd: persist stats failed", zap.Error(err))
		}
		line := fmt.Sprintf("processed %d/%d  success %d  partial %d  failed %d",
			stats.Processed, stats.Total, stats.Successful, stats.Partial, stats.Failed)
		if !stats.EstimatedEndTime.IsZero() {
			if eta := time.Until(stats.EstimatedEndTime).Round(time.Second); eta > 0 {
				line += fmt.Sprintf("  eta %s", eta)
			}
		}
		fmt.Fprintln(os.Stderr, line)
	}

	batch := enrich.NewBatch(enricher, enrich.BatchConfig{
		Size:          cfg.Batch.Size,
		MaxConcurrent: cfg.Batch.MaxConcurrent,
		Delay:         secs(cfg.Batch.DelaySecs),
	}, progress)

	return batch.Run(ctx, recs)
}

// storingEnricher persists each result as soon as it is produced, so a
// crash or interrupt loses at most the in-flight records.
type storingEnricher struct {
	inner *enrich.Enricher
	store store.Store
	runID string
}

func (s *storingEnricher) EnrichOne(ctx context.Context, record model.Record) model.EnrichmentResult {
	result := s.inner.EnrichOne(ctx, record)
	if err := s.store.SaveResult(ctx, s.runID, result); err != nil {
		zap.L().Warn("cmd: save result failed",
			zap.String("run_id", s.runID),
			zap.Int("sequence", record.SequenceNumber),
			zap.Error(err),
		)
	}
	return result
}

func printSummary(runID string, stats model.ProcessingStats) {
	fmt.Println()
	fmt.Printf("Run %s\n", runID)
	fmt.Printf("  Processed:  %d/%d\n", stats.Processed, stats.Total)
	fmt.Printf("  Successful: %d\n", stats.Successful)
	fmt.Printf("  Partial:    %d\n", stats.Partial)
	fmt.Printf("  Failed:     %d\n", stats.Failed)
	if !stats.StartTime.IsZero() {
		fmt.Printf("  Duration:   %s\n", time.Since(stats.StartTime).Round(time.Second))
	}
}
