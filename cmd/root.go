package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/austral-labs/enrich-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "enrich-cli",
	Short: "Business record enrichment pipeline",
	Long:  "Imports business records from CSV/XLSX, discovers each business's website via web search, extracts contact data, and exports the enriched results.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
