package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dartlens/dartlens/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "dartlens",
	Short: "DART filing analysis core",
	Long:  "Normalizes parsed XBRL and PDF filings, resolves period comparisons, selects cited evidence for industry traits, and emits a footnoted analysis report with early-warning checkpoints.",
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
