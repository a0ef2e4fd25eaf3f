package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dartlens/dartlens/internal/pipeline"
)

var (
	analyzeJSON bool
	analyzeSave bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <inputs.json>",
	Short: "Run one analysis over parsed filings",
	Long:  "Reads a parsed-filings JSON document, runs the full analysis and prints the footnoted report. With --save the run is persisted to the configured store.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		in, err := pipeline.LoadInputs(args[0])
		if err != nil {
			return err
		}

		rules, err := loadRules()
		if err != nil {
			return err
		}

		bundle := pipeline.New(rules).Build(ctx, in.Files)
		zap.L().Info("analysis complete",
			zap.String("company", in.Company),
			zap.String("summary", pipeline.Describe(bundle)),
		)

		if analyzeSave {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			if err := st.Migrate(ctx); err != nil {
				return err
			}

			run, err := st.CreateRun(ctx, in.Company)
			if err != nil {
				return err
			}
			if err := st.UpdateRunResult(ctx, run.ID, bundle); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "saved run %s\n", run.ID)
		}

		if analyzeJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return eris.Wrap(enc.Encode(bundle), "encode bundle")
		}

		for _, step := range bundle.StepOutputs {
			fmt.Println(step.ReportText)
			for _, cp := range step.Checkpoints {
				fmt.Printf("- [점검] %s: %s\n", cp.Title, cp.Detail)
			}
		}
		for _, w := range bundle.Warnings {
			fmt.Fprintf(os.Stderr, "warning: %s %s\n", w.Code, w.Detail)
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the full bundle as JSON instead of the report")
	analyzeCmd.Flags().BoolVar(&analyzeSave, "save", false, "persist the run to the configured store")
	rootCmd.AddCommand(analyzeCmd)
}
