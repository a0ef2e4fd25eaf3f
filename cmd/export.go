package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/dartlens/dartlens/internal/export"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export <run-id>",
	Short: "Export a run's key metrics to an XLSX workbook",
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
			return eris.Wrap(err, "export")
		}
		if run.Bundle == nil {
			return eris.Errorf("run %s has no result to export", run.ID)
		}

		out := exportOut
		if out == "" {
			out = filepath.Join(cfg.Export.Dir, fmt.Sprintf("dartlens-%s.xlsx", truncateID(run.ID)))
		}

		if err := export.Workbook(run.Bundle, run.Company, out); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "wrote %s\n", out)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output path (default <export.dir>/dartlens-<run-id>.xlsx)")
	rootCmd.AddCommand(exportCmd)
}
