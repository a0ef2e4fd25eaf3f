package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/dartlens/dartlens/internal/evidence"
	"github.com/dartlens/dartlens/internal/model"
	"github.com/dartlens/dartlens/internal/pipeline"
)

var evidenceTrait string

var evidenceCmd = &cobra.Command{
	Use:   "evidence <inputs.json>",
	Short: "Inspect evidence selection per trait",
	Long:  "Runs only the evidence pipeline over the PDF narrative and shows, per trait, which passage was selected or why the judgment was withheld.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := pipeline.LoadInputs(args[0])
		if err != nil {
			return err
		}

		rules, err := loadRules()
		if err != nil {
			return err
		}
		selector := evidence.NewSelector(rules)
		pool := pipeline.CandidatePool(in.Files)

		traits := model.Traits
		if evidenceTrait != "" {
			traits = []model.Trait{model.Trait(evidenceTrait)}
			if _, ok := rules[traits[0]]; !ok {
				return eris.Errorf("unknown trait %q", evidenceTrait)
			}
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TRAIT\tSCORE\tRESULT\tSOURCE")
		for _, trait := range traits {
			sel := selector.Pick(trait, pool)
			if sel.Best == nil {
				fmt.Fprintf(w, "%s\t-\t%s\t-\n", trait, sel.ReasonCode)
				continue
			}
			src := "-"
			if si := sel.Best.SourceInfo; si != nil {
				src = fmt.Sprintf("p.%d %s", si.Page, si.Section)
			}
			result := "selected"
			if sel.ReasonCode != "" {
				result = string(sel.ReasonCode)
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", trait, sel.Score, result, src)
		}
		if err := w.Flush(); err != nil {
			return eris.Wrap(err, "flush output")
		}

		for _, trait := range traits {
			sel := selector.Pick(trait, pool)
			if sel.Best != nil {
				fmt.Printf("\n[%s] %s\n", trait, sel.Cleaned)
			}
		}
		return nil
	},
}

func init() {
	evidenceCmd.Flags().StringVar(&evidenceTrait, "trait", "", "limit to one trait (cyclical, competition, pricingPower, regulation)")
	rootCmd.AddCommand(evidenceCmd)
}
