package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/cardiocare/internal/dataset"
	"github.com/crimson-sun/cardiocare/internal/evaluate"
)

func (a *app) evaluateCmd() *cobra.Command {
	var (
		correlations bool
		asJSON       bool
	)
	cmd := &cobra.Command{
		Use:   "evaluate [dataset.csv]",
		Short: "Score the model against a labeled cardio_train dataset",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				a.cfg.Evaluate.DatasetPath = args[0]
			}
			e, err := a.loadEngine()
			if err != nil {
				return err
			}
			defer e.Close()

			ds, err := dataset.Load(a.cfg.Evaluate.DatasetPath, dataset.Options{})
			if err != nil {
				return err
			}
			rep, err := evaluate.New(e).Evaluate(cmd.Context(), ds, evaluate.Options{
				SampleSize:   a.cfg.Evaluate.SampleSize,
				Seed:         a.cfg.Evaluate.Seed,
				Workers:      a.cfg.Evaluate.Workers,
				Correlations: correlations,
			})
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			}
			printReport(cmd.OutOrStdout(), rep)
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&a.cfg.Evaluate.SampleSize, "sample", a.cfg.Evaluate.SampleSize, "evaluate a random subset of this many rows (0 for all)")
	f.Uint64Var(&a.cfg.Evaluate.Seed, "seed", a.cfg.Evaluate.Seed, "sampling seed")
	f.IntVar(&a.cfg.Evaluate.Workers, "workers", a.cfg.Evaluate.Workers, "parallel workers (0 for GOMAXPROCS)")
	f.BoolVar(&correlations, "correlations", false, "include correlations of each column with the outcome")
	f.BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func printReport(w io.Writer, rep *evaluate.Report) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Evaluation of %s (%d rows, %s)", rep.Dataset, rep.Rows, rep.Took)))

	c := rep.Confusion
	matrix := fmt.Sprintf("%-12s %8s %8s\n%-12s %8d %8d\n%-12s %8d %8d",
		"", "pred 0", "pred 1",
		"actual 0", c.TN, c.FP,
		"actual 1", c.FN, c.TP)
	fmt.Fprintln(w, boxStyle.Render(matrix))

	s := rep.Scores
	fmt.Fprintf(w, "accuracy %.4f  precision %.4f  recall %.4f  f1 %.4f\n", s.Accuracy, s.Precision, s.Recall, s.F1)

	if len(rep.Importances) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, titleStyle.Render("Feature importance"))
		for i, imp := range rep.Importances {
			fmt.Fprintf(w, "%2d. %-14s %.4f %s\n", i+1, imp.Feature, imp.Weight, bar(imp.Weight, rep.Importances[0].Weight))
		}
	}

	if rep.Correlations != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, titleStyle.Render("Correlation with "+dataset.ColCardio))
		for _, col := range rep.Correlations.Columns {
			if col == dataset.ColCardio {
				continue
			}
			r, _ := rep.Correlations.At(col, dataset.ColCardio)
			fmt.Fprintf(w, "    %-14s %+.4f\n", col, r)
		}
	}
}

func bar(v, top float64) string {
	if top <= 0 {
		return ""
	}
	return mutedStyle.Render(strings.Repeat("#", int(20*v/top+0.5)))
}
