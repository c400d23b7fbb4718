package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/cardiocare/internal/engine/report"
	"github.com/crimson-sun/cardiocare/internal/model"
)

func (a *app) assessCmd() *cobra.Command {
	// Defaults match the interactive form.
	in := model.RawAssessmentInput{
		AgeYears:    45,
		HeightCm:    165,
		WeightKg:    70,
		Systolic:    120,
		Diastolic:   80,
		Sex:         model.Female,
		Smoke:       model.No,
		Alcohol:     model.No,
		Active:      model.Yes,
		Cholesterol: model.LevelNormal,
		Glucose:     model.LevelNormal,
	}
	var (
		asJSON   bool
		savePath string
	)

	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Assess one person and print the health report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := model.ValidateFormInput(in); err != nil {
				return err
			}
			e, err := a.loadEngine()
			if err != nil {
				return err
			}
			defer e.Close()

			res, err := e.Assess(in)
			if err != nil {
				return err
			}

			sink, err := buildSink(a.cfg.Output, cmd.OutOrStdout(), nil)
			if err != nil {
				return err
			}
			if sink != nil {
				if err := sink.Write(cmd.Context(), res); err != nil {
					return err
				}
				if err := sink.Close(); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(res); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(out, "%s  %s\n\n",
					levelStyle(res.Label).Render(report.LevelText(res.Label)),
					mutedStyle.Render(fmt.Sprintf("probability %.1f%%", res.Probability*100)))
				fmt.Fprint(out, report.Render(res))
			}

			if savePath != "" {
				if err := os.WriteFile(savePath, []byte(report.Render(res)), 0o644); err != nil {
					return fmt.Errorf("save report: %w", err)
				}
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.Float64Var(&in.AgeYears, "age", in.AgeYears, "age in years (18-100)")
	f.Float64Var(&in.HeightCm, "height", in.HeightCm, "height in cm (120-220)")
	f.Float64Var(&in.WeightKg, "weight", in.WeightKg, "weight in kg (30-200)")
	f.Float64Var(&in.Systolic, "systolic", in.Systolic, "systolic blood pressure (80-250)")
	f.Float64Var(&in.Diastolic, "diastolic", in.Diastolic, "diastolic blood pressure (40-150)")
	f.StringVar((*string)(&in.Sex), "sex", string(in.Sex), "Male or Female")
	f.StringVar((*string)(&in.Smoke), "smoke", string(in.Smoke), "yes or no")
	f.StringVar((*string)(&in.Alcohol), "alcohol", string(in.Alcohol), "yes or no")
	f.StringVar((*string)(&in.Active), "active", string(in.Active), "physically active: yes or no")
	f.StringVar((*string)(&in.Cholesterol), "cholesterol", string(in.Cholesterol), "normal, above_normal or well_above")
	f.StringVar((*string)(&in.Glucose), "glucose", string(in.Glucose), "normal, above_normal or well_above")
	f.BoolVar(&asJSON, "json", false, "print the result as JSON instead of the report")
	f.StringVar(&savePath, "save", "", "also write the report to this file (e.g. "+report.Filename+")")
	f.StringVar(&a.cfg.Output.Format, "output", a.cfg.Output.Format, "also record the result to none, stdout or file")
	f.StringVar(&a.cfg.Output.Path, "output-path", a.cfg.Output.Path, "NDJSON file for --output=file")
	f.StringVar(&a.cfg.Output.Detail, "detail", a.cfg.Output.Detail, "record detail: summary or full")
	return cmd
}
