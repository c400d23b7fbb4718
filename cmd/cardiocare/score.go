package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/cardiocare/internal/pipeline"
)

func (a *app) scoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score [inputs.ndjson|-]",
		Short: "Score newline-delimited JSON inputs and record each result",
		Long: "Score reads one raw input object per line, skips lines that fail\n" +
			"validation, and writes every result to the configured output\n" +
			"(stdout when none is set). A summary goes to stderr.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open inputs: %w", err)
				}
				defer f.Close()
				r = f
			}
			if a.cfg.Output.Format == "" || a.cfg.Output.Format == "none" {
				a.cfg.Output.Format = "stdout"
			}

			e, err := a.loadEngine()
			if err != nil {
				return err
			}
			defer e.Close()

			sink, err := buildSink(a.cfg.Output, cmd.OutOrStdout(), nil)
			if err != nil {
				return err
			}
			p := pipeline.New(pipeline.NewNDJSON(r), e, sink)
			st, runErr := p.Run(cmd.Context())
			if err := p.Close(); err != nil && runErr == nil {
				runErr = err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), mutedStyle.Render(
				fmt.Sprintf("scored %d, rejected %d of %d inputs", st.Assessed, st.Rejected, st.Read)))
			return runErr
		},
	}
	f := cmd.Flags()
	f.StringVar(&a.cfg.Output.Format, "output", a.cfg.Output.Format, "write results to stdout or file")
	f.StringVar(&a.cfg.Output.Path, "output-path", a.cfg.Output.Path, "NDJSON file for --output=file")
	f.StringVar(&a.cfg.Output.Detail, "detail", a.cfg.Output.Detail, "record detail: summary or full")
	f.BoolVar(&a.cfg.Output.Pretty, "pretty", a.cfg.Output.Pretty, "indent stdout records")
	return cmd
}
