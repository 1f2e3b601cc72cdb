package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-deck/analysis"
)

type fileResult struct {
	File             string `json:"file" yaml:"file"`
	analysis.Summary `yaml:",inline"`
}

type fileError struct {
	File  string `json:"file" yaml:"file"`
	Error string `json:"error" yaml:"error"`
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var seconds float64

	cmd := &cobra.Command{
		Use:   "analyze <files...>",
		Short: "Estimate tempo, key and energy of audio files",
		Long: `Estimate the tempo, key and energy of each file.

A file that fails to load or analyze is reported in place; the others are
still analyzed.

Examples:
  sonido-deck analyze track.mp3
  sonido-deck analyze *.flac --duration 0 --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("duration") {
				a.cfg.Analysis.AnalysisDuration = time.Duration(seconds * float64(time.Second))
			}
			analyzer := a.analyzer()
			ctx := contextOf(cmd)

			results := make([]any, 0, len(args))
			for _, path := range args {
				res, err := analyzer.AnalyzeFile(ctx, path)
				if err != nil {
					results = append(results, fileError{File: path, Error: err.Error()})
					continue
				}
				results = append(results, fileResult{File: path, Summary: res.Summary()})
			}
			return a.output(cmd.OutOrStdout(), results)
		},
	}

	cmd.Flags().Float64Var(&seconds, "duration", 60, "seconds of audio to analyze (0 = full track)")
	return cmd
}
