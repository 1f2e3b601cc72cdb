package commands

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-deck/mixing"
	"github.com/RyanBlaney/sonido-deck/playlist"
)

type validationReport struct {
	Stats          mixing.PlaylistStats     `json:"stats" yaml:"stats"`
	Tracks         []mixing.TrackValidation `json:"tracks" yaml:"tracks"`
	Coverage       mixing.Coverage          `json:"camelot_coverage" yaml:"camelot_coverage"`
	EnergyJumps    []mixing.EnergyJump      `json:"energy_jumps" yaml:"energy_jumps"`
	SuggestedKeys  []mixing.KeySuggestion   `json:"suggested_keys" yaml:"suggested_keys"`
	FilteredOutput string                   `json:"filtered_output,omitempty" yaml:"filtered_output,omitempty"`
	Removed        int                      `json:"removed,omitempty" yaml:"removed,omitempty"`
}

func newValidateCmd(a *app) *cobra.Command {
	var (
		plain        bool
		filterOut    string
		minScore     float64
		rejectIssues bool
	)

	cmd := &cobra.Command{
		Use:   "validate <sidecar>",
		Short: "Quality report for the tracks of a sidecar",
		Long: `Score every track of a sidecar against the configured criteria (tempo
range, key confidence, energy, duration), then report key coverage of the
Camelot wheel, energy jumps between neighbours and missing keys worth adding.

With --filter, tracks below --min-score (and, with --reject-issues, any track
with an issue) are dropped and the rest written to a new sidecar.

Examples:
  sonido-deck validate tracklist_metadata.json --plain
  sonido-deck validate tracklist_metadata.json --filter clean.json --min-score 60`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sidecar, err := playlist.ReadSidecar(args[0])
			if err != nil {
				return err
			}
			criteria := a.cfg.Validation
			infos := playlist.Infos(sidecar.Tracks)

			results, stats := mixing.ValidatePlaylist(infos, criteria)
			report := validationReport{
				Stats:         stats,
				Tracks:        results,
				Coverage:      mixing.CamelotCoverage(sidecar.Tracks),
				EnergyJumps:   mixing.EnergyFlowIssues(sidecar.Tracks, criteria.EnergyJumpMax),
				SuggestedKeys: mixing.SuggestMissingKeys(sidecar.Tracks, criteria.MinKeyDiversity),
			}

			if filterOut != "" {
				kept, rejected := mixing.FilterTracks(infos, criteria, minScore, rejectIssues)
				filtered := &playlist.Sidecar{Title: sidecar.Title, Tracks: keepTracks(sidecar.Tracks, kept)}
				playlist.Renumber(filtered.Tracks)
				if err := playlist.WriteSidecar(filterOut, filtered); err != nil {
					return err
				}
				report.FilteredOutput = filterOut
				report.Removed = len(rejected)
			}

			if !plain {
				return a.output(cmd.OutOrStdout(), report)
			}
			printReport(cmd.OutOrStdout(), sidecar.Tracks, report)
			return nil
		},
	}

	f := cmd.Flags()
	f.BoolVar(&plain, "plain", false, "print a styled report instead of YAML/JSON")
	f.StringVar(&filterOut, "filter", "", "write the tracks that pass to this sidecar")
	f.Float64Var(&minScore, "min-score", 60, "minimum score kept by --filter")
	f.BoolVar(&rejectIssues, "reject-issues", true, "with --filter, also drop tracks that have any issue")
	return cmd
}

// keepTracks returns the sidecar entries whose ids survived filtering, in order
func keepTracks(tracks []playlist.Track, kept []mixing.TrackInfo) []playlist.Track {
	ids := make([]string, len(kept))
	for i, k := range kept {
		ids[i] = k.TrackID
	}
	out := []playlist.Track{}
	for _, t := range tracks {
		if slices.Contains(ids, t.ID()) {
			out = append(out, t)
		}
	}
	return out
}

func printReport(w io.Writer, tracks []playlist.Track, r validationReport) {
	heading(w, "Playlist validation")
	fmt.Fprintf(w, "%d tracks, %.0f%% pass, average score %.1f\n\n", r.Stats.Total, r.Stats.PassRate, r.Stats.AverageScore)

	for i, v := range r.Tracks {
		status := statusStyle(v.Status).Render(fmt.Sprintf("%-10s", v.Status))
		fmt.Fprintf(w, "%02d. %s %5.1f  %s\n", i+1, status, v.Score, label(tracks[i]))
		for _, issue := range v.Issues {
			fmt.Fprintf(w, "      %s %s\n", badStyle.Render("✗"), issue)
		}
		for _, warning := range v.Warnings {
			fmt.Fprintf(w, "      %s %s\n", warnStyle.Render("!"), warning)
		}
	}

	fmt.Fprintln(w)
	heading(w, "Camelot coverage")
	fmt.Fprintf(w, "%d of 24 keys (%.0f%%)\n", r.Coverage.TotalKeys, r.Coverage.CoveragePercent)
	if len(r.Coverage.IsolatedKeys) > 0 {
		fmt.Fprintf(w, "isolated: %v\n", r.Coverage.IsolatedKeys)
	}
	for _, s := range r.SuggestedKeys {
		fmt.Fprintf(w, "  add %-4s %-5s %s\n", s.Code, s.Key, dimStyle.Render(fmt.Sprintf("connects %v", s.CompatibleWith)))
	}

	if len(r.EnergyJumps) > 0 {
		fmt.Fprintln(w)
		heading(w, "Energy jumps")
		for _, j := range r.EnergyJumps {
			fmt.Fprintf(w, "  %02d → %02d: %d → %d (%s)\n", j.Position, j.Position+1, j.FromEnergy, j.ToEnergy, warnStyle.Render(fmt.Sprintf("±%d", j.Jump)))
		}
	}
	if r.FilteredOutput != "" {
		fmt.Fprintf(w, "\nwrote %s (%d removed)\n", r.FilteredOutput, r.Removed)
	}
}
