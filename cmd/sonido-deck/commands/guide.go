package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-deck/mixing"
	"github.com/RyanBlaney/sonido-deck/playlist"
)

type guideEntry struct {
	Position          int    `json:"position" yaml:"position"`
	From              string `json:"from" yaml:"from"`
	To                string `json:"to" yaml:"to"`
	mixing.Transition `yaml:",inline"`
}

func newGuideCmd(a *app) *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "guide <sidecar>",
		Short: "Transition advice for every pair of an ordered sidecar",
		Long: `Walk the tracks of a sidecar in order and advise each transition: key
relationship, tempo gap, energy flow and a mixing technique.

Examples:
  sonido-deck guide set_journey/tracklist_metadata.json
  sonido-deck guide tracklist_metadata.json --plain`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sidecar, err := playlist.ReadSidecar(args[0])
			if err != nil {
				return err
			}
			tracks := sidecar.Tracks
			if len(tracks) < 2 {
				return fmt.Errorf("%s needs at least two tracks for a guide", args[0])
			}

			entries := make([]guideEntry, 0, len(tracks)-1)
			for i, tr := range mixing.Guide(tracks) {
				entries = append(entries, guideEntry{
					Position:   i + 1,
					From:       label(tracks[i]),
					To:         label(tracks[i+1]),
					Transition: tr,
				})
			}

			if !plain {
				return a.output(cmd.OutOrStdout(), entries)
			}
			printGuide(cmd, entries)
			return nil
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "print a styled guide instead of YAML/JSON")
	return cmd
}

func label(t playlist.Track) string {
	if t.Artist == "" {
		return t.Title
	}
	return t.Artist + " - " + t.Title
}

func printGuide(cmd *cobra.Command, entries []guideEntry) {
	w := cmd.OutOrStdout()
	heading(w, "Transition guide")
	for _, e := range entries {
		fmt.Fprintf(w, "\n%s %s\n", labelStyle.Render(fmt.Sprintf("%02d.", e.Position)), e.From)
		fmt.Fprintf(w, "    → %s\n", e.To)
		fmt.Fprintf(w, "    key:       %s\n", qualityStyle(e.Key.Quality).Render(e.Key.Description))
		fmt.Fprintf(w, "    tempo:     %s\n", e.BPMAdvice)
		fmt.Fprintf(w, "    energy:    %s\n", e.EnergyHint)
		fmt.Fprintf(w, "    technique: %s %s\n", e.Technique, dimStyle.Render("("+e.Bars+")"))
	}
}
