package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-deck/camelot"
	"github.com/RyanBlaney/sonido-deck/logging"
	"github.com/RyanBlaney/sonido-deck/mixing"
	"github.com/RyanBlaney/sonido-deck/playlist"
)

type variation struct {
	Name     string          `json:"name" yaml:"name"`
	Strategy mixing.Strategy `json:"strategy" yaml:"strategy"`
	Playlist string          `json:"playlist" yaml:"playlist"`
	Tracks   int             `json:"tracks" yaml:"tracks"`
	Opening  string          `json:"opening_key" yaml:"opening_key"`
	Smooth   int             `json:"smooth_transitions" yaml:"smooth_transitions"` // perfect or excellent key moves
}

var chainStrategies = []mixing.Strategy{mixing.StrategyProgressive, mixing.StrategyPlateau, mixing.StrategyJourney}

func newChainCmd(a *app) *cobra.Command {
	var (
		outDir   string
		name     string
		startKey string
	)

	cmd := &cobra.Command{
		Use:   "chain <sidecar>",
		Short: "Order analyzed tracks into harmonic playlist variations",
		Long: `Order the analyzed tracks of a sidecar three ways (progressive, plateau
and journey) and write each as <out>/<name>_<strategy>/<name>_<strategy>.m3u8
plus a plain-text tracklist.

Tracks without a key or tempo are left out.

Examples:
  sonido-deck chain tracklist_metadata.json
  sonido-deck chain tracklist_metadata.json --start-key 8A --name friday`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if startKey != "" {
				if _, err := camelot.ParseCode(startKey); err != nil {
					return err
				}
			}

			sidecar, err := playlist.ReadSidecar(args[0])
			if err != nil {
				return err
			}
			tracks := sidecar.Analyzed()
			if len(tracks) == 0 {
				return fmt.Errorf("%s has no analyzed tracks", args[0])
			}
			if outDir == "" {
				outDir = filepath.Dir(args[0])
			}

			scoring := a.cfg.Scoring
			variations := make([]variation, 0, len(chainStrategies))
			for _, strategy := range chainStrategies {
				chain := mixing.BuildChain(tracks, mixing.ChainOptions{StartKey: startKey, Strategy: strategy, Scoring: &scoring})
				playlist.Renumber(chain)

				varName := fmt.Sprintf("%s_%s", name, strategy)
				path, err := playlist.SaveVariation(outDir, varName, chain)
				if err != nil {
					return err
				}

				variations = append(variations, variation{
					Name:     varName,
					Strategy: strategy,
					Playlist: path,
					Tracks:   len(chain),
					Opening:  chain[0].CamelotCode,
					Smooth:   smoothTransitions(chain),
				})
			}

			a.logger.Info("Playlists written", logging.Fields{"dir": outDir, "variations": len(variations)})
			return a.output(cmd.OutOrStdout(), variations)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&outDir, "out", "o", "", "output directory (default: next to the sidecar)")
	f.StringVarP(&name, "name", "n", "set", "playlist name prefix")
	f.StringVar(&startKey, "start-key", "", "Camelot code to open with, e.g. 8A")
	return cmd
}

func smoothTransitions(chain []playlist.Track) int {
	n := 0
	for _, t := range mixing.Guide(chain) {
		if t.Key.Quality == camelot.QualityPerfect || t.Key.Quality == camelot.QualityExcellent {
			n++
		}
	}
	return n
}
