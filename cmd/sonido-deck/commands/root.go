package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-deck/analysis"
	"github.com/RyanBlaney/sonido-deck/config"
	"github.com/RyanBlaney/sonido-deck/library"
	"github.com/RyanBlaney/sonido-deck/logging"
)

// app carries the global flags and what PersistentPreRunE loads from them
type app struct {
	configPath string
	logLevel   string
	jsonOut    bool

	cfg    *config.Config
	logger logging.Logger
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "sonido-deck",
		Short: "Track analysis and harmonic mixing for DJ sets",
		Long: `sonido-deck - tempo, key and energy analysis with Camelot-based set planning.

Configuration is read from --config (YAML or JSON) and SONIDO_* environment
variables (SONIDO_LOG_LEVEL, SONIDO_LISTEN, SONIDO_LIBRARY_DIR,
SONIDO_SAMPLE_RATE, SONIDO_ANALYSIS_SECONDS, SONIDO_FFMPEG).

Examples:
  # Analyze a few files
  sonido-deck analyze intro.mp3 peak.flac

  # Analyze a folder into a sidecar, then build three playlist variations
  sonido-deck batch ~/Music/set --import
  sonido-deck chain ~/Music/set/tracklist_metadata.json --start-key 8A

  # Serve the HTTP API
  sonido-deck serve`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd.ErrOrStderr())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "config file (YAML or JSON)")
	pf.StringVar(&a.logLevel, "log-level", "", "override the configured log level")
	pf.BoolVar(&a.jsonOut, "json", false, "print JSON instead of YAML")

	root.AddCommand(
		newAnalyzeCmd(a),
		newBatchCmd(a),
		newChainCmd(a),
		newCompatibleCmd(a),
		newGuideCmd(a),
		newValidateCmd(a),
		newServeCmd(a),
		newToolCmd(a),
	)
	return root
}

// load reads the configuration and builds the logger. Logs go to stderr so
// results on stdout stay machine readable.
func (a *app) load(logOut io.Writer) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		if _, err := logging.ParseLevel(a.logLevel); err != nil {
			return err
		}
		cfg.LogLevel = a.logLevel
	}

	a.cfg = cfg
	a.logger = logging.New(logging.Options{Level: cfg.Level(), Stdout: logOut, Stderr: logOut})
	return nil
}

func (a *app) analyzer() *analysis.Analyzer {
	return analysis.NewAnalyzer(&a.cfg.Analysis, a.logger)
}

// openLibrary opens the configured store; the caller closes it
func (a *app) openLibrary() (*library.Library, func() error, error) {
	store, err := library.OpenBadger(a.cfg.Library, a.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open library: %w", err)
	}
	return library.New(store, a.logger), store.Close, nil
}

// output prints v as YAML, or as indented JSON with --json
func (a *app) output(w io.Writer, v any) error {
	if a.jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
