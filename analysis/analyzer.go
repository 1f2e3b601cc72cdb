package analysis

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/RyanBlaney/sonido-deck/algorithms/common"
	"github.com/RyanBlaney/sonido-deck/logging"
	"github.com/RyanBlaney/sonido-deck/transcode"
)

// Analyzer runs the tempo, key and energy estimators over one signal at a time.
// Calls share no mutable state, so an Analyzer may be used from several goroutines.
type Analyzer struct {
	config *Config
	loader *transcode.Loader
	logger logging.Logger
}

// NewAnalyzer creates an analyzer; a nil config uses DefaultConfig
func NewAnalyzer(config *Config, logger logging.Logger) *Analyzer {
	if config == nil {
		config = DefaultConfig()
	}
	logger = logging.OrNoOp(logger)

	return &Analyzer{
		config: config,
		loader: transcode.NewLoader(config.LoaderConfig(), logger),
		logger: logger,
	}
}

// Config returns the analyzer configuration
func (a *Analyzer) Config() *Config {
	return a.config
}

// Analyze derives tempo, key and energy from signal
func (a *Analyzer) Analyze(signal *transcode.AudioSignal) (*AnalysisResult, error) {
	if err := signal.Validate(); err != nil {
		return nil, err
	}

	logger := a.logger.WithFields(logging.Fields{
		"component": "track_analyzer",
		"function":  "Analyze",
		"samples":   signal.Len(),
	})
	start := time.Now()

	// Estimators are built per call so their STFT buffers are never shared
	tempo, err := NewTempoEstimator(a.config, a.logger).Estimate(signal)
	if err != nil {
		return nil, fmt.Errorf("tempo estimation failed: %w", err)
	}

	key, err := NewKeyEstimator(a.config, a.logger).Estimate(signal)
	if err != nil {
		return nil, fmt.Errorf("key estimation failed: %w", err)
	}

	energy, err := NewEnergyEstimator(a.config, a.logger).Estimate(signal)
	if err != nil {
		return nil, fmt.Errorf("energy estimation failed: %w", err)
	}

	result := &AnalysisResult{
		Tempo:           tempo,
		Key:             key,
		Energy:          energy,
		DurationSeconds: common.Round(signal.Duration(), 2),
		SampleRate:      signal.SampleRate(),

		TrackDurationSeconds: common.Round(signal.TrackDuration(), 2),
	}

	logger.Debug("Analysis completed", logging.Fields{
		"bpm":      tempo.BPM,
		"key":      key.Key,
		"camelot":  key.Camelot,
		"energy":   energy.Level,
		"duration": time.Since(start).Seconds(),
	})

	return result, nil
}

// AnalyzeFile loads path through the signal loader and analyzes it
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string) (*AnalysisResult, error) {
	signal, err := a.loader.LoadFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return a.Analyze(signal)
}

// AnalyzeBytes analyzes an in-memory file of format ext
func (a *Analyzer) AnalyzeBytes(ctx context.Context, data []byte, ext string) (*AnalysisResult, error) {
	signal, err := a.loader.LoadBytes(ctx, data, ext)
	if err != nil {
		return nil, err
	}
	return a.Analyze(signal)
}

// AnalyzeReader analyzes the file read from r
func (a *Analyzer) AnalyzeReader(ctx context.Context, r io.Reader, ext string) (*AnalysisResult, error) {
	signal, err := a.loader.LoadReader(ctx, r, ext)
	if err != nil {
		return nil, err
	}
	return a.Analyze(signal)
}
