package analysis

import (
	"fmt"

	"github.com/RyanBlaney/sonido-deck/algorithms/chroma"
	"github.com/RyanBlaney/sonido-deck/algorithms/common"
	"github.com/RyanBlaney/sonido-deck/algorithms/spectral"
	"github.com/RyanBlaney/sonido-deck/algorithms/tonal"
	"github.com/RyanBlaney/sonido-deck/algorithms/windowing"
	"github.com/RyanBlaney/sonido-deck/camelot"
	"github.com/RyanBlaney/sonido-deck/logging"
	"github.com/RyanBlaney/sonido-deck/transcode"
)

// KeyEstimator finds the best matching major or minor key of a signal
type KeyEstimator struct {
	config    *Config
	stft      *spectral.STFT
	estimator *tonal.KeyEstimator
	logger    logging.Logger
}

// NewKeyEstimator creates a key estimator; a nil config uses DefaultConfig
func NewKeyEstimator(config *Config, logger logging.Logger) *KeyEstimator {
	if config == nil {
		config = DefaultConfig()
	}
	logger = logging.OrNoOp(logger)

	return &KeyEstimator{
		config:    config,
		stft:      spectral.NewSTFT(1, logger),
		estimator: tonal.NewKeyEstimator(),
		logger:    logger,
	}
}

// Estimate computes the mean chromagram of signal and scores it against all 24 keys
func (ke *KeyEstimator) Estimate(signal *transcode.AudioSignal) (KeyResult, error) {
	if err := signal.Validate(); err != nil {
		return KeyResult{}, err
	}

	window, err := windowing.New(ke.config.WindowType, ke.config.WindowSize)
	if err != nil {
		return KeyResult{}, err
	}

	cs := chroma.NewChromaSTFT(signal.SampleRate(), ke.config.TuningFrequency, ke.stft)
	chromagram, err := cs.ComputeChroma(signal.Samples(), ke.config.WindowSize, ke.config.HopSize, window)
	if err != nil {
		return KeyResult{}, fmt.Errorf("failed to compute chromagram: %w", err)
	}

	result := ke.EstimateFromChroma(chroma.Mean(chromagram))

	ke.logger.Debug("Key estimated", logging.Fields{
		"component":  "key_estimator",
		"function":   "Estimate",
		"frames":     len(chromagram),
		"key":        result.Key,
		"confidence": result.Confidence,
	})

	return result, nil
}

// EstimateFromChroma scores a 12-bin chroma vector (bin 0 = C). A silent vector yields C major with zero confidence.
func (ke *KeyEstimator) EstimateFromChroma(chromaVector [12]float64) KeyResult {
	est := ke.estimator.EstimateKey(chromaVector)

	return KeyResult{
		Tonic:        chroma.Labels[est.Key.Tonic],
		IsMinor:      est.Key.IsMinor,
		Key:          est.Key.Name,
		Camelot:      camelot.FromTonic(est.Key.Tonic, est.Key.IsMinor).String(),
		Confidence:   common.Round(est.Confidence, 2),
		Correlations: est.Correlations,
	}
}
