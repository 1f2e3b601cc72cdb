package analysis

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-deck/algorithms/common"
	"github.com/RyanBlaney/sonido-deck/algorithms/spectral"
	"github.com/RyanBlaney/sonido-deck/algorithms/temporal"
	"github.com/RyanBlaney/sonido-deck/algorithms/windowing"
	"github.com/RyanBlaney/sonido-deck/logging"
	"github.com/RyanBlaney/sonido-deck/transcode"
)

// EnergyWeights sets how much each normalized feature contributes to the raw score
type EnergyWeights struct {
	Loudness       float64 `json:"loudness" yaml:"loudness"`
	Brightness     float64 `json:"brightness" yaml:"brightness"`
	Spread         float64 `json:"spread" yaml:"spread"`
	Percussiveness float64 `json:"percussiveness" yaml:"percussiveness"`
}

// FeatureRange maps a feature onto [0,1] as (v - Min) / Span
type FeatureRange struct {
	Min  float64 `json:"min" yaml:"min"`
	Span float64 `json:"span" yaml:"span"`
}

// Normalize clamps the scaled value to [0,1]
func (r FeatureRange) Normalize(v float64) float64 {
	if r.Span == 0 {
		return 0
	}
	return common.Clamp((v-r.Min)/r.Span, 0, 1)
}

// EnergyConfig holds the energy policy
type EnergyConfig struct {
	Weights        EnergyWeights `json:"weights" yaml:"weights"`
	LoudnessDB     FeatureRange  `json:"loudness_db" yaml:"loudness_db"`
	CentroidHz     FeatureRange  `json:"centroid_hz" yaml:"centroid_hz"`
	RolloffHz      FeatureRange  `json:"rolloff_hz" yaml:"rolloff_hz"`
	ZCR            FeatureRange  `json:"zcr" yaml:"zcr"`
	RolloffPercent float64       `json:"rolloff_percent" yaml:"rolloff_percent"`
	MinAmplitude   float64       `json:"min_amplitude" yaml:"min_amplitude"` // floor before converting RMS to dB
}

// DefaultEnergyConfig returns ranges typical for mixed music
func DefaultEnergyConfig() EnergyConfig {
	return EnergyConfig{
		Weights: EnergyWeights{
			Loudness:       0.40,
			Brightness:     0.25,
			Spread:         0.20,
			Percussiveness: 0.15,
		},
		LoudnessDB:     FeatureRange{Min: -60, Span: 60},
		CentroidHz:     FeatureRange{Min: 500, Span: 7500},
		RolloffHz:      FeatureRange{Min: 1000, Span: 14000},
		ZCR:            FeatureRange{Min: 0.02, Span: 0.13},
		RolloffPercent: 0.85,
		MinAmplitude:   1e-5,
	}
}

// Validate rejects weights and ranges that cannot produce a score in [0,1]
func (c EnergyConfig) Validate() error {
	w := c.Weights
	if w.Loudness < 0 || w.Brightness < 0 || w.Spread < 0 || w.Percussiveness < 0 {
		return fmt.Errorf("energy weights must not be negative: %+v", w)
	}
	if sum := w.Loudness + w.Brightness + w.Spread + w.Percussiveness; math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("energy weights must sum to 1, got %.3f", sum)
	}
	for name, r := range map[string]FeatureRange{
		"loudness_db": c.LoudnessDB,
		"centroid_hz": c.CentroidHz,
		"rolloff_hz":  c.RolloffHz,
		"zcr":         c.ZCR,
	} {
		if r.Span <= 0 {
			return fmt.Errorf("energy range %s must have a positive span", name)
		}
	}
	if c.RolloffPercent <= 0 || c.RolloffPercent >= 1 {
		return fmt.Errorf("rolloff percent must be in (0,1): %.2f", c.RolloffPercent)
	}
	return nil
}

// EnergyFeatures are the raw per-signal means the energy level is scored from
type EnergyFeatures struct {
	RMS                float64 `json:"rms"`
	SpectralCentroidHz float64 `json:"spectral_centroid_hz"`
	SpectralRolloffHz  float64 `json:"spectral_rolloff_hz"`
	ZeroCrossingRate   float64 `json:"zero_crossing_rate"`
}

// EnergyEstimator rates signals on a 1-10 energy scale
type EnergyEstimator struct {
	config   *Config
	stft     *spectral.STFT
	envelope *temporal.Envelope
	logger   logging.Logger
}

// NewEnergyEstimator creates an energy estimator; a nil config uses DefaultConfig
func NewEnergyEstimator(config *Config, logger logging.Logger) *EnergyEstimator {
	if config == nil {
		config = DefaultConfig()
	}
	logger = logging.OrNoOp(logger)

	return &EnergyEstimator{
		config:   config,
		stft:     spectral.NewSTFT(1, logger),
		envelope: temporal.NewEnvelope(),
		logger:   logger,
	}
}

// Estimate extracts the energy features of signal and scores them
func (ee *EnergyEstimator) Estimate(signal *transcode.AudioSignal) (EnergyResult, error) {
	features, err := ee.Features(signal)
	if err != nil {
		return EnergyResult{}, err
	}

	result := ee.ScoreFeatures(features)

	ee.logger.Debug("Energy estimated", logging.Fields{
		"component": "energy_estimator",
		"function":  "Estimate",
		"level":     result.Level,
		"raw_score": result.RawScore,
	})

	return result, nil
}

// Features computes mean RMS, centroid, rolloff and zero-crossing rate over centred frames
func (ee *EnergyEstimator) Features(signal *transcode.AudioSignal) (EnergyFeatures, error) {
	if err := signal.Validate(); err != nil {
		return EnergyFeatures{}, err
	}

	samples := signal.Samples()
	sr := signal.SampleRate()
	win, hop := ee.config.WindowSize, ee.config.HopSize

	window, err := windowing.New(ee.config.WindowType, win)
	if err != nil {
		return EnergyFeatures{}, err
	}

	stftResult, err := ee.stft.ComputeWithWindow(spectral.PadCenter(samples, win), win, hop, sr, window)
	if err != nil {
		return EnergyFeatures{}, fmt.Errorf("failed to compute STFT: %w", err)
	}

	rms := ee.envelope.ComputeRMS(samples, win, hop, true)
	centroid := spectral.NewSpectralCentroid(sr).ComputeFrames(stftResult.Magnitude)
	rolloff := spectral.NewSpectralRolloff(sr).ComputeFrames(stftResult.Magnitude, ee.config.Energy.RolloffPercent)
	zcr := spectral.NewZeroCrossingRateWithParams(win, hop, true).ComputeFrames(samples)

	return EnergyFeatures{
		RMS:                common.Mean(rms),
		SpectralCentroidHz: common.Mean(centroid),
		SpectralRolloffHz:  common.Mean(rolloff),
		ZeroCrossingRate:   common.Mean(zcr),
	}, nil
}

// ScoreFeatures applies the energy policy to already extracted features
func (ee *EnergyEstimator) ScoreFeatures(f EnergyFeatures) EnergyResult {
	return ScoreFeatures(f, ee.config.Energy)
}

// ScoreFeatures maps features to a raw score in [0,1] and a level in 1..10
func ScoreFeatures(f EnergyFeatures, cfg EnergyConfig) EnergyResult {
	floor := cfg.MinAmplitude
	if floor <= 0 {
		floor = 1e-5
	}
	loudnessDB := 20 * math.Log10(math.Max(f.RMS, floor))

	w := cfg.Weights
	raw := w.Loudness*cfg.LoudnessDB.Normalize(loudnessDB) +
		w.Brightness*cfg.CentroidHz.Normalize(f.SpectralCentroidHz) +
		w.Spread*cfg.RolloffHz.Normalize(f.SpectralRolloffHz) +
		w.Percussiveness*cfg.ZCR.Normalize(f.ZeroCrossingRate)

	return EnergyResult{
		Level:              EnergyLevel(raw),
		LoudnessDB:         common.Round(loudnessDB, 1),
		SpectralCentroidHz: common.Round(f.SpectralCentroidHz, 1),
		SpectralRolloffHz:  common.Round(f.SpectralRolloffHz, 1),
		ZeroCrossingRate:   common.Round(f.ZeroCrossingRate, 4),
		RawScore:           common.Round(raw, 3),
	}
}

// EnergyLevel maps a raw score onto 1..10, rounding to the nearest level
func EnergyLevel(raw float64) int {
	return int(math.Round(common.Clamp(raw*9+1, 1, 10)))
}
