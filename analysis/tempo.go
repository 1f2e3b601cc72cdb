package analysis

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-deck/algorithms/common"
	"github.com/RyanBlaney/sonido-deck/algorithms/spectral"
	"github.com/RyanBlaney/sonido-deck/algorithms/temporal"
	"github.com/RyanBlaney/sonido-deck/logging"
	"github.com/RyanBlaney/sonido-deck/transcode"
)

// TempoEstimator derives BPM and a beat grid from an onset envelope
type TempoEstimator struct {
	config  *Config
	onset   *temporal.OnsetDetection
	tempo   *temporal.TempoEstimation
	tracker *temporal.BeatTracker
	logger  logging.Logger
}

// NewTempoEstimator creates a tempo estimator; a nil config uses DefaultConfig
func NewTempoEstimator(config *Config, logger logging.Logger) *TempoEstimator {
	if config == nil {
		config = DefaultConfig()
	}
	logger = logging.OrNoOp(logger)

	return &TempoEstimator{
		config:  config,
		onset:   temporal.NewOnsetDetection(config.Onset, spectral.NewSTFT(1, logger)),
		tempo:   temporal.NewTempoEstimation(config.Tempo),
		tracker: temporal.NewBeatTracker(config.Tightness, config.TrimBeats),
		logger:  logger,
	}
}

// Estimate returns the tempo of signal.
// Fewer than two beats give a valid result with zero confidence.
func (te *TempoEstimator) Estimate(signal *transcode.AudioSignal) (TempoResult, error) {
	if err := signal.Validate(); err != nil {
		return TempoResult{}, err
	}

	logger := te.logger.WithFields(logging.Fields{
		"component": "tempo_estimator",
		"function":  "Estimate",
	})

	sr := signal.SampleRate()
	hop := te.config.Onset.HopSize

	onset, err := te.onset.OnsetStrength(signal.Samples(), sr)
	if err != nil {
		return TempoResult{}, fmt.Errorf("failed to compute onset strength: %w", err)
	}

	bpm := te.tempo.Estimate(onset, sr, hop)
	if bpm <= 0 {
		logger.Debug("No periodicity in onset envelope, using start tempo", logging.Fields{
			"start_bpm": te.config.Tempo.StartBPM,
		})
		bpm = te.config.Tempo.StartBPM
	}

	frameRate := float64(sr) / float64(hop)
	frames := te.tracker.Track(onset, bpm, frameRate)

	positions := make([]int, len(frames))
	for i, f := range frames {
		positions[i] = f * hop
	}

	confidence := beatConfidence(frames, bpm, frameRate)

	logger.Debug("Tempo estimated", logging.Fields{
		"bpm":        bpm,
		"beats":      len(frames),
		"confidence": confidence,
	})

	return TempoResult{
		BPM:           common.Round(bpm, 1),
		Confidence:    common.Round(confidence, 2),
		BeatPositions: positions,
	}, nil
}

// beatConfidence is one minus the mean relative deviation of the inter-beat
// intervals from the tempo period, clamped to [0,1]
func beatConfidence(frames []int, bpm, frameRate float64) float64 {
	if len(frames) < 2 || bpm <= 0 {
		return 0
	}

	expected := 60.0 / bpm
	var sum float64
	for i := 1; i < len(frames); i++ {
		interval := float64(frames[i]-frames[i-1]) / frameRate
		sum += math.Abs(interval-expected) / expected
	}

	return 1 - common.Clamp(sum/float64(len(frames)-1), 0, 1)
}
