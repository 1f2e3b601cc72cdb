package analysis

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/RyanBlaney/sonido-deck/algorithms/temporal"
	"github.com/RyanBlaney/sonido-deck/algorithms/windowing"
	"github.com/RyanBlaney/sonido-deck/transcode"
)

// Config holds the settings of every estimator plus the loader used by the file helpers
type Config struct {
	SampleRate       int           `json:"sample_rate" yaml:"sample_rate"`
	AnalysisDuration time.Duration `json:"analysis_duration" yaml:"analysis_duration"` // 0 analyzes the full track

	WindowSize int            `json:"window_size" yaml:"window_size"`
	HopSize    int            `json:"hop_size" yaml:"hop_size"`
	WindowType windowing.Type `json:"window_type" yaml:"window_type"`

	Onset     temporal.OnsetConfig `json:"onset" yaml:"onset"`
	Tempo     temporal.TempoConfig `json:"tempo" yaml:"tempo"`
	Tightness float64              `json:"tightness" yaml:"tightness"`
	TrimBeats bool                 `json:"trim_beats" yaml:"trim_beats"`

	TuningFrequency float64 `json:"tuning_frequency" yaml:"tuning_frequency"`

	Energy EnergyConfig `json:"energy" yaml:"energy"`

	Decoder *transcode.DecoderConfig `json:"decoder,omitempty" yaml:"decoder,omitempty"`
}

// DefaultConfig returns the 22050 Hz, 60 second analysis setup
func DefaultConfig() *Config {
	return &Config{
		SampleRate:       22050,
		AnalysisDuration: 60 * time.Second,
		WindowSize:       2048,
		HopSize:          512,
		WindowType:       windowing.TypeHann,
		Onset:            temporal.DefaultOnsetConfig(),
		Tempo:            temporal.DefaultTempoConfig(),
		Tightness:        100,
		TrimBeats:        true,
		TuningFrequency:  440,
		Energy:           DefaultEnergyConfig(),
		Decoder:          transcode.DefaultDecoderConfig(),
	}
}

// Validate checks the configuration for values the estimators cannot work with
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSampleRate, c.SampleRate)
	}
	if c.AnalysisDuration < 0 {
		return fmt.Errorf("analysis duration must not be negative: %v", c.AnalysisDuration)
	}
	if c.WindowSize <= 0 || c.HopSize <= 0 {
		return fmt.Errorf("window and hop size must be positive: %d/%d", c.WindowSize, c.HopSize)
	}
	if c.HopSize > c.WindowSize {
		return fmt.Errorf("hop size (%d) larger than window size (%d)", c.HopSize, c.WindowSize)
	}
	if c.Onset.WindowSize <= 0 || c.Onset.HopSize <= 0 || c.Onset.MelBands <= 0 {
		return fmt.Errorf("invalid onset config: %+v", c.Onset)
	}
	if c.Tempo.MinBPM <= 0 || c.Tempo.MaxBPM <= c.Tempo.MinBPM {
		return fmt.Errorf("invalid tempo range: %.1f-%.1f BPM", c.Tempo.MinBPM, c.Tempo.MaxBPM)
	}
	if c.TuningFrequency <= 0 {
		return fmt.Errorf("tuning frequency must be positive: %.2f", c.TuningFrequency)
	}
	if _, err := windowing.New(c.WindowType, c.WindowSize); err != nil {
		return err
	}
	if c.Decoder != nil {
		if err := c.Decoder.Validate(); err != nil {
			return fmt.Errorf("invalid decoder config: %w", err)
		}
	}
	return c.Energy.Validate()
}

// Fingerprint identifies the settings that shape an analysis result.
// Tool paths and timeouts are left out since they never change the output.
func (c *Config) Fingerprint() string {
	var quality string
	if c.Decoder != nil {
		quality = c.Decoder.ResampleQuality
	}

	h := sha256.New()
	fmt.Fprintf(h, "%d|%d|%d|%d|%s|%+v|%+v|%g|%t|%g|%+v|%s",
		c.SampleRate, c.AnalysisDuration, c.WindowSize, c.HopSize, c.WindowType,
		c.Onset, c.Tempo, c.Tightness, c.TrimBeats, c.TuningFrequency, c.Energy, quality)
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// LoaderConfig derives the signal loader settings
func (c *Config) LoaderConfig() *transcode.LoaderConfig {
	return &transcode.LoaderConfig{
		SampleRate:  c.SampleRate,
		MaxDuration: c.AnalysisDuration,
		Decoder:     c.Decoder,
	}
}
