package temporal

import (
	"fmt"

	"github.com/RyanBlaney/sonido-deck/algorithms/spectral"
	"github.com/RyanBlaney/sonido-deck/algorithms/windowing"
)

// OnsetConfig controls the onset strength envelope
type OnsetConfig struct {
	WindowSize int     `json:"window_size"`
	HopSize    int     `json:"hop_size"`
	MelBands   int     `json:"mel_bands"`
	TopDB      float64 `json:"top_db"`
}

// DefaultOnsetConfig returns the 2048/512, 128-band, 80 dB configuration
func DefaultOnsetConfig() OnsetConfig {
	return OnsetConfig{
		WindowSize: 2048,
		HopSize:    512,
		MelBands:   128,
		TopDB:      80,
	}
}

// OnsetDetection computes a spectral-flux onset strength envelope over a log-mel spectrogram
type OnsetDetection struct {
	config       OnsetConfig
	stft         *spectral.STFT
	melScale     *spectral.MelScale
	spectralFlux *spectral.SpectralFlux
}

// NewOnsetDetection creates a new onset detector on top of stft
func NewOnsetDetection(config OnsetConfig, stft *spectral.STFT) *OnsetDetection {
	return &OnsetDetection{
		config:       config,
		stft:         stft,
		melScale:     spectral.NewMelScale(),
		spectralFlux: spectral.NewSpectralFlux(),
	}
}

// OnsetStrength returns one onset value per centred STFT frame.
// The envelope is delayed by WindowSize/(2*HopSize) frames to undo the smearing of centred frames,
// so peaks line up with the sample positions frame*HopSize.
func (od *OnsetDetection) OnsetStrength(signal []float64, sampleRate int) ([]float64, error) {
	cfg := od.config
	if len(signal) == 0 {
		return nil, fmt.Errorf("empty signal")
	}

	window, err := windowing.New(windowing.TypeHann, cfg.WindowSize)
	if err != nil {
		return nil, err
	}

	stftResult, err := od.stft.ComputeWithWindow(spectral.PadCenter(signal, cfg.WindowSize), cfg.WindowSize, cfg.HopSize, sampleRate, window)
	if err != nil {
		return nil, fmt.Errorf("failed to compute STFT: %w", err)
	}

	filterBank := od.melScale.CreateMelFilterBank(cfg.MelBands, cfg.WindowSize, sampleRate, 0, float64(sampleRate)/2)
	melDB := spectral.PowerToDB(od.melScale.MelSpectrogram(stftResult.Power(), filterBank), 1e-10, cfg.TopDB)

	flux := od.spectralFlux.Rectified(melDB)

	shift := cfg.WindowSize / (2 * cfg.HopSize)
	onset := make([]float64, len(flux))
	for t := shift; t < len(flux); t++ {
		onset[t] = flux[t-shift]
	}

	return onset, nil
}
