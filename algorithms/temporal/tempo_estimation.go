package temporal

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/RyanBlaney/sonido-deck/algorithms/common"
	"github.com/RyanBlaney/sonido-deck/algorithms/windowing"
)

// TempoConfig bounds the global tempo search
type TempoConfig struct {
	StartBPM float64 `json:"start_bpm"` // centre of the log-normal prior
	StdBPM   float64 `json:"std_bpm"`   // prior width in octaves
	MinBPM   float64 `json:"min_bpm"`
	MaxBPM   float64 `json:"max_bpm"`
	ACSize   float64 `json:"ac_size"` // autocorrelation window in seconds
}

// DefaultTempoConfig returns a 120 BPM prior, one octave wide, searching 30-300 BPM over 8 s windows
func DefaultTempoConfig() TempoConfig {
	return TempoConfig{
		StartBPM: 120,
		StdBPM:   1,
		MinBPM:   30,
		MaxBPM:   300,
		ACSize:   8,
	}
}

// TempoEstimation derives a global tempo from an onset strength envelope
type TempoEstimation struct {
	config TempoConfig
}

// NewTempoEstimation creates a new tempo estimator
func NewTempoEstimation(config TempoConfig) *TempoEstimation {
	return &TempoEstimation{config: config}
}

// Estimate returns the tempo in BPM of an onset envelope sampled every hopSize samples.
// The local autocorrelation of the envelope is averaged over time and weighted by a
// log-normal prior around StartBPM; the best lag inside [MinBPM, MaxBPM] wins and is
// refined to sub-frame precision.
// A silent envelope returns 0.
func (te *TempoEstimation) Estimate(onset []float64, sampleRate, hopSize int) float64 {
	if len(onset) == 0 || sampleRate <= 0 || hopSize <= 0 {
		return 0
	}

	frameRate := float64(sampleRate) / float64(hopSize)
	winLength := max(int(te.config.ACSize*frameRate), 2)

	tempogram := te.meanTempogram(onset, winLength)

	startBPM := te.config.StartBPM
	if startBPM <= 0 {
		startBPM = 120
	}
	stdBPM := te.config.StdBPM
	if stdBPM <= 0 {
		stdBPM = 1
	}

	bestLag := 0
	bestScore := math.Inf(-1)
	for lag := 1; lag < len(tempogram); lag++ {
		bpm := 60 * frameRate / float64(lag)
		if bpm < te.config.MinBPM || bpm > te.config.MaxBPM || tempogram[lag] <= 0 {
			continue
		}

		logPrior := -0.5 * math.Pow((math.Log2(bpm)-math.Log2(startBPM))/stdBPM, 2)
		score := math.Log1p(1e6*tempogram[lag]) + logPrior
		if score > bestScore {
			bestScore = score
			bestLag = lag
		}
	}

	if bestLag == 0 {
		return 0
	}

	// parabolic refinement of the peak between neighbouring lags
	lag := float64(bestLag)
	if bestLag > 1 && bestLag+1 < len(tempogram) {
		a, b, c := tempogram[bestLag-1], tempogram[bestLag], tempogram[bestLag+1]
		if denom := a - 2*b + c; denom < 0 {
			lag += common.Clamp(0.5*(a-c)/denom, -0.5, 0.5)
		}
	}

	return 60 * frameRate / lag
}

// meanTempogram computes a Hann-windowed autocorrelation of the envelope around every frame,
// max-normalizes each one and averages them over time
func (te *TempoEstimation) meanTempogram(onset []float64, winLength int) []float64 {
	pad := winLength / 2
	padded := make([]float64, len(onset)+2*pad)
	copy(padded[pad:], onset)

	// linear ramps from zero into the edge values
	first, last := onset[0], onset[len(onset)-1]
	for i := range pad {
		padded[i] = first * float64(i) / float64(pad)
		padded[len(padded)-1-i] = last * float64(i) / float64(pad)
	}

	window := windowing.NewPeriodicHann(winLength)
	fftSize := common.NextPowerOfTwo(2 * winLength)

	mean := make([]float64, winLength)
	frame := make([]float64, fftSize)
	for t := range onset {
		clear(frame)
		copy(frame, padded[t:t+winLength])
		if err := window.ApplyInPlace(frame[:winLength]); err != nil {
			continue
		}

		// Wiener-Khinchin: autocorrelation is the inverse transform of the power spectrum
		spectrum := fft.FFTReal(frame)
		for i, c := range spectrum {
			spectrum[i] = complex(real(c)*real(c)+imag(c)*imag(c), 0)
		}
		acf := fft.IFFT(spectrum)

		peak := 0.0
		for lag := range winLength {
			peak = math.Max(peak, cmplx.Abs(acf[lag]))
		}
		if peak == 0 {
			continue
		}
		for lag := range winLength {
			mean[lag] += real(acf[lag]) / peak
		}
	}

	for lag := range mean {
		mean[lag] /= float64(len(onset))
	}
	return mean
}
