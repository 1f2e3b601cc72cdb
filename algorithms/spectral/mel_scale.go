package spectral

import (
	"math"
)

// MelScale provides mel frequency conversion and filter bank utilities
type MelScale struct{}

// NewMelScale creates a new mel scale converter
func NewMelScale() *MelScale {
	return &MelScale{}
}

// HzToMel converts frequency in Hz to mel scale
func (ms *MelScale) HzToMel(hz float64) float64 {
	return 2595.0 * math.Log10(1.0+hz/700.0)
}

// MelToHz converts mel scale to frequency in Hz
func (ms *MelScale) MelToHz(mel float64) float64 {
	return 700.0 * (math.Pow(10.0, mel/2595.0) - 1.0)
}

// CreateMelFilterBank creates numFilters triangular filters over the one-sided spectrum of an
// fftSize transform. Filters are evaluated at bin centre frequencies and area-normalized so that
// narrow low-frequency bands are not drowned out by wide high ones.
func (ms *MelScale) CreateMelFilterBank(numFilters int, fftSize int, sampleRate int, lowFreq, highFreq float64) [][]float64 {
	if numFilters <= 0 || fftSize <= 0 || sampleRate <= 0 {
		return nil
	}
	if highFreq <= 0 || highFreq > float64(sampleRate)/2 {
		highFreq = float64(sampleRate) / 2
	}

	lowMel := ms.HzToMel(lowFreq)
	highMel := ms.HzToMel(highFreq)

	// numFilters+2 equally spaced mel points give each filter a left, centre and right edge
	hzPoints := make([]float64, numFilters+2)
	melStep := (highMel - lowMel) / float64(numFilters+1)
	for i := range hzPoints {
		hzPoints[i] = ms.MelToHz(lowMel + float64(i)*melStep)
	}

	binFreqs := FrequencyBins(fftSize/2+1, sampleRate)

	filterBank := make([][]float64, numFilters)
	for m := range numFilters {
		left, centre, right := hzPoints[m], hzPoints[m+1], hzPoints[m+2]
		norm := 2.0 / (right - left)

		filter := make([]float64, len(binFreqs))
		for k, f := range binFreqs {
			rising := (f - left) / (centre - left)
			falling := (right - f) / (right - centre)
			if w := math.Min(rising, falling); w > 0 {
				filter[k] = w * norm
			}
		}
		filterBank[m] = filter
	}

	return filterBank
}

// ApplyFilterBank applies mel filter bank to power spectrum
func (ms *MelScale) ApplyFilterBank(powerSpectrum []float64, filterBank [][]float64) []float64 {
	if len(filterBank) == 0 || len(powerSpectrum) == 0 {
		return []float64{}
	}

	melSpectrum := make([]float64, len(filterBank))

	for i, filter := range filterBank {
		sum := 0.0
		for j := 0; j < len(filter) && j < len(powerSpectrum); j++ {
			sum += powerSpectrum[j] * filter[j]
		}
		melSpectrum[i] = sum
	}

	return melSpectrum
}

// MelSpectrogram applies filterBank to every frame of a power spectrogram
func (ms *MelScale) MelSpectrogram(power [][]float64, filterBank [][]float64) [][]float64 {
	melSpectrogram := make([][]float64, len(power))
	for t, frame := range power {
		melSpectrogram[t] = ms.ApplyFilterBank(frame, filterBank)
	}
	return melSpectrogram
}

// PowerToDB converts a power spectrogram to decibels relative to 1.0 in place.
// Values are floored at amin and at topDB below the loudest cell (topDB <= 0 disables the floor).
func PowerToDB(spectrogram [][]float64, amin, topDB float64) [][]float64 {
	peak := math.Inf(-1)
	for _, frame := range spectrogram {
		for i, p := range frame {
			frame[i] = 10 * math.Log10(math.Max(amin, p))
			peak = math.Max(peak, frame[i])
		}
	}

	if topDB > 0 {
		floor := peak - topDB
		for _, frame := range spectrogram {
			for i := range frame {
				frame[i] = math.Max(frame[i], floor)
			}
		}
	}

	return spectrogram
}
