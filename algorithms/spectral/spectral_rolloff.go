package spectral

// SpectralRolloff computes the frequency below which a fraction of the spectral magnitude lies
type SpectralRolloff struct {
	sampleRate int
	freqBins   []float64
}

// NewSpectralRolloff creates a new spectral rolloff calculator
func NewSpectralRolloff(sampleRate int) *SpectralRolloff {
	return &SpectralRolloff{
		sampleRate: sampleRate,
	}
}

// Compute returns the lowest bin frequency at which the cumulative magnitude
// reaches threshold (typically 0.85) of the frame total. Silent frames yield 0.
func (sr *SpectralRolloff) Compute(spectrum []float64, threshold float64) float64 {
	if len(spectrum) == 0 {
		return 0.0
	}

	if len(sr.freqBins) != len(spectrum) {
		sr.freqBins = FrequencyBins(len(spectrum), sr.sampleRate)
	}

	total := 0.0
	for _, mag := range spectrum {
		total += mag
	}
	if total == 0 {
		return 0
	}

	target := threshold * total
	cumulative := 0.0
	for i, mag := range spectrum {
		cumulative += mag
		if cumulative >= target {
			return sr.freqBins[i]
		}
	}

	return sr.freqBins[len(sr.freqBins)-1]
}

// ComputeFrames processes multiple frames
func (sr *SpectralRolloff) ComputeFrames(spectrogram [][]float64, threshold float64) []float64 {
	rolloffs := make([]float64, len(spectrogram))
	for t, spectrum := range spectrogram {
		rolloffs[t] = sr.Compute(spectrum, threshold)
	}
	return rolloffs
}
