package spectral

// SpectralFlux measures frame-to-frame spectral change
type SpectralFlux struct {
	lag int
}

// NewSpectralFlux creates a flux calculator comparing each frame with the previous one
func NewSpectralFlux() *SpectralFlux {
	return &SpectralFlux{lag: 1}
}

// Rectified returns, for every frame, the sum over bands of the positive change
// against the frame lag positions earlier. The first lag frames are zero so the
// output stays aligned with the input frames.
func (sf *SpectralFlux) Rectified(spectrogram [][]float64) []float64 {
	flux := make([]float64, len(spectrogram))

	for t := sf.lag; t < len(spectrogram); t++ {
		prev := spectrogram[t-sf.lag]
		sum := 0.0
		for f, v := range spectrogram[t] {
			if f >= len(prev) {
				break
			}
			if diff := v - prev[f]; diff > 0 {
				sum += diff
			}
		}
		flux[t] = sum
	}

	return flux
}
