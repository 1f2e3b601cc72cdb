package spectral

import (
	"github.com/mjibson/go-dsp/fft"
)

// FFT wraps go-dsp's real-input transform
type FFT struct{}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute returns the full complex spectrum of x.
// go-dsp handles non-power-of-two sizes, so frames are never zero-padded here.
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}
	return fft.FFTReal(x)
}
