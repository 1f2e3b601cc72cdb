package windowing

import (
	"fmt"
	"math"
)

// Cosine is a generalized cosine-sum window:
// w[n] = a0 - a1*cos(2πn/N) + a2*cos(4πn/N).
// The periodic form (symmetric=false) is the one used for STFT analysis frames.
type Cosine struct {
	typ          Type
	size         int
	symmetric    bool
	coefficients []float64
}

// NewHann creates a new Hann window
func NewHann(size int, symmetric bool) *Cosine {
	return newCosine(TypeHann, size, symmetric, 0.5, 0.5, 0)
}

// NewPeriodicHann creates the periodic Hann window used for spectral analysis
func NewPeriodicHann(size int) *Cosine {
	return NewHann(size, false)
}

// NewHamming creates a new Hamming window
func NewHamming(size int, symmetric bool) *Cosine {
	return newCosine(TypeHamming, size, symmetric, 0.54, 0.46, 0)
}

// NewBlackman creates a new (classic, alpha = 0.16) Blackman window
func NewBlackman(size int, symmetric bool) *Cosine {
	return newCosine(TypeBlackman, size, symmetric, 0.42, 0.5, 0.08)
}

func newCosine(typ Type, size int, symmetric bool, a0, a1, a2 float64) *Cosine {
	w := &Cosine{
		typ:          typ,
		size:         size,
		symmetric:    symmetric,
		coefficients: make([]float64, size),
	}
	if size == 1 {
		w.coefficients[0] = 1
		return w
	}

	denominator := float64(size)
	if symmetric {
		denominator = float64(size - 1)
	}

	for i := range size {
		phase := 2 * math.Pi * float64(i) / denominator
		w.coefficients[i] = a0 - a1*math.Cos(phase) + a2*math.Cos(2*phase)
	}
	// Blackman dips a hair below zero at the edges
	for i, c := range w.coefficients {
		if c < 0 && c > -1e-12 {
			w.coefficients[i] = 0
		}
	}
	return w
}

// Apply returns a windowed copy of frame
func (w *Cosine) Apply(frame []float64) []float64 {
	if len(frame) != w.size {
		return nil
	}

	windowed := make([]float64, w.size)
	for i, c := range w.coefficients {
		windowed[i] = frame[i] * c
	}
	return windowed
}

// ApplyInPlace applies the window to frame in-place
func (w *Cosine) ApplyInPlace(frame []float64) error {
	if len(frame) != w.size {
		return fmt.Errorf("frame length (%d) doesn't match window size (%d)", len(frame), w.size)
	}

	for i, c := range w.coefficients {
		frame[i] *= c
	}
	return nil
}

// Coefficients returns a copy of the window coefficients
func (w *Cosine) Coefficients() []float64 {
	coeffs := make([]float64, len(w.coefficients))
	copy(coeffs, w.coefficients)
	return coeffs
}

// Size returns the window size
func (w *Cosine) Size() int {
	return w.size
}

// Type returns the window type
func (w *Cosine) Type() Type {
	return w.typ
}
