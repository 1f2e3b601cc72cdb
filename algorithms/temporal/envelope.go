package temporal

import (
	"math"
)

// Envelope provides amplitude envelope extraction
type Envelope struct{}

// NewEnvelope creates a new envelope extractor
func NewEnvelope() *Envelope {
	return &Envelope{}
}

// ComputeRMS computes the RMS of every frame. With center set the signal is
// zero-padded by frameSize/2 on both sides so frame t is centred on sample t*hopSize.
func (e *Envelope) ComputeRMS(signal []float64, frameSize, hopSize int, center bool) []float64 {
	if len(signal) == 0 || frameSize <= 0 || hopSize <= 0 {
		return []float64{}
	}

	if center {
		pad := frameSize / 2
		padded := make([]float64, len(signal)+2*pad)
		copy(padded[pad:], signal)
		signal = padded
	}

	if len(signal) < frameSize {
		return []float64{}
	}

	numFrames := (len(signal)-frameSize)/hopSize + 1
	envelope := make([]float64, numFrames)

	for i := range numFrames {
		startIdx := i * hopSize

		sumSquares := 0.0
		for _, v := range signal[startIdx : startIdx+frameSize] {
			sumSquares += v * v
		}
		envelope[i] = math.Sqrt(sumSquares / float64(frameSize))
	}

	return envelope
}
