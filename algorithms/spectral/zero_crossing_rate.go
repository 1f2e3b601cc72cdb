package spectral

// ZeroCrossingRate measures how often a signal changes sign.
// Zero counts as positive, so a run of silence never crosses.
type ZeroCrossingRate struct {
	frameSize int
	hopSize   int
	center    bool
}

// NewZeroCrossingRate creates a calculator with librosa-style defaults (2048/512, centred frames)
func NewZeroCrossingRate() *ZeroCrossingRate {
	return NewZeroCrossingRateWithParams(2048, 512, true)
}

// NewZeroCrossingRateWithParams creates calculator with custom parameters
func NewZeroCrossingRateWithParams(frameSize, hopSize int, center bool) *ZeroCrossingRate {
	return &ZeroCrossingRate{
		frameSize: frameSize,
		hopSize:   hopSize,
		center:    center,
	}
}

// ComputeNormalized returns crossings per sample for a single frame
func (zcr *ZeroCrossingRate) ComputeNormalized(frame []float64) float64 {
	if len(frame) < 2 {
		return 0.0
	}

	crossings := 0
	for i := 1; i < len(frame); i++ {
		if (frame[i-1] >= 0) != (frame[i] >= 0) {
			crossings++
		}
	}

	return float64(crossings) / float64(len(frame))
}

// ComputeFrames calculates the per-sample crossing rate of every frame.
// Centred frames pad the signal with its edge values.
func (zcr *ZeroCrossingRate) ComputeFrames(signal []float64) []float64 {
	if len(signal) == 0 || zcr.frameSize <= 0 || zcr.hopSize <= 0 {
		return []float64{}
	}

	if zcr.center {
		signal = padEdge(signal, zcr.frameSize/2)
	}

	numFrames := FrameCount(len(signal), zcr.frameSize, zcr.hopSize)
	values := make([]float64, numFrames)
	for i := range numFrames {
		start := i * zcr.hopSize
		values[i] = zcr.ComputeNormalized(signal[start : start+zcr.frameSize])
	}

	return values
}

func padEdge(signal []float64, pad int) []float64 {
	padded := make([]float64, len(signal)+2*pad)
	copy(padded[pad:], signal)
	first, last := signal[0], signal[len(signal)-1]
	for i := range pad {
		padded[i] = first
		padded[len(padded)-1-i] = last
	}
	return padded
}
