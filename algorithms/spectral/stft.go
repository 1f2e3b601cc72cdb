package spectral

import (
	"fmt"
	"math/cmplx"
	"sync"

	"github.com/RyanBlaney/sonido-deck/logging"
)

// STFT provides Short-Time Fourier Transform functionality
type STFT struct {
	fft     *FFT
	workers int
	logger  logging.Logger
}

// STFTResult holds the magnitude spectrogram of a signal
type STFTResult struct {
	Magnitude      [][]float64 `json:"magnitude"`       // Time x Frequency magnitude matrix
	TimeFrames     int         `json:"time_frames"`     // Number of time frames
	FreqBins       int         `json:"freq_bins"`       // Number of frequency bins
	SampleRate     int         `json:"sample_rate"`     // Sample rate
	WindowSize     int         `json:"window_size"`     // FFT window size
	HopSize        int         `json:"hop_size"`        // Hop size between frames
	FreqResolution float64     `json:"freq_resolution"` // Frequency resolution (Hz/bin)
	TimeResolution float64     `json:"time_resolution"` // Time resolution (seconds/frame)
}

// Window is applied to every frame before the transform
type Window interface {
	ApplyInPlace(signal []float64) error
}

// NewSTFT creates a new STFT calculator.
// workers <= 1 computes every frame on the calling goroutine.
func NewSTFT(workers int, logger logging.Logger) *STFT {
	return &STFT{
		fft:     NewFFT(),
		workers: max(workers, 1),
		logger:  logging.OrNoOp(logger),
	}
}

// PadCenter zero-pads signal by windowSize/2 on both sides so that frame t is centred on sample t*hop
func PadCenter(signal []float64, windowSize int) []float64 {
	pad := windowSize / 2
	padded := make([]float64, len(signal)+2*pad)
	copy(padded[pad:], signal)
	return padded
}

// FrameCount returns the number of full frames that fit in a signal of length n
func FrameCount(n, windowSize, hopSize int) int {
	if n < windowSize || hopSize <= 0 {
		return 0
	}
	return (n-windowSize)/hopSize + 1
}

// ComputeWithWindow computes the magnitude STFT of signal using the given window
func (s *STFT) ComputeWithWindow(signal []float64, windowSize int, hopSize int, sampleRate int, window Window) (*STFTResult, error) {
	if len(signal) == 0 {
		return nil, fmt.Errorf("empty signal")
	}

	if windowSize <= 0 {
		return nil, fmt.Errorf("window size must be positive")
	}

	if hopSize <= 0 {
		return nil, fmt.Errorf("hop size must be positive")
	}

	numFrames := FrameCount(len(signal), windowSize, hopSize)
	if numFrames <= 0 {
		return nil, fmt.Errorf("signal too short for given window size and hop size")
	}

	// Positive frequencies only
	freqBins := windowSize/2 + 1

	magnitude := make([][]float64, numFrames)
	for i := range numFrames {
		magnitude[i] = make([]float64, freqBins)
	}

	process := func(frameIdx int, frameBuffer []float64) error {
		start := frameIdx * hopSize
		copy(frameBuffer, signal[start:start+windowSize])

		if window != nil {
			if err := window.ApplyInPlace(frameBuffer); err != nil {
				return fmt.Errorf("frame %d: %w", frameIdx, err)
			}
		}

		spectrum := s.fft.Compute(frameBuffer)
		row := magnitude[frameIdx]
		for i := range freqBins {
			row[i] = cmplx.Abs(spectrum[i])
		}
		return nil
	}

	numWorkers := min(s.workers, numFrames)
	if numWorkers <= 1 {
		frameBuffer := make([]float64, windowSize)
		for frameIdx := range numFrames {
			if err := process(frameIdx, frameBuffer); err != nil {
				return nil, err
			}
		}
	} else {
		jobs := make(chan int, numFrames)
		for frameIdx := range numFrames {
			jobs <- frameIdx
		}
		close(jobs)

		var (
			wg       sync.WaitGroup
			errOnce  sync.Once
			firstErr error
		)

		for range numWorkers {
			wg.Add(1)
			go func() {
				defer wg.Done()

				// Reuse frame buffer for this worker
				frameBuffer := make([]float64, windowSize)
				for frameIdx := range jobs {
					if err := process(frameIdx, frameBuffer); err != nil {
						errOnce.Do(func() { firstErr = err })
					}
				}
			}()
		}
		wg.Wait()

		if firstErr != nil {
			return nil, firstErr
		}
	}

	s.logger.Debug("STFT computed", logging.Fields{
		"component": "STFT",
		"frames":    numFrames,
		"bins":      freqBins,
		"workers":   numWorkers,
	})

	return &STFTResult{
		Magnitude:      magnitude,
		TimeFrames:     numFrames,
		FreqBins:       freqBins,
		SampleRate:     sampleRate,
		WindowSize:     windowSize,
		HopSize:        hopSize,
		FreqResolution: float64(sampleRate) / float64(windowSize),
		TimeResolution: float64(hopSize) / float64(sampleRate),
	}, nil
}

// Power returns the squared magnitude spectrogram
func (r *STFTResult) Power() [][]float64 {
	power := make([][]float64, len(r.Magnitude))
	for t, row := range r.Magnitude {
		power[t] = make([]float64, len(row))
		for f, m := range row {
			power[t][f] = m * m
		}
	}
	return power
}

// Frequencies returns the centre frequency of every bin
func (r *STFTResult) Frequencies() []float64 {
	return FrequencyBins(r.FreqBins, r.SampleRate)
}

// FrequencyBins returns bin frequencies for a one-sided spectrum of numBins bins
func FrequencyBins(numBins, sampleRate int) []float64 {
	freqs := make([]float64, numBins)
	if numBins < 2 {
		return freqs
	}
	for i := range numBins {
		freqs[i] = float64(i) * float64(sampleRate) / float64((numBins-1)*2)
	}
	return freqs
}
