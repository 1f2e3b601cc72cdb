package chroma

import (
	"math"

	"github.com/RyanBlaney/sonido-deck/algorithms/spectral"
)

// Labels names the 12 chroma bins, bin 0 = C
var Labels = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// ChromaSTFT folds a power spectrogram into 12 pitch classes.
// Each FFT bin goes to the pitch class of its nearest equal-tempered MIDI note.
type ChromaSTFT struct {
	sampleRate int
	stft       *spectral.STFT
	tuningFreq float64 // A4 frequency (default 440 Hz)
	minFreq    float64
	maxFreq    float64
}

// NewChromaSTFT creates a new STFT-based chromagram calculator
func NewChromaSTFT(sampleRate int, tuningFreq float64, stft *spectral.STFT) *ChromaSTFT {
	return &ChromaSTFT{
		sampleRate: sampleRate,
		stft:       stft,
		tuningFreq: tuningFreq,
		minFreq:    80.0,   // Approximate E2
		maxFreq:    8000.0, // High enough for harmonics
	}
}

// NewChromaSTFTDefault creates chromagram with standard A4=440Hz tuning
func NewChromaSTFTDefault(sampleRate int, stft *spectral.STFT) *ChromaSTFT {
	return NewChromaSTFT(sampleRate, 440.0, stft)
}

// ComputeChroma returns one max-normalized 12-bin vector per centred STFT frame
func (cs *ChromaSTFT) ComputeChroma(signal []float64, windowSize, hopSize int, window spectral.Window) ([][]float64, error) {
	if len(signal) == 0 {
		return [][]float64{}, nil
	}

	stftResult, err := cs.stft.ComputeWithWindow(spectral.PadCenter(signal, windowSize), windowSize, hopSize, cs.sampleRate, window)
	if err != nil {
		return nil, err
	}

	return cs.FromSpectrogram(stftResult), nil
}

// FromSpectrogram folds the power of every STFT frame into pitch classes
func (cs *ChromaSTFT) FromSpectrogram(stftResult *spectral.STFTResult) [][]float64 {
	mapping := cs.chromaMapping(stftResult.Frequencies())

	chromagram := make([][]float64, stftResult.TimeFrames)
	for t, frame := range stftResult.Magnitude {
		chroma := make([]float64, 12)
		for f, mag := range frame {
			if bin := mapping[f]; bin >= 0 {
				chroma[bin] += mag * mag
			}
		}
		normalizeMax(chroma)
		chromagram[t] = chroma
	}

	return chromagram
}

// Mean averages a chromagram over time
func Mean(chromagram [][]float64) [12]float64 {
	var mean [12]float64
	if len(chromagram) == 0 {
		return mean
	}

	for _, frame := range chromagram {
		for i := range 12 {
			mean[i] += frame[i]
		}
	}
	for i := range mean {
		mean[i] /= float64(len(chromagram))
	}
	return mean
}

func (cs *ChromaSTFT) chromaMapping(freqs []float64) []int {
	mapping := make([]int, len(freqs))
	for f, frequency := range freqs {
		if frequency < cs.minFreq || frequency > cs.maxFreq {
			mapping[f] = -1
			continue
		}
		midi := int(math.Round(cs.frequencyToMIDI(frequency)))
		mapping[f] = ((midi % 12) + 12) % 12
	}
	return mapping
}

// frequencyToMIDI converts frequency to MIDI note number (A4 = 69)
func (cs *ChromaSTFT) frequencyToMIDI(frequency float64) float64 {
	return 69.0 + 12.0*math.Log2(frequency/cs.tuningFreq)
}

// normalizeMax scales a frame so its strongest pitch class is 1; near-silent frames stay as they are
func normalizeMax(frame []float64) {
	peak := 0.0
	for _, v := range frame {
		peak = math.Max(peak, v)
	}
	if peak < 1e-10 {
		return
	}
	for i := range frame {
		frame[i] /= peak
	}
}
