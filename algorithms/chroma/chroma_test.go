package chroma

import (
	"math"
	"testing"

	"github.com/RyanBlaney/sonido-deck/algorithms/spectral"
	"github.com/RyanBlaney/sonido-deck/algorithms/windowing"
)

func tone(freqs []float64, sampleRate, n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		for _, f := range freqs {
			s[i] += math.Sin(2 * math.Pi * f * float64(i) / float64(sampleRate))
		}
	}
	return s
}

func TestChromaSingleNote(t *testing.T) {
	const sr = 22050
	cs := NewChromaSTFTDefault(sr, spectral.NewSTFT(1, nil))

	// A4
	chromagram, err := cs.ComputeChroma(tone([]float64{440}, sr, sr), 2048, 512, windowing.NewPeriodicHann(2048))
	if err != nil {
		t.Fatal(err)
	}
	if len(chromagram) != 1+sr/512 {
		t.Fatalf("frames = %d", len(chromagram))
	}

	mean := Mean(chromagram)
	best := 0
	for i := range mean {
		if mean[i] > mean[best] {
			best = i
		}
	}
	if Labels[best] != "A" {
		t.Fatalf("dominant pitch class = %s, want A (mean %v)", Labels[best], mean)
	}

	for _, frame := range chromagram[2 : len(chromagram)-2] {
		peak := 0.0
		for _, v := range frame {
			peak = math.Max(peak, v)
		}
		if math.Abs(peak-1) > 1e-9 {
			t.Fatalf("frame not max-normalized: %v", frame)
		}
	}
}

func TestChromaSilence(t *testing.T) {
	cs := NewChromaSTFTDefault(22050, spectral.NewSTFT(1, nil))
	chromagram, err := cs.ComputeChroma(make([]float64, 8192), 2048, 512, windowing.NewPeriodicHann(2048))
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range Mean(chromagram) {
		if v != 0 {
			t.Fatalf("silence produced chroma energy %v", v)
		}
	}
}

func TestMeanEmpty(t *testing.T) {
	if m := Mean(nil); m != ([12]float64{}) {
		t.Fatalf("Mean(nil) = %v", m)
	}
}
