package temporal

import (
	"math"
	"testing"

	"github.com/RyanBlaney/sonido-deck/algorithms/spectral"
)

const testSampleRate = 22050

// clickTrack renders decaying 1 kHz bursts at the given tempo
func clickTrack(bpm float64, seconds float64) []float64 {
	n := int(seconds * testSampleRate)
	signal := make([]float64, n)
	interval := 60.0 / bpm * testSampleRate
	burst := testSampleRate * 3 / 100

	for beat := 0.0; int(beat) < n; beat += interval {
		start := int(beat)
		for i := 0; i < burst && start+i < n; i++ {
			tt := float64(i) / testSampleRate
			signal[start+i] = math.Sin(2*math.Pi*1000*tt) * math.Exp(-tt*120)
		}
	}
	return signal
}

func impulseEnvelope(length, spacing int) []float64 {
	env := make([]float64, length)
	for i := 0; i < length; i += spacing {
		env[i] = 1
	}
	return env
}

func TestEnvelopeComputeRMS(t *testing.T) {
	e := NewEnvelope()

	rms := e.ComputeRMS([]float64{1, -1, 1, -1}, 4, 4, false)
	if len(rms) != 1 || rms[0] != 1 {
		t.Fatalf("rms = %v", rms)
	}

	centred := e.ComputeRMS(make([]float64, 100), 8, 4, true)
	if len(centred) != 1+100/4 {
		t.Fatalf("centred frames = %d", len(centred))
	}

	if got := e.ComputeRMS(nil, 8, 4, true); len(got) != 0 {
		t.Fatalf("empty signal gave %v", got)
	}
}

func TestOnsetStrengthPeaksAtClicks(t *testing.T) {
	cfg := DefaultOnsetConfig()
	od := NewOnsetDetection(cfg, spectral.NewSTFT(1, nil))

	signal := clickTrack(120, 6)
	onset, err := od.OnsetStrength(signal, testSampleRate)
	if err != nil {
		t.Fatal(err)
	}
	if want := 1 + len(signal)/cfg.HopSize; len(onset) != want {
		t.Fatalf("onset frames = %d, want %d", len(onset), want)
	}

	// the strongest frame should sit within two frames of a click
	best := 0
	for i, v := range onset {
		if v > onset[best] {
			best = i
		}
	}
	interval := 60.0 / 120 * testSampleRate / float64(cfg.HopSize)
	nearest := math.Round(float64(best)/interval) * interval
	if math.Abs(float64(best)-nearest) > 2 {
		t.Fatalf("onset peak at frame %d is %.1f frames from a click", best, math.Abs(float64(best)-nearest))
	}

	if _, err := od.OnsetStrength(nil, testSampleRate); err == nil {
		t.Fatal("expected error for empty signal")
	}
}

func TestTempoEstimationImpulseTrain(t *testing.T) {
	te := NewTempoEstimation(DefaultTempoConfig())
	frameRate := float64(testSampleRate) / 512

	bpm := te.Estimate(impulseEnvelope(600, 20), testSampleRate, 512)
	want := 60 * frameRate / 20
	if math.Abs(bpm-want) > 1 {
		t.Fatalf("bpm = %.2f, want %.2f", bpm, want)
	}

	if got := te.Estimate(make([]float64, 600), testSampleRate, 512); got != 0 {
		t.Fatalf("silent envelope bpm = %v, want 0", got)
	}
}

func TestTempoFromClickTrack(t *testing.T) {
	cfg := DefaultOnsetConfig()
	onset, err := NewOnsetDetection(cfg, spectral.NewSTFT(1, nil)).OnsetStrength(clickTrack(128, 20), testSampleRate)
	if err != nil {
		t.Fatal(err)
	}

	bpm := NewTempoEstimation(DefaultTempoConfig()).Estimate(onset, testSampleRate, cfg.HopSize)
	if math.Abs(bpm-128)/128 > 0.04 {
		t.Fatalf("bpm = %.2f, want about 128", bpm)
	}
}

func TestBeatTrackerRegularImpulses(t *testing.T) {
	frameRate := float64(testSampleRate) / 512
	bpm := 60 * frameRate / 20

	beats := NewBeatTracker(100, true).Track(impulseEnvelope(400, 20), bpm, frameRate)
	if len(beats) < 15 {
		t.Fatalf("only %d beats tracked: %v", len(beats), beats)
	}
	for i := 1; i < len(beats); i++ {
		if beats[i]-beats[i-1] != 20 {
			t.Fatalf("irregular beats %v", beats)
		}
		if beats[i]%20 != 0 {
			t.Fatalf("beat %d off the impulse grid", beats[i])
		}
	}
}

func TestBeatTrackerDegenerateInput(t *testing.T) {
	bt := NewBeatTracker(100, true)
	if got := bt.Track(make([]float64, 100), 120, 43); len(got) != 0 {
		t.Fatalf("silent envelope gave beats %v", got)
	}
	if got := bt.Track(impulseEnvelope(100, 10), 0, 43); len(got) != 0 {
		t.Fatalf("zero tempo gave beats %v", got)
	}
}
