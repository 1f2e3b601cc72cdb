package analysis

import "testing"

func TestScoreFeaturesMonotonicPerFeature(t *testing.T) {
	cfg := DefaultEnergyConfig()
	base := EnergyFeatures{RMS: 0.05, SpectralCentroidHz: 2000, SpectralRolloffHz: 5000, ZeroCrossingRate: 0.05}

	tests := []struct {
		name   string
		values []float64
		set    func(*EnergyFeatures, float64)
	}{
		{"rms", []float64{0, 1e-4, 1e-3, 0.01, 0.05, 0.2, 0.5, 1, 2},
			func(f *EnergyFeatures, v float64) { f.RMS = v }},
		{"centroid", []float64{0, 400, 500, 1000, 3000, 6000, 8000, 12000},
			func(f *EnergyFeatures, v float64) { f.SpectralCentroidHz = v }},
		{"rolloff", []float64{0, 900, 1000, 4000, 9000, 15000, 20000},
			func(f *EnergyFeatures, v float64) { f.SpectralRolloffHz = v }},
		{"zero crossing rate", []float64{0, 0.01, 0.02, 0.05, 0.1, 0.15, 0.3},
			func(f *EnergyFeatures, v float64) { f.ZeroCrossingRate = v }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := EnergyResult{RawScore: -1}
			for _, v := range tt.values {
				f := base
				tt.set(&f, v)
				got := ScoreFeatures(f, cfg)

				if got.RawScore < prev.RawScore || got.Level < prev.Level {
					t.Fatalf("%s=%v lowered the score: raw %v level %d after raw %v level %d",
						tt.name, v, got.RawScore, got.Level, prev.RawScore, prev.Level)
				}
				if got.Level < 1 || got.Level > 10 || got.RawScore < 0 || got.RawScore > 1 {
					t.Fatalf("%s=%v out of range: %+v", tt.name, v, got)
				}
				prev = got
			}

			lo, hi := base, base
			tt.set(&lo, tt.values[0])
			tt.set(&hi, tt.values[len(tt.values)-1])
			if ScoreFeatures(hi, cfg).RawScore <= ScoreFeatures(lo, cfg).RawScore {
				t.Errorf("%s has no effect on the score", tt.name)
			}
		})
	}
}

func TestScoreFeaturesLevelFollowsRawScore(t *testing.T) {
	cfg := DefaultEnergyConfig()
	prev := 0
	for rms := 0.0; rms <= 1; rms += 0.01 {
		got := ScoreFeatures(EnergyFeatures{RMS: rms, SpectralCentroidHz: 8000, SpectralRolloffHz: 15000, ZeroCrossingRate: 0.15}, cfg)
		if got.Level < prev {
			t.Fatalf("rms %.2f: level %d dropped below %d", rms, got.Level, prev)
		}
		if got.Level != EnergyLevel(got.RawScore) {
			t.Fatalf("rms %.2f: level %d does not match raw %v", rms, got.Level, got.RawScore)
		}
		prev = got.Level
	}
	if prev != 10 {
		t.Errorf("full scale level = %d, want 10", prev)
	}
}
