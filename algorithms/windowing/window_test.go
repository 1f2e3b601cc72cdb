package windowing

import (
	"math"
	"testing"
)

func TestPeriodicHannCoefficients(t *testing.T) {
	h := NewPeriodicHann(4)
	want := []float64{0, 0.5, 1, 0.5}
	got := h.Coefficients()
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("coeff[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSymmetricHannEndpoints(t *testing.T) {
	h := NewHann(5, true)
	c := h.Coefficients()
	if c[0] != 0 || math.Abs(c[4]) > 1e-12 || math.Abs(c[2]-1) > 1e-12 {
		t.Fatalf("unexpected symmetric coefficients %v", c)
	}
}

func TestApplyInPlaceLengthMismatch(t *testing.T) {
	h := NewPeriodicHann(8)
	if err := h.ApplyInPlace(make([]float64, 7)); err == nil {
		t.Fatal("expected error for mismatched frame length")
	}
}

func TestNewFactory(t *testing.T) {
	tests := []struct {
		typ     Type
		wantErr bool
	}{
		{TypeHann, false},
		{"", false},
		{TypeHamming, false},
		{TypeBlackman, false},
		{TypeRectangular, false},
		{"kaiser", true},
	}
	for _, tt := range tests {
		w, err := New(tt.typ, 16)
		if (err != nil) != tt.wantErr {
			t.Errorf("New(%q) error = %v, wantErr %v", tt.typ, err, tt.wantErr)
			continue
		}
		if err == nil && w.Size() != 16 {
			t.Errorf("New(%q) size = %d", tt.typ, w.Size())
		}
	}

	if _, err := New(TypeHann, 0); err == nil {
		t.Error("expected error for zero size")
	}
}

func TestRectangularLeavesFrame(t *testing.T) {
	frame := []float64{1, -2, 3}
	if err := NewRectangular(3).ApplyInPlace(frame); err != nil {
		t.Fatal(err)
	}
	if frame[0] != 1 || frame[1] != -2 || frame[2] != 3 {
		t.Fatalf("frame modified: %v", frame)
	}
}

func TestCosineFamilyPeaks(t *testing.T) {
	tests := []struct {
		name string
		w    *Cosine
		edge float64
		typ  Type
	}{
		{"hann", NewHann(9, true), 0, TypeHann},
		{"hamming", NewHamming(9, true), 0.08, TypeHamming},
		{"blackman", NewBlackman(9, true), 0, TypeBlackman},
	}
	for _, tt := range tests {
		c := tt.w.Coefficients()
		if math.Abs(c[0]-tt.edge) > 1e-9 || math.Abs(c[8]-tt.edge) > 1e-9 {
			t.Errorf("%s edges = %v, %v, want %v", tt.name, c[0], c[8], tt.edge)
		}
		if math.Abs(c[4]-1) > 1e-9 {
			t.Errorf("%s centre = %v, want 1", tt.name, c[4])
		}
		if tt.w.Type() != tt.typ {
			t.Errorf("%s type = %q", tt.name, tt.w.Type())
		}
	}
}
