package common

import (
	"math"
	"testing"
)

func TestMedian(t *testing.T) {
	tests := []struct {
		in   []float64
		want float64
	}{
		{nil, 0},
		{[]float64{3}, 3},
		{[]float64{5, 1, 3}, 3},
		{[]float64{4, 1, 3, 2}, 2.5},
	}
	for _, tt := range tests {
		if got := Median(tt.in); got != tt.want {
			t.Errorf("Median(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLocalMax(t *testing.T) {
	got := LocalMax([]float64{1, 3, 2, 2, 5, 5})
	want := []bool{false, true, false, false, true, false}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("LocalMax = %v, want %v", got, want)
		}
	}

	// a rising tail counts as a maximum
	if tail := LocalMax([]float64{0, 1, 2}); !tail[2] {
		t.Fatalf("last element of rising slice should be a local max: %v", tail)
	}
}

func TestL2Normalize(t *testing.T) {
	v := L2Normalize([]float64{3, 4}, 0)
	if math.Abs(v[0]-0.6) > 1e-12 || math.Abs(v[1]-0.8) > 1e-12 {
		t.Fatalf("got %v", v)
	}

	zero := L2Normalize([]float64{0, 0}, 0)
	if zero[0] != 0 || zero[1] != 0 {
		t.Fatalf("zero vector changed: %v", zero)
	}
}

func TestMeanColumns(t *testing.T) {
	got := MeanColumns([][]float64{{1, 2}, {3, 6}})
	if got[0] != 2 || got[1] != 4 {
		t.Fatalf("got %v", got)
	}
}

func TestRoundAndClamp(t *testing.T) {
	if got := Round(127.96, 1); got != 128.0 {
		t.Errorf("Round = %v", got)
	}
	if got := Round(0.125, 2); got != 0.13 {
		t.Errorf("Round half = %v", got)
	}
	if got := Clamp(1.5, 0, 1); got != 1 {
		t.Errorf("Clamp = %v", got)
	}
	if got := Clamp(-0.1, 0, 1); got != 0 {
		t.Errorf("Clamp = %v", got)
	}
}

func TestNextPowerOfTwo(t *testing.T) {
	for in, want := range map[int]int{0: 1, 1: 1, 3: 4, 688: 1024, 1024: 1024} {
		if got := NextPowerOfTwo(in); got != want {
			t.Errorf("NextPowerOfTwo(%d) = %d, want %d", in, got, want)
		}
	}
}
