package common

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Statistical helpers shared by the estimators, backed by gonum

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// StandardDeviation calculates the sample standard deviation (n-1 denominator)
func StandardDeviation(data []float64) float64 {
	if len(data) < 2 {
		return 0.0
	}
	return stat.StdDev(data, nil)
}

// Median returns the middle value, averaging the two central values for even lengths
func Median(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// MeanColumns averages a Time x Feature matrix over time
func MeanColumns(matrix [][]float64) []float64 {
	if len(matrix) == 0 {
		return []float64{}
	}

	sum := make([]float64, len(matrix[0]))
	for _, row := range matrix {
		floats.Add(sum, row[:len(sum)])
	}
	floats.Scale(1/float64(len(matrix)), sum)
	return sum
}

// L2Normalize divides data in place by its Euclidean norm plus eps
func L2Normalize(data []float64, eps float64) []float64 {
	norm := floats.Norm(data, 2) + eps
	if norm == 0 {
		return data
	}
	floats.Scale(1/norm, data)
	return data
}

// Dot returns the inner product of two equal-length slices
func Dot(x, y []float64) float64 {
	return floats.Dot(x, y)
}

// LocalMax marks x[i] > x[i-1] && x[i] >= x[i+1]; the edges compare against themselves
func LocalMax(x []float64) []bool {
	maxes := make([]bool, len(x))
	for i := range x {
		prev, next := x[i], x[i]
		if i > 0 {
			prev = x[i-1]
		}
		if i < len(x)-1 {
			next = x[i+1]
		}
		maxes[i] = x[i] > prev && x[i] >= next
	}
	return maxes
}

// Clamp constrains a value to a range
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Round rounds value half away from zero to the given number of decimals
func Round(value float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(value*scale) / scale
}

// NextPowerOfTwo finds the next power of 2 >= n
func NextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}

	power := 1
	for power < n {
		power <<= 1
	}
	return power
}
