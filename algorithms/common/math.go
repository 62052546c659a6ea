package common

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Level and statistics helpers shared by the analyzers, using gonum for robustness

// ToFloat64 widens a float32 sample buffer. The input is left untouched.
func ToFloat64(samples []float32) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = float64(s)
	}
	return out
}

// RMS calculates root mean square.
// gonum's L2 norm accumulates with scaling, so long buffers don't overflow.
func RMS(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return floats.Norm(data, 2) / math.Sqrt(float64(len(data)))
}

// Peak returns the largest absolute value and the index of its first occurrence.
// An empty or all-zero signal returns (0, 0).
func Peak(data []float64) (float64, int) {
	peak := 0.0
	idx := 0
	for i, sample := range data {
		abs := math.Abs(sample)
		if abs > peak {
			peak = abs
			idx = i
		}
	}
	return peak, idx
}

// AmplitudeToDB converts a linear amplitude to dB (20*log10).
// Zero maps to -Inf explicitly.
func AmplitudeToDB(amplitude float64) float64 {
	if amplitude == 0 {
		return math.Inf(-1)
	}
	return 20.0 * math.Log10(amplitude)
}

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// StandardDeviation calculates the sample standard deviation
func StandardDeviation(data []float64) float64 {
	if len(data) < 2 {
		return 0.0
	}
	return stat.StdDev(data, nil)
}

// IsPowerOfTwo checks if n is a power of 2
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
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
