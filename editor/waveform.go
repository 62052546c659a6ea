package editor

import (
	"github.com/RyanBlaney/wave-analyzer/algorithms/common"
	"gonum.org/v1/gonum/floats"
)

// Decimate reduces samples to at most points values for plotting by keeping
// every ceil(n/points)-th sample, starting with the first.
// points <= 0 or points >= len(samples) returns a copy of samples.
func Decimate(samples []float32, points int) []float32 {
	n := len(samples)
	if points <= 0 || points >= n {
		out := make([]float32, n)
		copy(out, samples)
		return out
	}

	step := (n + points - 1) / points
	out := make([]float32, 0, points)
	for i := 0; i < n; i += step {
		out = append(out, samples[i])
	}
	return out
}

// WaveformSummary describes a decimated waveform
type WaveformSummary struct {
	Points int     `json:"points"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// Summarize computes range and moments of waveform points
func Summarize(points []float32) WaveformSummary {
	if len(points) == 0 {
		return WaveformSummary{}
	}

	data := common.ToFloat64(points)
	return WaveformSummary{
		Points: len(data),
		Min:    floats.Min(data),
		Max:    floats.Max(data),
		Mean:   common.Mean(data),
		StdDev: common.StandardDeviation(data),
	}
}
