package analyzer

import (
	"math"

	"github.com/RyanBlaney/wave-analyzer/algorithms/common"
)

// TimeStats holds the time-domain half of a WaveStats
type TimeStats struct {
	LengthSamples   int     `json:"length_samples"`
	LengthSeconds   float64 `json:"length_seconds"`
	RMSFraction     float64 `json:"rms_fraction"`
	RMSDB           float64 `json:"rms_db"`
	PeakFraction    float64 `json:"peak_fraction"`
	PeakIndex       int     `json:"peak_index"`
	PeakDB          float64 `json:"peak_db"`
	PeakTimeSeconds float64 `json:"peak_time_seconds"`
}

// ComputeTimeStats measures length, RMS and peak of a mono buffer.
//
// An empty buffer is not an error: every amplitude is 0, the peak index is 0
// and both dB values are -Inf. A non-positive sample rate fails with
// ErrInvalidConfiguration before anything is computed.
func ComputeTimeStats(samples []float32, sampleRate float64) (TimeStats, error) {
	if err := validateSampleRate(sampleRate); err != nil {
		return TimeStats{}, err
	}

	n := len(samples)
	if n == 0 {
		return TimeStats{
			RMSDB:  math.Inf(-1),
			PeakDB: math.Inf(-1),
		}, nil
	}

	signal := common.ToFloat64(samples)
	rms := common.RMS(signal)
	peak, peakIdx := common.Peak(signal)

	return TimeStats{
		LengthSamples:   n,
		LengthSeconds:   float64(n) / sampleRate,
		RMSFraction:     rms,
		RMSDB:           common.AmplitudeToDB(rms),
		PeakFraction:    peak,
		PeakIndex:       peakIdx,
		PeakDB:          common.AmplitudeToDB(peak),
		PeakTimeSeconds: float64(peakIdx) / sampleRate,
	}, nil
}
