package spectral

import (
	"math"
	"math/cmplx"
)

// LogMagnitude converts complex bins to the single-sided log-magnitude spectrum
// shown by the waveform view.
//
// For the first len(bins)/2 bins (DC up to one below Nyquist):
//
//	amplitude = |X[n]| / len(bins)
//	out[n]    = 10*log10(amplitude)
//	out[n]   *= 2 for n != 0
//
// The factor of two is applied to the dB value, not the linear amplitude.
// Consumers depend on this exact curve, so it must not be "corrected".
// Silent bins come out as -Inf.
func LogMagnitude(bins []complex128) []float32 {
	size := len(bins)
	half := size / 2
	out := make([]float32, half)

	for n := range half {
		amplitude := cmplx.Abs(bins[n]) / float64(size)

		var db float64
		if amplitude == 0 {
			db = math.Inf(-1)
		} else {
			db = 10 * math.Log10(amplitude)
		}
		if n != 0 {
			db *= 2
		}
		out[n] = float32(db)
	}

	return out
}
