package spectral

import (
	"fmt"

	"github.com/RyanBlaney/wave-analyzer/algorithms/common"
	"github.com/mjibson/go-dsp/fft"
)

// FFT is a fixed-size real-input transform.
// It holds no per-call state, so one FFT can serve concurrent callers.
type FFT struct {
	size int
}

// NewFFT creates a transform of the given size. The size must be a power of two >= 2.
func NewFFT(size int) (*FFT, error) {
	if size < 2 || !common.IsPowerOfTwo(size) {
		return nil, fmt.Errorf("fft size %d is not a power of two >= 2 (next valid: %d)",
			size, max(2, common.NextPowerOfTwo(size)))
	}
	return &FFT{size: size}, nil
}

// Size returns the transform length
func (f *FFT) Size() int {
	return f.size
}

// Frame copies the first Size() samples into a fresh float64 frame.
// Shorter inputs are zero-padded, longer ones truncated.
func (f *FFT) Frame(samples []float32) []float64 {
	frame := make([]float64, f.size)
	n := min(len(samples), f.size)
	for i := range n {
		frame[i] = float64(samples[i])
	}
	return frame
}

// Compute runs the transform on a frame of exactly Size() samples and returns
// all Size() complex bins.
func (f *FFT) Compute(frame []float64) ([]complex128, error) {
	if len(frame) != f.size {
		return nil, fmt.Errorf("frame length (%d) doesn't match fft size (%d)", len(frame), f.size)
	}

	// go-dsp takes the radix-2 path for power-of-two sizes
	return fft.FFTReal(frame), nil
}

// BinFrequency returns the centre frequency in Hz of a bin
func (f *FFT) BinFrequency(bin int, sampleRate float64) float64 {
	return float64(bin) * sampleRate / float64(f.size)
}

// BinFrequencies returns the centre frequency of each of the first n bins
func (f *FFT) BinFrequencies(n int, sampleRate float64) []float64 {
	freqs := make([]float64, n)
	for i := range n {
		freqs[i] = f.BinFrequency(i, sampleRate)
	}
	return freqs
}
