package analyzer

import (
	"errors"
	"fmt"
	"math"

	"github.com/RyanBlaney/wave-analyzer/algorithms/common"
	"github.com/RyanBlaney/wave-analyzer/algorithms/windowing"
)

// DefaultFFTSize gives a 512-bin spectrum.
const DefaultFFTSize = 1024

// ErrInvalidConfiguration is wrapped by every error caused by bad analyzer
// settings or a bad sample rate.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Config holds analyzer settings
type Config struct {
	FFTSize int            `json:"fft_size"`
	Window  windowing.Type `json:"window"`
}

// DefaultConfig returns a 1024-point rectangular-window configuration
func DefaultConfig() Config {
	return Config{
		FFTSize: DefaultFFTSize,
		Window:  windowing.Rectangular,
	}
}

// Validate checks the configuration
func (c Config) Validate() error {
	if c.FFTSize < 2 || !common.IsPowerOfTwo(c.FFTSize) {
		return fmt.Errorf("%w: fft size %d must be a power of two >= 2", ErrInvalidConfiguration, c.FFTSize)
	}
	if c.Window != "" && !c.Window.Valid() {
		return fmt.Errorf("%w: unknown window %q (one of %v)", ErrInvalidConfiguration, c.Window, windowing.Types())
	}
	return nil
}

func validateSampleRate(sampleRate float64) error {
	if math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) || sampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive and finite, got %v", ErrInvalidConfiguration, sampleRate)
	}
	return nil
}
