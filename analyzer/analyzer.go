package analyzer

import (
	"fmt"

	"github.com/RyanBlaney/wave-analyzer/algorithms/spectral"
	"github.com/RyanBlaney/wave-analyzer/algorithms/windowing"
	"github.com/RyanBlaney/wave-analyzer/logging"
)

// WaveStats is an immutable snapshot of one analysis run
type WaveStats struct {
	TimeStats

	// Spectrum holds FFTSize/2 log-magnitude values in dB, DC first.
	Spectrum []float32 `json:"spectrum"`

	SampleRate float64 `json:"sample_rate"`
	FFTSize    int     `json:"fft_size"`
}

// WaveAnalyzer computes WaveStats for mono buffers.
// It keeps no per-call state: concurrent Analyze calls on disjoint buffers are safe.
type WaveAnalyzer struct {
	config Config
	fft    *spectral.FFT
	window *windowing.Window
	logger logging.Logger
}

// NewWaveAnalyzer validates config and builds an analyzer
func NewWaveAnalyzer(config Config) (*WaveAnalyzer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Window == "" {
		config.Window = windowing.Rectangular
	}

	fft, err := spectral.NewFFT(config.FFTSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}

	window, err := windowing.New(config.Window, config.FFTSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}

	return &WaveAnalyzer{
		config: config,
		fft:    fft,
		window: window,
		logger: logging.WithFields(logging.Fields{
			"component": "wave_analyzer",
			"fft_size":  config.FFTSize,
			"window":    string(config.Window),
		}),
	}, nil
}

// Config returns the analyzer's settings
func (wa *WaveAnalyzer) Config() Config {
	return wa.config
}

// SpectrumLength is the fixed number of bins in every spectrum this analyzer returns
func (wa *WaveAnalyzer) SpectrumLength() int {
	return wa.config.FFTSize / 2
}

// BinFrequency maps a spectrum bin to Hz for the given sample rate
func (wa *WaveAnalyzer) BinFrequency(bin int, sampleRate float64) float64 {
	return wa.fft.BinFrequency(bin, sampleRate)
}

// Analyze computes time-domain statistics and the spectrum of samples.
// The buffer is only read, and only for the duration of the call.
func (wa *WaveAnalyzer) Analyze(samples []float32, sampleRate float64) (*WaveStats, error) {
	timeStats, err := ComputeTimeStats(samples, sampleRate)
	if err != nil {
		return nil, err
	}

	spectrum, err := wa.ComputeSpectrum(samples)
	if err != nil {
		return nil, err
	}

	stats := &WaveStats{
		TimeStats:  timeStats,
		Spectrum:   spectrum,
		SampleRate: sampleRate,
		FFTSize:    wa.config.FFTSize,
	}

	wa.logger.Debug("Wave analysis completed", logging.Fields{
		"length_samples":    stats.LengthSamples,
		"length_seconds":    stats.LengthSeconds,
		"rms_fraction":      stats.RMSFraction,
		"rms_db":            stats.RMSDB,
		"peak_fraction":     stats.PeakFraction,
		"peak_db":           stats.PeakDB,
		"peak_index":        stats.PeakIndex,
		"peak_time_seconds": stats.PeakTimeSeconds,
	})

	return stats, nil
}

// ComputeSpectrum returns the FFTSize/2-bin log-magnitude spectrum of the first
// FFTSize samples. Short buffers are zero-padded and long ones truncated, so the
// output length never depends on the input length.
func (wa *WaveAnalyzer) ComputeSpectrum(samples []float32) ([]float32, error) {
	frame := wa.fft.Frame(samples)
	if err := wa.window.ApplyInPlace(frame); err != nil {
		return nil, err
	}

	bins, err := wa.fft.Compute(frame)
	if err != nil {
		return nil, err
	}

	return spectral.LogMagnitude(bins), nil
}
