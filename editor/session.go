package editor

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/RyanBlaney/wave-analyzer/analyzer"
	"github.com/RyanBlaney/wave-analyzer/logging"
	"github.com/RyanBlaney/wave-analyzer/transcode"
)

// DefaultWaveformPoints is the plot resolution used when none is configured
const DefaultWaveformPoints = 2048

// Session keeps the most recent analysis of a loaded file.
// Loads replace the snapshot wholesale; readers always see a complete one.
type Session struct {
	analyzer *analyzer.WaveAnalyzer
	decoder  *transcode.Decoder
	points   int
	logger   logging.Logger

	mu       sync.RWMutex
	source   string
	stats    *analyzer.WaveStats
	samples  []float32
	waveform []float32
}

// NewSession creates an empty session. A nil decoder gets the default one,
// points <= 0 uses DefaultWaveformPoints.
func NewSession(wa *analyzer.WaveAnalyzer, decoder *transcode.Decoder, points int) (*Session, error) {
	if wa == nil {
		return nil, fmt.Errorf("analyzer is required")
	}
	if decoder == nil {
		decoder = transcode.NewDecoder(nil)
	}
	if points <= 0 {
		points = DefaultWaveformPoints
	}

	return &Session{
		analyzer: wa,
		decoder:  decoder,
		points:   points,
		logger: logging.WithFields(logging.Fields{
			"component": "editor_session",
		}),
	}, nil
}

// Load decodes path, analyzes it and replaces the current snapshot.
// On error the previous snapshot is kept.
func (s *Session) Load(ctx context.Context, path string) error {
	logger := s.logger.WithContext(ctx).WithFields(logging.Fields{
		"function": "Load",
		"path":     path,
	})

	audioData, err := s.decoder.DecodeFile(ctx, path)
	if err != nil {
		logger.Error(err, "Failed to decode audio file")
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return s.load(path, audioData.PCM, audioData.SampleRate, logger)
}

// LoadSamples analyzes an already decoded mono buffer and replaces the
// current snapshot. The session keeps its own copy of samples.
func (s *Session) LoadSamples(samples []float32, sampleRate float64) error {
	return s.load("", slices.Clone(samples), sampleRate, s.logger.WithFields(logging.Fields{
		"function": "LoadSamples",
	}))
}

// load takes ownership of samples
func (s *Session) load(source string, samples []float32, sampleRate float64, logger logging.Logger) error {
	stats, err := s.analyzer.Analyze(samples, sampleRate)
	if err != nil {
		logger.Error(err, "Analysis failed")
		return err
	}

	waveform := Decimate(samples, s.points)
	summary := Summarize(waveform)

	logger.Debug("Waveform prepared", logging.Fields{
		"samples":         len(samples),
		"waveform_points": summary.Points,
		"waveform_min":    summary.Min,
		"waveform_max":    summary.Max,
		"waveform_mean":   summary.Mean,
		"waveform_stddev": summary.StdDev,
	})

	s.mu.Lock()
	s.source = source
	s.stats = stats
	s.samples = samples
	s.waveform = waveform
	s.mu.Unlock()

	logger.Info("Analysis snapshot updated", logging.Fields{
		"length_seconds": stats.LengthSeconds,
		"peak_db":        stats.PeakDB,
	})
	return nil
}

// Stats returns a copy of the current snapshot, or nil before the first load
func (s *Session) Stats() *analyzer.WaveStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.stats == nil {
		return nil
	}
	stats := *s.stats
	stats.Spectrum = slices.Clone(s.stats.Spectrum)
	return &stats
}

// Waveform returns a copy of the decimated waveform
func (s *Session) Waveform() []float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.waveform)
}

// Samples returns a copy of the full loaded buffer
func (s *Session) Samples() []float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.samples)
}

// Source is the path of the last successful Load, empty for LoadSamples
func (s *Session) Source() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

// Report formats the current snapshot
func (s *Session) Report() []string {
	return FormatReport(s.Stats())
}
