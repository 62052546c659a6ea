package editor

import (
	"fmt"
	"strconv"

	"github.com/RyanBlaney/wave-analyzer/algorithms/spectral"
	"github.com/RyanBlaney/wave-analyzer/analyzer"
)

// ReportLine is one labeled value of a text report
type ReportLine struct {
	Label string
	Value string
}

func (l ReportLine) String() string {
	return l.Label + ": " + l.Value
}

// ReportLines builds the labeled report for stats.
// Non-finite dB values print as -inf, +inf or nan.
func ReportLines(stats *analyzer.WaveStats) []ReportLine {
	if stats == nil {
		return nil
	}

	return []ReportLine{
		{"Length (samples)", strconv.Itoa(stats.LengthSamples)},
		{"Length (seconds)", formatValue(stats.LengthSeconds)},
		{"RMS", formatValue(stats.RMSFraction)},
		{"RMS (dB FS)", formatValue(stats.RMSDB)},
		{"Peak", formatValue(stats.PeakFraction)},
		{"Peak (dB FS)", formatValue(stats.PeakDB)},
		{"Peak index", strconv.Itoa(stats.PeakIndex)},
		{"Peak time (seconds)", formatValue(stats.PeakTimeSeconds)},
	}
}

// FormatReport renders stats as "Label: value" lines
func FormatReport(stats *analyzer.WaveStats) []string {
	lines := ReportLines(stats)
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = line.String()
	}
	return out
}

func formatValue(v float64) string {
	return analyzer.FormatFloat(v, 'f', 6, false)
}

// CurvePoint is one spectrum bin placed on a frequency axis
type CurvePoint struct {
	FrequencyHz float64 `json:"frequency_hz"`
	DB          float64 `json:"db"`
}

func (p CurvePoint) String() string {
	return fmt.Sprintf("%.1f Hz %s dB", p.FrequencyHz, analyzer.FormatFloat(p.DB, 'f', 2, false))
}

// SpectrumCurve maps every spectrum bin of stats to its centre frequency.
// Stats without a valid FFT size yield nil.
func SpectrumCurve(stats *analyzer.WaveStats) []CurvePoint {
	if stats == nil {
		return nil
	}
	fft, err := spectral.NewFFT(stats.FFTSize)
	if err != nil {
		return nil
	}

	freqs := fft.BinFrequencies(len(stats.Spectrum), stats.SampleRate)
	curve := make([]CurvePoint, len(stats.Spectrum))
	for i, db := range stats.Spectrum {
		curve[i] = CurvePoint{FrequencyHz: freqs[i], DB: float64(db)}
	}
	return curve
}
