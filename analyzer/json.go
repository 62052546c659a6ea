package analyzer

import (
	"encoding/json"
	"math"
	"strconv"
)

// DB is a decibel value that survives JSON: encoding/json rejects ±Inf and NaN,
// so non-finite values are written as the strings "-inf", "+inf" and "nan".
type DB float64

func (d DB) MarshalJSON() ([]byte, error) {
	return []byte(FormatFloat(float64(d), 'g', -1, true)), nil
}

// FormatFloat formats v with strconv, spelling non-finite values as -inf, +inf
// and nan. With quoted set the non-finite spellings are wrapped in double quotes.
func FormatFloat(v float64, format byte, prec int, quoted bool) string {
	var s string
	switch {
	case math.IsInf(v, -1):
		s = "-inf"
	case math.IsInf(v, 1):
		s = "+inf"
	case math.IsNaN(v):
		s = "nan"
	default:
		return strconv.FormatFloat(v, format, prec, 64)
	}
	if quoted {
		return `"` + s + `"`
	}
	return s
}

type waveStatsJSON struct {
	LengthSamples   int     `json:"length_samples"`
	LengthSeconds   float64 `json:"length_seconds"`
	RMSFraction     float64 `json:"rms_fraction"`
	RMSDB           DB      `json:"rms_db"`
	PeakFraction    float64 `json:"peak_fraction"`
	PeakIndex       int     `json:"peak_index"`
	PeakDB          DB      `json:"peak_db"`
	PeakTimeSeconds float64 `json:"peak_time_seconds"`
	Spectrum        []DB    `json:"spectrum"`
	SampleRate      float64 `json:"sample_rate"`
	FFTSize         int     `json:"fft_size"`
}

// MarshalJSON encodes the snapshot with non-finite dB values spelled out
func (ws WaveStats) MarshalJSON() ([]byte, error) {
	spectrum := make([]DB, len(ws.Spectrum))
	for i, v := range ws.Spectrum {
		spectrum[i] = DB(v)
	}

	return json.Marshal(waveStatsJSON{
		LengthSamples:   ws.LengthSamples,
		LengthSeconds:   ws.LengthSeconds,
		RMSFraction:     ws.RMSFraction,
		RMSDB:           DB(ws.RMSDB),
		PeakFraction:    ws.PeakFraction,
		PeakIndex:       ws.PeakIndex,
		PeakDB:          DB(ws.PeakDB),
		PeakTimeSeconds: ws.PeakTimeSeconds,
		Spectrum:        spectrum,
		SampleRate:      ws.SampleRate,
		FFTSize:         ws.FFTSize,
	})
}
