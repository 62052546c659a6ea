package transcode

import (
	"encoding/binary"
	"math"
	"time"
)

// AudioData represents decoded mono audio ready for analysis
type AudioData struct {
	PCM        []float32       `json:"-"` // mono samples, nominally in [-1, 1]
	SampleRate float64         `json:"sample_rate"`
	Channels   int             `json:"channels"` // channel count of the source before mixdown
	Duration   time.Duration   `json:"duration"`
	Timestamp  time.Time       `json:"timestamp"`
	Metadata   *StreamMetadata `json:"metadata,omitempty"`
}

// StreamMetadata describes where the audio came from and how it was decoded
type StreamMetadata struct {
	Path        string            `json:"path,omitempty"`
	Decoder     string            `json:"decoder"` // "wav" or "ffmpeg"
	Codec       string            `json:"codec,omitempty"`
	ContentType string            `json:"content_type,omitempty"`
	BitDepth    int               `json:"bit_depth,omitempty"`
	Bitrate     int               `json:"bitrate,omitempty"`
	SampleRate  int               `json:"sample_rate,omitempty"`
	Channels    int               `json:"channels,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

// durationOf converts a mono sample count into wall-clock length
func durationOf(samples int, sampleRate float64) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(samples) / sampleRate * float64(time.Second))
}

// MixToMono averages interleaved frames into one channel.
// A trailing partial frame is dropped.
func MixToMono(interleaved []float32, channels int) []float32 {
	if channels <= 1 {
		out := make([]float32, len(interleaved))
		copy(out, interleaved)
		return out
	}

	frames := len(interleaved) / channels
	mono := make([]float32, frames)
	for i := range frames {
		sum := float32(0)
		for c := range channels {
			sum += interleaved[i*channels+c]
		}
		mono[i] = sum / float32(channels)
	}
	return mono
}

// IntToFloat normalizes integer PCM of the given bit depth to [-1, 1).
// 8-bit WAV data is unsigned and gets re-centred first.
func IntToFloat(data []int, bitDepth int) []float32 {
	out := make([]float32, len(data))
	if bitDepth <= 0 {
		return out
	}

	scale := float64(int64(1) << (bitDepth - 1))
	for i, v := range data {
		if bitDepth == 8 {
			v -= 128
		}
		out[i] = float32(float64(v) / scale)
	}
	return out
}

// bytesToFloat32 converts raw f32le bytes to samples. A trailing partial sample is dropped.
func bytesToFloat32(data []byte) []float32 {
	data = data[:len(data)-(len(data)%4)]
	if len(data) == 0 {
		return nil
	}

	samples := make([]float32, len(data)/4)
	for i := range samples {
		bits := binary.LittleEndian.Uint32(data[i*4 : i*4+4])
		samples[i] = math.Float32frombits(bits)
	}
	return samples
}
