package transcode

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/RyanBlaney/wave-analyzer/logging"
)

// DecoderConfig holds decoder configuration
type DecoderConfig struct {
	// TargetSampleRate resamples ffmpeg output; 0 keeps the source rate.
	// Native WAV decoding never resamples.
	TargetSampleRate int           `json:"target_sample_rate"`
	MaxDuration      time.Duration `json:"max_duration"`
	FFmpegPath       string        `json:"ffmpeg_path"`  // Path to ffmpeg binary
	FFprobePath      string        `json:"ffprobe_path"` // Path to ffprobe binary
	Timeout          time.Duration `json:"timeout"`      // Timeout for ffmpeg operations
	// DisableNativeWAV sends WAV files through ffmpeg too
	DisableNativeWAV bool `json:"disable_native_wav"`
}

// DefaultDecoderConfig returns default decoder configuration
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		TargetSampleRate: 0,
		MaxDuration:      0, // No limit
		FFmpegPath:       "ffmpeg",
		FFprobePath:      "ffprobe",
		Timeout:          30 * time.Second,
	}
}

// AudioMetadata holds detected audio properties from FFprobe
type AudioMetadata struct {
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	Codec      string  `json:"codec"`
	Duration   float64 `json:"duration"`
	Bitrate    int     `json:"bitrate"`
	Format     string  `json:"format"`
}

// Decoder turns audio files into mono float32 PCM
type Decoder struct {
	config *DecoderConfig
}

// NewDecoder creates a new audio decoder
func NewDecoder(config *DecoderConfig) *Decoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &Decoder{config: config}
}

// DecodeFile decodes an audio file to mono PCM.
// PCM WAV is read natively; everything else goes through ffmpeg.
func (d *Decoder) DecodeFile(ctx context.Context, filename string) (*AudioData, error) {
	logger := logging.WithContext(ctx).WithFields(logging.Fields{
		"component": "audio_decoder",
		"function":  "DecodeFile",
		"filename":  filename,
	})

	logger.Debug("Starting audio file decode")

	if !d.config.DisableNativeWAV && isWAVPath(filename) {
		f, err := os.Open(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", filename, err)
		}
		defer f.Close()

		audioData, err := decodeWAV(f, filename, logger)
		if err == nil {
			return audioData, nil
		}
		if !errors.Is(err, errUnsupportedWAV) {
			logger.Error(err, "Failed to decode wav file")
			return nil, err
		}
		logger.Debug("Native WAV reader declined, falling back to ffmpeg", logging.Fields{
			"reason": err.Error(),
		})
	}

	metadata, err := d.probe(ctx, filename, nil)
	if err != nil {
		logger.Error(err, "Failed to probe audio file")
		return nil, err
	}

	logger.Debug("Audio metadata detected", logging.Fields{
		"input_sample_rate": metadata.SampleRate,
		"input_channels":    metadata.Channels,
		"input_codec":       metadata.Codec,
		"input_duration":    metadata.Duration,
		"input_bitrate":     metadata.Bitrate,
	})

	output, err := d.runFFmpeg(ctx, filename, nil, metadata, logger)
	if err != nil {
		return nil, err
	}
	return d.processFFmpegOutput(output, metadata, filename, logger)
}

// DecodeReader decodes audio from an io.Reader.
// RIFF/WAVE data is read natively; anything else is piped through ffmpeg.
func (d *Decoder) DecodeReader(ctx context.Context, reader io.Reader) (*AudioData, error) {
	logger := logging.WithContext(ctx).WithFields(logging.Fields{
		"component": "audio_decoder",
		"function":  "DecodeReader",
	})

	data, err := io.ReadAll(reader)
	if err != nil {
		logger.Error(err, "Failed to read data from reader")
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty audio data")
	}

	logger.Debug("Data read from reader", logging.Fields{
		"data_size": len(data),
	})

	if !d.config.DisableNativeWAV && isRIFFWave(data) {
		audioData, err := decodeWAV(bytes.NewReader(data), "", logger)
		if err == nil || !errors.Is(err, errUnsupportedWAV) {
			return audioData, err
		}
	}

	metadata, err := d.probe(ctx, "pipe:0", data)
	if err != nil {
		logger.Error(err, "Failed to probe audio metadata")
		return nil, err
	}

	output, err := d.runFFmpeg(ctx, "pipe:0", data, metadata, logger)
	if err != nil {
		return nil, err
	}
	return d.processFFmpegOutput(output, metadata, "", logger)
}

// NeedsFFmpeg reports whether DecodeFile will shell out to ffmpeg for path.
// Non-PCM WAV files are only discovered once opened, so a false result can
// still fall back to ffmpeg.
func (d *Decoder) NeedsFFmpeg(path string) bool {
	return d.config.DisableNativeWAV || !isWAVPath(path)
}

func isWAVPath(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".wav", ".wave":
		return true
	}
	return false
}

func isRIFFWave(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}

// withTimeout applies the configured timeout on top of ctx
func (d *Decoder) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.config.Timeout > 0 {
		return context.WithTimeout(ctx, d.config.Timeout)
	}
	return context.WithCancel(ctx)
}

// probe runs ffprobe against input; stdin is used when input is "pipe:0"
func (d *Decoder) probe(ctx context.Context, input string, stdin []byte) (*AudioMetadata, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	args := []string{
		"-v", "quiet", // Suppress verbose output
		"-print_format", "json", // JSON output
		"-show_streams",          // Show stream info
		"-select_streams", "a:0", // First audio stream only
		input,
	}

	cmd := exec.CommandContext(ctx, d.config.FFprobePath, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	output, err := cmd.Output()
	if err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return nil, fmt.Errorf("ffprobe failed: %w, stderr: %s", err, string(exitError.Stderr))
		}
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	return parseFFprobeOutput(output)
}

// parseFFprobeOutput parses ffprobe JSON to extract audio metadata
func parseFFprobeOutput(jsonData []byte) (*AudioMetadata, error) {
	var probe struct {
		Streams []struct {
			CodecType     string `json:"codec_type"`
			CodecName     string `json:"codec_name"`
			SampleRate    string `json:"sample_rate"`
			Channels      int    `json:"channels"`
			Duration      string `json:"duration"`
			BitRate       string `json:"bit_rate"`
			CodecLongName string `json:"codec_long_name"`
		} `json:"streams"`
	}

	if err := json.Unmarshal(jsonData, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	if len(probe.Streams) == 0 {
		return nil, fmt.Errorf("no audio streams found")
	}

	stream := probe.Streams[0]
	if stream.CodecType != "audio" {
		return nil, fmt.Errorf("stream is not audio type: %s", stream.CodecType)
	}

	sampleRate, err := strconv.Atoi(stream.SampleRate)
	if err != nil || sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %q", stream.SampleRate)
	}

	duration, err := strconv.ParseFloat(stream.Duration, 64)
	if err != nil {
		duration = 0
	}

	bitrate, err := strconv.Atoi(stream.BitRate)
	if err != nil {
		bitrate = 0
	}

	if stream.Channels <= 0 || stream.Channels > 8 {
		return nil, fmt.Errorf("invalid channel count: %d", stream.Channels)
	}

	return &AudioMetadata{
		SampleRate: sampleRate,
		Channels:   stream.Channels,
		Codec:      stream.CodecName,
		Duration:   duration,
		Bitrate:    bitrate,
		Format:     stream.CodecLongName,
	}, nil
}

// outputSampleRate is the rate ffmpeg is asked to produce
func (d *Decoder) outputSampleRate(metadata *AudioMetadata) int {
	if d.config.TargetSampleRate > 0 {
		return d.config.TargetSampleRate
	}
	return metadata.SampleRate
}

// buildFFmpegArgs builds mono f32le output arguments for input
func (d *Decoder) buildFFmpegArgs(input string, metadata *AudioMetadata) []string {
	args := []string{"-v", "error", "-i", input}

	if d.config.MaxDuration > 0 {
		args = append(args, "-t", fmt.Sprintf("%.3f", d.config.MaxDuration.Seconds()))
	}

	args = append(args,
		"-map", "0:a:0",
		"-vn",
		"-f", "f32le",
		"-ac", "1",
		"-ar", strconv.Itoa(d.outputSampleRate(metadata)),
		"pipe:1",
	)
	return args
}

func (d *Decoder) runFFmpeg(ctx context.Context, input string, stdin []byte, metadata *AudioMetadata, logger logging.Logger) ([]byte, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	args := d.buildFFmpegArgs(input, metadata)
	cmd := exec.CommandContext(ctx, d.config.FFmpegPath, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	logger.Debug("Running ffmpeg command", logging.Fields{
		"args": strings.Join(args, " "),
	})

	startTime := time.Now()
	output, err := cmd.Output()
	if err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			logger.Error(err, "FFmpeg decode failed", logging.Fields{
				"stderr": string(exitError.Stderr),
			})
			return nil, fmt.Errorf("ffmpeg decode failed: %w, stderr: %s", err, string(exitError.Stderr))
		}
		return nil, fmt.Errorf("ffmpeg decode failed: %w", err)
	}

	logger.Debug("FFmpeg decode completed", logging.Fields{
		"output_bytes": len(output),
		"decode_time":  time.Since(startTime).Seconds(),
	})

	return output, nil
}

// processFFmpegOutput turns raw f32le output into AudioData
func (d *Decoder) processFFmpegOutput(output []byte, inputMetadata *AudioMetadata, path string, logger logging.Logger) (*AudioData, error) {
	samples := bytesToFloat32(output)
	if len(samples) == 0 {
		return nil, fmt.Errorf("no audio samples decoded")
	}

	sampleRate := float64(d.outputSampleRate(inputMetadata))
	duration := durationOf(len(samples), sampleRate)

	logger.Debug("FFmpeg output processed", logging.Fields{
		"input_sample_rate":  inputMetadata.SampleRate,
		"input_channels":     inputMetadata.Channels,
		"input_codec":        inputMetadata.Codec,
		"output_samples":     len(samples),
		"output_sample_rate": sampleRate,
		"output_duration":    duration.Seconds(),
	})

	now := time.Now()
	return &AudioData{
		PCM:        samples,
		SampleRate: sampleRate,
		Channels:   inputMetadata.Channels,
		Duration:   duration,
		Timestamp:  now,
		Metadata: &StreamMetadata{
			Path:        path,
			Decoder:     "ffmpeg",
			Codec:       inputMetadata.Codec,
			ContentType: getContentTypeFromCodec(inputMetadata.Codec),
			Bitrate:     inputMetadata.Bitrate,
			SampleRate:  int(sampleRate),
			Channels:    inputMetadata.Channels,
			Timestamp:   now,
		},
	}, nil
}

// getContentTypeFromCodec maps codec to content type
func getContentTypeFromCodec(codec string) string {
	switch {
	case codec == "aac":
		return "audio/aac"
	case codec == "mp3":
		return "audio/mpeg"
	case codec == "flac":
		return "audio/flac"
	case codec == "vorbis":
		return "audio/ogg"
	case codec == "opus":
		return "audio/opus"
	case strings.HasPrefix(codec, "pcm_"):
		return "audio/wav"
	default:
		return "audio/unknown"
	}
}

// ValidateConfig validates the decoder configuration
func (d *Decoder) ValidateConfig() error {
	if d.config.TargetSampleRate < 0 {
		return fmt.Errorf("target sample rate must not be negative: %d", d.config.TargetSampleRate)
	}
	if d.config.MaxDuration < 0 {
		return fmt.Errorf("max duration must not be negative: %v", d.config.MaxDuration)
	}
	if d.config.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive: %v", d.config.Timeout)
	}
	return nil
}

// CheckFFmpegAvailability checks if ffmpeg and ffprobe are on the configured paths
func (d *Decoder) CheckFFmpegAvailability(ctx context.Context) error {
	if err := exec.CommandContext(ctx, d.config.FFmpegPath, "-version").Run(); err != nil {
		return fmt.Errorf("ffmpeg not found at %s: %w", d.config.FFmpegPath, err)
	}
	if err := exec.CommandContext(ctx, d.config.FFprobePath, "-version").Run(); err != nil {
		return fmt.Errorf("ffprobe not found at %s: %w", d.config.FFprobePath, err)
	}
	return nil
}

// GetConfig returns decoder configuration information
func (d *Decoder) GetConfig() map[string]any {
	return map[string]any{
		"target_sample_rate": d.config.TargetSampleRate,
		"max_duration":       d.config.MaxDuration,
		"ffmpeg_path":        d.config.FFmpegPath,
		"ffprobe_path":       d.config.FFprobePath,
		"timeout":            d.config.Timeout,
		"native_wav":         !d.config.DisableNativeWAV,
	}
}
