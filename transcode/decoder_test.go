package transcode

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/RyanBlaney/wave-analyzer/logging"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func init() {
	logging.SetGlobalLogger(nil)
}

// writeWAV encodes interleaved integer samples to a temp .wav file
func writeWAV(t *testing.T, name string, sampleRate, bitDepth, channels int, data []int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, bitDepth, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	return path
}

func TestDecodeFileMonoWAV(t *testing.T) {
	path := writeWAV(t, "mono.wav", 8000, 16, 1, []int{0, 16384, -16384, 32767, -32768})

	audioData, err := NewDecoder(nil).DecodeFile(context.Background(), path)
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}

	want := []float32{0, 0.5, -0.5, 32767.0 / 32768.0, -1}
	if len(audioData.PCM) != len(want) {
		t.Fatalf("len(PCM) = %d, want %d", len(audioData.PCM), len(want))
	}
	for i := range want {
		if math.Abs(float64(audioData.PCM[i]-want[i])) > 1e-6 {
			t.Errorf("PCM[%d] = %v, want %v", i, audioData.PCM[i], want[i])
		}
	}

	if audioData.SampleRate != 8000 {
		t.Errorf("SampleRate = %v, want 8000", audioData.SampleRate)
	}
	if audioData.Channels != 1 {
		t.Errorf("Channels = %d, want 1", audioData.Channels)
	}
	if audioData.Metadata == nil || audioData.Metadata.Decoder != "wav" || audioData.Metadata.BitDepth != 16 {
		t.Errorf("unexpected metadata: %+v", audioData.Metadata)
	}
}

func TestDecodeFileStereoMixesDown(t *testing.T) {
	// L/R frames: (0.5, -0.5), (0.5, 0.5), (0, -1)
	data := []int{16384, -16384, 16384, 16384, 0, -32768}
	path := writeWAV(t, "stereo.wav", 44100, 16, 2, data)

	audioData, err := NewDecoder(nil).DecodeFile(context.Background(), path)
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}

	want := []float32{0, 0.5, -0.5}
	if len(audioData.PCM) != len(want) {
		t.Fatalf("len(PCM) = %d, want %d", len(audioData.PCM), len(want))
	}
	for i := range want {
		if math.Abs(float64(audioData.PCM[i]-want[i])) > 1e-6 {
			t.Errorf("PCM[%d] = %v, want %v", i, audioData.PCM[i], want[i])
		}
	}
	if audioData.Channels != 2 {
		t.Errorf("Channels = %d, want source count 2", audioData.Channels)
	}
}

func TestDecodeFileDuration(t *testing.T) {
	path := writeWAV(t, "second.wav", 8000, 16, 1, make([]int, 8000))

	audioData, err := NewDecoder(nil).DecodeFile(context.Background(), path)
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	if audioData.Duration != time.Second {
		t.Errorf("Duration = %v, want 1s", audioData.Duration)
	}
}

func TestDecodeReaderWAV(t *testing.T) {
	path := writeWAV(t, "reader.wav", 22050, 16, 1, []int{1000, -1000, 2000})
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	audioData, err := NewDecoder(nil).DecodeReader(context.Background(), bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("DecodeReader: %v", err)
	}
	if len(audioData.PCM) != 3 || audioData.SampleRate != 22050 {
		t.Errorf("got %d samples at %v Hz", len(audioData.PCM), audioData.SampleRate)
	}
}

func TestDecodeReaderEmpty(t *testing.T) {
	if _, err := NewDecoder(nil).DecodeReader(context.Background(), bytes.NewReader(nil)); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestDecodeFileMissing(t *testing.T) {
	_, err := NewDecoder(nil).DecodeFile(context.Background(), filepath.Join(t.TempDir(), "nope.wav"))
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDecodeFileInvalidWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.wav")
	if err := os.WriteFile(path, []byte("definitely not riff data"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := NewDecoder(nil).DecodeFile(context.Background(), path)
	if err == nil {
		t.Error("expected error for invalid wav")
	}
}

func TestDecodeFileNonWAVWithoutFFprobe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp3")
	if err := os.WriteFile(path, []byte{0xFF, 0xFB, 0x90, 0x00}, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	config := DefaultDecoderConfig()
	config.FFprobePath = filepath.Join(t.TempDir(), "missing-ffprobe")
	_, err := NewDecoder(config).DecodeFile(context.Background(), path)
	if err == nil || !strings.Contains(err.Error(), "ffprobe failed") {
		t.Errorf("error = %v, want ffprobe failure", err)
	}
}

func TestMixToMono(t *testing.T) {
	got := MixToMono([]float32{1, 0, 0.5, 0.5, 1}, 2)
	want := []float32{0.5, 0.5}
	if !slices.Equal(got, want) {
		t.Errorf("MixToMono = %v, want %v", got, want)
	}

	in := []float32{0.1, 0.2}
	mono := MixToMono(in, 1)
	mono[0] = 9
	if in[0] != 0.1 {
		t.Error("MixToMono aliased a mono input")
	}
}

func TestIntToFloat(t *testing.T) {
	tests := []struct {
		name     string
		data     []int
		bitDepth int
		want     []float32
	}{
		{"8-bit unsigned", []int{128, 255, 0}, 8, []float32{0, 127.0 / 128.0, -1}},
		{"16-bit", []int{0, -32768, 16384}, 16, []float32{0, -1, 0.5}},
		{"24-bit", []int{4194304, -8388608}, 24, []float32{0.5, -1}},
		{"bad depth", []int{5}, 0, []float32{0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IntToFloat(tt.data, tt.bitDepth)
			for i := range tt.want {
				if math.Abs(float64(got[i]-tt.want[i])) > 1e-7 {
					t.Errorf("got[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestBytesToFloat32(t *testing.T) {
	raw := make([]byte, 0, 10)
	for _, v := range []float32{0.25, -1} {
		raw = binary.LittleEndian.AppendUint32(raw, math.Float32bits(v))
	}
	raw = append(raw, 0x01, 0x02) // partial trailing sample

	got := bytesToFloat32(raw)
	if !slices.Equal(got, []float32{0.25, -1}) {
		t.Errorf("bytesToFloat32 = %v", got)
	}
	if bytesToFloat32([]byte{1, 2, 3}) != nil {
		t.Error("expected nil for less than one sample")
	}
}

func TestParseFFprobeOutput(t *testing.T) {
	good := []byte(`{"streams":[{"codec_type":"audio","codec_name":"mp3","sample_rate":"48000","channels":2,"duration":"3.5","bit_rate":"128000","codec_long_name":"MP3"}]}`)
	meta, err := parseFFprobeOutput(good)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if meta.SampleRate != 48000 || meta.Channels != 2 || meta.Codec != "mp3" || meta.Duration != 3.5 || meta.Bitrate != 128000 {
		t.Errorf("unexpected metadata: %+v", meta)
	}

	bad := map[string]string{
		"no streams":  `{"streams":[]}`,
		"video":       `{"streams":[{"codec_type":"video","sample_rate":"48000","channels":2}]}`,
		"bad rate":    `{"streams":[{"codec_type":"audio","sample_rate":"x","channels":2}]}`,
		"no channels": `{"streams":[{"codec_type":"audio","sample_rate":"48000","channels":0}]}`,
		"not json":    `{`,
	}
	for name, in := range bad {
		if _, err := parseFFprobeOutput([]byte(in)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestBuildFFmpegArgs(t *testing.T) {
	meta := &AudioMetadata{SampleRate: 48000, Channels: 2}

	args := NewDecoder(nil).buildFFmpegArgs("in.flac", meta)
	joined := strings.Join(args, " ")
	for _, want := range []string{"-i in.flac", "-f f32le", "-ac 1", "-ar 48000", "pipe:1"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args %q missing %q", joined, want)
		}
	}
	if strings.Contains(joined, "-t ") {
		t.Errorf("unexpected duration limit in %q", joined)
	}

	config := DefaultDecoderConfig()
	config.TargetSampleRate = 22050
	config.MaxDuration = 1500 * time.Millisecond
	joined = strings.Join(NewDecoder(config).buildFFmpegArgs("in.flac", meta), " ")
	if !strings.Contains(joined, "-ar 22050") || !strings.Contains(joined, "-t 1.500") {
		t.Errorf("args %q missing resample/duration", joined)
	}
}

func TestContentTypeFromCodec(t *testing.T) {
	tests := map[string]string{
		"mp3":       "audio/mpeg",
		"flac":      "audio/flac",
		"pcm_s16le": "audio/wav",
		"weird":     "audio/unknown",
	}
	for codec, want := range tests {
		if got := getContentTypeFromCodec(codec); got != want {
			t.Errorf("getContentTypeFromCodec(%q) = %q, want %q", codec, got, want)
		}
	}
}

func TestValidateConfig(t *testing.T) {
	if err := NewDecoder(nil).ValidateConfig(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}

	config := DefaultDecoderConfig()
	config.Timeout = 0
	if err := NewDecoder(config).ValidateConfig(); err == nil {
		t.Error("expected error for zero timeout")
	}

	config = DefaultDecoderConfig()
	config.TargetSampleRate = -1
	if err := NewDecoder(config).ValidateConfig(); err == nil {
		t.Error("expected error for negative sample rate")
	}
}

// extensibleWAV builds a mono WAVE_FORMAT_EXTENSIBLE file at 8 kHz whose
// SubFormat GUID starts with subFormat
func extensibleWAV(subFormat uint16, bitDepth int, data []byte) []byte {
	le := binary.LittleEndian
	blockAlign := bitDepth / 8

	fmtChunk := make([]byte, 0, 40)
	fmtChunk = le.AppendUint16(fmtChunk, 0xFFFE)
	fmtChunk = le.AppendUint16(fmtChunk, 1)
	fmtChunk = le.AppendUint32(fmtChunk, 8000)
	fmtChunk = le.AppendUint32(fmtChunk, uint32(8000*blockAlign))
	fmtChunk = le.AppendUint16(fmtChunk, uint16(blockAlign))
	fmtChunk = le.AppendUint16(fmtChunk, uint16(bitDepth))
	fmtChunk = le.AppendUint16(fmtChunk, 22)
	fmtChunk = le.AppendUint16(fmtChunk, uint16(bitDepth))
	fmtChunk = le.AppendUint32(fmtChunk, 0x4) // front centre
	fmtChunk = le.AppendUint16(fmtChunk, subFormat)
	fmtChunk = append(fmtChunk, 0x00, 0x00, 0x00, 0x00, 0x10, 0x00, 0x80, 0x00, 0x00, 0xAA, 0x00, 0x38, 0x9B, 0x71)

	var out []byte
	out = append(out, "RIFF"...)
	out = le.AppendUint32(out, uint32(4+8+len(fmtChunk)+8+len(data)))
	out = append(out, "WAVE"...)
	out = append(out, "fmt "...)
	out = le.AppendUint32(out, uint32(len(fmtChunk)))
	out = append(out, fmtChunk...)
	out = append(out, "data"...)
	out = le.AppendUint32(out, uint32(len(data)))
	out = append(out, data...)
	return out
}

func TestDecodeWAVRejectsExtensibleFloat(t *testing.T) {
	var data []byte
	for _, v := range []float32{0.5, -0.25, 0.125, 0} {
		data = binary.LittleEndian.AppendUint32(data, math.Float32bits(v))
	}
	raw := extensibleWAV(3, 32, data) // WAVE_FORMAT_IEEE_FLOAT

	_, err := decodeWAV(bytes.NewReader(raw), "", &logging.NoOpLogger{})
	if !errors.Is(err, errUnsupportedWAV) {
		t.Fatalf("decodeWAV error = %v, want errUnsupportedWAV", err)
	}

	// the reader path must hand the file to ffmpeg instead of returning samples
	config := DefaultDecoderConfig()
	config.FFprobePath = filepath.Join(t.TempDir(), "missing-ffprobe")
	audioData, err := NewDecoder(config).DecodeReader(context.Background(), bytes.NewReader(raw))
	if err == nil || !strings.Contains(err.Error(), "ffprobe failed") {
		t.Errorf("DecodeReader = %v, %v; want ffprobe failure", audioData, err)
	}
}

func TestDecodeWAVExtensiblePCM(t *testing.T) {
	var data []byte
	for _, v := range []int16{16384, -8192, 0} {
		data = binary.LittleEndian.AppendUint16(data, uint16(v))
	}
	raw := extensibleWAV(1, 16, data)

	audioData, err := decodeWAV(bytes.NewReader(raw), "", &logging.NoOpLogger{})
	if err != nil {
		t.Fatalf("decodeWAV: %v", err)
	}

	want := []float32{0.5, -0.25, 0}
	if !slices.Equal(audioData.PCM, want) {
		t.Errorf("PCM = %v, want %v", audioData.PCM, want)
	}
}

func TestReadFormatTags(t *testing.T) {
	raw := extensibleWAV(3, 32, make([]byte, 8))
	r := bytes.NewReader(raw)

	tag, sub, err := readFormatTags(r)
	if err != nil {
		t.Fatalf("readFormatTags: %v", err)
	}
	if tag != 0xFFFE || sub != 3 {
		t.Errorf("tags = %#x/%d, want 0xfffe/3", tag, sub)
	}
	if pos, _ := r.Seek(0, io.SeekCurrent); pos != 0 {
		t.Errorf("reader left at %d, want 0", pos)
	}

	if _, _, err := readFormatTags(bytes.NewReader([]byte("RIFF\x04\x00\x00\x00WAVE"))); err == nil {
		t.Error("expected error for a stream without fmt chunk")
	}
}

func TestDecoderConfigSummary(t *testing.T) {
	config := DefaultDecoderConfig()
	config.DisableNativeWAV = true
	summary := NewDecoder(config).GetConfig()

	if summary["ffmpeg_path"] != "ffmpeg" || summary["native_wav"] != false {
		t.Errorf("unexpected config summary: %v", summary)
	}
}

func TestNeedsFFmpeg(t *testing.T) {
	d := NewDecoder(nil)
	for path, want := range map[string]bool{
		"a.wav":  false,
		"B.WAVE": false,
		"c.mp3":  true,
		"d":      true,
	} {
		if got := d.NeedsFFmpeg(path); got != want {
			t.Errorf("NeedsFFmpeg(%q) = %v, want %v", path, got, want)
		}
	}

	config := DefaultDecoderConfig()
	config.DisableNativeWAV = true
	if !NewDecoder(config).NeedsFFmpeg("a.wav") {
		t.Error("wav should need ffmpeg when native decoding is disabled")
	}
}

func TestCheckFFmpegAvailabilityMissingBinary(t *testing.T) {
	config := DefaultDecoderConfig()
	config.FFmpegPath = filepath.Join(t.TempDir(), "missing-ffmpeg")

	err := NewDecoder(config).CheckFFmpegAvailability(context.Background())
	if err == nil || !strings.Contains(err.Error(), "ffmpeg not found") {
		t.Errorf("error = %v, want ffmpeg not found", err)
	}
}
