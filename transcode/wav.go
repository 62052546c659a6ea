package transcode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/RyanBlaney/wave-analyzer/logging"
	"github.com/go-audio/wav"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// errUnsupportedWAV marks WAV files the native reader can't handle (float, ADPCM, ...).
// DecodeFile falls back to ffmpeg on it.
var errUnsupportedWAV = errors.New("unsupported wav encoding")

// decodeWAV reads integer PCM WAV natively and mixes it down to mono
func decodeWAV(r io.ReadSeeker, path string, logger logging.Logger) (*AudioData, error) {
	formatTag, subFormat, err := readFormatTags(r)
	if err != nil {
		return nil, fmt.Errorf("invalid wav file: %w", err)
	}
	if formatTag == wavFormatExtensible && subFormat != wavFormatPCM {
		return nil, fmt.Errorf("%w: extensible sub-format %d", errUnsupportedWAV, subFormat)
	}

	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("invalid wav file")
	}

	if decoder.WavAudioFormat != wavFormatPCM && decoder.WavAudioFormat != wavFormatExtensible {
		return nil, fmt.Errorf("%w: format tag %d", errUnsupportedWAV, decoder.WavAudioFormat)
	}

	bitDepth := int(decoder.BitDepth)
	switch bitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d-bit samples", errUnsupportedWAV, bitDepth)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read wav samples: %w", err)
	}

	channels := int(decoder.NumChans)
	if buf.Format != nil && buf.Format.NumChannels > 0 {
		channels = buf.Format.NumChannels
	}
	if channels <= 0 {
		return nil, fmt.Errorf("invalid channel count: %d", channels)
	}

	sampleRate := float64(decoder.SampleRate)
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %v", sampleRate)
	}

	pcm := MixToMono(IntToFloat(buf.Data, bitDepth), channels)

	logger.Debug("WAV decode completed", logging.Fields{
		"sample_rate": decoder.SampleRate,
		"channels":    channels,
		"bit_depth":   bitDepth,
		"samples":     len(pcm),
	})

	now := time.Now()
	return &AudioData{
		PCM:        pcm,
		SampleRate: sampleRate,
		Channels:   channels,
		Duration:   durationOf(len(pcm), sampleRate),
		Timestamp:  now,
		Metadata: &StreamMetadata{
			Path:        path,
			Decoder:     "wav",
			Codec:       "pcm",
			ContentType: "audio/wav",
			BitDepth:    bitDepth,
			SampleRate:  int(decoder.SampleRate),
			Channels:    channels,
			Timestamp:   now,
		},
	}, nil
}

// readFormatTags returns the fmt chunk's format tag and, for
// WAVE_FORMAT_EXTENSIBLE, the format code leading its SubFormat GUID.
// go-audio drops the fmt extension bytes, so the GUID is read here.
// r is rewound to the start before returning.
func readFormatTags(r io.ReadSeeker) (formatTag, subFormat uint16, err error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return 0, 0, err
	}
	defer func() {
		if _, seekErr := r.Seek(0, io.SeekStart); err == nil {
			err = seekErr
		}
	}()

	var header [12]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return 0, 0, fmt.Errorf("short riff header: %w", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return 0, 0, fmt.Errorf("not a RIFF/WAVE stream")
	}

	for {
		var chunk [8]byte
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			return 0, 0, fmt.Errorf("fmt chunk not found: %w", err)
		}
		size := int64(binary.LittleEndian.Uint32(chunk[4:8]))

		if string(chunk[0:4]) != "fmt " {
			// chunks are word aligned
			if _, err := r.Seek(size+size%2, io.SeekCurrent); err != nil {
				return 0, 0, err
			}
			continue
		}

		if size < 16 {
			return 0, 0, fmt.Errorf("fmt chunk too short: %d bytes", size)
		}
		body := make([]byte, min(size, 26))
		if _, err := io.ReadFull(r, body); err != nil {
			return 0, 0, fmt.Errorf("short fmt chunk: %w", err)
		}

		formatTag = binary.LittleEndian.Uint16(body[0:2])
		if formatTag != wavFormatExtensible {
			return formatTag, 0, nil
		}
		if len(body) < 26 {
			return 0, 0, fmt.Errorf("extensible fmt chunk too short: %d bytes", size)
		}
		return formatTag, binary.LittleEndian.Uint16(body[24:26]), nil
	}
}
