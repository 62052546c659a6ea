package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/RyanBlaney/wave-analyzer/algorithms/windowing"
	"github.com/RyanBlaney/wave-analyzer/analyzer"
	"github.com/RyanBlaney/wave-analyzer/editor"
	"github.com/RyanBlaney/wave-analyzer/logging"
	"github.com/RyanBlaney/wave-analyzer/transcode"
	"github.com/alecthomas/kong"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	version = "0.1.0"
)

// CLI defines the command-line interface
type CLI struct {
	Version     bool            `short:"v" help:"Show version information"`
	Config      kong.ConfigFlag `short:"c" help:"Path to JSON config file (optional)"`
	FFTSize     int             `name:"fft-size" default:"1024" help:"Spectrum FFT size, a power of two"`
	Window      string          `default:"rectangular" enum:"${windows}" help:"Analysis window applied before the FFT (${windows})"`
	Points      int             `default:"2048" help:"Waveform points kept for plotting"`
	JSON        bool            `name:"json" help:"Print results as JSON"`
	LogLevel    string          `name:"log-level" default:"warn" enum:"debug,info,warn,error" help:"Log level"`
	LogFormat   string          `name:"log-format" default:"console" enum:"console,json" help:"Log encoding on stderr"`
	FFmpeg      string          `name:"ffmpeg" default:"ffmpeg" help:"ffmpeg binary for non-WAV input"`
	FFprobe     string          `name:"ffprobe" default:"ffprobe" help:"ffprobe binary for non-WAV input"`
	Timeout     time.Duration   `default:"30s" help:"Decode timeout per file"`
	MaxDuration time.Duration   `name:"max-duration" default:"0s" help:"Decode at most this much audio from non-WAV input (0 = all)"`
	Files       []string        `arg:"" name:"files" help:"Audio files to analyze" type:"existingfile" optional:""`
}

// fileResult is the JSON shape of one analyzed file
type fileResult struct {
	File     string                 `json:"file"`
	Stats    *analyzer.WaveStats    `json:"stats"`
	Waveform editor.WaveformSummary `json:"waveform"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	out := newPrinter(stdout)
	errOut := newPrinter(stderr)

	cli := &CLI{}
	exitCode := -1
	parser, err := kong.New(cli,
		kong.Name("waving"),
		kong.Description("Waveform statistics and spectrum for audio files"),
		kong.UsageOnError(),
		kong.Configuration(kong.JSON),
		kong.Writers(stdout, stderr),
		kong.Exit(func(code int) { exitCode = code }),
		kong.Vars{
			"version": version,
			"windows": windowNames(),
		},
	)
	if err != nil {
		errOut.Error(err.Error())
		return 2
	}

	_, err = parser.Parse(args)
	if exitCode >= 0 {
		return exitCode
	}
	if err != nil {
		errOut.Error(err.Error())
		return 2
	}

	if cli.Version {
		out.Version(version)
		return 0
	}

	if len(cli.Files) == 0 {
		errOut.Error("No input files specified")
		return 1
	}

	zl := newCLILogger(stderr, cli.LogFormat, logging.ParseLevel(cli.LogLevel))
	logging.SetGlobalLogger(zl)
	defer zl.Sync()

	wa, err := analyzer.NewWaveAnalyzer(analyzer.Config{
		FFTSize: cli.FFTSize,
		Window:  windowing.Type(cli.Window),
	})
	if err != nil {
		errOut.Error(err.Error())
		return 1
	}

	decoderConfig := transcode.DefaultDecoderConfig()
	decoderConfig.FFmpegPath = cli.FFmpeg
	decoderConfig.FFprobePath = cli.FFprobe
	decoderConfig.Timeout = cli.Timeout
	decoderConfig.MaxDuration = cli.MaxDuration
	decoder := transcode.NewDecoder(decoderConfig)
	if err := decoder.ValidateConfig(); err != nil {
		errOut.Error(err.Error())
		return 1
	}

	session, err := editor.NewSession(wa, decoder, cli.Points)
	if err != nil {
		errOut.Error(err.Error())
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := logging.WithFields(logging.Fields{
		"component": "waving",
		"fft_size":  cli.FFTSize,
		"window":    cli.Window,
	})

	logger.Debug("Decoder configured", logging.Fields(decoder.GetConfig()))

	// checked once, on the first file that needs ffmpeg
	var ffmpegErr error
	ffmpegChecked := false

	results := []fileResult{}
	failed := 0
	for _, path := range cli.Files {
		if decoder.NeedsFFmpeg(path) {
			if !ffmpegChecked {
				ffmpegErr = decoder.CheckFFmpegAvailability(ctx)
				ffmpegChecked = true
			}
			if ffmpegErr != nil {
				errOut.Error(fmt.Sprintf("%s: %v", path, ffmpegErr))
				failed++
				continue
			}
		}

		if err := session.Load(ctx, path); err != nil {
			logger.Warn("Skipping file", logging.Fields{"path": path, "error": err.Error()})
			errOut.Error(err.Error())
			failed++
			continue
		}

		if cli.JSON {
			results = append(results, fileResult{
				File:     path,
				Stats:    session.Stats(),
				Waveform: editor.Summarize(session.Waveform()),
			})
			continue
		}
		out.Report(path, session)
	}

	if cli.JSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			errOut.Error(fmt.Sprintf("encode results: %v", err))
			return 1
		}
	}

	logger.Info("Analysis finished", logging.Fields{
		"files":  len(cli.Files),
		"failed": failed,
	})

	if failed > 0 {
		return 1
	}
	return 0
}

// newCLILogger builds a zap logger on w, JSON or human-readable console lines
func newCLILogger(w io.Writer, format string, level logging.Level) *logging.ZapLogger {
	if format == "json" {
		return logging.NewZapLogger(w, level)
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.TimeOnly)
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(w),
		zapcore.DebugLevel,
	)
	return logging.NewZapLoggerFromCore(core, level)
}

func windowNames() string {
	names := make([]string, 0, len(windowing.Types()))
	for _, t := range windowing.Types() {
		names = append(names, string(t))
	}
	return strings.Join(names, ",")
}
