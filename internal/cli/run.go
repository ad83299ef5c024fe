package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/forPelevin/clipcap/internal/config"
	"github.com/forPelevin/clipcap/internal/domain/framing"
	"github.com/forPelevin/clipcap/internal/domain/subtitles"
	"github.com/forPelevin/clipcap/internal/domain/timeline"
	"github.com/forPelevin/clipcap/internal/logging"
	"github.com/forPelevin/clipcap/internal/pipeline"
	"github.com/forPelevin/clipcap/internal/ports/adapters/ytdlp"
	"github.com/forPelevin/clipcap/internal/types"
	"github.com/forPelevin/clipcap/internal/usecase"
)

func run(cmd *cobra.Command, input string) error {
	s, log, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	cfg, err := buildConfig(s, input, log)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, cancel := runContext(s.Timeout)
	defer cancel()

	res, err := pipeline.Run(ctx, cfg)
	if res.ManifestPath != "" {
		printManifest(cmd.OutOrStdout(), res)
	}
	return err
}

func suggest(cmd *cobra.Command, input string) error {
	s, log, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	s.Mode = string(usecase.ModeAuto)
	cfg, err := buildConfig(s, input, log)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, cancel := runContext(s.Timeout)
	defer cancel()

	reqs, err := pipeline.Suggest(ctx, cfg)
	if err != nil {
		return err
	}
	printSuggestions(cmd.OutOrStdout(), reqs)
	return nil
}

func loadSettings(cmd *cobra.Command) (config.Settings, *zap.Logger, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	s, err := config.Load(config.Options{ConfigFile: cfgFile, Flags: cmd.Flags()})
	if err != nil {
		return config.Settings{}, nil, fmt.Errorf("config: %w", err)
	}
	log, err := logging.New(s.LogLevel, s.LogFormat, cmd.ErrOrStderr())
	if err != nil {
		return config.Settings{}, nil, fmt.Errorf("config: %w", err)
	}
	return s, log, nil
}

// runContext bounds the whole run and cancels it on SIGINT/SIGTERM.
func runContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

// buildConfig turns resolved settings into a pipeline config, parsing every
// enum-like value so bad input fails before any work starts.
func buildConfig(s config.Settings, input string, log *zap.Logger) (pipeline.Config, error) {
	mode, err := usecase.ParseMode(s.Mode)
	if err != nil {
		return pipeline.Config{}, err
	}
	ratio, err := framing.ParseRatio(s.Ratio)
	if err != nil {
		return pipeline.Config{}, err
	}
	method, err := framing.ParseMethod(s.Frame)
	if err != nil {
		return pipeline.Config{}, err
	}
	canvas, err := framing.ParseCanvas(s.Canvas, ratio)
	if err != nil {
		return pipeline.Config{}, err
	}
	strategy, err := framing.ParseStrategy(s.Fit)
	if err != nil {
		return pipeline.Config{}, err
	}
	style, err := subtitles.NewStyle(s.FontName, s.FontSize, s.FontColor)
	if err != nil {
		return pipeline.Config{}, err
	}

	var manual []types.ClipRequest
	if mode == usecase.ModeManual {
		if manual, err = s.ManualClips(); err != nil {
			return pipeline.Config{}, err
		}
	}

	in := input
	if !ytdlp.IsURL(input) {
		if abs, err := filepath.Abs(input); err == nil {
			in = abs
		}
	}

	return pipeline.Config{
		Input:    in,
		OutDir:   s.Out,
		CacheDir: s.CacheDir,

		Mode:    mode,
		ClipsN:  s.Clips,
		MinClip: timeline.Seconds(s.MinSec),
		Manual:  manual,

		Ratio:    ratio,
		Method:   method,
		Canvas:   canvas,
		Strategy: strategy,
		Style:    style,

		Workers:        s.Workers,
		TranscriptPath: s.Transcript,

		FFmpegPath: s.FFmpegPath,

		ASR:                 s.ASR,
		WhisperBin:          s.WhisperBin,
		WhisperModel:        s.WhisperModel,
		WhisperURL:          s.WhisperURL,
		WhisperAllowedHosts: s.WhisperAllowedHosts,
		WhisperTimeout:      s.WhisperTimeout,
		Language:            s.Language,

		Ytdlp: ytdlp.Options{
			Bin:            s.YtdlpPath,
			FfmpegLocation: lo.Ternary(s.FFmpegPath == "ffmpeg", "", s.FFmpegPath),
			Proxy:          s.Proxy,
			CookiesFile:    s.CookiesFile,
		},

		Logger: log,
	}, nil
}

func printManifest(w io.Writer, res pipeline.Result) {
	m := res.Manifest
	fmt.Fprintf(w, "%s (%dx%d, %s)\n", res.RunDir, m.Width, m.Height, m.Ratio)
	for _, c := range m.Clips {
		status := c.Status
		if c.Error != "" {
			status += ": " + c.Error
		}
		fmt.Fprintf(w, "  %s  %-24s %s-%s  %d captions  %s\n",
			c.ID, c.Name,
			timeline.FormatTimestamp(timeline.Seconds(c.StartSec)),
			timeline.FormatTimestamp(timeline.Seconds(c.EndSec)),
			c.Captions, status)
	}
	ok := lo.CountBy(m.Clips, func(c types.ManifestClip) bool { return c.Status == types.StatusOK })
	fmt.Fprintf(w, "%d/%d clips written, manifest: %s\n", ok, len(m.Clips), res.ManifestPath)
}

func printSuggestions(w io.Writer, reqs []types.ClipRequest) {
	for i, r := range reqs {
		fmt.Fprintf(w, "%2d  %-16s %s-%s  %s\n",
			i+1, r.Name,
			timeline.FormatTimestamp(r.Start),
			timeline.FormatTimestamp(r.End),
			r.Origin)
	}
}
