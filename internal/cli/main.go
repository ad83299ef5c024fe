package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/forPelevin/clipcap/internal/apperr"
	"github.com/forPelevin/clipcap/internal/config"
)

func Main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 for bad input, 3 when only some clips failed and 1 otherwise.
func exitCode(err error) int {
	switch apperr.GetCode(err) {
	case apperr.CodeInvalidParams, apperr.CodeInvalidRange, apperr.CodeInvalidStyle, apperr.CodeInvalidRatio:
		return 2
	case apperr.CodeClipsFailed:
		return 3
	}
	return 1
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "clipcap <input|url>",
		Short: "Cut captioned, reframed clips from a video",
		Long: `clipcap transcribes a video, picks clip windows (automatically or from
--clip/--clips-file), crops or pads them to an aspect ratio and burns in
captions aligned to each clip.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0])
		},
	}

	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	addFlags(root)
	root.AddCommand(newSuggestCmd())
	return root
}

func newSuggestCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "suggest <input|url>",
		Short:        "Print the clip windows an auto run would render",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return suggest(cmd, args[0])
		},
	}
}

func addFlags(root *cobra.Command) {
	d := config.Defaults()
	f := root.PersistentFlags()

	f.String("config", "", "YAML config file (default ./clipcap.yaml when present)")
	f.String("log-level", d.LogLevel, "Log level: debug, info, warn, error")
	f.String("log-format", d.LogFormat, "Log format: console or json")

	f.String("out", d.Out, "Output directory")
	f.String("cache-dir", d.CacheDir, "Cache directory for downloads, audio and transcripts")
	f.String("mode", d.Mode, "Clip selection: auto or manual")
	f.Int("clips", d.Clips, "Number of clips in auto mode")
	f.Float64("min", d.MinSec, "Minimum clip duration in seconds (auto mode)")
	f.StringArray("clip", nil, "Manual clip as [name=]start-end, e.g. intro=00:05-00:20 (repeatable)")
	f.String("clips-file", "", "YAML file with manual clips")

	f.String("ratio", d.Ratio, "Aspect ratio: original, 16:9, 1:1 or 9:16")
	f.String("frame", d.Frame, "Reach the ratio by crop or pad")
	f.String("canvas", "", "Output canvas: WxH, preset, or empty to keep the framed size")
	f.String("fit", d.Fit, "Small content on a larger canvas: pad or resize")

	f.String("font-name", d.FontName, "Caption font family")
	f.Int("font-size", d.FontSize, "Caption font size (12-60)")
	f.String("font-color", d.FontColor, "Caption colour: #RRGGBB, #RGB or a colour name")

	f.Int("workers", d.Workers, "Clips rendered in parallel")
	f.Duration("timeout", d.Timeout, "Overall run timeout")
	f.String("transcript", "", "Use this transcript JSON instead of running ASR")

	f.String("ffmpeg", d.FFmpegPath, "ffmpeg binary")
	f.String("asr", d.ASR, "Transcription backend: whispercpp or http")
	f.String("whisper-bin", d.WhisperBin, "whisper.cpp binary")
	f.String("whisper-model", d.WhisperModel, "whisper.cpp model")
	f.String("whisper-url", "", "Base URL of the HTTP whisper sidecar")
	f.StringSlice("whisper-allowed-hosts", nil, "Hosts the HTTP whisper sidecar may live on (default loopback)")
	f.Duration("whisper-timeout", d.WhisperTimeout, "HTTP whisper request timeout")
	f.String("language", "", "Spoken language hint for ASR")

	f.String("ytdlp", d.YtdlpPath, "yt-dlp binary for URL inputs")
	f.String("proxy", "", "Proxy for yt-dlp")
	f.String("cookies", "", "Cookies file for yt-dlp")

	// Hidden tuning flags (internal)
	_ = f.MarkHidden("whisper-timeout")
	_ = f.MarkHidden("cache-dir")
}
