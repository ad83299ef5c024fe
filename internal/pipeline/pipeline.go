package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/forPelevin/clipcap/internal/apperr"
	"github.com/forPelevin/clipcap/internal/domain/framing"
	"github.com/forPelevin/clipcap/internal/domain/subtitles"
	"github.com/forPelevin/clipcap/internal/logging"
	"github.com/forPelevin/clipcap/internal/ports"
	"github.com/forPelevin/clipcap/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/clipcap/internal/ports/adapters/whispercpp"
	"github.com/forPelevin/clipcap/internal/ports/adapters/whisperhttp"
	"github.com/forPelevin/clipcap/internal/ports/adapters/ytdlp"
	"github.com/forPelevin/clipcap/internal/types"
	"github.com/forPelevin/clipcap/internal/usecase"
)

const (
	ASRWhisperCpp = "whispercpp"
	ASRHTTP       = "http"
)

type Config struct {
	// Input is a local video path or an http(s) URL fetched with yt-dlp.
	Input  string
	OutDir string
	// CacheDir is the base directory for local artifacts (downloads, audio,
	// transcripts). If empty, defaults to ".cache".
	CacheDir string

	Mode    usecase.Mode
	ClipsN  int
	MinClip time.Duration
	Manual  []types.ClipRequest

	Ratio    framing.Ratio
	Method   framing.Method
	Canvas   framing.Size
	Strategy framing.Strategy
	Style    subtitles.Style

	Workers        int
	TranscriptPath string

	FFmpegPath string

	ASR                 string
	WhisperBin          string
	WhisperModel        string
	WhisperURL          string
	WhisperAllowedHosts []string
	WhisperTimeout      time.Duration
	Language            string

	Ytdlp ytdlp.Options

	Logger *zap.Logger
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Input) == "" {
		return apperr.New(apperr.CodeInvalidParams, "input is empty")
	}
	if !ytdlp.IsURL(c.Input) {
		if _, err := os.Stat(c.Input); err != nil {
			return apperr.Wrap(apperr.CodeInvalidParams, "stat input", err)
		}
	}
	switch c.Mode {
	case usecase.ModeAuto:
		if c.ClipsN <= 0 {
			return apperr.New(apperr.CodeInvalidParams, "clips must be > 0")
		}
		if c.MinClip < 0 {
			return apperr.New(apperr.CodeInvalidParams, "min clip must be >= 0")
		}
	case usecase.ModeManual:
		if len(c.Manual) == 0 {
			return apperr.New(apperr.CodeInvalidParams, "manual mode needs at least one clip (--clip or --clips-file)")
		}
		for _, r := range c.Manual {
			if err := r.Validate(); err != nil {
				return err
			}
		}
	default:
		return apperr.Newf(apperr.CodeInvalidParams, "unsupported mode %q", c.Mode)
	}
	if c.Style.FontSize < subtitles.MinFontSize || c.Style.FontSize > subtitles.MaxFontSize {
		return apperr.Newf(apperr.CodeInvalidStyle, "font size %d out of range %d-%d", c.Style.FontSize, subtitles.MinFontSize, subtitles.MaxFontSize)
	}
	if c.TranscriptPath != "" {
		if _, err := os.Stat(c.TranscriptPath); err != nil {
			return apperr.Wrap(apperr.CodeInvalidParams, "stat transcript", err)
		}
		return nil
	}
	switch c.ASR {
	case "", ASRWhisperCpp:
		if c.WhisperModel == "" {
			return apperr.New(apperr.CodeInvalidParams, "whisper model path is required")
		}
		return nil
	case ASRHTTP:
		return whisperhttp.ValidateBaseURL(c.WhisperURL, c.WhisperAllowedHosts)
	}
	return apperr.Newf(apperr.CodeInvalidParams, "unsupported asr backend %q", c.ASR)
}

// Result is what a finished run leaves on disk.
type Result struct {
	RunDir       string
	ManifestPath string
	Manifest     types.Manifest
}

// Run renders every clip and writes manifest.json. When some clips failed
// the manifest is still written and the returned error has
// apperr.CodeClipsFailed.
func Run(ctx context.Context, cfg Config) (Result, error) {
	log := logging.OrNop(cfg.Logger)
	runID := uuid.NewString()
	log = log.With(zap.String("run", runID[:8]))

	uc, in, err := prepare(ctx, cfg, log)
	if err != nil {
		return Result{}, err
	}

	outDir := cfg.OutDir
	if outDir == "" {
		outDir = "out"
	}
	runOutDir := buildRunOutDir(outDir, in.Source, time.Now().UTC(), runID)
	if err := os.MkdirAll(runOutDir, 0o755); err != nil {
		return Result{}, err
	}
	in.OutDir = runOutDir
	log.Info("output run dir", zap.String("dir", runOutDir))

	res, err := uc.Run(ctx, in)
	if err != nil {
		return Result{}, err
	}
	res.Manifest.RunID = runID

	b, err := json.MarshalIndent(res.Manifest, "", "  ")
	if err != nil {
		return Result{}, fmt.Errorf("marshal manifest: %w", err)
	}
	manifestPath := filepath.Join(runOutDir, "manifest.json")
	if err := os.WriteFile(manifestPath, b, 0o644); err != nil {
		return Result{}, err
	}
	log.Info("manifest written", zap.Int("clips", len(res.Manifest.Clips)), zap.String("path", manifestPath))

	out := Result{RunDir: runOutDir, ManifestPath: manifestPath, Manifest: res.Manifest}
	if n := res.Manifest.Failed(); n > 0 {
		return out, apperr.Newf(apperr.CodeClipsFailed, "%d of %d clips failed, see %s", n, len(res.Manifest.Clips), manifestPath)
	}
	return out, nil
}

// Suggest transcribes and ranks without rendering.
func Suggest(ctx context.Context, cfg Config) ([]types.ClipRequest, error) {
	log := logging.OrNop(cfg.Logger)
	uc, in, err := prepare(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return uc.Suggest(ctx, in)
}

// prepare wires adapters, resolves a URL input to a local file and sets up the
// per-input cache dir.
func prepare(ctx context.Context, cfg Config, log *zap.Logger) (usecase.Usecase, usecase.Input, error) {
	baseCache := cfg.CacheDir
	if baseCache == "" {
		baseCache = ".cache"
	}

	source := cfg.Input
	if ytdlp.IsURL(source) {
		dlDir := filepath.Join(baseCache, "downloads", hash(source))
		log.Info("fetching source", zap.String("url", source), zap.String("dir", dlDir))
		var f ports.Fetcher = ytdlp.New(cfg.Ytdlp)
		p, err := f.Fetch(ctx, source, dlDir)
		if err != nil {
			return usecase.Usecase{}, usecase.Input{}, err
		}
		source = p
	}
	abs, err := filepath.Abs(source)
	if err != nil {
		return usecase.Usecase{}, usecase.Input{}, err
	}

	cacheDir := filepath.Join(baseCache, "runs", hash(abs))
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return usecase.Usecase{}, usecase.Input{}, err
	}
	log.Info("cache", zap.String("dir", cacheDir))

	asr, err := newASR(cfg)
	if err != nil {
		return usecase.Usecase{}, usecase.Input{}, err
	}
	uc := usecase.New(usecase.Deps{
		Video: ffmpeg.New(cfg.FFmpegPath),
		ASR:   asr,
		Log:   log,
	})

	in := usecase.Input{
		Source:         abs,
		Mode:           cfg.Mode,
		Count:          cfg.ClipsN,
		MinDuration:    cfg.MinClip,
		Clips:          cfg.Manual,
		Ratio:          cfg.Ratio,
		Method:         cfg.Method,
		Canvas:         cfg.Canvas,
		Strategy:       cfg.Strategy,
		Style:          cfg.Style,
		Workers:        cfg.Workers,
		TranscriptPath: cfg.TranscriptPath,
		CacheDir:       cacheDir,
	}
	return uc, in, nil
}

func newASR(cfg Config) (ports.ASR, error) {
	if cfg.ASR == ASRHTTP {
		return whisperhttp.New(whisperhttp.Config{
			BaseURL:      cfg.WhisperURL,
			AllowedHosts: cfg.WhisperAllowedHosts,
			Language:     cfg.Language,
			Timeout:      cfg.WhisperTimeout,
		})
	}
	return whispercpp.New(cfg.WhisperBin, cfg.WhisperModel, cfg.Language), nil
}

func buildRunOutDir(outRoot, input string, now time.Time, runID string) string {
	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	name = normalizePathSegment(name)
	if name == "" {
		name = "input"
	}
	ts := now.UTC().Format("20060102-150405Z")
	suffix := strings.ReplaceAll(runID, "-", "")
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return filepath.Join(outRoot, fmt.Sprintf("%s-%s-%s", name, ts, suffix))
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

// ensure adapters implement ports
var (
	_ ports.VideoTool = (*ffmpeg.Adapter)(nil)
	_ ports.ASR       = (*whispercpp.Adapter)(nil)
	_ ports.ASR       = (*whisperhttp.Adapter)(nil)
	_ ports.Fetcher   = (*ytdlp.Adapter)(nil)
)
