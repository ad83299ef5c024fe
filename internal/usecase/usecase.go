// Package usecase drives one clipcap run: probe the source, obtain a
// transcript, choose clip windows, then cut, frame and caption every clip.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/forPelevin/clipcap/internal/apperr"
	"github.com/forPelevin/clipcap/internal/domain/framing"
	"github.com/forPelevin/clipcap/internal/domain/highlights"
	"github.com/forPelevin/clipcap/internal/domain/subtitles"
	"github.com/forPelevin/clipcap/internal/domain/timeline"
	"github.com/forPelevin/clipcap/internal/domain/transcript"
	"github.com/forPelevin/clipcap/internal/logging"
	"github.com/forPelevin/clipcap/internal/ports"
	"github.com/forPelevin/clipcap/internal/types"
)

// Mode selects where clip windows come from.
type Mode string

const (
	ModeAuto   Mode = "auto"
	ModeManual Mode = "manual"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeAuto:
		return ModeAuto, nil
	case ModeManual:
		return ModeManual, nil
	}
	return "", apperr.Newf(apperr.CodeInvalidParams, "unsupported mode %q (want auto or manual)", s)
}

const transcriptCacheFile = "transcript.json"

type Deps struct {
	Video ports.VideoTool
	ASR   ports.ASR
	Log   *zap.Logger
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase {
	d.Log = logging.OrNop(d.Log)
	return Usecase{d: d}
}

type Input struct {
	Source string
	Mode   Mode

	// Auto mode.
	Count       int
	MinDuration time.Duration

	// Manual mode.
	Clips []types.ClipRequest

	Ratio    framing.Ratio
	Method   framing.Method
	Canvas   framing.Size
	Strategy framing.Strategy
	Style    subtitles.Style

	Workers int

	// TranscriptPath loads a prepared transcript instead of running ASR.
	TranscriptPath string
	CacheDir       string
	OutDir         string
}

type Result struct {
	Manifest types.Manifest
}

// prepared is everything shared read-only by the clip workers.
type prepared struct {
	info ports.MediaInfo
	tr   types.Transcript
}

// Suggest runs transcription and the ranker only and returns the windows an
// auto run would render.
func (u Usecase) Suggest(ctx context.Context, in Input) ([]types.ClipRequest, error) {
	p, err := u.prepare(ctx, in)
	if err != nil {
		return nil, err
	}
	return highlights.Rank(p.tr, p.info.Duration, in.Count, in.MinDuration), nil
}

// Run renders every requested clip. Source level failures (probe, audio,
// transcription, framing) abort the run; a failing clip is recorded in the
// manifest and its siblings still render.
func (u Usecase) Run(ctx context.Context, in Input) (Result, error) {
	if in.Mode == ModeManual && len(in.Clips) == 0 {
		return Result{}, apperr.New(apperr.CodeInvalidParams, "manual mode needs at least one clip")
	}

	p, err := u.prepare(ctx, in)
	if err != nil {
		return Result{}, err
	}

	plan, err := framing.NewPlan(p.info.Width, p.info.Height, in.Ratio, in.Method, in.Canvas, in.Strategy)
	if err != nil {
		return Result{}, err
	}
	out := plan.OutputSize()
	u.d.Log.Info("framing planned",
		zap.String("ratio", string(in.Ratio)),
		zap.String("frame_op", string(plan.Frame.Op)),
		zap.String("canvas_op", string(plan.Canvas.Op)),
		zap.Stringer("output", out),
	)

	var reqs []types.ClipRequest
	switch in.Mode {
	case ModeManual:
		reqs = in.Clips
	default:
		reqs = highlights.Rank(p.tr, p.info.Duration, in.Count, in.MinDuration)
	}
	reqs = uniqueNames(reqs)

	subsDir := filepath.Join(in.OutDir, "subtitles")
	if err := os.MkdirAll(subsDir, 0o755); err != nil {
		return Result{}, apperr.Wrap(apperr.CodeSubtitleWrite, "create subtitles dir", err)
	}

	clips := make([]types.ManifestClip, len(reqs))
	workers := in.Workers
	if workers <= 0 {
		workers = 1
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			clips[i] = u.renderClip(ctx, in, p, plan, i, req)
			return nil
		})
	}
	_ = g.Wait()

	m := types.Manifest{
		Input:  in.Source,
		Mode:   string(in.Mode),
		Ratio:  string(in.Ratio),
		Width:  out.Width,
		Height: out.Height,
		Clips:  clips,
	}
	u.d.Log.Info("clips done",
		zap.Int("total", len(clips)),
		zap.Int("failed", m.Failed()),
	)
	return Result{Manifest: m}, nil
}

func (u Usecase) prepare(ctx context.Context, in Input) (prepared, error) {
	info, err := u.d.Video.Probe(ctx, in.Source)
	if err != nil {
		return prepared{}, err
	}
	u.d.Log.Info("source probed",
		zap.String("input", in.Source),
		zap.Duration("duration", info.Duration),
		zap.Int("width", info.Width),
		zap.Int("height", info.Height),
	)

	tr, err := u.loadTranscript(ctx, in)
	if err != nil {
		return prepared{}, err
	}
	return prepared{info: info, tr: tr}, nil
}

// loadTranscript prefers an explicit transcript file, then the run cache, and
// only then extracts audio and runs ASR. A fresh transcript is cached.
func (u Usecase) loadTranscript(ctx context.Context, in Input) (types.Transcript, error) {
	if in.TranscriptPath != "" {
		tr, err := transcript.Load(in.TranscriptPath)
		if err != nil {
			return types.Transcript{}, apperr.Wrap(apperr.CodeTranscribe, "load transcript "+in.TranscriptPath, err)
		}
		u.d.Log.Info("transcript loaded", zap.String("path", in.TranscriptPath), zap.Int("segments", len(tr.Segments)))
		return tr, nil
	}

	cached := filepath.Join(in.CacheDir, transcriptCacheFile)
	if in.CacheDir != "" {
		if tr, err := transcript.Load(cached); err == nil {
			u.d.Log.Info("transcript cache hit", zap.String("path", cached), zap.Int("segments", len(tr.Segments)))
			return tr, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			u.d.Log.Warn("transcript cache unreadable, transcribing again", zap.String("path", cached), zap.Error(err))
		}
	}

	wav := filepath.Join(in.CacheDir, "audio.wav")
	u.d.Log.Info("extracting audio", zap.String("wav", wav))
	if err := u.d.Video.ExtractAudioMono16k(ctx, in.Source, wav); err != nil {
		return types.Transcript{}, err
	}

	u.d.Log.Info("transcribing")
	tr, err := u.d.ASR.Transcribe(ctx, wav, in.CacheDir)
	if err != nil {
		return types.Transcript{}, apperr.Wrap(apperr.CodeTranscribe, "transcribe", err)
	}
	tr = transcript.Normalize(tr)
	u.d.Log.Info("transcribed", zap.Int("segments", len(tr.Segments)), zap.String("language", tr.Language))

	if in.CacheDir != "" {
		if err := transcript.Save(cached, tr); err != nil {
			u.d.Log.Warn("cache transcript", zap.Error(err))
		}
	}
	return tr, nil
}

func (u Usecase) renderClip(ctx context.Context, in Input, p prepared, plan framing.Plan, i int, req types.ClipRequest) types.ManifestClip {
	mc := types.ManifestClip{
		ID:       fmt.Sprintf("%03d", i+1),
		Name:     req.Name,
		Origin:   string(req.Origin),
		StartSec: req.Start.Seconds(),
		EndSec:   req.End.Seconds(),
		Score:    req.Score,
		Status:   types.StatusOK,
	}
	log := u.d.Log.With(zap.String("clip", req.Name))
	fail := func(err error) types.ManifestClip {
		log.Error("clip failed", zap.Error(err))
		mc.Status = types.StatusFailed
		mc.Error = err.Error()
		return mc
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	req, err := clampToSource(req, p.info.Duration)
	if err != nil {
		return fail(err)
	}
	mc.EndSec = req.End.Seconds()

	segs := timeline.Resolve(p.tr, req.Start, req.End)
	out := plan.OutputSize()
	placements := subtitles.Layout(segs, out.Width, out.Height, in.Style)
	mc.Captions = len(placements)
	mc.Text = strings.Join(lo.Map(segs, func(s types.ClipSegment, _ int) string { return s.Text }), " ")

	job := ports.RenderJob{
		Input:  in.Source,
		Start:  req.Start,
		End:    req.End,
		Plan:   plan,
		Output: filepath.Join(in.OutDir, req.Name+".mp4"),
	}
	if len(placements) > 0 {
		subsRel := filepath.Join("subtitles", req.Name+".ass")
		job.SubtitlesPath = filepath.Join(in.OutDir, subsRel)
		doc := subtitles.RenderASS(placements, out.Width, out.Height, in.Style.FontName)
		if err := os.WriteFile(job.SubtitlesPath, []byte(doc), 0o644); err != nil {
			return fail(apperr.Wrap(apperr.CodeSubtitleWrite, "write subtitles", err))
		}
		mc.Subtitles = filepath.ToSlash(subsRel)
	}

	started := time.Now()
	log.Info("rendering",
		zap.String("start", timeline.FormatTimestamp(req.Start)),
		zap.String("end", timeline.FormatTimestamp(req.End)),
		zap.Int("captions", len(placements)),
	)
	if err := u.d.Video.RenderClip(ctx, job); err != nil {
		return fail(err)
	}
	mc.File = filepath.ToSlash(req.Name + ".mp4")
	log.Info("clip rendered", zap.Duration("took", time.Since(started)))
	return mc
}

// clampToSource trims a window that runs past the end of the source. A window
// starting at or after the end cannot be rendered. A zero duration means the
// length is unknown and nothing is clamped.
func clampToSource(req types.ClipRequest, duration time.Duration) (types.ClipRequest, error) {
	if duration <= 0 {
		return req, nil
	}
	if req.Start >= duration {
		return req, apperr.Newf(apperr.CodeInvalidRange, "clip %q starts at %s, after the source ends at %s",
			req.Name, timeline.FormatTimestamp(req.Start), timeline.FormatTimestamp(duration))
	}
	if req.End > duration {
		req.End = duration
	}
	return req, nil
}

// uniqueNames makes clip names safe as file names and unique within a run.
// Later duplicates get a numeric suffix.
func uniqueNames(reqs []types.ClipRequest) []types.ClipRequest {
	out := make([]types.ClipRequest, len(reqs))
	seen := make(map[string]bool, len(reqs))
	for i, r := range reqs {
		base := SanitizeName(r.Name)
		if base == "" {
			base = highlights.ManualName(i + 1)
		}
		name := base
		for n := 2; seen[name]; n++ {
			name = fmt.Sprintf("%s-%d", base, n)
		}
		seen[name] = true
		r.Name = name
		out[i] = r
	}
	return out
}

// SanitizeName keeps letters, digits and '_' and collapses every other run
// of characters into a single dash.
func SanitizeName(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.TrimSpace(s) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_':
			b.WriteRune(r)
			prevDash = false
		case !prevDash:
			b.WriteByte('-')
			prevDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}
