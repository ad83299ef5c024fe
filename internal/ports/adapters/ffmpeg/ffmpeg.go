// Package ffmpeg renders framed, captioned clips and probes sources by
// building ffmpeg command lines with ffmpeg-go and running them under the
// caller's context.
package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	ffmpeggo "github.com/u2takey/ffmpeg-go"

	"github.com/forPelevin/clipcap/internal/apperr"
	"github.com/forPelevin/clipcap/internal/domain/framing"
	"github.com/forPelevin/clipcap/internal/ports"
)

const defaultProbeTimeout = 30 * time.Second

type Adapter struct {
	ffmpeg string
}

func New(ffmpegPath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Adapter{ffmpeg: ffmpegPath}
}

func (a *Adapter) ExtractAudioMono16k(ctx context.Context, inVideo, outWav string) error {
	args := ffmpeggo.Input(inVideo).
		Output(outWav, ffmpeggo.KwArgs{"vn": "", "ac": 1, "ar": 16000, "f": "wav"}).
		OverWriteOutput().
		GetArgs()
	if err := a.run(ctx, args); err != nil {
		return apperr.Wrap(apperr.CodeAudioExtract, "ffmpeg extract audio", err)
	}
	return nil
}

func (a *Adapter) RenderClip(ctx context.Context, job ports.RenderJob) error {
	if job.End <= job.Start {
		return apperr.Newf(apperr.CodeInvalidRange, "render window %s..%s is empty", job.Start, job.End)
	}
	if err := a.run(ctx, renderArgs(job)); err != nil {
		return apperr.Wrap(apperr.CodeRender, "ffmpeg render clip", err)
	}
	return nil
}

// Probe reads duration and the first video stream's size with ffprobe.
func (a *Adapter) Probe(ctx context.Context, inVideo string) (ports.MediaInfo, error) {
	timeout := defaultProbeTimeout
	if dl, ok := ctx.Deadline(); ok {
		timeout = time.Until(dl)
	}
	if err := ctx.Err(); err != nil {
		return ports.MediaInfo{}, apperr.Wrap(apperr.CodeProbe, "ffprobe", err)
	}
	out, err := ffmpeggo.ProbeWithTimeout(inVideo, timeout, ffmpeggo.KwArgs{})
	if err != nil {
		return ports.MediaInfo{}, apperr.Wrap(apperr.CodeProbe, "ffprobe "+inVideo, err)
	}
	return parseProbe([]byte(out))
}

func (a *Adapter) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w\n%s", err, tail(string(b), 4000))
	}
	return nil
}

// renderArgs builds the ffmpeg arguments for one clip. The video chain is
// frame (crop or pad), canvas fit, subtitles, then an even-size guard so
// libx264 accepts odd crop widths such as 607.
func renderArgs(job ports.RenderJob) []string {
	in := ffmpeggo.Input(job.Input, ffmpeggo.KwArgs{
		"ss": fmtSeconds(job.Start),
		"t":  fmtSeconds(job.End - job.Start),
	})
	v := in.Video()

	f := job.Plan.Frame
	switch f.Op {
	case framing.OpCrop:
		v = v.Filter("crop", ints(f.Width, f.Height, f.X, f.Y))
	case framing.OpPad:
		v = v.Filter("pad", ints(f.Width, f.Height, f.X, f.Y), ffmpeggo.KwArgs{"color": "black"})
	}

	c := job.Plan.Canvas
	if c.Op == framing.OpScale || c.Op == framing.OpResize {
		v = v.Filter("scale", ints(c.ContentWidth, c.ContentHeight))
	}
	if c.Op != framing.OpNone && (c.ContentWidth != c.Width || c.ContentHeight != c.Height) {
		v = v.Filter("pad", ints(c.Width, c.Height, c.X, c.Y), ffmpeggo.KwArgs{"color": "black"})
	}

	if job.SubtitlesPath != "" {
		v = v.Filter("ass", ffmpeggo.Args{job.SubtitlesPath})
	}
	v = v.Filter("scale", ffmpeggo.Args{"trunc(iw/2)*2", "trunc(ih/2)*2"}).
		Filter("setsar", ffmpeggo.Args{"1"})

	return ffmpeggo.Output([]*ffmpeggo.Stream{v}, job.Output, ffmpeggo.KwArgs{
		"map":     "0:a?",
		"c:v":     "libx264",
		"preset":  "veryfast",
		"crf":     "18",
		"pix_fmt": "yuv420p",
		"c:a":     "aac",
		"b:a":     "192k",
	}).OverWriteOutput().GetArgs()
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
		Duration  string `json:"duration"`
	} `json:"streams"`
}

func parseProbe(b []byte) (ports.MediaInfo, error) {
	var p probeOutput
	if err := json.Unmarshal(b, &p); err != nil {
		return ports.MediaInfo{}, apperr.Wrap(apperr.CodeProbe, "decode ffprobe output", err)
	}
	var info ports.MediaInfo
	durStr := p.Format.Duration
	for _, s := range p.Streams {
		if s.CodecType != "video" {
			continue
		}
		info.Width, info.Height = s.Width, s.Height
		if durStr == "" {
			durStr = s.Duration
		}
		break
	}
	if info.Width <= 0 || info.Height <= 0 {
		return ports.MediaInfo{}, apperr.New(apperr.CodeProbe, "no video stream found")
	}
	if durStr != "" {
		sec, err := strconv.ParseFloat(strings.TrimSpace(durStr), 64)
		if err != nil {
			return ports.MediaInfo{}, apperr.Wrap(apperr.CodeProbe, fmt.Sprintf("parse duration %q", durStr), err)
		}
		info.Duration = time.Duration(sec * float64(time.Second))
	}
	return info, nil
}

func ints(v ...int) ffmpeggo.Args {
	out := make(ffmpeggo.Args, len(v))
	for i, n := range v {
		out[i] = strconv.Itoa(n)
	}
	return out
}

func fmtSeconds(d time.Duration) string {
	sec := float64(d) / float64(time.Second)
	return strconv.FormatFloat(sec, 'f', 3, 64)
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
