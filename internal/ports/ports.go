package ports

import (
	"context"
	"time"

	"github.com/forPelevin/clipcap/internal/domain/framing"
	"github.com/forPelevin/clipcap/internal/types"
)

// MediaInfo is what the pipeline needs to know about a source before cutting.
type MediaInfo struct {
	Duration time.Duration
	Width    int
	Height   int
}

// RenderJob describes one output clip: the source window, how to frame it and
// which subtitle script to burn in. An empty SubtitlesPath renders without
// captions.
type RenderJob struct {
	Input         string
	Start         time.Duration
	End           time.Duration
	Plan          framing.Plan
	SubtitlesPath string
	Output        string
}

type VideoTool interface {
	ExtractAudioMono16k(ctx context.Context, inVideo, outWav string) error
	Probe(ctx context.Context, inVideo string) (MediaInfo, error)
	RenderClip(ctx context.Context, job RenderJob) error
}

type ASR interface {
	Transcribe(ctx context.Context, wavPath, cacheDir string) (types.Transcript, error)
}

// Fetcher downloads a remote source into dir and returns the local path.
type Fetcher interface {
	Fetch(ctx context.Context, url, dir string) (string, error)
}
