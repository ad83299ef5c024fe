package types

import (
	"time"

	"github.com/forPelevin/clipcap/internal/apperr"
)

type Transcript struct {
	Segments []Segment `json:"segments"`
	Language string    `json:"language,omitempty"`
}

type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Words []Word  `json:"words,omitempty"`
}

type Word struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Word  string  `json:"word"`
}

// Origin tells where a ClipRequest came from.
type Origin string

const (
	OriginAuto     Origin = "auto"
	OriginManual   Origin = "manual"
	OriginFallback Origin = "fallback"
)

// ClipRequest is a window of the source video to render, in source time.
type ClipRequest struct {
	Name   string
	Start  time.Duration
	End    time.Duration
	Origin Origin
	Score  float64
}

// NewClipRequest validates the window; an inverted or empty range is rejected,
// never repaired.
func NewClipRequest(name string, start, end time.Duration, origin Origin) (ClipRequest, error) {
	c := ClipRequest{Name: name, Start: start, End: end, Origin: origin}
	if err := c.Validate(); err != nil {
		return ClipRequest{}, err
	}
	return c, nil
}

func (c ClipRequest) Validate() error {
	if c.Start < 0 {
		return apperr.Newf(apperr.CodeInvalidRange, "clip %q: start %s is negative", c.Name, c.Start)
	}
	if c.End <= c.Start {
		return apperr.Newf(apperr.CodeInvalidRange, "clip %q: end %s must be after start %s", c.Name, c.End, c.Start)
	}
	return nil
}

func (c ClipRequest) Duration() time.Duration { return c.End - c.Start }

// ClipSegment is transcript text mapped onto a clip's local timeline.
type ClipSegment struct {
	Text  string
	Start time.Duration
	End   time.Duration
}

// CaptionPlacement is one caption event on the output canvas. X is the
// horizontal centre and Y the top of the text block, both in pixels.
type CaptionPlacement struct {
	Text         string
	Start        time.Duration
	Duration     time.Duration
	X            int
	Y            int
	MaxWidth     int
	FontSize     int
	FontColor    string
	OutlineWidth int
}

type Manifest struct {
	RunID  string         `json:"run_id,omitempty"`
	Input  string         `json:"input"`
	Mode   string         `json:"mode"`
	Ratio  string         `json:"ratio"`
	Width  int            `json:"width"`
	Height int            `json:"height"`
	Clips  []ManifestClip `json:"clips"`
}

// Failed counts clips whose status is not ok.
func (m Manifest) Failed() int {
	n := 0
	for _, c := range m.Clips {
		if c.Status != StatusOK {
			n++
		}
	}
	return n
}

type ManifestClip struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Origin    string  `json:"origin"`
	StartSec  float64 `json:"start_sec"`
	EndSec    float64 `json:"end_sec"`
	Score     float64 `json:"score,omitempty"`
	Captions  int     `json:"captions"`
	Text      string  `json:"text,omitempty"`
	File      string  `json:"file,omitempty"`
	Subtitles string  `json:"subtitles,omitempty"`
	Status    string  `json:"status"`
	Error     string  `json:"error,omitempty"`
}

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)
