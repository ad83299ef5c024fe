package subtitles

import (
	"math"
	"strings"

	"github.com/forPelevin/clipcap/internal/types"
)

const (
	// OutlineWidth is the fixed caption outline, in canvas pixels.
	OutlineWidth = 2
	// OutlineColor is the fixed outline colour.
	OutlineColor = "#000000"

	widthFraction  = 0.9
	anchorFraction = 0.85
)

// Layout places clip-relative segments on a canvasWidth x canvasHeight frame.
// Captions are horizontally centred, wrap within 90% of the canvas width and
// hang from 85% of the canvas height. Blank or non-positive-length segments
// are skipped. Captions may overlap in time when the input does; each one is
// an independent layer.
func Layout(segs []types.ClipSegment, canvasWidth, canvasHeight int, style Style) []types.CaptionPlacement {
	if canvasWidth <= 0 || canvasHeight <= 0 {
		return nil
	}
	maxWidth := int(math.Round(widthFraction * float64(canvasWidth)))
	y := int(math.Round(anchorFraction * float64(canvasHeight)))

	out := make([]types.CaptionPlacement, 0, len(segs))
	for _, s := range segs {
		text := strings.TrimSpace(s.Text)
		if text == "" || s.End <= s.Start {
			continue
		}
		out = append(out, types.CaptionPlacement{
			Text:         text,
			Start:        s.Start,
			Duration:     s.End - s.Start,
			X:            canvasWidth / 2,
			Y:            y,
			MaxWidth:     maxWidth,
			FontSize:     style.FontSize,
			FontColor:    style.FontColor,
			OutlineWidth: OutlineWidth,
		})
	}
	return out
}
