package framing

import (
	"math"
	"strings"

	"github.com/forPelevin/clipcap/internal/apperr"
)

// Strategy decides what happens when framed content is smaller than the
// output canvas.
type Strategy string

const (
	// StrategyPad centres the content unscaled on a black canvas.
	StrategyPad Strategy = "pad"
	// StrategyResize upscales the content to fit the canvas. It trades
	// sharpness for a filled frame.
	StrategyResize Strategy = "resize"
)

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyPad:
		return StrategyPad, nil
	case StrategyResize:
		return StrategyResize, nil
	}
	return "", apperr.Newf(apperr.CodeInvalidParams, "unsupported fit strategy %q (want pad or resize)", s)
}

// Method selects how the source reaches the target ratio.
type Method string

const (
	// MethodCrop cuts the centred target-ratio window out of the source.
	MethodCrop Method = "crop"
	// MethodPad keeps the whole source and adds bars up to the target ratio.
	MethodPad Method = "pad"
)

func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case "", MethodCrop:
		return MethodCrop, nil
	case MethodPad:
		return MethodPad, nil
	}
	return "", apperr.Newf(apperr.CodeInvalidParams, "unsupported frame method %q (want crop or pad)", s)
}

// CanvasFit places framed content on the output canvas. Content is always
// scaled uniformly; X/Y is its offset on the canvas.
type CanvasFit struct {
	Width         int
	Height        int
	ContentWidth  int
	ContentHeight int
	X             int
	Y             int
	Op            Op
}

// Fit places contentWidth x contentHeight on canvas. A zero canvas keeps the
// content as is. Content larger than the canvas is downscaled (OpScale)
// whatever the strategy; smaller content is padded (OpPad) or, with
// StrategyResize, upscaled until it touches the canvas edges (OpResize).
func Fit(contentWidth, contentHeight int, canvas Size, strategy Strategy) CanvasFit {
	f := CanvasFit{
		Width:         contentWidth,
		Height:        contentHeight,
		ContentWidth:  contentWidth,
		ContentHeight: contentHeight,
		Op:            OpNone,
	}
	if canvas.IsZero() || contentWidth <= 0 || contentHeight <= 0 {
		return f
	}
	f.Width, f.Height = canvas.Width, canvas.Height
	if contentWidth == canvas.Width && contentHeight == canvas.Height {
		return f
	}

	scale := math.Min(float64(canvas.Width)/float64(contentWidth), float64(canvas.Height)/float64(contentHeight))
	switch {
	case scale < 1:
		f.Op = OpScale
	case strategy == StrategyResize:
		f.Op = OpResize
	default:
		f.Op = OpPad
		scale = 1
	}
	if scale != 1 {
		f.ContentWidth = clampPx(int(math.Round(float64(contentWidth)*scale)), canvas.Width)
		f.ContentHeight = clampPx(int(math.Round(float64(contentHeight)*scale)), canvas.Height)
	}
	f.X = (canvas.Width - f.ContentWidth) / 2
	f.Y = (canvas.Height - f.ContentHeight) / 2
	return f
}

// Plan is the full framing of a source: crop to ratio, then fit on canvas.
type Plan struct {
	Frame  Geometry
	Canvas CanvasFit
}

// OutputSize is the size of the rendered frame.
func (p Plan) OutputSize() Size {
	return Size{Width: p.Canvas.Width, Height: p.Canvas.Height}
}

// NewPlan frames a source to target with method and fits the result on
// canvas.
func NewPlan(sourceWidth, sourceHeight int, target Ratio, method Method, canvas Size, strategy Strategy) (Plan, error) {
	frame := Frame
	if method == MethodPad {
		frame = Pad
	}
	g, err := frame(sourceWidth, sourceHeight, target)
	if err != nil {
		return Plan{}, err
	}
	return Plan{Frame: g, Canvas: Fit(g.Width, g.Height, canvas, strategy)}, nil
}
