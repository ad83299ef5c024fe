// Package framing derives crop, pad and scale geometry that brings a source
// frame to a requested aspect ratio without distorting it.
package framing

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/forPelevin/clipcap/internal/apperr"
)

// Ratio is a target aspect ratio class.
type Ratio string

const (
	RatioOriginal Ratio = "original"
	Ratio16x9     Ratio = "16:9"
	Ratio1x1      Ratio = "1:1"
	Ratio9x16     Ratio = "9:16"
)

// Ratios lists the supported targets in display order.
var Ratios = []Ratio{RatioOriginal, Ratio16x9, Ratio1x1, Ratio9x16}

// ParseRatio accepts "original", "16:9", "1:1", "9:16" and the "x" spelled
// variants ("9x16").
func ParseRatio(s string) (Ratio, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.ReplaceAll(v, "x", ":")
	switch Ratio(v) {
	case "", RatioOriginal:
		return RatioOriginal, nil
	case Ratio16x9, Ratio1x1, Ratio9x16:
		return Ratio(v), nil
	}
	return "", apperr.Newf(apperr.CodeInvalidRatio, "unsupported aspect ratio %q (want one of original, 16:9, 1:1, 9:16)", s)
}

// Parts returns the ratio terms; ok is false for RatioOriginal.
func (r Ratio) Parts() (w, h int, ok bool) {
	switch r {
	case Ratio16x9:
		return 16, 9, true
	case Ratio1x1:
		return 1, 1, true
	case Ratio9x16:
		return 9, 16, true
	}
	return 0, 0, false
}

// Op tags the transform applied at a framing stage.
type Op string

const (
	OpNone   Op = "none"
	OpCrop   Op = "crop"
	OpPad    Op = "pad"
	OpResize Op = "resize"
	OpScale  Op = "scale"
)

// Geometry is the result of framing a source to a ratio. For OpCrop, X/Y is
// the top-left corner of the kept region in source pixels. For OpPad it is
// the offset of the unscaled source on the Width x Height canvas.
type Geometry struct {
	SourceWidth  int
	SourceHeight int
	Target       Ratio
	Width        int
	Height       int
	Op           Op
	X            int
	Y            int
}

// Center returns the centre of the kept region in source coordinates
// (OpCrop, OpNone) or the canvas centre (OpPad).
func (g Geometry) Center() (int, int) {
	if g.Op == OpPad {
		return g.Width / 2, g.Height / 2
	}
	return g.X + g.Width/2, g.Y + g.Height/2
}

// Frame computes a centred crop of a sourceWidth x sourceHeight frame that
// matches target. A source wider than the target loses columns, a narrower
// one loses rows; a square target crops to min(w, h). Sizes are rounded to
// the nearest pixel with halves going down, so 1920x1080 framed to 9:16
// keeps 607 columns.
func Frame(sourceWidth, sourceHeight int, target Ratio) (Geometry, error) {
	if sourceWidth <= 0 || sourceHeight <= 0 {
		return Geometry{}, apperr.Newf(apperr.CodeInvalidParams, "invalid source size %dx%d", sourceWidth, sourceHeight)
	}
	g := Geometry{
		SourceWidth:  sourceWidth,
		SourceHeight: sourceHeight,
		Target:       target,
		Width:        sourceWidth,
		Height:       sourceHeight,
		Op:           OpNone,
	}
	rw, rh, ok := target.Parts()
	if !ok {
		if target != RatioOriginal {
			return Geometry{}, apperr.Newf(apperr.CodeInvalidRatio, "unsupported aspect ratio %q", target)
		}
		return g, nil
	}

	w, h := sourceWidth, sourceHeight
	switch cmp := int64(w)*int64(rh) - int64(h)*int64(rw); {
	case cmp == 0:
		return g, nil
	case cmp > 0:
		// wider than target: keep full height
		cw := clampPx(roundHalfDown(float64(h)*float64(rw)/float64(rh)), w)
		ch := h
		if !within(cw, ch, rw, rh) {
			cw = clampPx(int(math.Floor(float64(h)*float64(rw)/float64(rh))), w)
			ch = clampPx(roundHalfDown(float64(cw)*float64(rh)/float64(rw)), h)
		}
		g.Width, g.Height = cw, ch
	default:
		// narrower than target: keep full width
		cw := w
		ch := clampPx(roundHalfDown(float64(w)*float64(rh)/float64(rw)), h)
		if !within(cw, ch, rw, rh) {
			ch = clampPx(int(math.Floor(float64(w)*float64(rh)/float64(rw))), h)
			cw = clampPx(roundHalfDown(float64(ch)*float64(rw)/float64(rh)), w)
		}
		g.Width, g.Height = cw, ch
	}

	if g.Width == w && g.Height == h {
		return g, nil
	}
	g.Op = OpCrop
	g.X = (w - g.Width) / 2
	g.Y = (h - g.Height) / 2
	return g, nil
}

// Pad computes the smallest canvas of the target ratio that holds the
// unscaled source, with the source centred on it (letterbox or pillarbox).
func Pad(sourceWidth, sourceHeight int, target Ratio) (Geometry, error) {
	if sourceWidth <= 0 || sourceHeight <= 0 {
		return Geometry{}, apperr.Newf(apperr.CodeInvalidParams, "invalid source size %dx%d", sourceWidth, sourceHeight)
	}
	g := Geometry{
		SourceWidth:  sourceWidth,
		SourceHeight: sourceHeight,
		Target:       target,
		Width:        sourceWidth,
		Height:       sourceHeight,
		Op:           OpNone,
	}
	rw, rh, ok := target.Parts()
	if !ok {
		if target != RatioOriginal {
			return Geometry{}, apperr.Newf(apperr.CodeInvalidRatio, "unsupported aspect ratio %q", target)
		}
		return g, nil
	}

	w, h := sourceWidth, sourceHeight
	switch cmp := int64(w)*int64(rh) - int64(h)*int64(rw); {
	case cmp == 0:
		return g, nil
	case cmp > 0:
		// wider than target: add rows
		cw := w
		ch := atLeast(roundHalfDown(float64(w)*float64(rh)/float64(rw)), h)
		if !within(cw, ch, rw, rh) {
			ch = atLeast(int(math.Ceil(float64(w)*float64(rh)/float64(rw))), h)
			cw = atLeast(roundHalfDown(float64(ch)*float64(rw)/float64(rh)), w)
		}
		g.Width, g.Height = cw, ch
	default:
		// narrower than target: add columns
		ch := h
		cw := atLeast(roundHalfDown(float64(h)*float64(rw)/float64(rh)), w)
		if !within(cw, ch, rw, rh) {
			cw = atLeast(int(math.Ceil(float64(h)*float64(rw)/float64(rh))), w)
			ch = atLeast(roundHalfDown(float64(cw)*float64(rh)/float64(rw)), h)
		}
		g.Width, g.Height = cw, ch
	}

	if g.Width == w && g.Height == h {
		return g, nil
	}
	g.Op = OpPad
	g.X = (g.Width - w) / 2
	g.Y = (g.Height - h) / 2
	return g, nil
}

// within reports whether w/h is within one pixel of rw/rh, measured as
// |w/h - rw/rh| < 1/max(w, h).
func within(w, h, rw, rh int) bool {
	if w <= 0 || h <= 0 {
		return false
	}
	diff := math.Abs(float64(w)/float64(h) - float64(rw)/float64(rh))
	return diff < 1/float64(max(w, h))
}

func roundHalfDown(x float64) int {
	return int(math.Ceil(x - 0.5))
}

func clampPx(v, limit int) int {
	if v > limit {
		v = limit
	}
	if v < 1 {
		v = 1
	}
	return v
}

func atLeast(v, floor int) int {
	if v < floor {
		return floor
	}
	return v
}

// Size is a pixel canvas. The zero Size means "no canvas".
type Size struct {
	Width  int
	Height int
}

func (s Size) IsZero() bool { return s.Width <= 0 || s.Height <= 0 }

func (s Size) String() string { return fmt.Sprintf("%dx%d", s.Width, s.Height) }

// Preset returns the conventional export canvas for a ratio (1080p based),
// or the zero Size for RatioOriginal.
func Preset(r Ratio) Size {
	switch r {
	case Ratio16x9:
		return Size{Width: 1920, Height: 1080}
	case Ratio1x1:
		return Size{Width: 1080, Height: 1080}
	case Ratio9x16:
		return Size{Width: 1080, Height: 1920}
	}
	return Size{}
}

// ParseCanvas understands "", "none" (no canvas), "preset" (Preset(r)) and
// "WIDTHxHEIGHT".
func ParseCanvas(s string, r Ratio) (Size, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "", "none":
		return Size{}, nil
	case "preset":
		return Preset(r), nil
	}
	ws, hs, ok := strings.Cut(v, "x")
	if !ok {
		return Size{}, apperr.Newf(apperr.CodeInvalidParams, "invalid canvas %q (want WIDTHxHEIGHT, preset or none)", s)
	}
	w, errW := strconv.Atoi(ws)
	h, errH := strconv.Atoi(hs)
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return Size{}, apperr.Newf(apperr.CodeInvalidParams, "invalid canvas %q (want WIDTHxHEIGHT, preset or none)", s)
	}
	return Size{Width: w, Height: h}, nil
}
