// Package subtitles plans caption placement on the output canvas and renders
// the plan as an ASS script for the ffmpeg subtitles filter.
package subtitles

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/forPelevin/clipcap/internal/apperr"
)

const (
	MinFontSize     = 12
	MaxFontSize     = 60
	DefaultFontSize = 24

	DefaultFontColor = "#FFFFFF"
	DefaultFontName  = "Arial"
)

// Style is the user controlled caption look. FontColor is kept normalized as
// #RRGGBB.
type Style struct {
	FontName  string
	FontSize  int
	FontColor string
}

func DefaultStyle() Style {
	return Style{FontName: DefaultFontName, FontSize: DefaultFontSize, FontColor: DefaultFontColor}
}

// NewStyle validates size and colour. An empty font name selects the default.
func NewStyle(fontName string, fontSize int, fontColor string) (Style, error) {
	if fontSize < MinFontSize || fontSize > MaxFontSize {
		return Style{}, apperr.Newf(apperr.CodeInvalidStyle, "font size %d out of range %d-%d", fontSize, MinFontSize, MaxFontSize)
	}
	color, err := NormalizeColor(fontColor)
	if err != nil {
		return Style{}, err
	}
	if strings.TrimSpace(fontName) == "" {
		fontName = DefaultFontName
	}
	return Style{FontName: strings.TrimSpace(fontName), FontSize: fontSize, FontColor: color}, nil
}

var namedColors = map[string]string{
	"white":   "#FFFFFF",
	"black":   "#000000",
	"red":     "#FF0000",
	"green":   "#008000",
	"lime":    "#00FF00",
	"blue":    "#0000FF",
	"yellow":  "#FFFF00",
	"cyan":    "#00FFFF",
	"aqua":    "#00FFFF",
	"magenta": "#FF00FF",
	"fuchsia": "#FF00FF",
	"orange":  "#FFA500",
	"gray":    "#808080",
	"grey":    "#808080",
	"silver":  "#C0C0C0",
	"purple":  "#800080",
	"navy":    "#000080",
	"teal":    "#008080",
	"maroon":  "#800000",
	"olive":   "#808000",
}

// NormalizeColor accepts #RRGGBB, #RGB (with or without '#') or a basic CSS
// colour name and returns #RRGGBB.
func NormalizeColor(s string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return DefaultFontColor, nil
	}
	if hex, ok := namedColors[v]; ok {
		return hex, nil
	}
	v = strings.TrimPrefix(v, "#")
	if len(v) == 3 {
		v = string([]byte{v[0], v[0], v[1], v[1], v[2], v[2]})
	}
	if len(v) != 6 {
		return "", apperr.Newf(apperr.CodeInvalidStyle, "invalid colour %q", s)
	}
	if _, err := strconv.ParseUint(v, 16, 32); err != nil {
		return "", apperr.Newf(apperr.CodeInvalidStyle, "invalid colour %q", s)
	}
	return "#" + strings.ToUpper(v), nil
}

// assColor converts #RRGGBB into the ASS &HBBGGRR& form.
func assColor(hex string) string {
	v := strings.TrimPrefix(hex, "#")
	if len(v) != 6 {
		return "&HFFFFFF&"
	}
	return fmt.Sprintf("&H%s%s%s&", v[4:6], v[2:4], v[0:2])
}
