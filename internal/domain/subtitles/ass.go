package subtitles

import (
	"fmt"
	"strings"
	"time"

	"github.com/forPelevin/clipcap/internal/types"
)

// RenderASS writes placements as an ASS script whose PlayRes matches the
// canvas, so placement coordinates are used as-is by libass. Every placement
// becomes one Dialogue event with its own layer, margins and colour tags.
func RenderASS(placements []types.CaptionPlacement, canvasWidth, canvasHeight int, fontName string) string {
	if fontName == "" {
		fontName = DefaultFontName
	}
	var b strings.Builder
	b.WriteString(assHeader(canvasWidth, canvasHeight, fontName))
	b.WriteString("\n[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	for i, p := range placements {
		// Alignment 8 is top-centre: MarginV is the distance from the top
		// edge and the side margins bound the wrap width.
		side := (canvasWidth - p.MaxWidth) / 2
		if side < 0 {
			side = 0
		}
		fmt.Fprintf(&b, "Dialogue: %d,%s,%s,Caption,,%d,%d,%d,,{\\an8\\fs%d\\1c%s\\3c%s\\bord%d}%s\n",
			i,
			assTime(p.Start),
			assTime(p.Start+p.Duration),
			side, side, p.Y,
			p.FontSize,
			assColor(p.FontColor),
			assColor(OutlineColor),
			p.OutlineWidth,
			sanitizeASS(p.Text),
		)
	}
	return b.String()
}

func assHeader(w, h int, fontName string) string {
	return fmt.Sprintf(strings.TrimSpace(`
[Script Info]
ScriptType: v4.00+
PlayResX: %d
PlayResY: %d
WrapStyle: 0
ScaledBorderAndShadow: yes

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Caption, %s, %d, &H00FFFFFF, &H00FFFFFF, &H00000000, &H64000000, 0,0,0,0,100,100,0,0,1,%d,0,8, 0,0,0,1
`), w, h, fontName, DefaultFontSize, OutlineWidth)
}

func assTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hs := int(d / time.Hour)
	d -= time.Duration(hs) * time.Hour
	ms := int(d / time.Minute)
	d -= time.Duration(ms) * time.Minute
	s := int(d / time.Second)
	d -= time.Duration(s) * time.Second
	cs := int(d / (10 * time.Millisecond))
	return fmt.Sprintf("%d:%02d:%02d.%02d", hs, ms, s, cs)
}

func sanitizeASS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}
