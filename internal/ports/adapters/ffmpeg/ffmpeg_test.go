package ffmpeg

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forPelevin/clipcap/internal/apperr"
	"github.com/forPelevin/clipcap/internal/domain/framing"
	"github.com/forPelevin/clipcap/internal/ports"
)

func argAfter(t *testing.T, args []string, flag string) string {
	t.Helper()
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	t.Fatalf("flag %s not found in %v", flag, args)
	return ""
}

func TestRenderArgs_VerticalCropOnPresetCanvas(t *testing.T) {
	plan, err := framing.NewPlan(1920, 1080, framing.Ratio9x16, framing.MethodCrop, framing.Preset(framing.Ratio9x16), framing.StrategyPad)
	require.NoError(t, err)

	args := renderArgs(ports.RenderJob{
		Input:         "in.mp4",
		Start:         10 * time.Second,
		End:           25500 * time.Millisecond,
		Plan:          plan,
		SubtitlesPath: "subs.ass",
		Output:        "out.mp4",
	})

	assert.Equal(t, "10.000", argAfter(t, args, "-ss"))
	assert.Equal(t, "15.500", argAfter(t, args, "-t"))
	assert.Equal(t, "in.mp4", argAfter(t, args, "-i"))
	assert.Equal(t, "libx264", argAfter(t, args, "-c:v"))
	assert.Contains(t, args, "out.mp4")
	assert.Contains(t, args, "-y")
	assert.Contains(t, args, "0:a?")

	graph := argAfter(t, args, "-filter_complex")
	crop := strings.Index(graph, "crop=607:1080:656:0")
	pad := strings.Index(graph, "pad=1080:1920:236:420")
	ass := strings.Index(graph, "ass=subs.ass")
	even := strings.Index(graph, "trunc(iw/2)*2")
	require.True(t, crop >= 0 && pad >= 0 && ass >= 0 && even >= 0, graph)
	assert.Less(t, crop, pad)
	assert.Less(t, pad, ass)
	assert.Less(t, ass, even)
}

func TestRenderArgs_OriginalWithoutSubtitles(t *testing.T) {
	plan, err := framing.NewPlan(1280, 720, framing.RatioOriginal, framing.MethodCrop, framing.Size{}, framing.StrategyPad)
	require.NoError(t, err)

	args := renderArgs(ports.RenderJob{Input: "in.mp4", Start: 0, End: time.Second, Plan: plan, Output: "o.mp4"})
	graph := argAfter(t, args, "-filter_complex")
	assert.NotContains(t, graph, "crop=")
	assert.NotContains(t, graph, "pad=")
	assert.NotContains(t, graph, "ass=")
	assert.Contains(t, graph, "setsar=1")
}

func TestRenderArgs_ResizeScalesBeforePadding(t *testing.T) {
	plan, err := framing.NewPlan(640, 480, framing.Ratio16x9, framing.MethodCrop, framing.Size{Width: 1920, Height: 1080}, framing.StrategyResize)
	require.NoError(t, err)

	graph := argAfter(t, renderArgs(ports.RenderJob{Input: "i", End: time.Second, Plan: plan, Output: "o"}), "-filter_complex")
	assert.Contains(t, graph, "crop=640:360:0:60")
	assert.Contains(t, graph, "scale=1920:1080")
}

func TestRenderClip_EmptyWindow(t *testing.T) {
	err := New("").RenderClip(context.Background(), ports.RenderJob{Start: time.Second, End: time.Second})
	assert.True(t, apperr.Is(err, apperr.CodeInvalidRange))
}

func TestParseProbe(t *testing.T) {
	info, err := parseProbe([]byte(`{
		"streams": [
			{"codec_type": "audio"},
			{"codec_type": "video", "width": 1920, "height": 1080, "duration": "9.9"}
		],
		"format": {"duration": "12.480000"}
	}`))
	require.NoError(t, err)
	assert.Equal(t, 1920, info.Width)
	assert.Equal(t, 1080, info.Height)
	assert.Equal(t, 12480*time.Millisecond, info.Duration)

	_, err = parseProbe([]byte(`{"streams":[{"codec_type":"audio"}],"format":{}}`))
	assert.True(t, apperr.Is(err, apperr.CodeProbe))
}
