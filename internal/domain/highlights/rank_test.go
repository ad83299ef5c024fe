package highlights

import (
	"testing"
	"time"

	"github.com/forPelevin/clipcap/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRank_OnlyQualifyingSegment(t *testing.T) {
	tr := types.Transcript{Segments: []types.Segment{
		{Start: 0, End: 5, Text: "a"},
		{Start: 5, End: 20, Text: "b"},
		{Start: 20, End: 25, Text: "c"},
	}}

	got := Rank(tr, 25*time.Second, 1, 10*time.Second)

	require.Len(t, got, 1)
	assert.Equal(t, 5*time.Second, got[0].Start)
	assert.Equal(t, 20*time.Second, got[0].End)
	assert.Equal(t, types.OriginAuto, got[0].Origin)
	assert.Equal(t, "auto-01-15s", got[0].Name)
	assert.InDelta(t, 15.0, got[0].Score, 1e-9)
}

func TestRank_EmptyTranscriptFallsBack(t *testing.T) {
	got := Rank(types.Transcript{}, 12*time.Second, 3, 10*time.Second)

	require.Len(t, got, 1)
	assert.Equal(t, time.Duration(0), got[0].Start)
	assert.Equal(t, 12*time.Second, got[0].End)
	assert.Equal(t, types.OriginFallback, got[0].Origin)
	assert.Equal(t, "fallback-12s", got[0].Name)
}

func TestRank_FallbackCappedAt30s(t *testing.T) {
	tr := types.Transcript{Segments: []types.Segment{{Start: 0, End: 2, Text: "short"}}}

	long := Rank(tr, 10*time.Minute, 2, 10*time.Second)
	require.Len(t, long, 1)
	assert.Equal(t, FallbackLength, long[0].End)

	unknown := Rank(tr, 0, 2, 10*time.Second)
	require.Len(t, unknown, 1)
	assert.Equal(t, FallbackLength, unknown[0].End)
}

func TestRank_OrderAndTies(t *testing.T) {
	tr := types.Transcript{Segments: []types.Segment{
		{Start: 0, End: 12, Text: "tie-first"},
		{Start: 20, End: 40, Text: "longest"},
		{Start: 50, End: 62, Text: "tie-second"},
		{Start: 70, End: 71, Text: "too short"},
	}}

	got := Rank(tr, 0, 10, 5*time.Second)

	require.Len(t, got, 3)
	assert.Equal(t, 20*time.Second, got[0].Start)
	assert.Equal(t, time.Duration(0), got[1].Start)
	assert.Equal(t, 50*time.Second, got[2].Start)
	assert.Equal(t, "auto-02-12s", got[1].Name)
	assert.Equal(t, "auto-03-12s", got[2].Name)
}

func TestRank_CountLimitsOutput(t *testing.T) {
	tr := types.Transcript{Segments: []types.Segment{
		{Start: 0, End: 10}, {Start: 10, End: 30}, {Start: 30, End: 45},
	}}
	got := Rank(tr, 0, 2, time.Second)
	require.Len(t, got, 2)
	assert.Equal(t, 10*time.Second, got[0].Start)
	assert.Equal(t, 30*time.Second, got[1].Start)

	one := Rank(tr, 0, 0, time.Second)
	assert.Len(t, one, 1)
}

func TestRank_ClampsToVideoDuration(t *testing.T) {
	tr := types.Transcript{Segments: []types.Segment{{Start: 50, End: 70, Text: "tail"}}}

	got := Rank(tr, 60*time.Second, 1, 5*time.Second)

	require.Len(t, got, 1)
	assert.Equal(t, 60*time.Second, got[0].End)
	assert.NoError(t, got[0].Validate())
}

func TestRank_Deterministic(t *testing.T) {
	tr := types.Transcript{Segments: []types.Segment{
		{Start: 3, End: 9}, {Start: 0, End: 6}, {Start: 10, End: 16}, {Start: 20, End: 21},
	}}
	before := append([]types.Segment(nil), tr.Segments...)

	a := Rank(tr, 0, 3, 2*time.Second)
	b := Rank(tr, 0, 3, 2*time.Second)

	assert.Equal(t, a, b)
	assert.Equal(t, before, tr.Segments)
}

func TestManualName(t *testing.T) {
	assert.Equal(t, "manual-03", ManualName(3))
}
