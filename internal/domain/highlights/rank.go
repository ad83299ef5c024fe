package highlights

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/forPelevin/clipcap/internal/domain/timeline"
	"github.com/forPelevin/clipcap/internal/types"
)

// FallbackLength caps the synthetic clip emitted when nothing qualifies.
const FallbackLength = 30 * time.Second

type candidate struct {
	start time.Duration
	end   time.Duration
	score float64
}

// Rank proposes up to count clip windows, one per transcript segment whose
// duration is at least minDuration, ordered by score (segment length in
// seconds) with ties kept in transcript order.
//
// When no segment qualifies a single fallback window [0, min(30s, videoDuration))
// is returned, so callers always have something to render. A non-positive
// videoDuration means the length is unknown and the fallback spans 30s.
// Rank is pure: the transcript is not modified and equal inputs give equal
// output.
func Rank(tr types.Transcript, videoDuration time.Duration, count int, minDuration time.Duration) []types.ClipRequest {
	if count <= 0 {
		count = 1
	}

	cands := make([]candidate, 0, len(tr.Segments))
	for _, s := range tr.Segments {
		start := timeline.Seconds(s.Start)
		end := timeline.Seconds(s.End)
		if start < 0 {
			continue
		}
		// Windows never extend past the end of the source.
		if videoDuration > 0 && end > videoDuration {
			end = videoDuration
		}
		d := end - start
		if d <= 0 || d < minDuration {
			continue
		}
		cands = append(cands, candidate{start: start, end: end, score: d.Seconds()})
	}

	if len(cands) == 0 {
		return []types.ClipRequest{fallback(videoDuration)}
	}

	sort.SliceStable(cands, func(i, j int) bool { return cands[i].score > cands[j].score })
	if len(cands) > count {
		cands = cands[:count]
	}

	out := make([]types.ClipRequest, 0, len(cands))
	for rank, c := range cands {
		out = append(out, types.ClipRequest{
			Name:   autoName(rank+1, c.end-c.start),
			Start:  c.start,
			End:    c.end,
			Origin: types.OriginAuto,
			Score:  c.score,
		})
	}
	return out
}

func fallback(videoDuration time.Duration) types.ClipRequest {
	end := FallbackLength
	if videoDuration > 0 && videoDuration < end {
		end = videoDuration
	}
	return types.ClipRequest{
		Name:   fmt.Sprintf("fallback-%ds", roundSeconds(end)),
		Start:  0,
		End:    end,
		Origin: types.OriginFallback,
	}
}

func autoName(rank int, d time.Duration) string {
	return fmt.Sprintf("auto-%02d-%ds", rank, roundSeconds(d))
}

// ManualName is the default label for the i-th (1-based) user supplied clip.
func ManualName(i int) string {
	return fmt.Sprintf("manual-%02d", i)
}

func roundSeconds(d time.Duration) int {
	return int(math.Round(d.Seconds()))
}
