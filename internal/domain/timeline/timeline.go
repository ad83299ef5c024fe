// Package timeline maps source-video transcript timing onto the local
// timeline of an extracted clip.
package timeline

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/forPelevin/clipcap/internal/domain/transcript"
	"github.com/forPelevin/clipcap/internal/types"
)

// Resolve returns the transcript text overlapping [start, end), re-timed
// relative to start. A segment is kept only when the intersection of its span
// with the window is non-empty; straddling segments contribute just the part
// inside the window. Blank text is dropped. tr is not modified.
func Resolve(tr types.Transcript, start, end time.Duration) []types.ClipSegment {
	if end <= start {
		return nil
	}
	var out []types.ClipSegment
	for _, s := range transcript.Sorted(tr).Segments {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		lo := maxDur(start, Seconds(s.Start))
		hi := minDur(end, Seconds(s.End))
		if lo >= hi {
			continue
		}
		out = append(out, types.ClipSegment{Text: text, Start: lo - start, End: hi - start})
	}
	return out
}

// Seconds converts float seconds to a Duration, rounded to the microsecond so
// that values like 0.1 do not pick up binary fraction noise.
func Seconds(sec float64) time.Duration {
	return time.Duration(sec*1e6+0.5*sign(sec)) * time.Microsecond
}

func sign(x float64) float64 {
	if x < 0 {
		return -1
	}
	return 1
}

func maxDur(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}

func minDur(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}

// ParseTimestamp accepts plain seconds ("83.5") or colon separated
// "MM:SS(.fff)" / "HH:MM:SS(.fff)".
func ParseTimestamp(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid timestamp %q", s)
	}
	var total float64
	for i, p := range parts {
		last := i == len(parts)-1
		if last {
			v, err := strconv.ParseFloat(p, 64)
			if err != nil || v < 0 {
				return 0, fmt.Errorf("invalid timestamp %q", s)
			}
			if len(parts) > 1 && v >= 60 {
				return 0, fmt.Errorf("invalid timestamp %q: seconds must be < 60", s)
			}
			total = total*60 + v
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid timestamp %q", s)
		}
		if i > 0 && v >= 60 {
			return 0, fmt.Errorf("invalid timestamp %q: minutes must be < 60", s)
		}
		total = total*60 + float64(v)
	}
	return Seconds(total), nil
}

// FormatTimestamp renders d as HH:MM:SS.mmm.
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	ms := d / time.Millisecond
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}
