// Package transcript normalizes and decodes speech transcripts produced by
// the transcription backends.
package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/forPelevin/clipcap/internal/types"
)

// Sorted returns a copy of tr with segments stably ordered by start time.
// Segments sharing a start keep their original order.
func Sorted(tr types.Transcript) types.Transcript {
	segs := make([]types.Segment, len(tr.Segments))
	copy(segs, tr.Segments)
	sort.SliceStable(segs, func(i, j int) bool { return segs[i].Start < segs[j].Start })
	return types.Transcript{Segments: segs, Language: tr.Language}
}

// Normalize is Sorted plus whitespace trimming of segment and word text.
func Normalize(tr types.Transcript) types.Transcript {
	out := Sorted(tr)
	for i := range out.Segments {
		s := &out.Segments[i]
		s.Text = strings.TrimSpace(s.Text)
		if len(s.Words) == 0 {
			continue
		}
		words := make([]types.Word, len(s.Words))
		for j, w := range s.Words {
			w.Word = strings.TrimSpace(w.Word)
			words[j] = w
		}
		s.Words = words
	}
	return out
}

// Duration is the latest segment end, in seconds.
func Duration(tr types.Transcript) float64 {
	var end float64
	for _, s := range tr.Segments {
		if s.End > end {
			end = s.End
		}
	}
	return end
}

// whisper.cpp -oj layout; offsets are milliseconds.
type whisperCppDoc struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

// Decode accepts either a segments document ({"segments":[{start,end,text}]},
// as written by faster-whisper style servers and by this tool's cache) or the
// whisper.cpp JSON output.
func Decode(b []byte) (types.Transcript, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(b, &probe); err != nil {
		return types.Transcript{}, fmt.Errorf("decode transcript: %w", err)
	}

	if _, ok := probe["transcription"]; ok {
		var doc whisperCppDoc
		if err := json.Unmarshal(b, &doc); err != nil {
			return types.Transcript{}, fmt.Errorf("decode whisper.cpp transcript: %w", err)
		}
		tr := types.Transcript{Language: doc.Result.Language}
		for _, s := range doc.Transcription {
			tr.Segments = append(tr.Segments, types.Segment{
				Start: float64(s.Offsets.From) / 1000,
				End:   float64(s.Offsets.To) / 1000,
				Text:  s.Text,
			})
		}
		return Normalize(tr), nil
	}

	var tr types.Transcript
	if err := json.Unmarshal(b, &tr); err != nil {
		return types.Transcript{}, fmt.Errorf("decode transcript: %w", err)
	}
	return Normalize(tr), nil
}

// Load reads and decodes a transcript file.
func Load(path string) (types.Transcript, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return types.Transcript{}, err
	}
	return Decode(b)
}

// Save writes tr as a segments document.
func Save(path string, tr types.Transcript) error {
	b, err := json.MarshalIndent(tr, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}
	return os.WriteFile(path, b, 0o644)
}
