package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/forPelevin/clipcap/internal/apperr"
	"github.com/forPelevin/clipcap/internal/domain/highlights"
	"github.com/forPelevin/clipcap/internal/domain/timeline"
	"github.com/forPelevin/clipcap/internal/types"
)

// ClipSpec is one manual clip as written by the user. Start and End accept
// anything timeline.ParseTimestamp does.
type ClipSpec struct {
	Name  string `yaml:"name"`
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

type clipFile struct {
	Clips []ClipSpec `yaml:"clips"`
}

// LoadClipFile reads a YAML clip list, either a bare sequence or a mapping
// with a "clips" key:
//
//	clips:
//	  - name: intro
//	    start: "00:05"
//	    end: "00:20"
func LoadClipFile(path string) ([]ClipSpec, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInvalidParams, "read clips file", err)
	}

	var node yaml.Node
	if err := yaml.Unmarshal(b, &node); err != nil {
		return nil, apperr.Wrap(apperr.CodeInvalidParams, "parse clips file "+path, err)
	}
	if len(node.Content) == 0 {
		return nil, nil
	}

	root := node.Content[0]
	if root.Kind == yaml.SequenceNode {
		var specs []ClipSpec
		if err := root.Decode(&specs); err != nil {
			return nil, apperr.Wrap(apperr.CodeInvalidParams, "decode clips file "+path, err)
		}
		return specs, nil
	}
	var f clipFile
	if err := root.Decode(&f); err != nil {
		return nil, apperr.Wrap(apperr.CodeInvalidParams, "decode clips file "+path, err)
	}
	return f.Clips, nil
}

// ParseClipFlag parses "[name=]start-end", e.g. "intro=00:05-00:20" or
// "83.5-90".
func ParseClipFlag(s string) (ClipSpec, error) {
	var spec ClipSpec
	rest := strings.TrimSpace(s)
	if name, window, ok := strings.Cut(rest, "="); ok {
		spec.Name = strings.TrimSpace(name)
		rest = window
	}
	start, end, ok := strings.Cut(rest, "-")
	if !ok {
		return ClipSpec{}, apperr.Newf(apperr.CodeInvalidParams, "clip %q: want [name=]start-end", s)
	}
	spec.Start, spec.End = strings.TrimSpace(start), strings.TrimSpace(end)
	return spec, nil
}

// ClipRequests turns specs into validated manual ClipRequests. Unnamed clips
// are labelled by position.
func ClipRequests(specs []ClipSpec) ([]types.ClipRequest, error) {
	out := make([]types.ClipRequest, 0, len(specs))
	for i, sp := range specs {
		start, err := timeline.ParseTimestamp(sp.Start)
		if err != nil {
			return nil, apperr.Wrap(apperr.CodeInvalidRange, "clip "+label(sp, i)+" start", err)
		}
		end, err := timeline.ParseTimestamp(sp.End)
		if err != nil {
			return nil, apperr.Wrap(apperr.CodeInvalidRange, "clip "+label(sp, i)+" end", err)
		}
		name := strings.TrimSpace(sp.Name)
		if name == "" {
			name = highlights.ManualName(i + 1)
		}
		req, err := types.NewClipRequest(name, start, end, types.OriginManual)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, nil
}

func label(sp ClipSpec, i int) string {
	if sp.Name != "" {
		return sp.Name
	}
	return highlights.ManualName(i + 1)
}

// ManualClips collects --clip values and the clips file, in that order.
func (s Settings) ManualClips() ([]types.ClipRequest, error) {
	var specs []ClipSpec
	for _, raw := range s.Clip {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		sp, err := ParseClipFlag(raw)
		if err != nil {
			return nil, err
		}
		specs = append(specs, sp)
	}
	if s.ClipsFile != "" {
		fromFile, err := LoadClipFile(s.ClipsFile)
		if err != nil {
			return nil, err
		}
		specs = append(specs, fromFile...)
	}
	return ClipRequests(specs)
}
