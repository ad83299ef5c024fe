package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forPelevin/clipcap/internal/apperr"
	"github.com/forPelevin/clipcap/internal/types"
)

func testFlags() *pflag.FlagSet {
	d := Defaults()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("out", d.Out, "")
	fs.Int("clips", d.Clips, "")
	fs.Int("font-size", d.FontSize, "")
	fs.StringArray("clip", nil, "")
	fs.Duration("timeout", d.Timeout, "")
	return fs
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	s, err := Load(Options{})
	require.NoError(t, err)
	assert.Equal(t, Defaults(), withoutSlices(s))
}

// withoutSlices normalizes empty slices that viper decodes as non-nil.
func withoutSlices(s Settings) Settings {
	if len(s.Clip) == 0 {
		s.Clip = nil
	}
	if len(s.WhisperAllowedHosts) == 0 {
		s.WhisperAllowedHosts = nil
	}
	return s
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	cfg := filepath.Join(dir, "clipcap.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(`
out: from-file
clips: 7
font-size: 30
ratio: "9:16"
whisper-allowed-hosts: [asr.internal]
timeout: 90m
`), 0o644))
	t.Setenv("CLIPCAP_CLIPS", "9")
	t.Setenv("CLIPCAP_FONT_COLOR", "yellow")

	fs := testFlags()
	require.NoError(t, fs.Parse([]string{"--font-size", "40", "--clip", "a=1-2", "--clip", "b=3-4"}))

	s, err := Load(Options{Flags: fs})
	require.NoError(t, err)
	assert.Equal(t, "from-file", s.Out, "file beats unchanged flag default")
	assert.Equal(t, 9, s.Clips, "env beats file")
	assert.Equal(t, 40, s.FontSize, "changed flag beats file")
	assert.Equal(t, "yellow", s.FontColor)
	assert.Equal(t, "9:16", s.Ratio)
	assert.Equal(t, []string{"asr.internal"}, s.WhisperAllowedHosts)
	assert.Equal(t, 90*time.Minute, s.Timeout)
	assert.Equal(t, []string{"a=1-2", "b=3-4"}, s.Clip)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CLIPCAP_WORKERS=4\n"), 0o644))
	t.Cleanup(func() { _ = os.Unsetenv("CLIPCAP_WORKERS") })

	s, err := Load(Options{})
	require.NoError(t, err)
	assert.Equal(t, 4, s.Workers)
}

func TestLoad_MissingExplicitConfig(t *testing.T) {
	chdir(t, t.TempDir())
	_, err := Load(Options{ConfigFile: "nope.yaml"})
	assert.True(t, apperr.Is(err, apperr.CodeInvalidParams))
}

func TestValidate(t *testing.T) {
	ok := Defaults()
	require.NoError(t, ok.Validate())

	for name, mutate := range map[string]func(*Settings){
		"clips":   func(s *Settings) { s.Clips = 0 },
		"min":     func(s *Settings) { s.MinSec = -1 },
		"workers": func(s *Settings) { s.Workers = 0 },
		"timeout": func(s *Settings) { s.Timeout = 0 },
		"asr":     func(s *Settings) { s.ASR = "cloud" },
	} {
		t.Run(name, func(t *testing.T) {
			s := Defaults()
			mutate(&s)
			assert.True(t, apperr.Is(s.Validate(), apperr.CodeInvalidParams))
		})
	}
}

func TestParseClipFlag(t *testing.T) {
	sp, err := ParseClipFlag("intro=00:05-00:20.5")
	require.NoError(t, err)
	assert.Equal(t, ClipSpec{Name: "intro", Start: "00:05", End: "00:20.5"}, sp)

	sp, err = ParseClipFlag("83.5-90")
	require.NoError(t, err)
	assert.Equal(t, ClipSpec{Start: "83.5", End: "90"}, sp)

	_, err = ParseClipFlag("intro=00:05")
	assert.True(t, apperr.Is(err, apperr.CodeInvalidParams))
}

func TestClipRequests(t *testing.T) {
	got, err := ClipRequests([]ClipSpec{
		{Name: "intro", Start: "00:05", End: "00:20"},
		{Start: "1:00:00", End: "1:00:30.25"},
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, types.ClipRequest{Name: "intro", Start: 5 * time.Second, End: 20 * time.Second, Origin: types.OriginManual}, got[0])
	assert.Equal(t, "manual-02", got[1].Name)
	assert.Equal(t, time.Hour+30250*time.Millisecond, got[1].End)

	_, err = ClipRequests([]ClipSpec{{Start: "20", End: "10"}})
	assert.True(t, apperr.Is(err, apperr.CodeInvalidRange))

	_, err = ClipRequests([]ClipSpec{{Start: "1:75", End: "2:00"}})
	assert.True(t, apperr.Is(err, apperr.CodeInvalidRange))
}

func TestLoadClipFile(t *testing.T) {
	dir := t.TempDir()

	mapped := filepath.Join(dir, "mapped.yaml")
	require.NoError(t, os.WriteFile(mapped, []byte(`
clips:
  - name: intro
    start: "00:05"
    end: "00:20"
  - start: 30
    end: 45
`), 0o644))
	specs, err := LoadClipFile(mapped)
	require.NoError(t, err)
	assert.Equal(t, []ClipSpec{{Name: "intro", Start: "00:05", End: "00:20"}, {Start: "30", End: "45"}}, specs)

	bare := filepath.Join(dir, "bare.yaml")
	require.NoError(t, os.WriteFile(bare, []byte("- {name: a, start: '1', end: '2'}\n"), 0o644))
	specs, err = LoadClipFile(bare)
	require.NoError(t, err)
	assert.Equal(t, []ClipSpec{{Name: "a", Start: "1", End: "2"}}, specs)

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("clips: [\n"), 0o644))
	_, err = LoadClipFile(broken)
	assert.True(t, apperr.Is(err, apperr.CodeInvalidParams))
}

func TestManualClips(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "clips.yaml")
	require.NoError(t, os.WriteFile(file, []byte("- {name: from-file, start: '10', end: '20'}\n"), 0o644))

	s := Defaults()
	s.Clip = []string{"flagged=0-5", " "}
	s.ClipsFile = file

	got, err := s.ManualClips()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "flagged", got[0].Name)
	assert.Equal(t, "from-file", got[1].Name)
}
