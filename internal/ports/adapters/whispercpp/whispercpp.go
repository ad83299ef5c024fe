// Package whispercpp runs a local whisper.cpp binary as the ASR backend.
package whispercpp

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/forPelevin/clipcap/internal/apperr"
	"github.com/forPelevin/clipcap/internal/domain/transcript"
	"github.com/forPelevin/clipcap/internal/types"
)

type Adapter struct {
	bin      string
	model    string
	language string
}

func New(binPath, modelPath, language string) *Adapter {
	if binPath == "" {
		binPath = "whisper-cli"
	}
	return &Adapter{bin: binPath, model: modelPath, language: language}
}

func (a *Adapter) args(wavPath, outPrefix string) []string {
	args := []string{
		"-m", a.model,
		"-f", wavPath,
		"-oj",
		"-of", outPrefix,
	}
	if a.language != "" {
		args = append(args, "-l", a.language)
	}
	return args
}

// Transcribe writes whisper.cpp's JSON next to the audio in cacheDir and
// decodes it.
func (a *Adapter) Transcribe(ctx context.Context, wavPath, cacheDir string) (types.Transcript, error) {
	if a.model == "" {
		return types.Transcript{}, apperr.New(apperr.CodeInvalidParams, "whisper.cpp model path is required")
	}
	outPrefix := filepath.Join(cacheDir, "whisper")
	cmd := exec.CommandContext(ctx, a.bin, a.args(wavPath, outPrefix)...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return types.Transcript{}, apperr.Wrap(apperr.CodeTranscribe, "whisper.cpp failed", fmt.Errorf("%w\n%s", err, string(b)))
	}

	tr, err := transcript.Load(outPrefix + ".json")
	if err != nil {
		return types.Transcript{}, apperr.Wrap(apperr.CodeTranscribe, "read whisper.cpp output", err)
	}
	return tr, nil
}
