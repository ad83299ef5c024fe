//go:build integration

package itest

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/forPelevin/clipcap/internal/ports"
	"github.com/forPelevin/clipcap/internal/ports/adapters/ffmpeg"
)

func probe(path string) (ports.MediaInfo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return ffmpeg.New("").Probe(ctx, path)
}

// makeFixture renders a w x h test pattern with a sine tone.
func makeFixture(path string, w, h int, seconds float64) error {
	cmd := exec.Command("ffmpeg",
		"-y",
		"-f", "lavfi",
		"-i", fmt.Sprintf("testsrc2=s=%dx%d:d=%g:r=25", w, h, seconds),
		"-f", "lavfi",
		"-i", fmt.Sprintf("sine=frequency=440:duration=%g", seconds),
		"-shortest",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		path,
	)
	if b, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg fixture: %w\n%s", err, string(b))
	}
	return nil
}
