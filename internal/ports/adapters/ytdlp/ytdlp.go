// Package ytdlp fetches remote sources with the yt-dlp binary.
package ytdlp

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/forPelevin/clipcap/internal/apperr"
)

type Options struct {
	Bin            string
	FfmpegLocation string
	Proxy          string
	CookiesFile    string
}

type Adapter struct {
	opts Options
}

func New(opts Options) *Adapter {
	if opts.Bin == "" {
		opts.Bin = "yt-dlp"
	}
	return &Adapter{opts: opts}
}

// IsURL reports whether input should be fetched rather than opened locally.
func IsURL(input string) bool {
	u, err := url.Parse(strings.TrimSpace(input))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (a *Adapter) args(link, dir string) []string {
	args := []string{
		"--no-playlist",
		"--encoding", "utf-8",
		"-f", "bv*[ext=mp4]+ba[ext=m4a]/b[ext=mp4]/b",
		"--merge-output-format", "mp4",
		"-o", filepath.Join(dir, "source.%(ext)s"),
		"--print", "after_move:filepath",
	}
	if a.opts.FfmpegLocation != "" {
		args = append(args, "--ffmpeg-location", a.opts.FfmpegLocation)
	}
	if a.opts.Proxy != "" {
		args = append(args, "--proxy", a.opts.Proxy)
	}
	if a.opts.CookiesFile != "" {
		args = append(args, "--cookies", a.opts.CookiesFile)
	}
	return append(args, link)
}

// Fetch downloads link into dir and returns the path yt-dlp reports for the
// final merged file.
func (a *Adapter) Fetch(ctx context.Context, link, dir string) (string, error) {
	if !IsURL(link) {
		return "", apperr.Newf(apperr.CodeInvalidParams, "not a fetchable URL: %q", link)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", apperr.Wrap(apperr.CodeFetch, "create download dir", err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, a.opts.Bin, a.args(link, dir)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", apperr.Wrap(apperr.CodeFetch, "yt-dlp download", fmt.Errorf("%w\n%s", err, stderr.String()))
	}

	path := lastLine(stdout.String())
	if path == "" {
		return "", apperr.New(apperr.CodeFetch, "yt-dlp reported no output file")
	}
	if _, err := os.Stat(path); err != nil {
		return "", apperr.Wrap(apperr.CodeFetch, "downloaded file missing", err)
	}
	return path, nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
