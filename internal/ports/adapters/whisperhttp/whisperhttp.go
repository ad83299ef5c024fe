// Package whisperhttp transcribes audio through a faster-whisper style HTTP
// sidecar (POST /transcribe, GET /health).
package whisperhttp

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/forPelevin/clipcap/internal/apperr"
	"github.com/forPelevin/clipcap/internal/domain/transcript"
	"github.com/forPelevin/clipcap/internal/types"
)

const (
	defaultModel   = "base"
	defaultTimeout = 10 * time.Minute
)

type Config struct {
	BaseURL      string
	AllowedHosts []string
	Model        string
	Language     string
	Timeout      time.Duration
}

type Adapter struct {
	cfg    Config
	client *resty.Client
}

// New validates cfg.BaseURL against the allow-list and builds the client.
func New(cfg Config) (*Adapter, error) {
	if err := ValidateBaseURL(cfg.BaseURL, cfg.AllowedHosts); err != nil {
		return nil, err
	}
	cfg.BaseURL = normalizeBaseURL(cfg.BaseURL)
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	return &Adapter{cfg: cfg, client: client}, nil
}

// Healthy reports whether the sidecar answers GET /health with 200.
func (a *Adapter) Healthy(ctx context.Context) bool {
	resp, err := a.client.R().SetContext(ctx).Get("/health")
	if err != nil {
		return false
	}
	return resp.StatusCode() == http.StatusOK
}

// Transcribe uploads wavPath as multipart field "audio". cacheDir is unused;
// the sidecar keeps no local artifacts.
func (a *Adapter) Transcribe(ctx context.Context, wavPath, _ string) (types.Transcript, error) {
	form := map[string]string{"model": a.cfg.Model}
	if a.cfg.Language != "" {
		form["language"] = a.cfg.Language
	}
	resp, err := a.client.R().
		SetContext(ctx).
		SetFile("audio", wavPath).
		SetFormData(form).
		Post("/transcribe")
	if err != nil {
		return types.Transcript{}, apperr.Wrap(apperr.CodeTranscribe, "whisper request", err)
	}
	if resp.IsError() {
		return types.Transcript{}, apperr.WrapWithDetail(apperr.CodeTranscribe, "whisper error",
			resp.Status(), errBody(resp.String()))
	}
	tr, err := transcript.Decode(resp.Body())
	if err != nil {
		return types.Transcript{}, apperr.Wrap(apperr.CodeTranscribe, "decode whisper response", err)
	}
	return tr, nil
}

type errBody string

func (e errBody) Error() string { return string(e) }
