package whisperhttp

import (
	"net/url"
	"strings"

	"github.com/forPelevin/clipcap/internal/apperr"
)

const DefaultBaseURL = "http://localhost:8387"

var defaultAllowedHosts = map[string]struct{}{
	"localhost": {},
	"127.0.0.1": {},
	"::1":       {},
}

func normalizeBaseURL(baseURL string) string {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return strings.TrimRight(baseURL, "/")
}

// ValidateBaseURL accepts an absolute http(s) URL without userinfo, query or
// fragment whose host is in allowedHosts. An empty allow-list means loopback
// only, so audio never leaves the machine unless a host is named explicitly.
func ValidateBaseURL(baseURL string, allowedHosts []string) error {
	baseURL = normalizeBaseURL(baseURL)

	u, err := url.Parse(baseURL)
	if err != nil {
		return apperr.Wrap(apperr.CodeInvalidParams, "invalid transcription URL", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return apperr.Newf(apperr.CodeInvalidParams, "invalid transcription URL %q: absolute URL with host is required", baseURL)
	}
	if u.User != nil {
		return apperr.Newf(apperr.CodeInvalidParams, "invalid transcription URL %q: userinfo is not allowed", baseURL)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return apperr.Newf(apperr.CodeInvalidParams, "invalid transcription URL %q: query and fragment are not allowed", baseURL)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return apperr.Newf(apperr.CodeInvalidParams, "invalid transcription URL %q: http or https is required", baseURL)
	}

	host := strings.ToLower(u.Hostname())
	if _, ok := normalizeAllowedHosts(allowedHosts)[host]; !ok {
		return apperr.Newf(apperr.CodeInvalidParams, "invalid transcription URL %q: host %q is not in the allowed hosts", baseURL, host)
	}
	return nil
}

func normalizeAllowedHosts(allowedHosts []string) map[string]struct{} {
	out := make(map[string]struct{}, len(allowedHosts))
	for _, h := range allowedHosts {
		v := strings.ToLower(strings.TrimSpace(h))
		v = strings.TrimPrefix(v, "http://")
		v = strings.TrimPrefix(v, "https://")
		v = strings.Trim(v, "/")
		switch {
		case strings.HasPrefix(v, "["):
			if i := strings.Index(v, "]"); i > 0 {
				v = v[1:i]
			}
		case strings.Count(v, ":") == 1:
			v = v[:strings.Index(v, ":")]
		}
		if v == "" {
			continue
		}
		out[v] = struct{}{}
	}
	if len(out) == 0 {
		return defaultAllowedHosts
	}
	return out
}
