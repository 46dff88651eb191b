package wallabag

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"WallabagEnhancer/internal/redact"
)

// errorEnvelope covers both OAuth errors and API errors returned by wallabag.
type errorEnvelope struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Message          string `json:"message"`
}

// HTTPError is a sanitized summary of a non-2xx wallabag response.
//
// Raw bodies are never kept whole; they may echo tokens or credentials.
type HTTPError struct {
	Op         string
	StatusCode int
	Status     string
	Reason     string

	// Snippet is a redacted, truncated hint for unrecognized bodies.
	Snippet string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "wallabag http error"
	}
	parts := []string{
		fmt.Sprintf("wallabag api error: op=%s status=%s", strings.TrimSpace(e.Op), strings.TrimSpace(e.Status)),
	}
	if e.Reason != "" {
		parts = append(parts, "reason="+e.Reason)
	}
	if e.Snippet != "" {
		parts = append(parts, "body="+e.Snippet)
	}
	return strings.Join(parts, " ")
}

// Retryable reports whether the status is worth another attempt.
func (e *HTTPError) Retryable() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}

func newHTTPError(op string, resp *http.Response, body []byte) *HTTPError {
	h := &HTTPError{Op: op}
	if resp != nil {
		h.StatusCode = resp.StatusCode
		h.Status = resp.Status
	}

	var env errorEnvelope
	if len(body) > 0 && json.Unmarshal(body, &env) == nil {
		reason := strings.TrimSpace(strings.Join(nonEmpty(env.Error, env.ErrorDescription, env.Message), ": "))
		if reason != "" {
			h.Reason = redact.Secrets(reason)
			return h
		}
	}

	h.Snippet = redactAndTruncate(body)
	return h
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func redactAndTruncate(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	const max = 256
	b := body
	if len(b) > max {
		b = b[:max]
	}
	s := redact.Secrets(string(b))
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if len(body) > max {
		return s + "..."
	}
	return s
}
