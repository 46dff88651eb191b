package redact

import (
	"regexp"
	"strings"
)

var (
	// Matches "Bearer <token>" (JWTs and opaque tokens).
	bearerTokenRe = regexp.MustCompile(`(?i)\bBearer\s+[^\s"']+`)

	// Form/query/json style credentials, e.g. access_token=..., "password":"...".
	credentialKVRe = regexp.MustCompile(`(?i)"?\b(access_token|refresh_token|client_secret|password)\b"?\s*[:=]\s*"?[^\s"'&,}]+"?`)
)

// Secrets removes obvious secret-bearing substrings from error/log strings.
func Secrets(s string) string {
	if s == "" {
		return ""
	}
	out := bearerTokenRe.ReplaceAllString(s, "Bearer <redacted>")
	out = credentialKVRe.ReplaceAllString(out, "$1=<redacted>")
	return strings.TrimSpace(out)
}

// Error is Secrets applied to err.Error(); nil yields "".
func Error(err error) string {
	if err == nil {
		return ""
	}
	return Secrets(err.Error())
}
