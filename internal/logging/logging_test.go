package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestLevelFromString(t *testing.T) {
	t.Parallel()

	cases := map[string]slog.Level{
		"error":   slog.LevelError,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		" info ":  slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"":        slog.LevelDebug,
	}
	for in, want := range cases {
		if got := LevelFromString(in); got != want {
			t.Fatalf("LevelFromString(%q)=%v want %v", in, got, want)
		}
	}
}

func TestTextFormatFiltersByLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "warn", "text")
	logger.Info("hidden")
	logger.Warn("shown", "article_id", "7")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info record must be filtered: %q", out)
	}
	if !strings.Contains(out, "msg=shown") || !strings.Contains(out, "article_id=7") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestJSONFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	NewWithWriter(&buf, "info", "json").Info("run finished", "run_id", "abc")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected JSON line, got %q: %v", buf.String(), err)
	}
	if rec["msg"] != "run finished" || rec["run_id"] != "abc" {
		t.Fatalf("unexpected record %v", rec)
	}
}

func TestSecretsAreRedacted(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	NewWithWriter(&buf, "debug", "text").Error("request failed", "error", "401 for Bearer eyJhbGciOi.token")

	out := buf.String()
	if strings.Contains(out, "eyJhbGciOi") {
		t.Fatalf("token leaked: %q", out)
	}
	if !strings.Contains(out, "Bearer <redacted>") {
		t.Fatalf("expected redaction marker in %q", out)
	}
}
