package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"WallabagEnhancer/internal/redact"
)

// New creates a console slog.Logger with provided level and format strings.
func New(level, format string) *slog.Logger {
	return NewWithWriter(os.Stdout, level, format)
}

// NewWithWriter is New with an explicit destination. Every record is passed
// through secret redaction before it reaches w.
func NewWithWriter(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: LevelFromString(level)}
	out := redactingWriter{w: w}

	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		handler = slog.NewJSONHandler(out, opts)
	default:
		handler = slog.NewTextHandler(out, opts)
	}
	return slog.New(handler)
}

// LevelFromString maps a config value to a slog level. Unknown values mean debug.
func LevelFromString(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "error":
		return slog.LevelError
	case "warn", "warning":
		return slog.LevelWarn
	case "info":
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

type redactingWriter struct {
	w io.Writer
}

// Write reports len(p) on success so handlers don't treat a shorter
// redacted line as a short write.
func (r redactingWriter) Write(p []byte) (int, error) {
	if _, err := io.WriteString(r.w, redact.Secrets(string(p))); err != nil {
		return 0, err
	}
	return len(p), nil
}
