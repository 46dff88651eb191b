package logger

import (
	"io"
	"log"
	"log/slog"
)

// New returns a stdlib logger that forwards into base at the given level,
// tagged with component. Used for libraries that only accept printf loggers.
func New(component string, base *slog.Logger, level slog.Level) *log.Logger {
	if base == nil {
		return log.New(io.Discard, "", 0)
	}
	return slog.NewLogLogger(base.With("component", component).Handler(), level)
}
