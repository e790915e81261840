// Package observability sets up structured logging and tracing.
package observability

import (
	"io"
	"log/slog"
	"strings"

	"github.com/m4xw311/steward/errors"
)

// ParseLevel parses "debug", "info", "warn" or "error" (any case).
// "warning" is accepted for "warn".
func ParseLevel(s string) (slog.Level, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "warning") {
		s = "warn"
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, errors.InvalidInput("unknown log level %q", s)
	}
	return level, nil
}

// InitLogging installs a text handler writing to w at level as the
// default logger. Components derive their loggers from slog.Default.
func InitLogging(level slog.Level, w io.Writer) {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
