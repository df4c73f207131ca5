// Package logging builds the CLI's slog logger. The solver packages never
// log; everything operational goes through the logger built here.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	EnvLevel  = "PETRODE_LOG_LEVEL"
	EnvFormat = "PETRODE_LOG_FORMAT"
)

// ParseLevel maps debug, info, warn and error (case-insensitive) to a slog
// level. Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates a leveled logger writing to w, as JSON when format is "json"
// and as text otherwise.
func New(level, format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// FromEnv fills empty level and format from PETRODE_LOG_LEVEL and
// PETRODE_LOG_FORMAT before calling New.
func FromEnv(level, format string, w io.Writer) *slog.Logger {
	if level == "" {
		level = os.Getenv(EnvLevel)
	}
	if format == "" {
		format = os.Getenv(EnvFormat)
	}
	return New(level, format, w)
}

// Discard drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
