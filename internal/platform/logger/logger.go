package logger

import (
	"log/slog"
	"os"
)

// New returns the process logger. JSON output when PATHWAY_LOG_FORMAT=json,
// text otherwise; level defaults to info.
func New() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("PATHWAY_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if os.Getenv("PATHWAY_LOG_FORMAT") == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
