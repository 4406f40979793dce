package app

import (
	"log/slog"
	"os"
)

// NewLogger builds the process logger. Production always emits JSON at info
// level; development defaults to the text handler with debug and source
// locations for tracing stock-commit flows.
func NewLogger(cfg *Config) *slog.Logger {
	level := slog.LevelDebug
	addSource := true
	if cfg.IsProduction() {
		level = slog.LevelInfo
		addSource = false
	}
	opts := &slog.HandlerOptions{Level: level, AddSource: addSource}

	if cfg.IsProduction() || (cfg != nil && cfg.LogFormat == "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
