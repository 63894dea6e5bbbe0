package logging

import (
	"log/slog"
	"os"
)

// NewLogger builds the process-wide structured logger for the given level.
// Unknown level strings fall back to info; VK_DEBUG forces debug regardless
// of the configured level.
func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	if DebugEnabled() {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// DebugEnabled returns true if debug mode is enabled via the VK_DEBUG environment variable
func DebugEnabled() bool {
	return os.Getenv("VK_DEBUG") != ""
}
