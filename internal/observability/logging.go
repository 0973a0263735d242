// Package observability provides structured logging setup and OpenTelemetry
// metrics for the match pipeline.
package observability

import (
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds the process-wide JSON logger at the configured level.
// Unknown level strings fall back to info.
func NewLogger(level string) *slog.Logger {
	var lvl slog.Level

	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})

	return slog.New(handler)
}
