// Package logger configures the slog logger used by the HTTP-facing
// commands (cmd/benchmarkserver); the solving core itself logs through
// internal/telemetry's zerolog wrappers, matching the teacher's own split
// between its REST layer's slog request logs and its application layer's
// zerolog section/agent-call traces.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// Setup builds a JSON slog.Logger at the given level ("debug", "info",
// "warn", "error"; anything else falls back to "info") and installs it as
// the process default.
func Setup(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: l})
	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}
