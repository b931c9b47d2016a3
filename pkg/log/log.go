// Package log configures the process-wide slog default.
package log

import (
	"log/slog"
	"os"
)

// Setup installs a JSON handler at the given level on the default logger.
// Unparseable levels fall back to info so a bad flag never kills the process.
func Setup(logLevel string) {
	var level slog.Level

	err := level.UnmarshalText([]byte(logLevel))
	if err != nil {
		level = slog.LevelInfo
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

// WithModule returns the default logger tagged with a module attribute. Every
// engine constructor takes one of these so log lines are attributable.
func WithModule(module string) *slog.Logger {
	return slog.With("module", module)
}
