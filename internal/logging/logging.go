// Package logging wires the process-wide slog logger. When a log file is
// configured, output rotates through lumberjack; otherwise it goes to
// stderr. The same rule applies to every command, daemon or one-shot.
package logging

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup builds a text logger at the named level and installs it as the
// slog default. A non-empty file path sends output to a rotated log file
// instead of stderr.
func Setup(level, file string) *slog.Logger {
	var out io.Writer = os.Stderr
	if file != "" {
		out = &lumberjack.Logger{
			Filename:   file,
			MaxSize:    50, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
	}
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: parseLevel(level),
	}))
	slog.SetDefault(logger)
	return logger
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
