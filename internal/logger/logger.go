package logger

import (
	"io"
	"log/slog"
	"os"
)

var log *slog.Logger

func init() {
	level := slog.LevelInfo
	if os.Getenv("PARLEY_DEBUG") == "true" {
		level = slog.LevelDebug
	}

	log = newLogger(os.Stderr, level)
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	handler := slog.NewTextHandler(w, opts)
	return slog.New(handler)
}

// SetOutput redirects log output, mainly so tests and the chat REPL can keep
// stderr quiet.
func SetOutput(w io.Writer, debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	log = newLogger(w, level)
}

func Debug(msg string, args ...any) {
	log.Debug(msg, args...)
}

func Info(msg string, args ...any) {
	log.Info(msg, args...)
}

func Warn(msg string, args ...any) {
	log.Warn(msg, args...)
}

func Error(msg string, args ...any) {
	log.Error(msg, args...)
}

func Fatal(msg string, args ...any) {
	log.Error(msg, args...)
	os.Exit(1)
}
