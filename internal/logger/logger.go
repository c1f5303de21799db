package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// L is the process-wide logger. It is replaced by Init.
var L = slog.Default()

// Init configures L and the slog default. format is "json" or "text";
// output goes to stderr plus any extra writers.
func Init(level, format string, extra ...io.Writer) {
	L = New(level, format, extra...)
	slog.SetDefault(L)
}

// New builds a logger without touching the globals.
func New(level, format string, extra ...io.Writer) *slog.Logger {
	writers := []io.Writer{os.Stderr}
	for _, w := range extra {
		if w != nil {
			writers = append(writers, w)
		}
	}
	var out io.Writer = os.Stderr
	if len(writers) > 1 {
		out = io.MultiWriter(writers...)
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		return slog.New(slog.NewJSONHandler(out, opts))
	}
	return slog.New(slog.NewTextHandler(out, opts))
}

// ParseLevel maps a level name to slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// RotatingFile returns a size-rotated log file writer, or nil when path is empty.
func RotatingFile(path string, maxSizeMB, maxBackups int) io.Writer {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		Compress:   true,
	}
}
