package mylog

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

type Logger = slog.Logger

func ToLogLevel(logLevel string) slog.Level {
	switch logLevel {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func NewLogger(logLevel string, logHandler string) *Logger {
	return NewLoggerTo(os.Stderr, logLevel, logHandler)
}

func NewLoggerTo(w io.Writer, logLevel string, logHandler string) *Logger {
	slogLevel := ToLogLevel(logLevel)

	var handler slog.Handler
	switch logHandler {
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			AddSource: true,
			Level:     slogLevel,
		})
	default:
		handler = newHandler(slogLevel, w)
	}

	return slog.New(handler)
}

func newHandler(level slog.Level, w io.Writer) slog.Handler {
	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    !isTerminal(w),
	})
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return stat.Mode()&os.ModeCharDevice != 0
}

// Err is the attribute every package uses to attach an error to a log line.
func Err(err error) slog.Attr {
	return tint.Err(err)
}

// Discard returns a logger that drops everything; handy for tests.
func Discard() *Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
