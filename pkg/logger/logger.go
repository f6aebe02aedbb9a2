package logger

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog so callers never import slog directly. Passed by
// value into repositories and usecases.
type Logger struct {
	sl *slog.Logger
}

type Config interface {
	LoggerDevelopment() bool
	LoggerLevel() string
}

func NewLogger(cfg Config) (*Logger, error) {
	level := parseLevel(cfg.LoggerLevel())

	var handler slog.Handler
	if cfg.LoggerDevelopment() {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	return &Logger{sl: slog.New(handler)}, nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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

func (l *Logger) base() *slog.Logger {
	if l.sl == nil {
		return slog.Default()
	}
	return l.sl
}

func (l Logger) Debug(msg string, args ...any) { l.base().Debug(msg, args...) }
func (l Logger) Info(msg string, args ...any)  { l.base().Info(msg, args...) }
func (l Logger) Warn(msg string, args ...any)  { l.base().Warn(msg, args...) }
func (l Logger) Error(msg string, args ...any) { l.base().Error(msg, args...) }

func (l Logger) Infof(format string, args ...any) {
	l.base().Info(fmt.Sprintf(format, args...))
}

func (l Logger) Errorf(format string, args ...any) {
	l.base().Error(fmt.Sprintf(format, args...))
}

// With returns a logger that attaches args to every record.
func (l Logger) With(args ...any) Logger {
	return Logger{sl: l.base().With(args...)}
}
