// Package logging provides the zap loggers used across the service.
package logging

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a wrapper of zap.SugaredLogger.
type Logger = *zap.SugaredLogger

var (
	defaultLogger Logger
	loggerOnce    sync.Once
	logLevel      = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// SetLogLevel sets the level of every logger with one of
// "debug", "info", "warn", "error".
func SetLogLevel(level string) error {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		logLevel.SetLevel(zapcore.DebugLevel)
	case "", "info":
		logLevel.SetLevel(zapcore.InfoLevel)
	case "warn":
		logLevel.SetLevel(zapcore.WarnLevel)
	case "error":
		logLevel.SetLevel(zapcore.ErrorLevel)
	default:
		return fmt.Errorf("invalid log level: %s", level)
	}
	return nil
}

// New creates a named logger. Extra key/value pairs are attached to every entry.
func New(name string, keysAndValues ...any) Logger {
	logger := newLogger(name)
	if len(keysAndValues) > 0 {
		logger = logger.With(keysAndValues...)
	}
	return logger
}

// DefaultLogger returns the process-wide logger.
func DefaultLogger() Logger {
	loggerOnce.Do(func() {
		defaultLogger = newLogger("default")
	})
	return defaultLogger
}

// Nop returns a logger that discards everything. Handy in tests.
func Nop() Logger {
	return zap.NewNop().Sugar()
}

type loggerKey struct{}

// With returns a new context carrying logger.
func With(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// From returns the logger stored in ctx, or the default logger.
func From(ctx context.Context) Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerKey{}).(Logger); ok {
			return logger
		}
	}
	return DefaultLogger()
}

func newLogger(name string) Logger {
	return zap.New(zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig()),
		zapcore.AddSync(os.Stdout),
		logLevel,
	), zap.AddStacktrace(zap.ErrorLevel)).Named(name).Sugar()
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "T",
		LevelKey:       "L",
		NameKey:        "N",
		CallerKey:      "C",
		MessageKey:     "M",
		StacktraceKey:  "S",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}
