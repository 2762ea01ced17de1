// Package observability provides the logging and metrics surfaces shared by
// every other package in the query-processing core.
package observability

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Fields is the structured-logging payload shape used throughout the core.
type Fields map[string]interface{}

// Logger is the logging capability every core component depends on.
type Logger interface {
	Debug(msg string, fields Fields)
	Info(msg string, fields Fields)
	Warn(msg string, fields Fields)
	Error(msg string, fields Fields)
	With(fields Fields) Logger
	WithPrefix(prefix string) Logger
}

type zapLogger struct {
	z      *zap.Logger
	prefix string
}

// NewLogger returns a zap-backed Logger writing structured JSON at the given
// level ("debug", "info", "warn", "error").
func NewLogger(prefix string, level string) Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))
	cfg.EncoderConfig.TimeKey = "ts"
	z, err := cfg.Build()
	if err != nil {
		z = zap.NewNop()
	}
	return &zapLogger{z: z, prefix: prefix}
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *zapLogger) fieldsOf(f Fields) []zap.Field {
	out := make([]zap.Field, 0, len(f)+1)
	if l.prefix != "" {
		out = append(out, zap.String("component", l.prefix))
	}
	for k, v := range f {
		out = append(out, zap.Any(k, v))
	}
	return out
}

func (l *zapLogger) Debug(msg string, fields Fields) { l.z.Debug(msg, l.fieldsOf(fields)...) }
func (l *zapLogger) Info(msg string, fields Fields)  { l.z.Info(msg, l.fieldsOf(fields)...) }
func (l *zapLogger) Warn(msg string, fields Fields)  { l.z.Warn(msg, l.fieldsOf(fields)...) }
func (l *zapLogger) Error(msg string, fields Fields) { l.z.Error(msg, l.fieldsOf(fields)...) }

func (l *zapLogger) With(fields Fields) Logger {
	return &zapLogger{z: l.z.With(l.fieldsOf(fields)...), prefix: l.prefix}
}

func (l *zapLogger) WithPrefix(prefix string) Logger {
	return &zapLogger{z: l.z, prefix: prefix}
}

// NewNopLogger returns a Logger that discards everything, for tests.
func NewNopLogger() Logger {
	return &zapLogger{z: zap.NewNop()}
}
