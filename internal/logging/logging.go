// Package logging provides the structured logger used across the
// engine process: the command loop (internal/disruptor) and the server
// process (cmd/server) log through the same Logger interface so output
// stays consistent regardless of which component emits it.
package logging

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the logging interface every component depends on, rather
// than depending on *zap.Logger directly - this keeps the matching
// engine's hot path free to accept a no-op implementation in
// benchmarks/tests.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
	Fatal(msg string, fields ...interface{})

	With(fields ...interface{}) Logger
	WithContext(ctx context.Context) Logger
}

// StructuredLogger is the zap-backed Logger implementation used
// outside of tests.
type StructuredLogger struct {
	logger *zap.Logger
	fields []zap.Field
}

// Config configures a StructuredLogger.
type Config struct {
	Level  string // debug|info|warn|error
	Format string // json|console
}

// DefaultConfig returns the default logging configuration: info level,
// JSON output.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "json"}
}

// NewStructuredLogger creates a new structured logger for the engine
// process.
func NewStructuredLogger(cfg Config) *StructuredLogger {
	zapCfg := zap.NewProductionConfig()

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	if cfg.Format == "console" {
		zapCfg.Encoding = "console"
	} else {
		zapCfg.Encoding = "json"
	}
	zapCfg.EncoderConfig = zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	zapCfg.InitialFields = map[string]interface{}{
		"service": "order-matching-engine",
		"pid":     os.Getpid(),
	}

	logger, err := zapCfg.Build()
	if err != nil {
		logger, _ = zap.NewDevelopment()
	}

	return &StructuredLogger{logger: logger}
}

func (sl *StructuredLogger) Debug(msg string, fields ...interface{}) {
	sl.logger.Debug(msg, sl.convertFields(fields...)...)
}

func (sl *StructuredLogger) Info(msg string, fields ...interface{}) {
	sl.logger.Info(msg, sl.convertFields(fields...)...)
}

func (sl *StructuredLogger) Warn(msg string, fields ...interface{}) {
	sl.logger.Warn(msg, sl.convertFields(fields...)...)
}

func (sl *StructuredLogger) Error(msg string, fields ...interface{}) {
	sl.logger.Error(msg, sl.convertFields(fields...)...)
}

func (sl *StructuredLogger) Fatal(msg string, fields ...interface{}) {
	sl.logger.Fatal(msg, sl.convertFields(fields...)...)
}

func (sl *StructuredLogger) With(fields ...interface{}) Logger {
	newFields := append(append([]zap.Field{}, sl.fields...), sl.convertFields(fields...)...)
	return &StructuredLogger{logger: sl.logger, fields: newFields}
}

func (sl *StructuredLogger) WithContext(ctx context.Context) Logger {
	var fields []interface{}
	if sessionID := ctx.Value(sessionIDKey); sessionID != nil {
		fields = append(fields, "session_id", sessionID)
	}
	return sl.With(fields...)
}

func (sl *StructuredLogger) convertFields(fields ...interface{}) []zap.Field {
	if len(fields)%2 != 0 {
		fields = append(fields, "")
	}
	zapFields := make([]zap.Field, 0, len(fields)/2+len(sl.fields))
	zapFields = append(zapFields, sl.fields...)
	for i := 0; i < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			key = fmt.Sprintf("field_%d", i/2)
		}
		zapFields = append(zapFields, zap.Any(key, fields[i+1]))
	}
	return zapFields
}

type contextKey string

const sessionIDKey contextKey = "session_id"

// WithSessionID attaches a session id to ctx for WithContext to pick up.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// Nop is a Logger that discards everything - used in benchmarks and
// unit tests that don't want log noise.
type Nop struct{}

func (Nop) Debug(string, ...interface{})    {}
func (Nop) Info(string, ...interface{})     {}
func (Nop) Warn(string, ...interface{})     {}
func (Nop) Error(string, ...interface{})    {}
func (Nop) Fatal(string, ...interface{})    {}
func (n Nop) With(...interface{}) Logger    { return n }
func (n Nop) WithContext(context.Context) Logger { return n }
