// Package logger provides the gateway's process-wide structured logger, a
// thin package-level API over a zap.SugaredLogger singleton so call sites
// never thread a logger instance through every function signature.
package logger

import (
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var singleton atomic.Pointer[zap.SugaredLogger]

func init() {
	singleton.Store(newDefault())
}

func newDefault() *zap.SugaredLogger {
	l, err := newWithLevel(levelFromEnv())
	if err != nil {
		// Last resort: a logger that writes nowhere is worse than a
		// panic at startup, but init() cannot return an error, so fall
		// back to zap's own safe default.
		return zap.NewNop().Sugar()
	}
	return l
}

func levelFromEnv() zapcore.Level {
	switch os.Getenv("RUST_LOG") {
	case "debug", "trace":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func newWithLevel(level zapcore.Level) (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

// Initialize rebuilds the singleton logger at the given level. Call once at
// process startup after configuration has been loaded.
func Initialize(level string) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}
	l, err := newWithLevel(lvl)
	if err != nil {
		return
	}
	if prev := singleton.Swap(l); prev != nil {
		_ = prev.Sync()
	}
}

// Get returns the current singleton logger.
func Get() *zap.SugaredLogger {
	return singleton.Load()
}

func Debug(args ...any)                  { Get().Debug(args...) }
func Debugf(format string, args ...any)  { Get().Debugf(format, args...) }
func Debugw(msg string, kv ...any)       { Get().Debugw(msg, kv...) }
func Info(args ...any)                   { Get().Info(args...) }
func Infof(format string, args ...any)   { Get().Infof(format, args...) }
func Infow(msg string, kv ...any)        { Get().Infow(msg, kv...) }
func Warn(args ...any)                   { Get().Warn(args...) }
func Warnf(format string, args ...any)   { Get().Warnf(format, args...) }
func Warnw(msg string, kv ...any)        { Get().Warnw(msg, kv...) }
func Error(args ...any)                  { Get().Error(args...) }
func Errorf(format string, args ...any)  { Get().Errorf(format, args...) }
func Errorw(msg string, kv ...any)       { Get().Errorw(msg, kv...) }
func Fatalf(format string, args ...any)  { Get().Fatalf(format, args...) }
func Panicf(format string, args ...any)  { Get().Panicf(format, args...) }
