// Package log provides a thin wrapper around zap with a configurable
// package-level default logger.
package log

import (
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type (
	Level  = zapcore.Level
	Field  = zap.Field
	Option = zap.Option
	Logger struct {
		l     *zap.Logger
		level Level
	}
)

const (
	DebugLevel = zap.DebugLevel
	InfoLevel  = zap.InfoLevel
	WarnLevel  = zap.WarnLevel
	ErrorLevel = zap.ErrorLevel
	FatalLevel = zap.FatalLevel
)

var (
	Skip       = zap.Skip
	Binary     = zap.Binary
	Bool       = zap.Bool
	Duration   = zap.Duration
	Float      = zap.Float64
	Int        = zap.Int
	Int32      = zap.Int32
	Int64      = zap.Int64
	String     = zap.String
	Time       = zap.Time
	Uint       = zap.Uint
	Uint32     = zap.Uint32
	Uint64     = zap.Uint64
	Any        = zap.Any
	ErrorField = zap.Error

	WithCaller    = zap.WithCaller
	AddStacktrace = zap.AddStacktrace
	AddCallerSkip = zap.AddCallerSkip
)

func ParseLevel(text string) (Level, error) {
	return zapcore.ParseLevel(text)
}

// New creates a Logger writing JSON output to w at the given level.
func New(w io.Writer, level Level, opts ...Option) *Logger {
	if w == nil {
		w = os.Stderr
	}
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(w),
		level,
	)
	return &Logger{l: zap.New(core, opts...), level: level}
}

// DevLogger creates a Logger with a human-readable console encoder.
func DevLogger(w io.Writer, level Level, opts ...Option) *Logger {
	if w == nil {
		w = os.Stderr
	}
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(cfg),
		zapcore.AddSync(w),
		level,
	)
	return &Logger{l: zap.New(core, opts...), level: level}
}

func (l *Logger) Debug(msg string, fields ...Field) { l.l.Debug(msg, fields...) }
func (l *Logger) Info(msg string, fields ...Field)  { l.l.Info(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.l.Warn(msg, fields...) }
func (l *Logger) Error(msg string, fields ...Field) { l.l.Error(msg, fields...) }
func (l *Logger) Fatal(msg string, fields ...Field) { l.l.Fatal(msg, fields...) }

func (l *Logger) Named(name string) *Logger {
	return &Logger{l: l.l.Named(name), level: l.level}
}

func (l *Logger) Level() Level { return l.level }

func (l *Logger) Sync() error { return l.l.Sync() }

var (
	std = DevLogger(os.Stderr, InfoLevel)
	mu  sync.Mutex

	// package-level shortcuts bound to std
	Debug = std.Debug
	Info  = std.Info
	Warn  = std.Warn
	Error = std.Error
	Fatal = std.Fatal
)

func Default() *Logger { return std }

// ResetDefault replaces the package-level default logger and rebinds the
// package-level shortcut functions.
func ResetDefault(l *Logger) {
	mu.Lock()
	defer mu.Unlock()
	std = l
	Debug = std.Debug
	Info = std.Info
	Warn = std.Warn
	Error = std.Error
	Fatal = std.Fatal
}

func Sync() error {
	if std != nil {
		return std.Sync()
	}
	return nil
}
