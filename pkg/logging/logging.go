// Package logging builds the diagnostic logger. Diagnostics always go to a stream
// separate from the XML document.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ProgramTag prefixes every diagnostic line.
const ProgramTag = "files2xml"

// LevelFor maps the -v count to a zap level: 0 warn, 1 info, 2+ debug.
func LevelFor(verbosity int) zapcore.Level {
	switch {
	case verbosity <= 0:
		return zapcore.WarnLevel
	case verbosity == 1:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

// EncoderConfig renders "files2xml: WARN message {fields}" without timestamps.
func EncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.TimeKey = ""
	cfg.CallerKey = ""
	cfg.NameKey = ""
	cfg.StacktraceKey = ""
	cfg.ConsoleSeparator = " "
	cfg.EncodeLevel = func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(ProgramTag + ": " + l.CapitalString())
	}
	return cfg
}

// New returns a console logger writing to sink (stderr when nil) at the level implied by verbosity.
func New(verbosity int, sink zapcore.WriteSyncer) *zap.Logger {
	if sink == nil {
		sink = zapcore.Lock(os.Stderr)
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(EncoderConfig()),
		sink,
		zap.NewAtomicLevelAt(LevelFor(verbosity)),
	)
	return zap.New(core)
}
