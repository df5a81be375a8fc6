package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewDiagnostics creates the structured log that records every command the installer runs.
// An empty path disables it. The console encoder is used so the file stays readable when
// attached to a bug report.
func NewDiagnostics(path string, debug bool) (*zap.Logger, error) {
	if path == "" {
		return zap.NewNop(), nil
	}

	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:       "time",
		MessageKey:    "msg",
		LevelKey:      "level",
		CallerKey:     "caller",
		StacktraceKey: "stacktrace",
		LineEnding:    zapcore.DefaultLineEnding,
		EncodeTime:    zapcore.ISO8601TimeEncoder,
		EncodeLevel:   zapcore.CapitalLevelEncoder, // no colors inside a file
		EncodeCaller:  zapcore.ShortCallerEncoder,
	}

	config := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       debug,
		Encoding:          "console",
		EncoderConfig:     encoderConfig,
		OutputPaths:       []string{path},
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: true,
	}

	return config.Build()
}
