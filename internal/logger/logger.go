// Package logger initializes the engine's zap logger with file rotation.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New builds a SugaredLogger writing to the given file with rotation, and to
// stderr. An empty path logs to stderr only.
func New(filePath string) *zap.SugaredLogger {
	encCfg := zapcore.EncoderConfig{
		TimeKey:       "ts",
		LevelKey:      "level",
		NameKey:       "logger",
		CallerKey:     "caller",
		MessageKey:    "msg",
		StacktraceKey: "stack",
		LineEnding:    zapcore.DefaultLineEnding,
		EncodeLevel:   zapcore.CapitalLevelEncoder,
		EncodeTime:    zapcore.ISO8601TimeEncoder,
		EncodeCaller:  zapcore.ShortCallerEncoder,
	}
	encoder := zapcore.NewConsoleEncoder(encCfg)

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), zapcore.InfoLevel),
	}
	if filePath != "" {
		lj := &lumberjack.Logger{
			Filename:   filePath,
			MaxSize:    10, // MB
			MaxBackups: 3,
			MaxAge:     7, // days
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(lj), zapcore.DebugLevel))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()).Sugar()
}

// NewNop returns a no-op logger for tests.
func NewNop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
