/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: go-redis-tx/internal/common/logger.go
*/
package common

// logger.go builds the structured logger shared by the datasource, the
// memstore server and the CLI. Output format, level and destination come
// from LogConfig so every entry point logs the same way.

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfig holds the logger settings.
type LogConfig struct {
	// Level is the minimum level: "debug", "info", "warn" or "error".
	Level string `mapstructure:"level"`
	// Format is "json" or "console".
	Format string `mapstructure:"format"`
	// Output is "stderr", "stdout" or a file path (appended to).
	Output string `mapstructure:"output"`
}

// NewLogger creates a zap.Logger from the provided configuration.
// Unknown levels fall back to info.
func NewLogger(config LogConfig, fields ...zap.Field) (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(config.Level)); err != nil {
		level.SetLevel(zap.InfoLevel)
	}

	sink, err := writeSyncer(config.Output)
	if err != nil {
		return nil, err
	}

	core := zapcore.NewCore(encoder(config.Format), sink, level)
	return zap.New(core, zap.AddCaller()).With(fields...), nil
}

// EnsureLogger returns l when non-nil, otherwise a no-op logger.
func EnsureLogger(l *zap.Logger) *zap.Logger {
	if l != nil {
		return l
	}
	return zap.NewNop()
}

func encoder(format string) zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	if strings.ToLower(format) == "console" {
		return zapcore.NewConsoleEncoder(encoderConfig)
	}
	return zapcore.NewJSONEncoder(encoderConfig)
}

func writeSyncer(output string) (zapcore.WriteSyncer, error) {
	switch strings.ToLower(output) {
	case "stderr", "":
		return zapcore.AddSync(os.Stderr), nil
	case "stdout":
		return zapcore.AddSync(os.Stdout), nil
	default:
		file, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to open log file %s", output)
		}
		return zapcore.AddSync(file), nil
	}
}
