// Package logger builds the process-wide zap logger: a concise console
// core plus a JSON file core writing to a rotated log under the
// workspace.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Init creates the logger. Logs land in <workspace>/logs/, rotated
// daily and kept for four weeks.
func Init(workspace string, debug bool) (*zap.Logger, error) {
	logDir := filepath.Join(workspace, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	consoleEncoder := zapcore.NewConsoleEncoder(encoderConfig)

	rotator, err := rotatelogs.New(
		filepath.Join(logDir, "keepsake.%Y%m%d.log"),
		rotatelogs.WithLinkName(filepath.Join(logDir, "keepsake.log")),
		rotatelogs.WithRotationTime(24*time.Hour),
		rotatelogs.WithMaxAge(28*24*time.Hour),
	)
	if err != nil {
		// Console-only fallback when the file sink cannot be set up.
		fmt.Fprintf(os.Stderr, "Warning: failed to open log file: %v, using console only\n", err)
		core := zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), level)
		return zap.New(core, zap.AddCaller()), nil
	}

	fileEncoder := zapcore.NewJSONEncoder(encoderConfig)
	core := zapcore.NewTee(
		zapcore.NewCore(fileEncoder, zapcore.AddSync(rotator), level),
		zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), level),
	)

	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}
