package logger

import (
	"agentic-context/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the process-wide structured logger. It is a no-op until InitLogger runs.
var Logger = zap.NewNop()

// InitLogger initializes structured logging based on configuration
func InitLogger(cfg *config.Config) error {
	level := zapcore.InfoLevel
	if cfg.GinMode == "debug" {
		level = zapcore.DebugLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	zapCfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       cfg.GinMode == "debug",
		DisableCaller:     cfg.GinMode != "debug", // Only add caller in debug mode
		DisableStacktrace: cfg.GinMode != "debug",
		Encoding:          "json",
		EncoderConfig:     encoderCfg,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
	}

	l, err := zapCfg.Build()
	if err != nil {
		return err
	}
	Logger = l

	Logger.Debug("Structured logging initialized", zap.String("level", level.String()))
	return nil
}

// Sync flushes buffered entries. Call it before exit.
func Sync() {
	_ = Logger.Sync()
}

// Helper functions for common log operations
func Info(msg string, fields ...zap.Field) {
	Logger.Info(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	Logger.Error(msg, fields...)
}

func Debug(msg string, fields ...zap.Field) {
	Logger.Debug(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	Logger.Warn(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	Logger.Fatal(msg, fields...)
}
