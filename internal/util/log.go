package util

import (
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var sugar atomic.Pointer[zap.SugaredLogger]

func init() {
	l, err := NewLogger("info", "console")
	if err != nil {
		l = zap.NewNop()
	}
	SetLogger(l)
}

// NewLogger builds a zap logger. format is "json" or "console".
func NewLogger(level, format string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}

	var cfg zap.Config
	if format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		cfg.DisableCaller = true
		cfg.DisableStacktrace = true
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	return cfg.Build()
}

// SetLogger replaces the logger behind the Log* helpers.
func SetLogger(l *zap.Logger) {
	sugar.Store(l.Sugar())
}

func Sync() {
	_ = sugar.Load().Sync()
}

func LogDebug(format string, v ...any) {
	sugar.Load().Debugf(format, v...)
}

func LogInfo(format string, v ...any) {
	sugar.Load().Infof(format, v...)
}

func LogWarn(format string, v ...any) {
	sugar.Load().Warnf(format, v...)
}

func LogFatal(format string, v ...any) {
	sugar.Load().Fatalf(format, v...)
}
