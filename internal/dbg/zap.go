package dbg

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func NewDevLogger() *zap.Logger {
	return must(newConfig(zap.NewDevelopmentConfig()).Build())
}

func NewProdLogger() *zap.Logger {
	return must(newConfig(zap.NewProductionConfig()).Build())
}

// NewLogger builds a logger for the named level. Debug uses the development
// encoder, every other level the production one.
func NewLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("unknown log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	if lvl == zapcore.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg = newConfig(cfg)
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

func newConfig(cfg zap.Config) zap.Config {
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableCaller = true
	return cfg
}

func must(logger *zap.Logger, err error) *zap.Logger {
	if err != nil {
		panic(err)
	}
	return logger
}
