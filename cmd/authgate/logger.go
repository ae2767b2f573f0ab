package main

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func initLogger(cfg *config) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.Log.Pretty {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	level := new(zapcore.Level)
	if err := level.Set(cfg.Log.Level); err != nil {
		*level = zapcore.InfoLevel
	}
	zc.Level = zap.NewAtomicLevelAt(*level)
	zc.EncoderConfig.TimeKey = "ts"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return zc.Build(
		zap.Fields(
			zap.String("service", cfg.App.Name),
			zap.String("env", cfg.App.Env),
		),
	)
}
