package util

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// 默认空日志器，InitLogger 之前的调用不会崩溃
var Logger = zap.NewNop()

func InitLogger(logLevel string) {
	config := zap.NewProductionConfig()
	level, err := zapcore.ParseLevel(logLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}
	config.Level.SetLevel(level)
	Logger, _ = config.Build()
}
