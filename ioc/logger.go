package ioc

import (
	"go.uber.org/zap"

	"graphsink/internal/app"
	"graphsink/internal/logging"
)

// InitLogger 构建全局 logger。
func InitLogger(cfg app.Config) (*zap.Logger, error) {
	return logging.New(cfg.Log.Level)
}
