package ioc

import (
	"context"

	"go.uber.org/zap"

	"graphsink/internal/app"
)

// InitAppService 构建写入服务，cleanup 负责写出剩余数据并关闭连接。
func InitAppService(ctx context.Context, cfg app.Config, logger *zap.Logger) (*app.Service, func(), error) {
	svc, err := app.Open(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := svc.Close(context.Background()); err != nil {
			logger.Warn("close app service failed", zap.Error(err))
		}
	}
	return svc, cleanup, nil
}
