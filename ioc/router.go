package ioc

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"graphsink/internal/app"
	"graphsink/internal/metrics"
	"graphsink/internal/router"
)

// InitSinkHandler 构建写入相关的 HTTP 处理器。
func InitSinkHandler(svc *app.Service, logger *zap.Logger) *router.SinkHandler {
	return router.NewSinkHandler(svc, logger)
}

// InitMetrics 构建并注册 prometheus 指标。
func InitMetrics() prometheus.Gatherer {
	reg := prometheus.NewRegistry()
	metrics.MustRegister(reg)
	return reg
}

// InitGinEngine 构建 gin 引擎。
func InitGinEngine(sinkHandler *router.SinkHandler, gatherer prometheus.Gatherer) *gin.Engine {
	return router.NewEngine(sinkHandler, gatherer)
}
