package ioc

import (
	"go.uber.org/zap"

	"graphsink/internal/app"
	"graphsink/internal/job"
)

// InitScheduler 构建定时 flush 调度器。
func InitScheduler(cfg app.Config, svc *app.Service, logger *zap.Logger) *job.Scheduler {
	return job.NewScheduler(cfg, svc.Flush, logger)
}

// InitStatsLogger 构建定期统计日志任务。
func InitStatsLogger(cfg app.Config, svc *app.Service, logger *zap.Logger) *job.StatsLogger {
	return job.NewStatsLogger(cfg, svc.Stats, logger)
}
