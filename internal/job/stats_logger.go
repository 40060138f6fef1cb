package job

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"graphsink/internal/app"
)

// StatsLogger 定期输出 buffer 积压与死信数量。
type StatsLogger struct {
	spec   string
	stats  func() app.Stats
	logger *zap.Logger
}

func NewStatsLogger(cfg app.Config, stats func() app.Stats, logger *zap.Logger) *StatsLogger {
	spec := strings.TrimSpace(cfg.Sink.StatsCron)
	if spec == "" {
		spec = app.DefaultStatsCron
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsLogger{spec: spec, stats: stats, logger: logger}
}

// Start 启动统计任务，返回停止函数。
func (h *StatsLogger) Start(parent context.Context) context.CancelFunc {
	if h == nil || h.stats == nil {
		return func() {}
	}
	return startCron(parent, "stats", h.spec, h.logOnce, h.logger)
}

func (h *StatsLogger) logOnce() {
	st := h.stats()
	h.logger.Info("sink stats",
		zap.String("strategy", st.Strategy),
		zap.Int("pending", st.Pending),
		zap.Int("retrying", st.Retrying),
		zap.Int("dead_letters", st.DeadLetters),
		zap.Bool("dlq_available", st.DLQAvailable))
}
