package job

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"graphsink/internal/app"
)

// FlushFunc 写出 buffer 中的数据，由 app.Service.Flush 实现。
type FlushFunc func(ctx context.Context) (app.Report, error)

// Scheduler 按 flush_cron 周期性 flush；上一次未结束时跳过本次。
type Scheduler struct {
	spec   string
	flush  FlushFunc
	logger *zap.Logger

	parent context.Context
	mu     sync.Mutex
}

func NewScheduler(cfg app.Config, flush FlushFunc, logger *zap.Logger) *Scheduler {
	spec := strings.TrimSpace(cfg.Sink.FlushCron)
	if spec == "" {
		spec = app.DefaultFlushCron
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{spec: spec, flush: flush, logger: logger, parent: context.Background()}
}

// Start 启动调度，返回停止函数。
func (s *Scheduler) Start(parent context.Context) context.CancelFunc {
	if s == nil {
		return func() {}
	}
	s.parent = parent
	return startCron(parent, "flush", s.spec, s.runOnce, s.logger)
}

func (s *Scheduler) runOnce() {
	if s.flush == nil {
		s.logger.Warn("flush function not configured")
		return
	}
	if !s.mu.TryLock() {
		s.logger.Warn("previous flush still running, skip current schedule")
		return
	}
	defer s.mu.Unlock()

	if s.parent.Err() != nil {
		s.logger.Info("scheduler context cancelled, skip flush")
		return
	}
	start := time.Now()
	report, err := s.flush(s.parent)
	elapsed := time.Since(start)
	if err != nil {
		s.logger.Error("scheduled flush failed", zap.Duration("duration", elapsed), zap.Error(err))
		return
	}
	if report.Entities > 0 {
		s.logger.Info("scheduled flush completed",
			zap.String("batch", report.BatchID),
			zap.Int("entities", report.Entities),
			zap.Int("rows", report.Rows),
			zap.Duration("duration", elapsed))
	}
}
