package job

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// startCron 注册单个任务并启动 cron；parent 结束或调用返回的函数时停止，等待运行中的任务完成。
func startCron(parent context.Context, name, spec string, fn func(), logger *zap.Logger) context.CancelFunc {
	c := cron.New()
	id, err := c.AddFunc(spec, fn)
	if err != nil {
		logger.Error("failed to register job", zap.String("job", name), zap.String("cron", spec), zap.Error(err))
		return func() {}
	}
	c.Start()
	logger.Info("job started", zap.String("job", name), zap.String("cron", spec), zap.Time("next", c.Entry(id).Next))

	var once sync.Once
	stop := func() {
		once.Do(func() {
			<-c.Stop().Done()
			logger.Info("job stopped", zap.String("job", name))
		})
	}
	go func() {
		<-parent.Done()
		stop()
	}()
	return stop
}
