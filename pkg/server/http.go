package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"graphsink/internal/app"
	"graphsink/internal/job"
)

const shutdownTimeout = 10 * time.Second

// HTTPServer 封装 HTTP 服务运行所需的依赖。
type HTTPServer struct {
	Engine  *gin.Engine
	Logger  *zap.Logger
	Config  app.Config
	Service *app.Service
	Job     *job.Scheduler
	Stats   *job.StatsLogger
}

// NewHTTPServer 构建 HTTPServer。
func NewHTTPServer(engine *gin.Engine, logger *zap.Logger, cfg app.Config, svc *app.Service, scheduler *job.Scheduler, stats *job.StatsLogger) *HTTPServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPServer{
		Engine:  engine,
		Logger:  logger,
		Config:  cfg,
		Service: svc,
		Job:     scheduler,
		Stats:   stats,
	}
}

// Run 启动 HTTP 服务及后台任务，ctx 结束时优雅退出。
func (s *HTTPServer) Run(ctx context.Context) error {
	listen := strings.TrimSpace(s.Config.HTTP.Listen)
	if listen == "" {
		listen = app.DefaultListen
	}

	if s.Service != nil {
		if err := s.Service.EnsureIndexes(ctx); err != nil {
			s.Logger.Error("ensure indexes failed", zap.Error(err))
		}
	}

	if s.Job != nil {
		cancelJob := s.Job.Start(ctx)
		defer cancelJob()
	}
	if s.Stats != nil {
		cancelStats := s.Stats.Start(ctx)
		defer cancelStats()
	}

	srv := &http.Server{Addr: listen, Handler: s.Engine}
	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("http server starting", zap.String("listen", listen))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.Logger.Info("http server stopping")
		return srv.Shutdown(shutdownCtx)
	}
}

// Shutdown 写出剩余数据并释放资源。
func (s *HTTPServer) Shutdown(ctx context.Context) {
	if s.Service != nil {
		if err := s.Service.Close(ctx); err != nil {
			s.Logger.Warn("close app service failed", zap.Error(err))
		}
	}
	_ = s.Logger.Sync()
}
