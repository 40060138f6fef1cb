package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"graphsink/internal/dlq"
	"graphsink/internal/domain"
	"graphsink/internal/loader"
	"graphsink/internal/metrics"
	"graphsink/internal/strategy"
)

// Service 持有 buffer 与批次流程，提供统一入口。
type Service struct {
	cfg      Config
	strategy strategy.Strategy
	buffer   *Buffer
	flow     *IngestFlow
	indexes  *loader.IndexManager
	logger   *zap.Logger

	flushMu sync.Mutex
	// pending 是写入失败、等待下一次 flush 重试的批次，受 flushMu 保护。
	pending  *Batch
	retrying atomic.Int64
	closed   atomic.Bool
	closers  []func(context.Context) error
	newID    func() string
}

// Stats 是 Service 的运行时快照。
type Stats struct {
	Pending      int    `json:"pending"`
	Retrying     int    `json:"retrying"`
	DeadLetters  int    `json:"deadLetters"`
	Strategy     string `json:"strategy"`
	DLQAvailable bool   `json:"dlqAvailable"`
}

// NewService 用已构造的依赖组装 Service；dead 与 indexes 可以为 nil。
func NewService(cfg Config, st strategy.Strategy, writer BatchWriter, dead DeadLetters, indexes *loader.IndexManager, logger *zap.Logger) (*Service, error) {
	if st == nil {
		return nil, fmt.Errorf("strategy must be provided")
	}
	if writer == nil {
		return nil, fmt.Errorf("writer must be provided")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Sink.MaxFlushAttempts <= 0 {
		cfg.Sink.MaxFlushAttempts = DefaultMaxFlushAttempts
	}
	return &Service{
		cfg:      cfg,
		strategy: st,
		buffer:   NewBuffer(cfg.Sink.BufferSize),
		flow:     &IngestFlow{Strategy: st, Writer: writer, DLQ: dead, Logger: logger},
		indexes:  indexes,
		logger:   logger,
		newID:    uuid.NewString,
	}, nil
}

// Open 根据配置连接 Neo4j、打开死信存储并组装 Service。
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	st, err := strategy.FromConfig(cfg.Sink.Config)
	if err != nil {
		return nil, err
	}
	client, err := loader.NewClient(ctx, cfg.LoaderConfig())
	if err != nil {
		return nil, err
	}
	writer := loader.NewWriter(client, loader.WriterConfig{
		BatchSize: cfg.Sink.BatchSize,
		Attempts:  cfg.Sink.Retry.Attempts,
		Backoff:   time.Duration(cfg.Sink.Retry.BackoffSeconds) * time.Second,
		Strategy:  cfg.Sink.Strategy,
	}, logger)

	var dead DeadLetters
	var store *dlq.Store
	if cfg.DLQEnabled() {
		store, err = dlq.Open(cfg.DLQ)
		if err != nil {
			_ = client.Close(ctx)
			return nil, err
		}
		dead = store
	}

	svc, err := NewService(cfg, st, writer, dead, loader.NewIndexManager(client, logger), logger)
	if err != nil {
		_ = client.Close(ctx)
		if store != nil {
			_ = store.Close()
		}
		return nil, err
	}
	svc.closers = append(svc.closers, client.Close)
	if store != nil {
		svc.closers = append(svc.closers, func(context.Context) error { return store.Close() })
	}
	return svc, nil
}

// Close 写出剩余的 entity 并释放资源，重复调用无副作用。
func (s *Service) Close(ctx context.Context) error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	var errs []error
	for !s.idle() {
		if _, err := s.Flush(ctx); err != nil {
			errs = append(errs, err)
			break
		}
	}
	for _, c := range s.closers {
		if err := c(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	_ = s.logger.Sync()
	return errors.Join(errs...)
}

// EnsureIndexes 为 pattern 策略建立身份键索引；未开启或策略不需要时跳过。
func (s *Service) EnsureIndexes(ctx context.Context) error {
	indexed, ok := s.strategy.(strategy.Indexed)
	if !ok || !s.cfg.Sink.EnsureIndexes || s.indexes == nil {
		return nil
	}
	return s.indexes.Ensure(ctx, indexed.Indexes())
}

// Enqueue 把 entity 放入 buffer，等待下一次 flush。
func (s *Service) Enqueue(entities ...domain.Entity) error {
	if err := s.buffer.Add(entities...); err != nil {
		return err
	}
	metrics.EntitiesTotal.Add(float64(len(entities)))
	return nil
}

// Flush 写入一个批次：先重试上次失败的批次，否则取出 buffer 中的全部 entity。
// 同一批次失败 MaxFlushAttempts 次后，未提交的行与拒绝行一起转入死信，
// buffer 不会因为一个坏批次而一直堵塞。
func (s *Service) Flush(ctx context.Context) (Report, error) {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	if s.pending == nil {
		entities := s.buffer.Drain()
		if len(entities) == 0 {
			return Report{}, nil
		}
		batchID := s.newID()
		b, err := s.flow.Prepare(batchID, entities)
		if err != nil {
			metrics.FlushErrors.Inc()
			return Report{BatchID: batchID, Entities: len(entities)}, errors.Join(err, s.flow.Reject(ctx, batchID, entities, err))
		}
		s.pending = b
	}

	b := s.pending
	start := time.Now()
	report, err := s.flow.Write(ctx, b)
	metrics.FlushDuration.Observe(time.Since(start).Seconds())
	if err == nil {
		s.setPending(nil)
		return report, nil
	}

	metrics.FlushErrors.Inc()
	if b.Attempts < s.cfg.Sink.MaxFlushAttempts {
		s.setPending(b)
		s.logger.Error("flush failed",
			zap.String("batch", report.BatchID),
			zap.Int("attempt", b.Attempts),
			zap.Int("remaining_rows", b.RemainingRows()),
			zap.Error(err))
		return report, err
	}
	s.setPending(nil)
	return report, errors.Join(err, s.flow.Abandon(ctx, b, err))
}

func (s *Service) setPending(b *Batch) {
	s.pending = b
	if b == nil {
		s.retrying.Store(0)
		return
	}
	s.retrying.Store(int64(b.RemainingRows()))
}

func (s *Service) idle() bool {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()
	return s.pending == nil && s.buffer.Len() == 0
}

// Apply 立即处理一批 entity，不经过 buffer。
func (s *Service) Apply(ctx context.Context, entities []domain.Entity) (Report, error) {
	metrics.EntitiesTotal.Add(float64(len(entities)))
	return s.flow.Run(ctx, s.newID(), entities)
}

// Translate 只翻译不写入。
func (s *Service) Translate(entities []domain.Entity) (domain.IngestionEvent, error) {
	return strategy.Events(s.strategy, entities)
}

// DeadLetters 返回最多 limit 条死信记录。
func (s *Service) DeadLetters(limit int) ([]dlq.Record, error) {
	if s.flow.DLQ == nil {
		return []dlq.Record{}, nil
	}
	return s.flow.DLQ.List(limit)
}

// PurgeDeadLetters 清空死信；未配置死信存储时什么也不做。
func (s *Service) PurgeDeadLetters() error {
	if s.flow.DLQ == nil {
		return nil
	}
	return s.flow.DLQ.Purge()
}

// Stats 返回运行时快照。
func (s *Service) Stats() Stats {
	st := Stats{Pending: s.buffer.Len(), Retrying: int(s.retrying.Load()), Strategy: s.cfg.Sink.Strategy}
	if s.flow.DLQ != nil {
		if n, err := s.flow.DLQ.Count(); err == nil {
			st.DeadLetters = n
			st.DLQAvailable = true
		} else {
			s.logger.Warn("count dead letters failed", zap.Error(err))
		}
	}
	return st
}
