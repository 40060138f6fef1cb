package loader

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"graphsink/internal/domain"
	"graphsink/internal/metrics"
	"graphsink/internal/util"
	pkgutil "graphsink/pkg/util"
)

const maxBackoff = 30 * time.Second

// WriterConfig 控制分批与重试。
type WriterConfig struct {
	BatchSize int
	Attempts  int
	Backoff   time.Duration
	// Strategy 作为语句指标的标签。
	Strategy string
}

// Writer 按顺序执行 IngestionEvent 中的语句，每条语句的参数行按 BatchSize 分批。
type Writer struct {
	runner Runner
	cfg    WriterConfig
	logger *zap.Logger
}

// Stats 汇总一次 Apply 的执行量。
type Stats struct {
	Statements int
	Batches    int
	Rows       int
	Counters   Counters
	// Remaining 是出错时尚未提交的部分：失败语句从失败的分批开始的行，以及其后的全部语句。
	Remaining []domain.Event
}

// NewWriter 创建写入器。
func NewWriter(runner Runner, cfg WriterConfig, logger *zap.Logger) *Writer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1000
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{runner: runner, cfg: cfg, logger: logger}
}

// Apply 执行所有 Event；任一批次重试耗尽即返回错误，已提交的批次不回滚，
// 未提交的部分放在 Stats.Remaining 中，调用方只需重放这部分。
func (w *Writer) Apply(ctx context.Context, result domain.IngestionEvent) (Stats, error) {
	var stats Stats
	for k, ev := range result.Events {
		if len(ev.Events) == 0 {
			continue
		}
		fp := pkgutil.Fingerprint(ev.Query)
		for i, chunk := range pkgutil.Chunks(ev.Events, w.cfg.BatchSize) {
			params := map[string]any{domain.EventsParam: toParameters(chunk)}
			var counters Counters
			err := w.policy(fp, i).Do(ctx, func(ctx context.Context) error {
				var runErr error
				counters, runErr = w.runner.RunWrite(ctx, ev.Query, params)
				return runErr
			})
			if err != nil {
				w.logger.Error("write batch failed",
					zap.String("statement", fp),
					zap.Int("chunk", i),
					zap.Int("rows", len(chunk)),
					zap.Error(err))
				stats.Remaining = remaining(ev, i*w.cfg.BatchSize, result.Events[k+1:])
				return stats, fmt.Errorf("write statement %s: %w", fp, err)
			}
			stats.Batches++
			stats.Rows += len(chunk)
			stats.Counters.Add(counters)
			metrics.RowsWritten.Add(float64(len(chunk)))
			metrics.StatementsTotal.WithLabelValues(w.cfg.Strategy).Inc()
		}
		stats.Statements++
		w.logger.Debug("statement applied", zap.String("statement", fp), zap.Int("rows", len(ev.Events)))
	}
	return stats, nil
}

func (w *Writer) policy(fp string, chunk int) util.Policy {
	return util.Policy{
		Attempts:   w.cfg.Attempts,
		Backoff:    w.cfg.Backoff,
		MaxBackoff: maxBackoff,
		OnRetry: func(attempt int, wait time.Duration, err error) {
			w.logger.Warn("write batch retrying",
				zap.String("statement", fp),
				zap.Int("chunk", chunk),
				zap.Int("attempt", attempt),
				zap.Duration("wait", wait),
				zap.Error(err))
		},
	}
}

func remaining(failed domain.Event, offset int, rest []domain.Event) []domain.Event {
	out := make([]domain.Event, 0, len(rest)+1)
	out = append(out, domain.Event{Query: failed.Query, Events: failed.Events[offset:]})
	return append(out, rest...)
}

func toParameters(rows []map[string]any) []any {
	res := make([]any, 0, len(rows))
	for _, row := range rows {
		res = append(res, row)
	}
	return res
}
