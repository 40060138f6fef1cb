package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"graphsink/internal/dlq"
	"graphsink/internal/domain"
	"graphsink/internal/loader"
	"graphsink/internal/metrics"
	"graphsink/internal/strategy"
	pkgutil "graphsink/pkg/util"
)

// BatchWriter 执行翻译结果，由 loader.Writer 实现。
type BatchWriter interface {
	Apply(ctx context.Context, result domain.IngestionEvent) (loader.Stats, error)
}

// DeadLetters 保存被拒绝的行，由 dlq.Store 实现。
type DeadLetters interface {
	Put(ctx context.Context, batchID string, events []domain.InvalidEvent) error
	List(limit int) ([]dlq.Record, error)
	Count() (int, error)
	Purge() error
}

// Report 汇总一次批次处理。
type Report struct {
	BatchID    string          `json:"batchId"`
	Entities   int             `json:"entities"`
	Statements int             `json:"statements"`
	Rows       int             `json:"rows"`
	Invalid    int             `json:"invalid"`
	Counters   loader.Counters `json:"counters"`
}

// IngestFlow 负责单个批次：翻译 -> 写入 -> 死信。
type IngestFlow struct {
	Strategy strategy.Strategy
	Writer   BatchWriter
	DLQ      DeadLetters
	Logger   *zap.Logger
}

// Batch 是已翻译、尚未完成的批次。Remaining 只包含还没提交的语句行，
// 重试时不会重复执行已提交的分批。
type Batch struct {
	Report    Report
	Remaining []domain.Event
	Invalid   []domain.InvalidEvent
	Attempts  int
	// written 表示写入已完成，只差死信落盘。
	written bool
}

// RemainingRows 返回尚未提交的参数行数。
func (b *Batch) RemainingRows() int {
	return domain.IngestionEvent{Events: b.Remaining}.RowCount()
}

func (f *IngestFlow) logger() *zap.Logger {
	if f.Logger == nil {
		return zap.NewNop()
	}
	return f.Logger
}

func (f *IngestFlow) ready() error {
	if f == nil || f.Strategy == nil || f.Writer == nil {
		return fmt.Errorf("ingest flow dependencies not injected")
	}
	return nil
}

// Run 处理一个批次。写入失败时不记录死信，返回的错误由调用方决定是否重试。
func (f *IngestFlow) Run(ctx context.Context, batchID string, entities []domain.Entity) (Report, error) {
	b, err := f.Prepare(batchID, entities)
	if err != nil {
		return Report{BatchID: batchID, Entities: len(entities)}, err
	}
	return f.Write(ctx, b)
}

// Prepare 翻译 entity 并在拒绝行上记录批次号。
func (f *IngestFlow) Prepare(batchID string, entities []domain.Entity) (*Batch, error) {
	if err := f.ready(); err != nil {
		return nil, err
	}
	result, err := strategy.Events(f.Strategy, entities)
	if err != nil {
		return nil, fmt.Errorf("translate batch %s: %w", batchID, err)
	}
	for i := range result.InvalidEvents {
		stampBatch(&result.InvalidEvents[i], batchID)
	}
	return &Batch{
		Report:    Report{BatchID: batchID, Entities: len(entities)},
		Remaining: result.Events,
		Invalid:   result.InvalidEvents,
	}, nil
}

// Write 写入批次中尚未提交的部分；成功后把拒绝行写入死信。
// 失败时 b.Remaining 收缩为未提交的部分，b.Attempts 加一。
func (f *IngestFlow) Write(ctx context.Context, b *Batch) (Report, error) {
	if err := f.ready(); err != nil {
		return b.Report, err
	}
	batchID := b.Report.BatchID
	if !b.written {
		stats, err := f.Writer.Apply(ctx, domain.IngestionEvent{Events: b.Remaining})
		b.Report.Statements += stats.Statements
		b.Report.Rows += stats.Rows
		b.Report.Counters.Add(stats.Counters)
		if err != nil {
			b.Attempts++
			b.Remaining = stats.Remaining
			return b.Report, fmt.Errorf("apply batch %s: %w", batchID, err)
		}
		b.Remaining = nil
		b.written = true
		f.observeInvalid(b)
	}

	if f.DLQ != nil && len(b.Invalid) > 0 {
		if err := f.DLQ.Put(ctx, batchID, b.Invalid); err != nil {
			b.Attempts++
			return b.Report, fmt.Errorf("store invalid events of batch %s: %w", batchID, err)
		}
	}
	b.Report.Invalid = len(b.Invalid)

	report := b.Report
	f.logger().Info("batch ingested",
		zap.String("batch", batchID),
		zap.Int("entities", report.Entities),
		zap.Int("statements", report.Statements),
		zap.Int("rows", report.Rows),
		zap.Int("invalid", report.Invalid),
		zap.Int("nodes_created", report.Counters.NodesCreated),
		zap.Int("relationships_created", report.Counters.RelationshipsCreated))
	return report, nil
}

func (f *IngestFlow) observeInvalid(b *Batch) {
	for _, inv := range b.Invalid {
		op, _ := inv.Meta["operation"].(string)
		metrics.InvalidEvents.WithLabelValues(op).Inc()
		f.logger().Warn("invalid event",
			zap.String("batch", b.Report.BatchID),
			zap.String("operation", op),
			zap.Any("index", inv.Meta["index"]),
			zap.Error(inv.Err))
	}
}

// Abandon 放弃批次：未提交的每一行连同拒绝行一起写入死信，错误为最后一次写入错误。
func (f *IngestFlow) Abandon(ctx context.Context, b *Batch, cause error) error {
	batchID := b.Report.BatchID
	dead := make([]domain.InvalidEvent, 0, b.RemainingRows()+len(b.Invalid))
	for _, ev := range b.Remaining {
		fp := pkgutil.Fingerprint(ev.Query)
		for _, row := range ev.Events {
			dead = append(dead, domain.InvalidEvent{
				Err:   cause,
				Event: row,
				Meta: map[string]any{
					"batch":     batchID,
					"operation": "write",
					"statement": fp,
					"query":     ev.Query,
					"attempts":  b.Attempts,
				},
			})
		}
	}
	dead = append(dead, b.Invalid...)
	metrics.AbandonedBatches.Inc()
	f.logger().Error("batch abandoned",
		zap.String("batch", batchID),
		zap.Int("attempts", b.Attempts),
		zap.Int("rows", b.RemainingRows()),
		zap.Int("invalid", len(b.Invalid)),
		zap.Error(cause))
	if f.DLQ == nil || len(dead) == 0 {
		return nil
	}
	if err := f.DLQ.Put(ctx, batchID, dead); err != nil {
		return fmt.Errorf("dead-letter batch %s: %w", batchID, err)
	}
	return nil
}

// Reject 把无法翻译的 entity 整批写入死信。
func (f *IngestFlow) Reject(ctx context.Context, batchID string, entities []domain.Entity, cause error) error {
	metrics.AbandonedBatches.Inc()
	f.logger().Error("batch rejected", zap.String("batch", batchID), zap.Int("entities", len(entities)), zap.Error(cause))
	if f.DLQ == nil || len(entities) == 0 {
		return nil
	}
	dead := make([]domain.InvalidEvent, 0, len(entities))
	for i, e := range entities {
		dead = append(dead, domain.InvalidEvent{
			Err:   cause,
			Event: e,
			Meta:  map[string]any{"batch": batchID, "operation": "translate", "index": i},
		})
	}
	if err := f.DLQ.Put(ctx, batchID, dead); err != nil {
		return fmt.Errorf("dead-letter batch %s: %w", batchID, err)
	}
	return nil
}

// stampBatch 在 meta 中记录批次号，复制 map 以免修改策略产出的共享值。
func stampBatch(inv *domain.InvalidEvent, batchID string) {
	meta := make(map[string]any, len(inv.Meta)+1)
	for k, v := range inv.Meta {
		meta[k] = v
	}
	meta["batch"] = batchID
	inv.Meta = meta
}
