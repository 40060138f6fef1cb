package loader

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"graphsink/internal/cypher"
)

// IndexManager 为 pattern 策略的身份键建立索引。
type IndexManager struct {
	runner Runner
	logger *zap.Logger
}

func NewIndexManager(runner Runner, logger *zap.Logger) *IndexManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IndexManager{runner: runner, logger: logger}
}

// Ensure 逐条执行 CREATE INDEX IF NOT EXISTS，已存在的索引不受影响。
func (m *IndexManager) Ensure(ctx context.Context, indexes []cypher.Index) error {
	for _, idx := range indexes {
		for _, query := range idx.Statements() {
			if err := m.runner.RunRaw(ctx, query, nil); err != nil {
				return fmt.Errorf("ensure index: %w", err)
			}
			m.logger.Info("index ensured", zap.String("statement", query))
		}
	}
	return nil
}
