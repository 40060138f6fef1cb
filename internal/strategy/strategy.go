// Package strategy 把一批 Entity 翻译成参数化的批量 Cypher 语句。
//
// 每种策略实现四个相互独立的操作，Events 并发执行它们并按固定顺序拼接结果。
// 策略在构造后不可变，可以被多个 goroutine 同时使用。
package strategy

import (
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"graphsink/internal/cypher"
	"graphsink/internal/domain"
)

// Strategy 是翻译策略的统一契约。
type Strategy interface {
	MergeNodeEvents(entities []domain.Entity) domain.IngestionEvent
	DeleteNodeEvents(entities []domain.Entity) domain.IngestionEvent
	MergeRelationshipEvents(entities []domain.Entity) domain.IngestionEvent
	DeleteRelationshipEvents(entities []domain.Entity) domain.IngestionEvent
}

// 操作名，用于 InvalidEvent 的 meta。
const (
	OpMergeNode          = "mergeNode"
	OpDeleteNode         = "deleteNode"
	OpMergeRelationship  = "mergeRelationship"
	OpDeleteRelationship = "deleteRelationship"
)

// ErrOperationPanic 表示某个操作在翻译时 panic，整个批次不可用。
var ErrOperationPanic = errors.New("strategy operation panicked")

// Events 并发执行四个操作，结果按 mergeNode、deleteNode、mergeRelationship、deleteRelationship 拼接。
// 任一操作 panic 时返回 ErrOperationPanic，不产出部分结果。
func Events(s Strategy, entities []domain.Entity) (domain.IngestionEvent, error) {
	ops := [...]struct {
		name string
		run  func([]domain.Entity) domain.IngestionEvent
	}{
		{OpMergeNode, s.MergeNodeEvents},
		{OpDeleteNode, s.DeleteNodeEvents},
		{OpMergeRelationship, s.MergeRelationshipEvents},
		{OpDeleteRelationship, s.DeleteRelationshipEvents},
	}
	var (
		g       errgroup.Group
		results [len(ops)]domain.IngestionEvent
	)
	for i, op := range ops {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: %s: %v", ErrOperationPanic, op.name, r)
				}
			}()
			results[i] = op.run(entities)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.Empty(), err
	}
	return domain.Merge(results[:]...), nil
}

// Indexed 由需要索引支持的策略实现。
type Indexed interface {
	Indexes() []cypher.Index
}

func invalid(strategy, operation string, index int, event any, err error) domain.InvalidEvent {
	return domain.InvalidEvent{
		Err:   err,
		Event: event,
		Meta: map[string]any{
			"strategy":  strategy,
			"operation": operation,
			"index":     index,
		},
	}
}

// single 在行非空时把它们包装成唯一的一个 Event。
func single(query string, rows []map[string]any) domain.IngestionEvent {
	out := domain.Empty()
	if len(rows) > 0 {
		out.Events = append(out.Events, domain.Event{Query: query, Events: rows})
	}
	return out
}
