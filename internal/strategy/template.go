package strategy

import (
	"errors"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"graphsink/internal/cypher"
	"graphsink/internal/domain"
)

// ErrTemplateRow 表示行提取表达式没有产出 map。
var ErrTemplateRow = errors.New("template row must be a map")

// RowFunc 从 Entity 提取一行参数；返回 nil 行表示跳过。
type RowFunc func(domain.Entity) (map[string]any, error)

// ValueRow 直接使用 Value 作为参数行。
func ValueRow(e domain.Entity) (map[string]any, error) {
	return e.Value, nil
}

// Template 用调用方提供的语句体和行提取函数翻译，只产生 merge。
type Template struct {
	query string
	row   RowFunc
}

// NewTemplate 给语句体加上 UNWIND 前缀；row 为 nil 时使用 ValueRow。
func NewTemplate(query string, row RowFunc) *Template {
	if row == nil {
		row = ValueRow
	}
	return &Template{query: cypher.Unwind + " " + query, row: row}
}

// Query 返回完整语句。
func (s *Template) Query() string {
	return s.query
}

func (s *Template) MergeNodeEvents(entities []domain.Entity) domain.IngestionEvent {
	var (
		rows     []map[string]any
		invalids []domain.InvalidEvent
	)
	for i, e := range entities {
		row, err := s.row(e)
		if err != nil {
			invalids = append(invalids, invalid(KindTemplate, OpMergeNode, i, e, err))
			continue
		}
		if row != nil {
			rows = append(rows, row)
		}
	}
	out := single(s.query, rows)
	out.InvalidEvents = append(out.InvalidEvents, invalids...)
	return out
}

func (s *Template) DeleteNodeEvents([]domain.Entity) domain.IngestionEvent {
	return domain.Empty()
}

func (s *Template) MergeRelationshipEvents([]domain.Entity) domain.IngestionEvent {
	return domain.Empty()
}

func (s *Template) DeleteRelationshipEvents([]domain.Entity) domain.IngestionEvent {
	return domain.Empty()
}

// ExprRow 编译 expr-lang 表达式作为行提取函数，变量为 key 和 value。
//
//	value
//	{id: value.id, name: value.profile.name}
//	value.deleted ? nil : value
func ExprRow(expression string) (RowFunc, error) {
	env := map[string]any{
		"key":   map[string]any{},
		"value": map[string]any{},
	}
	program, err := expr.Compile(expression, expr.Env(env))
	if err != nil {
		return nil, fmt.Errorf("compile row expression %q: %w", expression, err)
	}
	return func(e domain.Entity) (map[string]any, error) {
		return runRow(program, e)
	}, nil
}

func runRow(program *vm.Program, e domain.Entity) (map[string]any, error) {
	out, err := expr.Run(program, map[string]any{"key": e.Key, "value": e.Value})
	if err != nil {
		return nil, err
	}
	switch row := out.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return row, nil
	default:
		return nil, fmt.Errorf("%w, got %T", ErrTemplateRow, out)
	}
}
