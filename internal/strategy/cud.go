package strategy

import (
	"strings"

	"graphsink/internal/cypher"
	"graphsink/internal/domain"
)

// KindCUD 等策略名与配置中的 sink.strategy 对应。
const (
	KindCUD                 = "cud"
	KindNodePattern         = "node_pattern"
	KindRelationshipPattern = "relationship_pattern"
	KindTemplate            = "template"
)

// CUD 翻译显式的 create/merge/update/delete 记录，无状态。
type CUD struct{}

// NewCUD 创建 CUD 策略。
func NewCUD() *CUD {
	return &CUD{}
}

type nodeShape struct {
	labels string
	ids    string
	detach bool
}

type endpointShape struct {
	labels string
	ids    string
	op     Operation
}

type relShape struct {
	from    endpointShape
	to      endpointShape
	relType string
}

func (s *CUD) MergeNodeEvents(entities []domain.Entity) domain.IngestionEvent {
	nodes, invalids := collect(entities, OpMergeNode, DecodeCUDNode, CUDNode.validateMerge)
	var events []domain.Event
	for _, op := range []Operation{OpCreate, OpMerge, OpUpdate} {
		ofOp := filter(nodes, func(n CUDNode) bool { return n.Op == op })
		groups := groupBy(ofOp, func(n CUDNode) nodeShape {
			shape := nodeShape{labels: labelsKey(n.EffectiveLabels())}
			if op != OpCreate {
				shape.ids = domain.JoinKeys(sortedKeys(n.IDs))
			}
			return shape
		})
		for _, g := range groups {
			events = append(events, domain.Event{Query: nodeMergeQuery(g.items[0]), Events: nodeRows(g.items)})
		}
	}
	// _id 查找时 merge 与 update 渲染出相同语句，需要再按文本合并一次
	return result(regroup(events), invalids)
}

func (s *CUD) DeleteNodeEvents(entities []domain.Entity) domain.IngestionEvent {
	nodes, invalids := collect(entities, OpDeleteNode, DecodeCUDNode, CUDNode.validateDelete)
	groups := groupBy(nodes, func(n CUDNode) nodeShape {
		return nodeShape{
			labels: labelsKey(n.EffectiveLabels()),
			ids:    domain.JoinKeys(sortedKeys(n.IDs)),
			detach: n.Detach,
		}
	})
	events := make([]domain.Event, 0, len(groups))
	for _, g := range groups {
		events = append(events, domain.Event{Query: nodeDeleteQuery(g.items[0]), Events: nodeRows(g.items)})
	}
	return result(events, invalids)
}

func (s *CUD) MergeRelationshipEvents(entities []domain.Entity) domain.IngestionEvent {
	rels, invalids := collect(entities, OpMergeRelationship, DecodeCUDRelationship, CUDRelationship.validateMerge)
	var events []domain.Event
	for _, byOp := range groupBy(rels, func(r CUDRelationship) Operation { return r.Op }) {
		groups := groupBy(byOp.items, func(r CUDRelationship) relShape {
			return relShape{from: shapeOf(r.From, true), to: shapeOf(r.To, true), relType: r.RelType}
		})
		for _, g := range groups {
			events = append(events, domain.Event{Query: relMergeQuery(g.items[0]), Events: relRows(g.items)})
		}
	}
	return result(events, invalids)
}

func (s *CUD) DeleteRelationshipEvents(entities []domain.Entity) domain.IngestionEvent {
	rels, invalids := collect(entities, OpDeleteRelationship, DecodeCUDRelationship, CUDRelationship.validateDelete)
	groups := groupBy(rels, func(r CUDRelationship) relShape {
		return relShape{from: shapeOf(r.From, false), to: shapeOf(r.To, false), relType: r.RelType}
	})
	events := make([]domain.Event, 0, len(groups))
	for _, g := range groups {
		events = append(events, domain.Event{Query: relDeleteQuery(g.items[0]), Events: relRows(g.items)})
	}
	return result(events, invalids)
}

// collect 解析并校验归属于 operation 的行，其余行留给别的操作。
func collect[T any](entities []domain.Entity, operation string, decode func(map[string]any) (T, error), validate func(T) error) ([]T, []domain.InvalidEvent) {
	var (
		accepted []T
		invalids []domain.InvalidEvent
	)
	for i, e := range entities {
		if e.Value == nil || owner(e.Value) != operation {
			continue
		}
		_, err := parseEntityType(e.Value["type"])
		var rec T
		if err == nil {
			rec, err = decode(e.Value)
		}
		if err == nil {
			err = validate(rec)
		}
		if err != nil {
			invalids = append(invalids, invalid(KindCUD, operation, i, e.Value, err))
			continue
		}
		accepted = append(accepted, rec)
	}
	return accepted, invalids
}

func filter[T any](items []T, keep func(T) bool) []T {
	var out []T
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

func result(events []domain.Event, invalids []domain.InvalidEvent) domain.IngestionEvent {
	out := domain.Empty()
	out.Events = append(out.Events, events...)
	out.InvalidEvents = append(out.InvalidEvents, invalids...)
	return out
}

func shapeOf(n CUDNodeRel, withOp bool) endpointShape {
	shape := endpointShape{labels: labelsKey(n.EffectiveLabels()), ids: domain.JoinKeys(sortedKeys(n.IDs))}
	if withOp {
		shape.op = n.Op
	}
	return shape
}

func nodeRows(nodes []CUDNode) []map[string]any {
	rows := make([]map[string]any, 0, len(nodes))
	for _, n := range nodes {
		rows = append(rows, n.ToMap())
	}
	return rows
}

func relRows(rels []CUDRelationship) []map[string]any {
	rows := make([]map[string]any, 0, len(rels))
	for _, r := range rels {
		rows = append(rows, r.ToMap())
	}
	return rows
}

func nodeLookup(n CUDNode, keyword string) string {
	return cypher.NodeLookup{
		Keyword:    keyword,
		Identifier: "n",
		Labels:     n.EffectiveLabels(),
		IDs:        sortedKeys(n.IDs),
	}.String()
}

func endpointLookup(n CUDNodeRel, field, keyword string) string {
	return cypher.NodeLookup{
		Keyword:    keyword,
		Identifier: field,
		Field:      field,
		Labels:     n.EffectiveLabels(),
		IDs:        sortedKeys(n.IDs),
	}.String()
}

func nodeMergeQuery(n CUDNode) string {
	switch n.Op {
	case OpCreate:
		return cypher.MustTemplate("node_create.cql", map[string]any{
			"Labels": cypher.LabelPattern(n.EffectiveLabels()),
		})
	case OpMerge:
		return cypher.MustTemplate("node_set.cql", map[string]any{"Lookup": nodeLookup(n, cypher.KeywordMerge)})
	default:
		return cypher.MustTemplate("node_set.cql", map[string]any{"Lookup": nodeLookup(n, cypher.KeywordMatch)})
	}
}

func nodeDeleteQuery(n CUDNode) string {
	return cypher.MustTemplate("node_delete.cql", map[string]any{
		"Lookup": nodeLookup(n, cypher.KeywordMatch),
		"Detach": n.Detach,
	})
}

func relMergeQuery(r CUDRelationship) string {
	if r.Op == OpUpdate {
		return cypher.MustTemplate("rel_update.cql", map[string]any{
			"From":    endpointLookup(r.From, domain.FieldFrom, cypher.KeywordMatch),
			"To":      endpointLookup(r.To, domain.FieldTo, cypher.KeywordMatch),
			"RelType": cypher.Quote(r.RelType),
		})
	}
	clause, setOp := cypher.KeywordCreate, "="
	if r.Op == OpMerge {
		clause, setOp = cypher.KeywordMerge, "+="
	}
	return cypher.MustTemplate("rel_upsert.cql", map[string]any{
		"From":    endpointLookup(r.From, domain.FieldFrom, strings.ToUpper(string(r.From.Op))),
		"To":      endpointLookup(r.To, domain.FieldTo, strings.ToUpper(string(r.To.Op))),
		"Clause":  clause,
		"RelType": cypher.Quote(r.RelType),
		"SetOp":   setOp,
	})
}

func relDeleteQuery(r CUDRelationship) string {
	return cypher.MustTemplate("rel_delete.cql", map[string]any{
		"From":    endpointLookup(r.From, domain.FieldFrom, cypher.KeywordMatch),
		"To":      endpointLookup(r.To, domain.FieldTo, cypher.KeywordMatch),
		"RelType": cypher.Quote(r.RelType),
	})
}
