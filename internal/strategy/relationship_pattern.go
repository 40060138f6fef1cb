package strategy

import (
	"maps"
	"slices"

	"graphsink/internal/cypher"
	"graphsink/internal/domain"
	"graphsink/internal/pattern"
	"graphsink/internal/props"
)

// RelationshipPattern 按固定的关系 pattern 投影载荷，同时写入两端节点。
type RelationshipPattern struct {
	conf        pattern.RelationshipConfiguration
	mergeQuery  string
	deleteQuery string
}

// NewRelationshipPattern 预先渲染 merge/delete 语句。
func NewRelationshipPattern(conf pattern.RelationshipConfiguration) *RelationshipPattern {
	data := map[string]any{
		"Start":   cypher.NodePattern(domain.FieldStart, conf.Start.Labels, domain.FieldStart+"."+domain.FieldKeys, conf.Start.Keys),
		"End":     cypher.NodePattern(domain.FieldEnd, conf.End.Labels, domain.FieldEnd+"."+domain.FieldKeys, conf.End.Keys),
		"RelType": cypher.Quote(conf.RelType),
	}
	return &RelationshipPattern{
		conf:        conf,
		mergeQuery:  cypher.MustTemplate("pattern_rel_merge.cql", data),
		deleteQuery: cypher.MustTemplate("pattern_rel_delete.cql", data),
	}
}

// Configuration 返回构造时的配置。
func (s *RelationshipPattern) Configuration() pattern.RelationshipConfiguration {
	return s.conf
}

func (s *RelationshipPattern) MergeNodeEvents([]domain.Entity) domain.IngestionEvent {
	return domain.Empty()
}

func (s *RelationshipPattern) DeleteNodeEvents([]domain.Entity) domain.IngestionEvent {
	return domain.Empty()
}

func (s *RelationshipPattern) MergeRelationshipEvents(entities []domain.Entity) domain.IngestionEvent {
	var rows []map[string]any
	for _, e := range entities {
		if e.Value == nil {
			continue
		}
		if row, ok := s.data(e.Value, true); ok {
			rows = append(rows, row)
		}
	}
	return single(s.mergeQuery, rows)
}

func (s *RelationshipPattern) DeleteRelationshipEvents(entities []domain.Entity) domain.IngestionEvent {
	var rows []map[string]any
	for _, e := range entities {
		if !e.IsTombstone() {
			continue
		}
		if row, ok := s.data(e.Key, false); ok {
			rows = append(rows, row)
		}
	}
	return single(s.deleteQuery, rows)
}

// Indexes 返回两端节点身份键上的索引。
func (s *RelationshipPattern) Indexes() []cypher.Index {
	return []cypher.Index{
		{Labels: s.conf.Start.Labels, Keys: s.conf.Start.Keys},
		{Labels: s.conf.End.Labels, Keys: s.conf.End.Keys},
	}
}

// data 生成 {start, end[, properties]} 行；两端节点始终带 properties。
func (s *RelationshipPattern) data(payload map[string]any, withProperties bool) (map[string]any, bool) {
	start, ok := nodeData(s.conf.Start, payload, true)
	if !ok {
		return nil, false
	}
	end, ok := nodeData(s.conf.End, payload, true)
	if !ok {
		return nil, false
	}
	row := map[string]any{domain.FieldStart: start, domain.FieldEnd: end}
	if !withProperties {
		return row, true
	}
	flat := props.Flatten(payload)
	properties := props.Filter(flat, s.conf.Type, s.conf.Properties, func(k string) bool {
		return !s.isRelationshipProperty(k)
	})
	// 关系自身的身份键总是写入
	if keys, ok := props.Pick(flat, s.conf.Keys); ok {
		maps.Copy(properties, keys)
	}
	row[domain.FieldProperties] = properties
	return row, true
}

// isRelationshipProperty 判断 key 是否不属于任一端节点。
func (s *RelationshipPattern) isRelationshipProperty(key string) bool {
	for _, node := range []pattern.NodeConfiguration{s.conf.Start, s.conf.End} {
		if slices.Contains(node.Keys, key) {
			return false
		}
		if node.Type == props.Include && props.ContainsProp(key, node.Properties) {
			return false
		}
	}
	return true
}
