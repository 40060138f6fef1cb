package strategy

import (
	"graphsink/internal/cypher"
	"graphsink/internal/domain"
	"graphsink/internal/pattern"
	"graphsink/internal/props"
)

// NodePattern 按固定的节点 pattern 投影载荷；同一实例的语句文本恒定。
type NodePattern struct {
	conf        pattern.NodeConfiguration
	mergeQuery  string
	deleteQuery string
}

// NewNodePattern 预先渲染 merge/delete 语句。
func NewNodePattern(conf pattern.NodeConfiguration) *NodePattern {
	node := cypher.NodePattern("n", conf.Labels, domain.FieldKeys, conf.Keys)
	return &NodePattern{
		conf:        conf,
		mergeQuery:  cypher.MustTemplate("pattern_node_merge.cql", map[string]any{"Node": node}),
		deleteQuery: cypher.MustTemplate("pattern_node_delete.cql", map[string]any{"Node": node}),
	}
}

// Configuration 返回构造时的配置。
func (s *NodePattern) Configuration() pattern.NodeConfiguration {
	return s.conf
}

func (s *NodePattern) MergeNodeEvents(entities []domain.Entity) domain.IngestionEvent {
	var rows []map[string]any
	for _, e := range entities {
		if e.Value == nil {
			continue
		}
		if row, ok := nodeData(s.conf, e.Value, true); ok {
			rows = append(rows, row)
		}
	}
	return single(s.mergeQuery, rows)
}

func (s *NodePattern) DeleteNodeEvents(entities []domain.Entity) domain.IngestionEvent {
	var rows []map[string]any
	for _, e := range entities {
		if !e.IsTombstone() {
			continue
		}
		if row, ok := nodeData(s.conf, e.Key, false); ok {
			rows = append(rows, row)
		}
	}
	return single(s.deleteQuery, rows)
}

func (s *NodePattern) MergeRelationshipEvents([]domain.Entity) domain.IngestionEvent {
	return domain.Empty()
}

func (s *NodePattern) DeleteRelationshipEvents([]domain.Entity) domain.IngestionEvent {
	return domain.Empty()
}

// Indexes 返回节点身份键上的索引。
func (s *NodePattern) Indexes() []cypher.Index {
	return []cypher.Index{{Labels: s.conf.Labels, Keys: s.conf.Keys}}
}

// nodeData 生成 {keys, properties} 行；缺少任一身份键时 ok 为 false。
func nodeData(conf pattern.NodeConfiguration, payload map[string]any, withProperties bool) (map[string]any, bool) {
	flat := props.Flatten(payload)
	if !withProperties {
		keys, ok := props.Pick(flat, conf.Keys)
		if !ok {
			return nil, false
		}
		return map[string]any{domain.FieldKeys: keys}, true
	}
	keys, properties, ok := props.Project(flat, conf.Keys, conf.Type, conf.Properties)
	if !ok {
		return nil, false
	}
	return map[string]any{domain.FieldKeys: keys, domain.FieldProperties: properties}, true
}
