package strategy

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"graphsink/internal/domain"
)

// Operation 是 CUD 记录的 op 字段。
type Operation string

const (
	OpCreate Operation = "create"
	OpMerge  Operation = "merge"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
	OpMatch  Operation = "match"
)

// EntityType 是 CUD 记录的 type 字段。
type EntityType string

const (
	TypeNode         EntityType = "node"
	TypeRelationship EntityType = "relationship"
)

// CUD 记录解析与校验错误。
var (
	ErrMissingType          = errors.New("missing type")
	ErrUnknownType          = errors.New("unknown type")
	ErrMissingOp            = errors.New("missing op")
	ErrUnknownOp            = errors.New("unknown op")
	ErrUnsupportedOp        = errors.New("unsupported op")
	ErrMissingIDs           = errors.New("ids must not be empty")
	ErrMissingProperties    = errors.New("properties must not be empty")
	ErrUnexpectedProperties = errors.New("properties must be empty on delete")
	ErrMissingRelType       = errors.New("missing rel_type")
	ErrMissingEndpoint      = errors.New("missing relationship endpoint")
	ErrInvalidField         = errors.New("invalid field")
)

// CUDNode 是 type=node 的 CUD 记录。
type CUDNode struct {
	Op         Operation
	Properties map[string]any
	IDs        map[string]any
	Detach     bool
	Labels     []string
}

// CUDNodeRel 是关系两端节点的查找描述，Op 缺省为 match。
type CUDNodeRel struct {
	IDs    map[string]any
	Labels []string
	Op     Operation
}

// CUDRelationship 是 type=relationship 的 CUD 记录。
type CUDRelationship struct {
	Op         Operation
	Properties map[string]any
	RelType    string
	From       CUDNodeRel
	To         CUDNodeRel
}

// ToMap 返回语句参数行；delete 只带 ids。
func (n CUDNode) ToMap() map[string]any {
	if n.Op == OpDelete {
		return map[string]any{domain.FieldIDs: n.IDs}
	}
	return map[string]any{domain.FieldIDs: n.IDs, domain.FieldProperties: n.Properties}
}

// ToMap 返回语句参数行；delete 不带 properties。
func (r CUDRelationship) ToMap() map[string]any {
	out := map[string]any{
		domain.FieldFrom: map[string]any{domain.FieldIDs: r.From.IDs},
		domain.FieldTo:   map[string]any{domain.FieldIDs: r.To.IDs},
	}
	if r.Op != OpDelete {
		out[domain.FieldProperties] = r.Properties
	}
	return out
}

// EffectiveLabels 在按内部 id 查找时为空。
func (n CUDNode) EffectiveLabels() []string {
	return effectiveLabels(n.IDs, n.Labels)
}

// EffectiveLabels 在按内部 id 查找时为空。
func (n CUDNodeRel) EffectiveLabels() []string {
	return effectiveLabels(n.IDs, n.Labels)
}

func effectiveLabels(ids map[string]any, labels []string) []string {
	if _, ok := ids[domain.PhysicalIDKey]; ok {
		return nil
	}
	return labels
}

// sortedKeys 返回排序后的 ids 键，保证语句文本确定。
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func parseOperation(v any) (Operation, error) {
	if v == nil {
		return "", ErrMissingOp
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %v", ErrUnknownOp, v)
	}
	switch op := Operation(s); op {
	case OpCreate, OpMerge, OpUpdate, OpDelete, OpMatch:
		return op, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownOp, s)
	}
}

func parseEntityType(v any) (EntityType, error) {
	if v == nil {
		return "", ErrMissingType
	}
	s, _ := v.(string)
	switch t := EntityType(s); t {
	case TypeNode, TypeRelationship:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %v", ErrUnknownType, v)
	}
}

// mapField 取 map 类型字段；缺失或类型不符时返回空 map。
func mapField(m map[string]any, key string) map[string]any {
	if v, ok := m[key].(map[string]any); ok && v != nil {
		return v
	}
	return map[string]any{}
}

func labelsField(m map[string]any) ([]string, error) {
	switch v := m["labels"].(type) {
	case nil:
		return []string{}, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, l := range v {
			s, ok := l.(string)
			if !ok {
				return nil, fmt.Errorf("%w: labels must be strings, got %T", ErrInvalidField, l)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: labels must be a list, got %T", ErrInvalidField, v)
	}
}

func detachField(m map[string]any) bool {
	switch v := m["detach"].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	default:
		return false
	}
}

// DecodeCUDNode 从载荷解析节点记录，不做语义校验。
func DecodeCUDNode(m map[string]any) (CUDNode, error) {
	op, err := parseOperation(m["op"])
	if err != nil {
		return CUDNode{}, err
	}
	labels, err := labelsField(m)
	if err != nil {
		return CUDNode{}, err
	}
	return CUDNode{
		Op:         op,
		Properties: mapField(m, domain.FieldProperties),
		IDs:        mapField(m, domain.FieldIDs),
		Detach:     detachField(m),
		Labels:     labels,
	}, nil
}

func decodeNodeRel(m map[string]any, field string) (CUDNodeRel, error) {
	raw, ok := m[field].(map[string]any)
	if !ok || raw == nil {
		return CUDNodeRel{}, fmt.Errorf("%w: %s", ErrMissingEndpoint, field)
	}
	op := OpMatch
	if raw["op"] != nil {
		parsed, err := parseOperation(raw["op"])
		if err != nil {
			return CUDNodeRel{}, fmt.Errorf("%s: %w", field, err)
		}
		op = parsed
	}
	labels, err := labelsField(raw)
	if err != nil {
		return CUDNodeRel{}, fmt.Errorf("%s: %w", field, err)
	}
	return CUDNodeRel{IDs: mapField(raw, domain.FieldIDs), Labels: labels, Op: op}, nil
}

// DecodeCUDRelationship 从载荷解析关系记录，不做语义校验。
func DecodeCUDRelationship(m map[string]any) (CUDRelationship, error) {
	op, err := parseOperation(m["op"])
	if err != nil {
		return CUDRelationship{}, err
	}
	relType, _ := m["rel_type"].(string)
	if relType == "" {
		return CUDRelationship{}, ErrMissingRelType
	}
	from, err := decodeNodeRel(m, domain.FieldFrom)
	if err != nil {
		return CUDRelationship{}, err
	}
	to, err := decodeNodeRel(m, domain.FieldTo)
	if err != nil {
		return CUDRelationship{}, err
	}
	return CUDRelationship{
		Op:         op,
		Properties: mapField(m, domain.FieldProperties),
		RelType:    relType,
		From:       from,
		To:         to,
	}, nil
}

// owner 决定哪个操作负责处理（或拒绝）这一行，保证每行只被报告一次。
func owner(m map[string]any) string {
	t, err := parseEntityType(m["type"])
	if err != nil {
		return OpMergeNode
	}
	isDelete := m["op"] == string(OpDelete)
	switch {
	case t == TypeNode && isDelete:
		return OpDeleteNode
	case t == TypeNode:
		return OpMergeNode
	case isDelete:
		return OpDeleteRelationship
	default:
		return OpMergeRelationship
	}
}

func (n CUDNode) validateMerge() error {
	switch n.Op {
	case OpMerge:
		if len(n.IDs) == 0 {
			return ErrMissingIDs
		}
		if len(n.Properties) == 0 {
			return ErrMissingProperties
		}
	case OpCreate, OpUpdate:
		if len(n.Properties) == 0 {
			return ErrMissingProperties
		}
	default:
		return fmt.Errorf("%w: %s node", ErrUnsupportedOp, n.Op)
	}
	return nil
}

func (n CUDNode) validateDelete() error {
	if len(n.IDs) == 0 {
		return ErrMissingIDs
	}
	if len(n.Properties) != 0 {
		return ErrUnexpectedProperties
	}
	return nil
}

func (r CUDRelationship) validateMerge() error {
	switch r.Op {
	case OpCreate, OpMerge, OpUpdate:
	default:
		return fmt.Errorf("%w: %s relationship", ErrUnsupportedOp, r.Op)
	}
	for _, ep := range []struct {
		name string
		rel  CUDNodeRel
	}{{domain.FieldFrom, r.From}, {domain.FieldTo, r.To}} {
		switch ep.rel.Op {
		case OpCreate, OpMerge, OpMatch:
		default:
			return fmt.Errorf("%w: %s %s", ErrUnsupportedOp, ep.rel.Op, ep.name)
		}
		if len(ep.rel.IDs) == 0 {
			return fmt.Errorf("%s: %w", ep.name, ErrMissingIDs)
		}
	}
	if len(r.Properties) == 0 {
		return ErrMissingProperties
	}
	return nil
}

func (r CUDRelationship) validateDelete() error {
	if len(r.From.IDs) == 0 {
		return fmt.Errorf("%s: %w", domain.FieldFrom, ErrMissingIDs)
	}
	if len(r.To.IDs) == 0 {
		return fmt.Errorf("%s: %w", domain.FieldTo, ErrMissingIDs)
	}
	if len(r.Properties) != 0 {
		return ErrUnexpectedProperties
	}
	return nil
}
