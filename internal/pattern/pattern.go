// Package pattern 解析节点/关系 pattern 字符串，生成投影配置。
//
// 节点 pattern：
//
//	(:LabelA:LabelB{!id,foo,bar})   LabelA:LabelB{!id,-foo}   (:LabelA{!id,*})
//
// 关系 pattern：
//
//	(:A{!a})-[:TYPE{x,y}]->(:B{!b})   (:A{!a})<-[:TYPE]-(:B{!b})   A{!a} TYPE{-x} B{!b}
//
// "!" 标记身份键（节点至少一个），其余项必须同为普通（INCLUDE）、同为 "-"（EXCLUDE）或仅一个 "*"（ALL）。
package pattern

import (
	"slices"
	"strings"

	"graphsink/internal/props"
)

// NodeConfiguration 描述载荷到单个节点形状的投影。
type NodeConfiguration struct {
	Keys       []string
	Labels     []string
	Type       props.Mode
	Properties []string
}

// RelationshipConfiguration 描述载荷到 (start)-[r]->(end) 的投影。
type RelationshipConfiguration struct {
	Start      NodeConfiguration
	End        NodeConfiguration
	RelType    string
	Keys       []string
	Type       props.Mode
	Properties []string
}

// ParseNode 解析节点 pattern，失败返回 *Error。
func ParseNode(pattern string) (NodeConfiguration, error) {
	ast, err := nodeParser.ParseString("", pattern)
	if err != nil {
		return NodeConfiguration{}, nodeError(pattern, ErrInvalid, err)
	}
	if ast.Cypher == nil && ast.Simple == nil {
		return NodeConfiguration{}, nodeError(pattern, ErrInvalid, nil)
	}
	labels, specs := ast.parts()
	conf, err := buildNode(labels, specs)
	if err != nil {
		return NodeConfiguration{}, nodeError(pattern, err, nil)
	}
	return conf, nil
}

// MustParseNode 与 ParseNode 相同，失败时 panic，仅用于常量 pattern。
func MustParseNode(pattern string) NodeConfiguration {
	conf, err := ParseNode(pattern)
	if err != nil {
		panic(err)
	}
	return conf
}

// ParseRelationship 解析关系 pattern。
// "<-" 方向在解析阶段交换 start 与 end；端点任何错误都报告为关系 pattern 无效。
func ParseRelationship(pattern string) (RelationshipConfiguration, error) {
	ast, err := relParser.ParseString("", pattern)
	if err != nil {
		return RelationshipConfiguration{}, relError(pattern, ErrInvalid, err)
	}
	if ast.Cypher == nil && ast.Simple == nil {
		return RelationshipConfiguration{}, relError(pattern, ErrInvalid, nil)
	}

	var (
		left, right *nodeAST
		relType     string
		relSpecs    []*propSpec
		incoming    bool
	)
	if c := ast.Cypher; c != nil {
		// 必须且只能有一个方向
		if c.Incoming == c.Outgoing {
			return RelationshipConfiguration{}, relError(pattern, ErrInvalidDirection, nil)
		}
		left, right = &nodeAST{Cypher: c.Left}, &nodeAST{Cypher: c.Right}
		relType, relSpecs, incoming = c.Rel.Type, c.Rel.Specs, c.Incoming
	} else {
		s := ast.Simple
		left, right = &nodeAST{Simple: s.Left}, &nodeAST{Simple: s.Right}
		relType, relSpecs = s.Type, s.Specs
	}

	start, err := endpoint(left)
	if err != nil {
		return RelationshipConfiguration{}, relError(pattern, ErrInvalid, err)
	}
	end, err := endpoint(right)
	if err != nil {
		return RelationshipConfiguration{}, relError(pattern, ErrInvalid, err)
	}
	if incoming {
		start, end = end, start
	}

	keys, rest := splitKeys(relSpecs)
	mode, properties, err := selection(rest)
	if err != nil {
		return RelationshipConfiguration{}, relError(pattern, err, nil)
	}
	return RelationshipConfiguration{
		Start:      start,
		End:        end,
		RelType:    relType,
		Keys:       keys,
		Type:       mode,
		Properties: properties,
	}, nil
}

// MustParseRelationship 与 ParseRelationship 相同，失败时 panic。
func MustParseRelationship(pattern string) RelationshipConfiguration {
	conf, err := ParseRelationship(pattern)
	if err != nil {
		panic(err)
	}
	return conf
}

// EndpointConfiguration 按关系端点的规则解析节点 pattern：
// 未声明属性（或 "*"）的端点只写入身份键。
func EndpointConfiguration(pattern string) (NodeConfiguration, error) {
	conf, err := ParseNode(pattern)
	if err != nil {
		return NodeConfiguration{}, err
	}
	return asEndpoint(conf), nil
}

func endpoint(ast *nodeAST) (NodeConfiguration, error) {
	labels, specs := ast.parts()
	conf, err := buildNode(labels, specs)
	if err != nil {
		return NodeConfiguration{}, err
	}
	return asEndpoint(conf), nil
}

func asEndpoint(conf NodeConfiguration) NodeConfiguration {
	if conf.Type == props.All {
		conf.Type = props.Include
		conf.Properties = []string{}
	}
	return conf
}

func buildNode(labels []string, specs []*propSpec) (NodeConfiguration, error) {
	keys, rest := splitKeys(specs)
	if len(keys) == 0 {
		return NodeConfiguration{}, ErrMissingKey
	}
	mode, properties, err := selection(rest)
	if err != nil {
		return NodeConfiguration{}, err
	}
	return NodeConfiguration{
		Keys:       keys,
		Labels:     append([]string{}, labels...),
		Type:       mode,
		Properties: properties,
	}, nil
}

// splitKeys 取出去重后的 "!" 键，保持声明顺序。
func splitKeys(specs []*propSpec) ([]string, []*propSpec) {
	keys := []string{}
	var rest []*propSpec
	for _, s := range specs {
		if s.Key == "" {
			rest = append(rest, s)
			continue
		}
		if !slices.Contains(keys, s.Key) {
			keys = append(keys, s.Key)
		}
	}
	return keys, rest
}

// selection 校验非键项的同质性并推导筛选方式。
func selection(specs []*propSpec) (props.Mode, []string, error) {
	if len(specs) == 0 {
		return props.All, []string{}, nil
	}
	first := specs[0]
	switch {
	case first.All:
		if len(specs) > 1 {
			return 0, nil, ErrNotHomogeneous
		}
		return props.All, []string{}, nil
	case first.Exclude != "":
		out := make([]string, 0, len(specs))
		for _, s := range specs {
			if s.Exclude == "" {
				return 0, nil, ErrNotHomogeneous
			}
			out = append(out, s.Exclude)
		}
		return props.Exclude, out, nil
	default:
		out := make([]string, 0, len(specs))
		for _, s := range specs {
			if s.Include == "" {
				return 0, nil, ErrNotHomogeneous
			}
			out = append(out, s.Include)
		}
		return props.Include, out, nil
	}
}

// String 渲染规范形式，如 "(:A:B{!id,foo})"。
func (c NodeConfiguration) String() string {
	var sb strings.Builder
	sb.WriteString("(")
	for _, l := range c.Labels {
		sb.WriteString(":")
		sb.WriteString(l)
	}
	sb.WriteString(specString(c.Keys, c.Type, c.Properties, true))
	sb.WriteString(")")
	return sb.String()
}

// String 渲染规范形式，方向总是 start -> end。
func (c RelationshipConfiguration) String() string {
	var sb strings.Builder
	sb.WriteString(c.Start.String())
	sb.WriteString("-[:")
	sb.WriteString(c.RelType)
	if len(c.Keys) > 0 || c.Type != props.All {
		sb.WriteString(specString(c.Keys, c.Type, c.Properties, false))
	}
	sb.WriteString("]->")
	sb.WriteString(c.End.String())
	return sb.String()
}

func specString(keys []string, mode props.Mode, properties []string, star bool) string {
	items := make([]string, 0, len(keys)+len(properties)+1)
	for _, k := range keys {
		items = append(items, "!"+k)
	}
	switch mode {
	case props.All:
		if star {
			items = append(items, "*")
		}
	case props.Include:
		items = append(items, properties...)
	case props.Exclude:
		for _, p := range properties {
			items = append(items, "-"+p)
		}
	}
	return "{" + strings.Join(items, ",") + "}"
}
