package cypher

import "strings"

// Index 描述 pattern 策略按身份键查找节点时需要的索引。
type Index struct {
	Labels []string
	Keys   []string
}

// Statements 为每个标签生成一条 CREATE INDEX 语句。
func (i Index) Statements() []string {
	if len(i.Keys) == 0 {
		return nil
	}
	properties := make([]string, 0, len(i.Keys))
	for _, k := range i.Keys {
		properties = append(properties, "n."+Quote(k))
	}
	out := make([]string, 0, len(i.Labels))
	for _, label := range i.Labels {
		out = append(out, MustTemplate("create_index.cql", map[string]string{
			"Name":       Quote("graphsink_" + label + "_" + strings.Join(i.Keys, "_")),
			"Label":      LabelPattern([]string{label}),
			"Properties": strings.Join(properties, ", "),
		}))
	}
	return out
}
