package cypher

import (
	"strings"

	"graphsink/internal/domain"
)

// 节点查找使用的关键字。
const (
	KeywordMatch  = "MATCH"
	KeywordMerge  = "MERGE"
	KeywordCreate = "CREATE"
)

// NodeLookup 描述一次按 ids 查找/创建节点的语句片段。
type NodeLookup struct {
	Keyword    string   // MATCH / MERGE / CREATE
	Identifier string   // 语句变量名，如 n、from
	Field      string   // 参数行中的字段前缀，如 from；节点语句为空
	Labels     []string // 有 _id 时忽略
	IDs        []string // 已排序的 ids 键
}

// String 渲染查找片段。
// ids 含 _id 时总是 MATCH 内部 id，忽略标签和关键字。
func (l NodeLookup) String() string {
	keyword := l.Keyword
	if keyword == "" {
		keyword = KeywordMatch
	}
	field := ""
	if l.Field != "" {
		field = l.Field + "."
	}
	id := Quote(l.Identifier)
	for _, k := range l.IDs {
		if k == domain.PhysicalIDKey {
			return "MATCH (" + id + ") WHERE id(" + id + ") = event." + field + "ids._id"
		}
	}
	var sb strings.Builder
	sb.WriteString(keyword)
	sb.WriteString(" (")
	sb.WriteString(id)
	sb.WriteString(LabelPattern(l.Labels))
	sb.WriteString(" {")
	sb.WriteString(KeyPattern(field+"ids", l.IDs))
	sb.WriteString("})")
	return sb.String()
}

// NodePattern 渲染 `n:A:B{k: event.keys.k}`，用于 pattern 策略。
func NodePattern(identifier string, labels []string, prefix string, keys []string) string {
	return identifier + LabelPattern(labels) + "{" + KeyPattern(prefix, keys) + "}"
}
