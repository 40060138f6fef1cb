package cypher

import (
	"regexp"
	"strings"
)

var identifierRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// Quote 原样返回合法标识符，否则用反引号包裹（内部反引号成对转义）。
func Quote(s string) string {
	if identifierRe.MatchString(s) {
		return s
	}
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}

// LabelPattern 把标签按原顺序拼成 ":A:B"，无标签时返回空串。
func LabelPattern(labels []string) string {
	if len(labels) == 0 {
		return ""
	}
	quoted := make([]string, 0, len(labels))
	for _, l := range labels {
		quoted = append(quoted, Quote(l))
	}
	return ":" + strings.Join(quoted, ":")
}

// KeyPattern 渲染 `k: event.<prefix>.k` 形式的键值对，用 ", " 连接。
func KeyPattern(prefix string, keys []string) string {
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		q := Quote(k)
		parts = append(parts, q+": event."+prefix+"."+q)
	}
	return strings.Join(parts, ", ")
}
