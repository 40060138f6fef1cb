package domain

import "strings"

// 参数行中使用的固定字段名。
const (
	FieldIDs        = "ids"
	FieldProperties = "properties"
	FieldKeys       = "keys"
	FieldFrom       = "from"
	FieldTo         = "to"
	FieldStart      = "start"
	FieldEnd        = "end"

	// PhysicalIDKey 为数据库内部 id 的保留键，出现时按 id() 查找节点并忽略标签。
	PhysicalIDKey = "_id"
)

// 语句中绑定的列表参数名。
const EventsParam = "events"

// JoinLabels 按原顺序拼接标签，用作分组 key（内部使用）。
// 标签本身可以包含任意字符，因此使用不可见分隔符。
func JoinLabels(labels []string) string {
	return strings.Join(labels, "\x1f")
}

// JoinKeys 拼接已排序的键集合，用作分组 key。
func JoinKeys(keys []string) string {
	return strings.Join(keys, "\x1f")
}
