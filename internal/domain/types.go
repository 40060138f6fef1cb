package domain

import (
	"encoding/json"
)

// Entity 表示上游连接器产出的一条变更事件。
// Key 为身份载荷（按 key 删除时存在），Value 为当前状态载荷，为 nil 表示删除。
type Entity struct {
	Key   map[string]any `json:"key"`
	Value map[string]any `json:"value"`
}

// IsTombstone 判断是否为显式删除信号：有 key 且无 value。
func (e Entity) IsTombstone() bool {
	return e.Value == nil && e.Key != nil
}

// Event 是一条参数化语句及其按序执行的参数行。
type Event struct {
	Query  string           `json:"query"`
	Events []map[string]any `json:"events"`
}

// InvalidEvent 记录被拒绝的输入行。
type InvalidEvent struct {
	Err   error
	Event any
	Meta  map[string]any
}

type invalidEventJSON struct {
	Error string         `json:"error,omitempty"`
	Event any            `json:"event"`
	Meta  map[string]any `json:"meta"`
}

// MarshalJSON 将错误渲染为字符串。
func (e InvalidEvent) MarshalJSON() ([]byte, error) {
	out := invalidEventJSON{Event: e.Event, Meta: e.Meta}
	if e.Err != nil {
		out.Error = e.Err.Error()
	}
	if out.Meta == nil {
		out.Meta = map[string]any{}
	}
	return json.Marshal(out)
}

// UnmarshalJSON 还原持久化的 InvalidEvent，错误只保留文本。
func (e *InvalidEvent) UnmarshalJSON(data []byte) error {
	var in invalidEventJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	e.Event = in.Event
	e.Meta = in.Meta
	e.Err = nil
	if in.Error != "" {
		e.Err = storedError(in.Error)
	}
	return nil
}

type storedError string

func (s storedError) Error() string { return string(s) }

// IngestionEvent 是一次策略调用的结果。
type IngestionEvent struct {
	Events        []Event        `json:"events"`
	InvalidEvents []InvalidEvent `json:"invalidEvents"`
}

// Empty 返回一个空结果，两个列表均非 nil，序列化为 []。
func Empty() IngestionEvent {
	return IngestionEvent{Events: []Event{}, InvalidEvents: []InvalidEvent{}}
}

// Merge 按参数顺序拼接多个结果。
func Merge(results ...IngestionEvent) IngestionEvent {
	out := Empty()
	for _, r := range results {
		out.Events = append(out.Events, r.Events...)
		out.InvalidEvents = append(out.InvalidEvents, r.InvalidEvents...)
	}
	return out
}

// RowCount 返回所有 Event 的参数行总数。
func (ie IngestionEvent) RowCount() int {
	n := 0
	for _, ev := range ie.Events {
		n += len(ev.Events)
	}
	return n
}
