package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// DecodeEntities 解析 JSON 数组形式的 entity 列表。
// 整数保持为 int64，避免身份键在图中变成浮点数。
func DecodeEntities(r io.Reader) ([]Entity, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var raw []rawEntity
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode entities: %w", err)
	}
	out := make([]Entity, 0, len(raw))
	for _, e := range raw {
		out = append(out, e.entity())
	}
	return out, nil
}

// DecodeEntity 解析单个 entity，用于 JSON Lines 输入。
func DecodeEntity(data []byte) (Entity, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw rawEntity
	if err := dec.Decode(&raw); err != nil {
		return Entity{}, fmt.Errorf("decode entity: %w", err)
	}
	return raw.entity(), nil
}

type rawEntity struct {
	Key   map[string]any `json:"key"`
	Value map[string]any `json:"value"`
}

func (e rawEntity) entity() Entity {
	return Entity{Key: normalizeMap(e.Key), Value: normalizeMap(e.Value)}
}

func normalizeMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	for k, v := range m {
		m[k] = normalize(v)
	}
	return m
}

func normalize(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := strconv.ParseInt(string(t), 10, 64); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	case map[string]any:
		return normalizeMap(t)
	case []any:
		for i := range t {
			t[i] = normalize(t[i])
		}
		return t
	default:
		return v
	}
}
