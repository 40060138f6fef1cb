// Package props 将嵌套载荷展平为点分路径，并按 pattern 配置筛选键与属性。
package props

import (
	"fmt"
	"slices"
	"strings"
)

// Mode 描述属性筛选方式。
type Mode int

const (
	All Mode = iota
	Include
	Exclude
)

func (m Mode) String() string {
	switch m {
	case All:
		return "ALL"
	case Include:
		return "INCLUDE"
	case Exclude:
		return "EXCLUDE"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Flatten 递归展开嵌套 map，子键以 "." 连接；保留值为 nil 的叶子，空的子 map 不产生任何键。
func Flatten(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	flattenInto(out, "", in)
	return out
}

func flattenInto(out map[string]any, prefix string, in map[string]any) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch nested := v.(type) {
		case map[string]any:
			flattenInto(out, key, nested)
		case map[any]any:
			flattenInto(out, key, stringKeys(nested))
		default:
			out[key] = v
		}
	}
}

// yaml.v2 风格的 map[any]any 统一转换为字符串键。
func stringKeys(in map[any]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[fmt.Sprint(k)] = v
	}
	return out
}

// ContainsProp 判断 key 是否命中属性列表，列表项 "a" 同时命中 "a.b"。
func ContainsProp(key string, properties []string) bool {
	if slices.Contains(properties, key) {
		return true
	}
	if !strings.Contains(key, ".") {
		return false
	}
	for _, p := range properties {
		if strings.HasPrefix(key, p+".") {
			return true
		}
	}
	return false
}

// Filter 按筛选方式挑出属性；skip 返回 true 的键（通常是身份键）总是被排除。
func Filter(flat map[string]any, mode Mode, properties []string, skip func(string) bool) map[string]any {
	out := make(map[string]any)
	for k, v := range flat {
		if skip != nil && skip(k) {
			continue
		}
		switch mode {
		case Include:
			if !ContainsProp(k, properties) {
				continue
			}
		case Exclude:
			if ContainsProp(k, properties) {
				continue
			}
		}
		out[k] = v
	}
	return out
}

// Pick 取出身份键；任一键缺失时 ok 为 false。
func Pick(flat map[string]any, keys []string) (map[string]any, bool) {
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		v, ok := flat[k]
		if !ok {
			return nil, false
		}
		out[k] = v
	}
	return out, true
}

// Project 把已展平的载荷拆成身份键与筛选后的属性。
// 缺少任一身份键时返回 ok=false，调用方应丢弃该行。
func Project(flat map[string]any, keys []string, mode Mode, properties []string) (keyMap, propMap map[string]any, ok bool) {
	keyMap, ok = Pick(flat, keys)
	if !ok {
		return nil, nil, false
	}
	propMap = Filter(flat, mode, properties, func(k string) bool { return slices.Contains(keys, k) })
	return keyMap, propMap, true
}
