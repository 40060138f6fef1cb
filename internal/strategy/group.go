package strategy

import (
	"strconv"

	"graphsink/internal/domain"
)

// bucket 是一个按首次出现顺序排列的分组。
type bucket[K comparable, T any] struct {
	key   K
	items []T
}

// groupBy 保持首次出现顺序分组，组内保持输入顺序。
func groupBy[K comparable, T any](items []T, key func(T) K) []bucket[K, T] {
	index := make(map[K]int)
	var out []bucket[K, T]
	for _, it := range items {
		k := key(it)
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, bucket[K, T]{key: k})
		}
		out[i].items = append(out[i].items, it)
	}
	return out
}

// labelsKey 带上长度，避免 [""] 与 [] 落入同一组。
func labelsKey(labels []string) string {
	return strconv.Itoa(len(labels)) + "|" + domain.JoinLabels(labels)
}

// regroup 合并语句文本相同的 Event，行按原顺序拼接。
func regroup(events []domain.Event) []domain.Event {
	out := make([]domain.Event, 0, len(events))
	for _, b := range groupBy(events, func(e domain.Event) string { return e.Query }) {
		var rows []map[string]any
		for _, e := range b.items {
			rows = append(rows, e.Events...)
		}
		out = append(out, domain.Event{Query: b.key, Events: rows})
	}
	return out
}
