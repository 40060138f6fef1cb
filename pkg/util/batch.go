package util

import "iter"

// Chunks 按 size 切分 items，依次产出批次序号与子切片；size<=0 时整体作为一批。
// 子切片与 items 共享底层数组，但容量已截断，append 不会覆盖后续元素。
func Chunks[T any](items []T, size int) iter.Seq2[int, []T] {
	return func(yield func(int, []T) bool) {
		if len(items) == 0 {
			return
		}
		if size <= 0 {
			size = len(items)
		}
		for i, start := 0, 0; start < len(items); i, start = i+1, start+size {
			end := min(start+size, len(items))
			if !yield(i, items[start:end:end]) {
				return
			}
		}
	}
}
