package app

import (
	"errors"
	"sync"

	"graphsink/internal/domain"
)

// ErrBufferFull 表示待写入的 entity 已达上限。
var ErrBufferFull = errors.New("buffer full")

// Buffer 是有界的待写入队列，并发安全。
type Buffer struct {
	mu       sync.Mutex
	items    []domain.Entity
	capacity int
}

func NewBuffer(capacity int) *Buffer {
	return &Buffer{capacity: capacity}
}

// Add 整体追加，超出容量时一条也不加入。
func (b *Buffer) Add(entities ...domain.Entity) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.capacity > 0 && len(b.items)+len(entities) > b.capacity {
		return ErrBufferFull
	}
	b.items = append(b.items, entities...)
	return nil
}

// Drain 取出全部 entity。
func (b *Buffer) Drain() []domain.Entity {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.items
	b.items = nil
	return out
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}
