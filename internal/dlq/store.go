// Package dlq 持久化被拒绝的输入行（InvalidEvent），便于事后排查与重放。
package dlq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"

	"graphsink/internal/domain"
)

// ErrClosed 表示 Store 已关闭。
var ErrClosed = errors.New("dlq store closed")

const prefix = "dlq/"

// Config 控制存储位置；InMemory 为 true 时忽略 Dir。
type Config struct {
	Dir      string `yaml:"dir"`
	InMemory bool   `yaml:"in_memory"`
}

// Record 是一条落盘的 InvalidEvent。
type Record struct {
	Key          string              `json:"key"`
	BatchID      string              `json:"batchId"`
	StoredAt     time.Time           `json:"storedAt"`
	InvalidEvent domain.InvalidEvent `json:"invalidEvent"`
}

// Store 基于 badger 的死信存储，并发安全。
type Store struct {
	db     *badger.DB
	closed atomic.Bool
	now    func() time.Time
}

// Open 打开（或创建）死信存储。
func Open(cfg Config) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else if cfg.Dir == "" {
		return nil, fmt.Errorf("dlq dir must not be empty")
	}
	opts = opts.WithLogger(nil).
		WithMemTableSize(16 << 20).
		WithValueLogFileSize(64 << 20).
		WithNumMemtables(2)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open dlq: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func recordKey(batchID string, seq int) []byte {
	return []byte(fmt.Sprintf("%s%s/%06d", prefix, batchID, seq))
}

// Put 写入一个批次的全部 InvalidEvent。
func (s *Store) Put(ctx context.Context, batchID string, events []domain.InvalidEvent) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if len(events) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	storedAt := s.now().UTC()
	for i, ev := range events {
		key := recordKey(batchID, i)
		data, err := json.Marshal(Record{Key: string(key), BatchID: batchID, StoredAt: storedAt, InvalidEvent: ev})
		if err != nil {
			return fmt.Errorf("encode invalid event %d: %w", i, err)
		}
		if err := wb.Set(key, data); err != nil {
			return fmt.Errorf("stage invalid event %d: %w", i, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flush dlq batch %s: %w", batchID, err)
	}
	return nil
}

// List 按 key 顺序返回最多 limit 条记录；limit <= 0 表示全部。
func (s *Store) List(limit int) ([]Record, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	out := []Record{}
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			if limit > 0 && len(out) >= limit {
				return nil
			}
			var rec Record
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Count 返回记录总数。
func (s *Store) Count() (int, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Purge 删除全部记录。
func (s *Store) Purge() error {
	if s.closed.Load() {
		return ErrClosed
	}
	return s.db.DropPrefix([]byte(prefix))
}

// Close 关闭底层数据库，可重复调用。
func (s *Store) Close() error {
	if s == nil || !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.db.Close()
}
