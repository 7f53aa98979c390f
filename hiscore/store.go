package hiscore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrDuplicateEntry 同一 entryId 重复写入
var ErrDuplicateEntry = errors.New("duplicate hiscore entry")

// Record 一条通关记录
type Record struct {
	Username  string `json:"username"`
	TimeTaken string `json:"timeTaken"`
	ID        int    `json:"id"`
}

// Store 持久化存储的窄接口：插入一条、读取全部
type Store interface {
	Insert(ctx context.Context, r Record) error
	All(ctx context.Context) ([]Record, error)
}

// MemoryStore 进程内存储，未配置数据库时使用，也用于测试
type MemoryStore struct {
	mu      sync.Mutex
	records map[int]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[int]Record)}
}

func (s *MemoryStore) Insert(_ context.Context, r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[r.ID]; ok {
		return fmt.Errorf("%w: id %d", ErrDuplicateEntry, r.ID)
	}
	s.records[r.ID] = r
	return nil
}

// All 按 entryId 升序返回
func (s *MemoryStore) All(_ context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
