package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps entries for the lifetime of the process. TTLs are
// ignored and nothing is evicted.
type MemoryStore struct {
	m sync.Map // string -> []byte
}

// NewMemoryStore creates an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Get returns a copy of the stored value.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := s.m.Load(key)
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v.([]byte)...), true, nil
}

// Set stores a copy of data.
func (s *MemoryStore) Set(_ context.Context, key string, data []byte, _ time.Duration) error {
	s.m.Store(key, append([]byte(nil), data...))
	return nil
}

// Delete removes key.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.m.Delete(key)
	return nil
}

// Clear removes every entry.
func (s *MemoryStore) Clear(context.Context) error {
	s.m.Clear()
	return nil
}

// Len returns the number of entries.
func (s *MemoryStore) Len() int {
	n := 0
	s.m.Range(func(any, any) bool {
		n++
		return true
	})
	return n
}

// Close does nothing.
func (s *MemoryStore) Close() error { return nil }

var (
	_ Store   = (*MemoryStore)(nil)
	_ Clearer = (*MemoryStore)(nil)
)
