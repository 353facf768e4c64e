package kv

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/patrickmn/go-cache"
)

// MemoryStore keeps JSON documents in process memory. Values are stored
// encoded so reads never alias the caller's data.
type MemoryStore struct {
	c *cache.Cache
}

// NewMemoryStore creates an empty in-memory store whose entries never expire.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{c: cache.New(cache.NoExpiration, 0)}
}

func (m *MemoryStore) GetObject(_ context.Context, key string, out any) (bool, error) {
	raw, found := m.c.Get(key)
	if !found {
		return false, nil
	}
	if err := json.Unmarshal(raw.([]byte), out); err != nil {
		return false, fmt.Errorf("%w: key %q: %v", ErrDecode, key, err)
	}
	return true, nil
}

func (m *MemoryStore) SetObject(_ context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode key %q: %w", key, err)
	}
	m.c.Set(key, data, cache.NoExpiration)
	return nil
}

// SetRaw stores raw bytes under key. Used to seed stores with legacy or corrupt data.
func (m *MemoryStore) SetRaw(key string, data []byte) {
	m.c.Set(key, data, cache.NoExpiration)
}

// Raw returns the encoded bytes stored under key.
func (m *MemoryStore) Raw(key string) ([]byte, bool) {
	v, found := m.c.Get(key)
	if !found {
		return nil, false
	}
	return v.([]byte), true
}

func (m *MemoryStore) Remove(_ context.Context, key string) error {
	m.c.Delete(key)
	return nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.c.Flush()
	return nil
}
