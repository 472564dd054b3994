package services

import (
	"context"
	"strconv"
	"sync"
)

// KVStore hands out persistent key/value containers, one tree per
// account. Containers nest through Child.
type KVStore interface {
	Container(accountID string) KVContainer
}

// KVContainer is one node in an account's key/value tree.
type KVContainer interface {
	Child(name string) KVContainer

	Has(ctx context.Context, key string) (bool, error)
	GetString(ctx context.Context, key string) (string, bool, error)
	GetBool(ctx context.Context, key string) (bool, bool, error)
	GetInt64(ctx context.Context, key string) (int64, bool, error)

	SetString(ctx context.Context, key, value string) error
	SetBool(ctx context.Context, key string, value bool) error
	SetInt64(ctx context.Context, key string, value int64) error

	Delete(ctx context.Context, key string) error
}

// MemoryKVStore keeps containers in process memory. Suitable for tests
// and single-node deployments without a backing store.
type MemoryKVStore struct {
	mu   sync.Mutex
	data map[string]map[string]string
}

func NewMemoryKVStore() *MemoryKVStore {
	return &MemoryKVStore{
		data: make(map[string]map[string]string),
	}
}

func (s *MemoryKVStore) Container(accountID string) KVContainer {
	return &memoryContainer{
		store: s,
		path:  accountID,
	}
}

func (s *MemoryKVStore) get(path, key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.data[path]
	if !ok {
		return "", false
	}
	v, ok := m[key]
	return v, ok
}

func (s *MemoryKVStore) set(path, key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.data[path]
	if !ok {
		m = make(map[string]string)
		s.data[path] = m
	}
	m[key] = value
}

func (s *MemoryKVStore) delete(path, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.data[path]; ok {
		delete(m, key)
	}
}

type memoryContainer struct {
	store *MemoryKVStore
	path  string
}

func (c *memoryContainer) Child(name string) KVContainer {
	return &memoryContainer{
		store: c.store,
		path:  c.path + "/" + name,
	}
}

func (c *memoryContainer) Has(ctx context.Context, key string) (bool, error) {
	_, ok := c.store.get(c.path, key)
	return ok, nil
}

func (c *memoryContainer) GetString(ctx context.Context, key string) (string, bool, error) {
	v, ok := c.store.get(c.path, key)
	return v, ok, nil
}

func (c *memoryContainer) GetBool(ctx context.Context, key string) (bool, bool, error) {
	v, ok := c.store.get(c.path, key)
	if !ok {
		return false, false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false, err
	}
	return b, true, nil
}

func (c *memoryContainer) GetInt64(ctx context.Context, key string) (int64, bool, error) {
	v, ok := c.store.get(c.path, key)
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

func (c *memoryContainer) SetString(ctx context.Context, key, value string) error {
	c.store.set(c.path, key, value)
	return nil
}

func (c *memoryContainer) SetBool(ctx context.Context, key string, value bool) error {
	c.store.set(c.path, key, strconv.FormatBool(value))
	return nil
}

func (c *memoryContainer) SetInt64(ctx context.Context, key string, value int64) error {
	c.store.set(c.path, key, strconv.FormatInt(value, 10))
	return nil
}

func (c *memoryContainer) Delete(ctx context.Context, key string) error {
	c.store.delete(c.path, key)
	return nil
}
