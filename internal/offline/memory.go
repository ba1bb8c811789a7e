package offline

import (
	"slices"
	"sync"
)

// MemoryStorage keeps caches in memory.
type MemoryStorage struct {
	mu     sync.Mutex
	caches map[string]*memoryCache
	order  []string
}

// NewMemoryStorage creates an empty storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{caches: make(map[string]*memoryCache)}
}

func (s *MemoryStorage) Open(name string) (Cache, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.caches[name]; ok {
		return c, nil
	}
	c := &memoryCache{entries: make(map[string]*Response)}
	s.caches[name] = c
	s.order = append(s.order, name)
	return c, nil
}

func (s *MemoryStorage) Has(name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.caches[name]
	return ok, nil
}

func (s *MemoryStorage) Delete(name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.caches[name]; !ok {
		return false, nil
	}
	delete(s.caches, name)
	s.order = slices.DeleteFunc(s.order, func(n string) bool { return n == name })
	return true, nil
}

func (s *MemoryStorage) Keys() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.order), nil
}

type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]*Response
	order   []string
}

func (c *memoryCache) Match(key string) (*Response, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	resp, ok := c.entries[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return resp, nil
}

func (c *memoryCache) Put(key string, resp *Response) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok {
		c.order = append(c.order, key)
	}
	c.entries[key] = resp
	return nil
}

func (c *memoryCache) Keys() ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return slices.Clone(c.order), nil
}
