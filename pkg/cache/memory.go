package cache

import (
	"sync"
	"time"
)

type item struct {
	value    interface{}
	expireAt time.Time
}

// MemoryOption configures Memory.
type MemoryOption func(*Memory)

// WithMaxSize caps the number of cached entries; the oldest expiring entry is
// dropped when full.
func WithMaxSize(n int) MemoryOption {
	return func(m *Memory) {
		if n > 0 {
			m.maxSize = n
		}
	}
}

// Memory is a small in-process TTL cache.
type Memory struct {
	mu      sync.RWMutex
	data    map[string]item
	maxSize int
}

// NewMemory creates an in-memory TTL cache.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		data:    make(map[string]item),
		maxSize: 1024,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Set stores value under key for ttl.
func (m *Memory) Set(key string, value interface{}, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.data) >= m.maxSize {
		m.evictOne()
	}
	m.data[key] = item{value: value, expireAt: time.Now().Add(ttl)}
}

// Get returns the cached value or ErrCacheMiss.
func (m *Memory) Get(key string) (interface{}, error) {
	m.mu.RLock()
	it, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrCacheMiss
	}
	if time.Now().After(it.expireAt) {
		m.mu.Lock()
		delete(m.data, key)
		m.mu.Unlock()
		return nil, ErrCacheMiss
	}
	return it.value, nil
}

// evictOne removes the entry closest to expiry. Caller holds the lock.
func (m *Memory) evictOne() {
	var victim string
	var soonest time.Time
	for k, it := range m.data {
		if victim == "" || it.expireAt.Before(soonest) {
			victim = k
			soonest = it.expireAt
		}
	}
	if victim != "" {
		delete(m.data, victim)
	}
}
