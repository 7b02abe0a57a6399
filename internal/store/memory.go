package store

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps values in process memory. Nothing survives a restart.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]memoryItem
	done chan struct{}
	once sync.Once
}

type memoryItem struct {
	value   string
	expires time.Time // zero: never
}

func (i memoryItem) expired(now time.Time) bool {
	return !i.expires.IsZero() && now.After(i.expires)
}

// NewMemoryStore creates an empty store and starts its expiry sweeper.
func NewMemoryStore() *MemoryStore {
	m := &MemoryStore{
		data: make(map[string]memoryItem),
		done: make(chan struct{}),
	}
	go m.cleanup(time.Minute)
	return m
}

func (m *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, ok := m.data[key]
	if !ok || item.expired(time.Now()) {
		return "", ErrNotFound
	}
	return item.value, nil
}

func (m *MemoryStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	item := memoryItem{value: value}
	if ttl > 0 {
		item.expires = time.Now().Add(ttl)
	}

	m.mu.Lock()
	m.data[key] = item
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

// cleanup periodically drops expired items
func (m *MemoryStore) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			m.mu.Lock()
			for k, item := range m.data {
				if item.expired(now) {
					delete(m.data, k)
				}
			}
			m.mu.Unlock()
		case <-m.done:
			return
		}
	}
}

// Close stops the sweeper. It is safe to call more than once.
func (m *MemoryStore) Close() error {
	m.once.Do(func() { close(m.done) })
	return nil
}
