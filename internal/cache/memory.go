package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryProvider is an in-process Provider used for local development and
// tests when no cache server is configured. Expired entries are reaped
// lazily on read.
type MemoryProvider struct {
	mu   sync.RWMutex
	data map[string]memoryItem
}

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryProvider creates an empty in-process cache.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{data: make(map[string]memoryItem)}
}

func (it memoryItem) expired(now time.Time) bool {
	return !it.expiresAt.IsZero() && now.After(it.expiresAt)
}

// Get returns the stored bytes or ErrCacheMiss.
func (p *MemoryProvider) Get(_ context.Context, key string) ([]byte, error) {
	p.mu.RLock()
	it, ok := p.data[key]
	p.mu.RUnlock()
	if !ok {
		return nil, ErrCacheMiss
	}
	if it.expired(time.Now()) {
		p.mu.Lock()
		delete(p.data, key)
		p.mu.Unlock()
		return nil, ErrCacheMiss
	}
	out := make([]byte, len(it.value))
	copy(out, it.value)
	return out, nil
}

// Set stores bytes with an optional TTL. A non-positive TTL means no expiry.
func (p *MemoryProvider) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data[key] = newMemoryItem(value, ttl)
	return nil
}

// SetNX stores the value only if the key is absent or expired.
func (p *MemoryProvider) SetNX(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if it, ok := p.data[key]; ok && !it.expired(time.Now()) {
		return false, nil
	}
	p.data[key] = newMemoryItem(value, ttl)
	return true, nil
}

// Del removes a key.
func (p *MemoryProvider) Del(_ context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.data, key)
	return nil
}

// Close is a no-op for the in-process cache.
func (p *MemoryProvider) Close() error { return nil }

func newMemoryItem(value []byte, ttl time.Duration) memoryItem {
	it := memoryItem{value: make([]byte, len(value))}
	copy(it.value, value)
	if ttl > 0 {
		it.expiresAt = time.Now().Add(ttl)
	}
	return it
}
