package cache

import (
	"context"
	"sync"
	"time"
)

// Store is a TTL byte cache with monotonically increasing generation
// counters. Readers embed the current generation in their keys and writers
// bump it, so entries filled from a pre-write snapshot are never read again.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte) error
	Generation(ctx context.Context, key string) (int64, error)
	Bump(ctx context.Context, key string) (int64, error)
	Ping(ctx context.Context) error
}

// Cache is the in-process Store.
type Cache struct {
	mu   sync.RWMutex
	ttl  time.Duration
	m    map[string]entry
	gens map[string]int64
}

type entry struct {
	val []byte
	exp time.Time
}

func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Cache{
		ttl:  ttl,
		m:    make(map[string]entry),
		gens: make(map[string]int64),
	}
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	now := time.Now()
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	if now.After(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return nil, false, nil
	}

	return e.val, true, nil
}

func (c *Cache) Set(_ context.Context, key string, val []byte) error {
	c.mu.Lock()
	c.m[key] = entry{val: val, exp: time.Now().Add(c.ttl)}
	c.mu.Unlock()
	return nil
}

func (c *Cache) Generation(_ context.Context, key string) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gens[key], nil
}

// Bump also drops every cached entry; old generations are unreachable anyway.
func (c *Cache) Bump(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[key]++
	c.m = make(map[string]entry)
	return c.gens[key], nil
}

func (c *Cache) Ping(context.Context) error {
	return nil
}
