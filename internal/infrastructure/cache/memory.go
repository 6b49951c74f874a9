// Package cache implementa rowstore.Cache en memoria del proceso y en Redis.
package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	rows    [][]string
	expires time.Time
}

// Memory caché con TTL en memoria del proceso.
type Memory struct {
	mu    sync.Mutex
	items map[string]entry
	now   func() time.Time
}

// NewMemory crea la caché. now permite fijar el reloj en pruebas; nil usa time.Now.
func NewMemory(now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{items: make(map[string]entry), now: now}
}

func (c *Memory) Get(_ context.Context, key string) ([][]string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.items[key]
	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(e.expires) {
		delete(c.items, key)
		return nil, false, nil
	}
	return copyRows(e.rows), true, nil
}

func (c *Memory) Set(_ context.Context, key string, rows [][]string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = entry{rows: copyRows(rows), expires: c.now().Add(ttl)}
	return nil
}

func (c *Memory) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

func copyRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}
