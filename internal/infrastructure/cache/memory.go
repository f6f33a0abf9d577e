package cache

import (
	"context"
	"time"

	"report_bridge/internal/domain/report"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const defaultMemorySize = 256

// Memory is an in-process LRU of report definitions with a single TTL.
type Memory struct {
	lru *expirable.LRU[string, report.Definition]
}

// NewMemory creates a cache holding at most size definitions for ttl.
func NewMemory(size int, ttl time.Duration) *Memory {
	if size <= 0 {
		size = defaultMemorySize
	}
	return &Memory{lru: expirable.NewLRU[string, report.Definition](size, nil, ttl)}
}

// Get returns the cached definition, ok is false on a miss or after expiry.
func (m *Memory) Get(_ context.Context, key string) (report.Definition, bool, error) {
	def, ok := m.lru.Get(key)
	return def, ok, nil
}

// Set stores def. The per-call ttl is ignored; entries expire after the cache TTL.
func (m *Memory) Set(_ context.Context, key string, def report.Definition, _ time.Duration) error {
	m.lru.Add(key, def)
	return nil
}

// Len returns the number of live entries.
func (m *Memory) Len() int {
	return m.lru.Len()
}
