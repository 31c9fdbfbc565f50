package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// DefaultTTL bounds the staleness window after an administrative delete.
// Aliases never change once created, so the window can be generous.
const DefaultTTL = 30 * 24 * time.Hour

const sweepInterval = time.Hour

// Memory is an in-process TTL cache. Expired entries are rejected on read
// and swept periodically in the background.
type Memory struct {
	entries *gocache.Cache
}

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Memory{
		entries: gocache.New(ttl, sweepInterval),
	}
}

func (m *Memory) Get(_ context.Context, alias string) (string, bool) {
	v, ok := m.entries.Get(alias)
	if !ok {
		return "", false
	}

	return v.(string), true
}

func (m *Memory) Set(_ context.Context, alias, origin string) {
	m.entries.SetDefault(alias, origin)
}

func (m *Memory) Delete(_ context.Context, alias string) {
	m.entries.Delete(alias)
}
