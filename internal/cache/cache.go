// Package cache provides the read-through alias → origin cache used on
// the redirect hot path. Entries are populated lazily on store misses and
// expire after a configured TTL; aliases are immutable once created, so
// only deletion invalidates an entry.
package cache

import "context"

// Cache maps aliases to origin URLs. A miss is never an error: the caller
// falls back to the store. Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the cached origin for alias, or false on a miss.
	Get(ctx context.Context, alias string) (string, bool)

	// Set stores the alias → origin mapping with the configured TTL.
	Set(ctx context.Context, alias, origin string)

	// Delete evicts the entry for alias, if any.
	Delete(ctx context.Context, alias string)
}
