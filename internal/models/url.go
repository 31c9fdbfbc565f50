package models

import "time"

// ShortURL represents an alias → origin mapping and its associated metadata.
type ShortURL struct {
	// Alias is the fixed-length identifier used as the short path segment.
	Alias string
	// Origin is the original, full-length URL the alias redirects to.
	Origin string
	// Hits tracks the number of times the alias has been resolved.
	Hits int64
	// CreatedAt is the timestamp indicating when the mapping was created.
	CreatedAt time.Time
	// UpdatedAt is the timestamp indicating when the record was last written.
	UpdatedAt time.Time
}
