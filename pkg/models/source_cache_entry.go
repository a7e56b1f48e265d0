package models

import (
	"time"

	"github.com/uptrace/bun"
)

// DefaultCacheTTLHours is the time-to-live applied to cached source
// responses when the caller doesn't specify one.
const DefaultCacheTTLHours = 24

// SourceCacheEntry is one cached external source response, keyed by the
// normalized request signature. Expired entries are kept until a valid-only
// lookup encounters them, so the stale-if-error fallback can still serve
// them when a live fetch fails.
type SourceCacheEntry struct {
	bun.BaseModel `bun:"table:source_cache_entries,alias:sce"`

	ID          int       `bun:",pk,nullzero" json:"id"`
	Signature   string    `bun:",nullzero" json:"signature"`
	Payload     []byte    `bun:",nullzero" json:"payload"`
	LastUpdated time.Time `bun:",nullzero" json:"last_updated"`
	TTLHours    int       `bun:"ttl_hours,notnull" json:"ttl_hours"`
}

// ExpiresAt returns the instant the entry stops being valid.
func (e *SourceCacheEntry) ExpiresAt() time.Time {
	return e.LastUpdated.Add(time.Duration(e.TTLHours) * time.Hour)
}

// IsExpired reports whether the entry is past its time-to-live at now.
func (e *SourceCacheEntry) IsExpired(now time.Time) bool {
	return now.After(e.ExpiresAt())
}
