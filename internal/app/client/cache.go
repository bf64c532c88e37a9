package client

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Cache is the read-through store for GET responses, keyed by the
// acting identity and the resource path. Entries older than the
// freshness window are treated as absent.
type Cache struct {
	db  *sql.DB
	ttl time.Duration
}

func NewCache(db *sql.DB, ttl time.Duration) *Cache {
	return &Cache{db: db, ttl: ttl}
}

// Get returns the cached payload for (scope, path), reporting a miss
// for unknown or stale entries.
func (c *Cache) Get(scope, path string) (json.RawMessage, bool, error) {
	var cachedAt int64
	var payload []byte

	err := c.db.QueryRow(`
		SELECT cached_at, payload FROM read_cache WHERE scope = ? AND path = ?
	`, scope, path).Scan(&cachedAt, &payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache: %w", err)
	}

	if time.Since(time.UnixMilli(cachedAt)) > c.ttl {
		return nil, false, nil
	}

	return payload, true, nil
}

// Put stores a successful GET response, replacing any previous entry
// for the same key.
func (c *Cache) Put(scope, path string, data json.RawMessage) error {
	_, err := c.db.Exec(`
		INSERT INTO read_cache (scope, path, cached_at, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(scope, path) DO UPDATE SET cached_at = excluded.cached_at, payload = excluded.payload
	`, scope, path, time.Now().UnixMilli(), []byte(data))
	if err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}

	return nil
}
