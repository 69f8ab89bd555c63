package sources

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// Cache is a SQLite-backed key/value store with per-entry expiry. External
// statistical APIs are slow and occasionally down; caching their responses
// locally makes repeated runs fast and usable offline.
//
// Pass ":memory:" as the path for an ephemeral cache in tests.
type Cache struct {
	db  *sql.DB
	ttl time.Duration
	log zerolog.Logger
}

const cacheSchema = `
CREATE TABLE IF NOT EXISTS api_cache (
	cache_key  TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	fetched_at INTEGER NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_api_cache_expires ON api_cache (expires_at);
`

// OpenCache opens (creating if needed) the cache database at path.
func OpenCache(path string, ttl time.Duration) (*Cache, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache %s: %w", path, err)
	}
	if _, err := db.Exec(cacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate cache schema: %w", err)
	}
	return &Cache{db: db, ttl: ttl, log: zerolog.Nop()}, nil
}

// WithLogger attaches a logger and returns the cache.
func (c *Cache) WithLogger(log zerolog.Logger) *Cache {
	c.log = log
	return c
}

// Get returns the cached payload for key, or ok=false when absent or expired.
func (c *Cache) Get(key string) ([]byte, bool) {
	var payload []byte
	var expiresAt int64
	err := c.db.QueryRow(
		`SELECT payload, expires_at FROM api_cache WHERE cache_key = ?`, key,
	).Scan(&payload, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache read failed")
		return nil, false
	}
	if time.Now().Unix() >= expiresAt {
		return nil, false
	}
	return payload, true
}

// Set stores a payload under key with the cache's TTL.
func (c *Cache) Set(key string, payload []byte) {
	now := time.Now()
	_, err := c.db.Exec(
		`INSERT INTO api_cache (cache_key, payload, fetched_at, expires_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET
		   payload = excluded.payload,
		   fetched_at = excluded.fetched_at,
		   expires_at = excluded.expires_at`,
		key, payload, now.Unix(), now.Add(c.ttl).Unix(),
	)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

// Purge removes expired entries and reports how many were dropped.
func (c *Cache) Purge() (int64, error) {
	res, err := c.db.Exec(`DELETE FROM api_cache WHERE expires_at <= ?`, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("cache purge failed: %w", err)
	}
	return res.RowsAffected()
}

// Close releases the underlying database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}
