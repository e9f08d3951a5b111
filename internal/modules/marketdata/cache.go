package marketdata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

// Cache is a TTL key/value store. Values are msgpack-encoded.
type Cache interface {
	// Get decodes the fresh value at key into dest. Reports false on miss or expiry.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// DeleteExpired purges expired entries and returns how many were removed.
	DeleteExpired(ctx context.Context) (int64, error)
}

// SQLiteCache stores entries in the cache database's cache_entries table
type SQLiteCache struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteCache creates a cache over a migrated cache database
func NewSQLiteCache(db *sql.DB) *SQLiteCache {
	return &SQLiteCache{db: db, now: time.Now}
}

// Get implements Cache
func (c *SQLiteCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	var blob []byte
	err := c.db.QueryRowContext(ctx,
		"SELECT value FROM cache_entries WHERE key = ? AND expires_at > ?",
		key, c.now().Unix(),
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cache entry %s: %w", key, err)
	}

	if err := msgpack.Unmarshal(blob, dest); err != nil {
		return false, fmt.Errorf("failed to decode cache entry %s: %w", key, err)
	}
	return true, nil
}

// Set implements Cache
func (c *SQLiteCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	blob, err := msgpack.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry %s: %w", key, err)
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO cache_entries (key, value, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at
	`, key, blob, c.now().Add(ttl).Unix())
	if err != nil {
		return fmt.Errorf("failed to store cache entry %s: %w", key, err)
	}
	return nil
}

// Delete implements Cache
func (c *SQLiteCache) Delete(ctx context.Context, key string) error {
	if _, err := c.db.ExecContext(ctx, "DELETE FROM cache_entries WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete cache entry %s: %w", key, err)
	}
	return nil
}

// DeleteExpired implements Cache
func (c *SQLiteCache) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := c.db.ExecContext(ctx, "DELETE FROM cache_entries WHERE expires_at <= ?", c.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired cache entries: %w", err)
	}
	return result.RowsAffected()
}

// RedisCache stores entries in Redis under a key prefix; Redis handles expiry
type RedisCache struct {
	client redis.Cmdable
	prefix string
}

// NewRedisCache creates a cache over an existing client
func NewRedisCache(client redis.Cmdable, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

// Get implements Cache
func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	blob, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cache entry %s: %w", key, err)
	}

	if err := msgpack.Unmarshal(blob, dest); err != nil {
		return false, fmt.Errorf("failed to decode cache entry %s: %w", key, err)
	}
	return true, nil
}

// Set implements Cache
func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	blob, err := msgpack.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry %s: %w", key, err)
	}
	if err := c.client.Set(ctx, c.prefix+key, blob, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store cache entry %s: %w", key, err)
	}
	return nil
}

// Delete implements Cache
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete cache entry %s: %w", key, err)
	}
	return nil
}

// DeleteExpired is a no-op: Redis evicts expired keys itself
func (c *RedisCache) DeleteExpired(context.Context) (int64, error) {
	return 0, nil
}
