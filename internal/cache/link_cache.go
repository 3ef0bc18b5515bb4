// Package cache provides an optional Redis cache for the redirect hot path.
package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gomodule/redigo/redis"
	"go.uber.org/zap"

	"github.com/vborgne/urlshortener/internal/models"
)

// missTTLSeconds bounds how long a negative entry shields the database from
// repeated lookups of a nonexistent code.
const missTTLSeconds = 300

func shortCodeKey(shortCode string) string {
	return fmt.Sprintf("redirect:shortcode:%s", shortCode)
}

// LinkCache caches Link records by short code in Redis. A nil *LinkCache is
// a valid no-op cache, so callers never need to branch on whether caching is
// enabled. Cache failures are logged and treated as misses; Redis being down
// must never break a redirect.
type LinkCache struct {
	pool   *redis.Pool
	ttl    time.Duration
	logger *zap.Logger
}

// NewPool builds a Redis connection pool for the given address.
func NewPool(addr, password string, logger *zap.Logger) *redis.Pool {
	return &redis.Pool{
		MaxIdle:     10,
		IdleTimeout: 240 * time.Second,
		Dial: func() (redis.Conn, error) {
			conn, err := redis.Dial("tcp", addr)
			if err != nil {
				logger.Error("failed to connect to Redis", zap.String("addr", addr), zap.Error(err))
				return nil, err
			}
			if password != "" {
				if _, authErr := conn.Do("AUTH", password); authErr != nil {
					if closeErr := conn.Close(); closeErr != nil {
						logger.Error("failed to close Redis connection after AUTH failure", zap.Error(closeErr))
					}
					logger.Error("Redis AUTH failed", zap.String("addr", addr), zap.Error(authErr))
					return nil, authErr
				}
			}
			return conn, nil
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) > time.Minute {
				_, err := c.Do("PING")
				return err
			}
			return nil
		},
	}
}

// NewLinkCache creates a cache over an existing pool.
func NewLinkCache(pool *redis.Pool, ttl time.Duration, logger *zap.Logger) *LinkCache {
	return &LinkCache{pool: pool, ttl: ttl, logger: logger}
}

// Get returns the cached link for a short code. The second return value
// reports a cache hit; a hit with a nil link means the code is known to not
// exist (negative cache).
func (c *LinkCache) Get(shortCode string) (*models.Link, bool) {
	if c == nil {
		return nil, false
	}
	conn := c.pool.Get()
	defer c.closeConn(conn)

	raw, err := redis.Bytes(conn.Do("GET", shortCodeKey(shortCode)))
	if err != nil {
		if err != redis.ErrNil {
			c.logger.Warn("failed to read link cache", zap.String("short_code", shortCode), zap.Error(err))
		}
		return nil, false
	}
	if len(raw) == 0 {
		// Negative entry: a previous lookup established the code is unknown.
		return nil, true
	}

	var link models.Link
	if err := json.Unmarshal(raw, &link); err != nil {
		c.logger.Warn("failed to unmarshal cached link", zap.String("short_code", shortCode), zap.Error(err))
		return nil, false
	}
	return &link, true
}

// Set stores a link under its short code.
func (c *LinkCache) Set(link *models.Link) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(link)
	if err != nil {
		c.logger.Warn("failed to marshal link for cache", zap.String("short_code", link.ShortCode), zap.Error(err))
		return
	}

	conn := c.pool.Get()
	defer c.closeConn(conn)

	if _, err := conn.Do("SET", shortCodeKey(link.ShortCode), raw, "EX", int(c.ttl.Seconds())); err != nil {
		c.logger.Warn("failed to write link cache", zap.String("short_code", link.ShortCode), zap.Error(err))
	}
}

// SetMiss records that a short code does not exist, shielding the store from
// repeated lookups of the same unknown code.
func (c *LinkCache) SetMiss(shortCode string) {
	if c == nil {
		return
	}
	conn := c.pool.Get()
	defer c.closeConn(conn)

	if _, err := conn.Do("SET", shortCodeKey(shortCode), "", "EX", missTTLSeconds); err != nil {
		c.logger.Warn("failed to write negative cache entry", zap.String("short_code", shortCode), zap.Error(err))
	}
}

// Invalidate removes the cache entry for a short code. Called after a link
// is deleted so a stale redirect cannot outlive the record.
func (c *LinkCache) Invalidate(shortCode string) {
	if c == nil {
		return
	}
	conn := c.pool.Get()
	defer c.closeConn(conn)

	if _, err := conn.Do("DEL", shortCodeKey(shortCode)); err != nil {
		c.logger.Warn("failed to invalidate link cache", zap.String("short_code", shortCode), zap.Error(err))
	}
}

func (c *LinkCache) closeConn(conn redis.Conn) {
	if err := conn.Close(); err != nil {
		c.logger.Warn("failed to close Redis connection", zap.Error(err))
	}
}
