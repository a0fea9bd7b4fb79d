// Package viewcache caches read-only API views and drops them when the
// pipeline writes new data.
package viewcache

import (
	"context"
	"time"

	"github.com/robroyhobbs/burgerprice/pkg/logger"
	"github.com/robroyhobbs/burgerprice/pkg/redis"
)

// Cache is a read-through view cache. With Redis disabled every read goes
// straight to the builder and invalidation is a no-op.
type Cache struct {
	cache  *redis.Cache
	ttl    time.Duration
	logger *logger.Logger
}

// New creates a view cache over client.
func New(client *redis.Client, prefix string, ttl time.Duration, log *logger.Logger) *Cache {
	if ttl <= 0 {
		ttl = redis.TTLLong
	}
	return &Cache{
		cache:  redis.NewCache(client, prefix),
		ttl:    ttl,
		logger: log.WithComponent("viewcache"),
	}
}

// Index reads the national index view into dest, building it on a miss.
func (c *Cache) Index(ctx context.Context, dest interface{}, build func() (interface{}, error)) error {
	return c.cache.GetOrSet(ctx, redis.IndexViewKey(), dest, c.ttl, build)
}

// Subject reads one subject's detail view into dest, building it on a miss.
func (c *Cache) Subject(ctx context.Context, slug string, dest interface{}, build func() (interface{}, error)) error {
	return c.cache.GetOrSet(ctx, redis.SubjectViewKey(slug), dest, c.ttl, build)
}

// Newsletters reads the archive listing into dest, building it on a miss.
func (c *Cache) Newsletters(ctx context.Context, dest interface{}, build func() (interface{}, error)) error {
	return c.cache.GetOrSet(ctx, redis.NewsletterArchiveKey(), dest, c.ttl, build)
}

// InvalidateSubject drops one subject's detail view.
func (c *Cache) InvalidateSubject(ctx context.Context, slug string) {
	if err := c.cache.Delete(ctx, redis.SubjectViewKey(slug)); err != nil {
		c.logger.WithSubject(slug, "").WithError(err).Warn("Subject view invalidation failed")
	}
}

// InvalidateGlobal drops the national index view and the newsletter archive.
func (c *Cache) InvalidateGlobal(ctx context.Context) {
	if err := c.cache.Delete(ctx, redis.IndexViewKey(), redis.NewsletterArchiveKey()); err != nil {
		c.logger.WithError(err).Warn("Global view invalidation failed")
	}
}
