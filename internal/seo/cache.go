package seo

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront-seo-router/internal/model"
)

const cacheKeyPrefix = "seo:page:"

// notFoundMarker caches a miss so unknown pages do not hit the store every time.
const notFoundMarker = "-"

// CachedProvider is a read-through Redis cache in front of another Provider.
// Redis failures are logged and the wrapped provider is used directly.
type CachedProvider struct {
	next   Provider
	client redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedProvider wraps next with a Redis cache holding entries for ttl.
func NewCachedProvider(next Provider, client redis.Cmdable, ttl time.Duration, logger *slog.Logger) *CachedProvider {
	return &CachedProvider{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger.With("component", "seo_cache"),
	}
}

func (p *CachedProvider) key(k PageKey) string {
	return cacheKeyPrefix + k.Host + k.Path
}

// Lookup implements Provider.
func (p *CachedProvider) Lookup(ctx context.Context, key PageKey) (*model.PageMetadata, error) {
	ck := p.key(key)

	raw, err := p.client.Get(ctx, ck).Result()
	switch {
	case err == nil:
		if raw == notFoundMarker {
			return nil, ErrNotFound
		}
		var m model.PageMetadata
		if err := json.Unmarshal([]byte(raw), &m); err == nil {
			return &m, nil
		}
		p.logger.Warn("discarding malformed cache entry", "key", ck)
	case errors.Is(err, redis.Nil):
	default:
		p.logger.Warn("cache read failed", "key", ck, "err", err)
	}

	meta, err := p.next.Lookup(ctx, key)
	switch {
	case err == nil:
		if data, mErr := json.Marshal(meta); mErr == nil {
			p.store(ctx, ck, string(data))
		}
	case errors.Is(err, ErrNotFound):
		p.store(ctx, ck, notFoundMarker)
	}
	return meta, err
}

func (p *CachedProvider) store(ctx context.Context, key, value string) {
	if err := p.client.Set(ctx, key, value, p.ttl).Err(); err != nil {
		p.logger.Warn("cache write failed", "key", key, "err", err)
	}
}
