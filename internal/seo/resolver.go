package seo

import (
	"context"
	"errors"
	"log/slog"

	"storefront-seo-router/internal/metrics"
	"storefront-seo-router/internal/model"
)

// Resolver turns a page request into a complete metadata record. It never
// fails: a missing record or a provider error yields the platform defaults.
type Resolver struct {
	provider Provider
	defaults model.PageMetadata
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewResolver creates a Resolver. The metrics parameter is optional.
func NewResolver(p Provider, defaults model.PageMetadata, logger *slog.Logger, m *metrics.Metrics) *Resolver {
	return &Resolver{
		provider: p,
		defaults: defaults,
		logger:   logger.With("component", "seo_resolver"),
		metrics:  m,
	}
}

// Defaults returns the platform-wide fallback record.
func (r *Resolver) Defaults() model.PageMetadata {
	return r.defaults
}

// Resolve returns the record of the page at scheme://host/path with empty
// fields filled from the defaults and the canonical URL computed if unset.
func (r *Resolver) Resolve(ctx context.Context, scheme, host, path string) model.PageMetadata {
	key := NewPageKey(host, path)

	var meta model.PageMetadata
	outcome := "hit"
	found, err := r.lookup(ctx, key)
	switch {
	case err == nil:
		meta = *found
	case errors.Is(err, ErrNotFound):
		outcome = "miss"
		r.logger.Debug("no metadata record, using defaults", "host", key.Host, "path", key.Path)
	default:
		outcome = "error"
		r.logger.Warn("metadata lookup failed, using defaults", "host", key.Host, "path", key.Path, "err", err)
	}
	if r.metrics != nil {
		r.metrics.MetadataLookups.WithLabelValues(outcome).Inc()
	}

	meta = meta.WithDefaults(r.defaults)
	if found == nil || meta.CanonicalURL == "" {
		meta.CanonicalURL = CanonicalURL(scheme, key.Host, key.Path)
	}
	return meta
}

func (r *Resolver) lookup(ctx context.Context, key PageKey) (*model.PageMetadata, error) {
	if r.provider == nil {
		return nil, ErrNotFound
	}
	return r.provider.Lookup(ctx, key)
}
