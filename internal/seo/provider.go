// Package seo resolves per-page SEO metadata and renders it as HTML.
package seo

import (
	"context"
	"errors"
	"strings"

	"storefront-seo-router/internal/model"
	"storefront-seo-router/internal/route"
)

// ErrNotFound is returned by a Provider that has no record for a page.
var ErrNotFound = errors.New("seo metadata not found")

// PageKey identifies a logical page: the host it is served on and its path.
type PageKey struct {
	Host string
	Path string
}

// NewPageKey normalizes host and path into a PageKey.
func NewPageKey(host, path string) PageKey {
	return PageKey{Host: route.NormalizeHost(host), Path: NormalizePath(path)}
}

// NormalizePath strips query and fragment and trailing slashes; the root stays "/".
func NormalizePath(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if p == "" || p[0] != '/' {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			p = "/"
		}
	}
	return p
}

// Provider looks up the metadata record of a page.
type Provider interface {
	Lookup(ctx context.Context, key PageKey) (*model.PageMetadata, error)
}

// Chain asks each provider in order and returns the first record found.
// A provider error other than ErrNotFound stops the chain.
type Chain []Provider

// Lookup implements Provider.
func (c Chain) Lookup(ctx context.Context, key PageKey) (*model.PageMetadata, error) {
	for _, p := range c {
		meta, err := p.Lookup(ctx, key)
		if err == nil {
			return meta, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return nil, ErrNotFound
}
