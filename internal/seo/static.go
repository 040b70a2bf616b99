package seo

import (
	"context"

	"storefront-seo-router/internal/model"
)

// WildcardHost matches a page on every host.
const WildcardHost = "*"

// StaticPage is a metadata record declared in configuration.
type StaticPage struct {
	Host string
	Path string
	Meta model.PageMetadata
}

// StaticProvider serves records from a fixed in-memory table.
type StaticProvider struct {
	pages map[PageKey]model.PageMetadata
}

// NewStaticProvider indexes pages by normalized host and path. An empty host
// behaves like WildcardHost.
func NewStaticProvider(pages []StaticPage) *StaticProvider {
	p := &StaticProvider{pages: make(map[PageKey]model.PageMetadata, len(pages))}
	for _, sp := range pages {
		key := NewPageKey(sp.Host, sp.Path)
		if sp.Host == "" || sp.Host == WildcardHost {
			key.Host = WildcardHost
		}
		p.pages[key] = sp.Meta
	}
	return p
}

// Lookup implements Provider. Host-specific records win over wildcard ones.
func (p *StaticProvider) Lookup(_ context.Context, key PageKey) (*model.PageMetadata, error) {
	if meta, ok := p.pages[key]; ok {
		return &meta, nil
	}
	if meta, ok := p.pages[PageKey{Host: WildcardHost, Path: key.Path}]; ok {
		return &meta, nil
	}
	return nil, ErrNotFound
}

// Len returns the number of records.
func (p *StaticProvider) Len() int {
	return len(p.pages)
}
