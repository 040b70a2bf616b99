package service

import (
	"context"
	"fmt"
	"log/slog"

	"storefront-seo-router/internal/client"
	"storefront-seo-router/internal/metrics"
	"storefront-seo-router/internal/route"
)

// Prerender fetch outcomes, used as metric labels.
const (
	PrerenderOK       = "ok"
	PrerenderFallback = "fallback"
)

// PrerenderService fetches crawler HTML from the metadata rendering service.
type PrerenderService struct {
	client  *client.RenderClient
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewPrerenderService creates a PrerenderService. The metrics parameter is optional.
func NewPrerenderService(c *client.RenderClient, logger *slog.Logger, m *metrics.Metrics) *PrerenderService {
	return &PrerenderService{
		client:  c,
		logger:  logger.With("component", "prerender_service"),
		metrics: m,
	}
}

// Fetch makes exactly one attempt to render the page described by in. Any
// error means the caller must fall back to pass-through.
func (s *PrerenderService) Fetch(ctx context.Context, in route.Input) ([]byte, error) {
	body, err := s.client.Fetch(ctx, in.UserAgent, route.NormalizeHost(in.Host), in.Path)
	if err != nil {
		s.record(PrerenderFallback)
		s.logger.Warn("prerender fetch failed",
			"err", err,
			"host", in.Host,
			"path", in.Path,
		)
		return nil, fmt.Errorf("prerender %s: %w", in.Path, err)
	}
	s.record(PrerenderOK)
	return body, nil
}

func (s *PrerenderService) record(outcome string) {
	if s.metrics != nil {
		s.metrics.PrerenderFetches.WithLabelValues(outcome).Inc()
	}
}
