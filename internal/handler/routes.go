package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"storefront-seo-router/internal/config"
	"storefront-seo-router/internal/metrics"
)

// RegisterRoutes wires all route handlers onto the Echo instance. Everything
// not served by the router itself is passed through to the origin.
func RegisterRoutes(e *echo.Echo, cfg *config.Config, pages *PageHandler, health *HealthHandler, m *metrics.Metrics) {
	e.GET(config.HealthzPath, health.Healthz)
	e.GET(config.StatusPath, health.Status)
	e.GET(config.MetadataPath, pages.Metadata)

	if cfg.Metrics.Enabled && m != nil {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}

	e.Match([]string{http.MethodGet, http.MethodHead}, cfg.Routing.RewritePath, pages.Render)

	e.Any("/*", pages.PassThrough)
}
