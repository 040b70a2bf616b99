package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"storefront-seo-router/internal/crawler"
	"storefront-seo-router/internal/metrics"
	"storefront-seo-router/internal/route"
	"storefront-seo-router/internal/seo"
	"storefront-seo-router/internal/service"
)

// CrawlerRouter applies routing decisions before Echo resolves a route.
type CrawlerRouter struct {
	decider   *route.Decider
	prerender *service.PrerenderService
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// NewCrawlerRouter creates a CrawlerRouter. prerender is required only for the
// proxy strategy; without it proxy decisions fall back to pass-through. The
// metrics parameter is optional.
func NewCrawlerRouter(d *route.Decider, prerender *service.PrerenderService, logger *slog.Logger, m *metrics.Metrics) *CrawlerRouter {
	return &CrawlerRouter{
		decider:   d,
		prerender: prerender,
		logger:    logger.With("component", "crawler_router"),
		metrics:   m,
	}
}

// Middleware returns the pre-routing interceptor. Register it with e.Pre so a
// rewrite changes which route handles the request.
func (r *CrawlerRouter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Method != http.MethodGet && req.Method != http.MethodHead {
				return next(c)
			}

			in := route.Input{
				Path:      req.URL.Path,
				Host:      seo.RequestHost(req),
				UserAgent: req.UserAgent(),
				Query:     req.URL.Query(),
			}
			d := r.decider.Decide(in)
			r.record(d)

			h := c.Response().Header()
			if d.Reason != route.ReasonExempt {
				// The same URL is answered differently per client.
				h.Add(echo.HeaderVary, "User-Agent")
			}

			switch d.Action {
			case route.ActionRewrite:
				r.logger.Debug("rewriting crawler request",
					"path", in.Path,
					"target", d.Target,
					"token", d.Crawler.Token,
				)
				rewrite(req, d.Target)
				h.Set(route.Header, string(route.ActionRewrite))
				return next(c)

			case route.ActionProxy:
				if r.prerender != nil {
					body, err := r.prerender.Fetch(req.Context(), in)
					if err == nil {
						h.Set(route.Header, string(route.ActionProxy))
						return c.Blob(http.StatusOK, htmlContentType, body)
					}
				}
				// Fall through to the same response a human would get.
			}

			h.Set(route.Header, string(route.ActionPassThrough))
			return next(c)
		}
	}
}

func (r *CrawlerRouter) record(d route.Decision) {
	if r.metrics == nil {
		return
	}
	r.metrics.RoutingDecisions.WithLabelValues(string(d.Action), d.Reason).Inc()
	if d.Crawler.IsCrawler {
		family := d.Crawler.Family
		if family == "" {
			family = crawler.FamilyGeneric
		}
		r.metrics.CrawlerRequests.WithLabelValues(family).Inc()
	}
}

// rewrite points req at target, a request URI with an optional query.
func rewrite(req *http.Request, target string) {
	p, q, _ := strings.Cut(target, "?")
	req.URL.Path = p
	req.URL.RawPath = ""
	req.URL.RawQuery = q
	req.RequestURI = target
}
