// Package middleware provides the Echo middleware of the router. Every
// middleware here is registered pre-routing so that responses relayed by the
// crawler router are logged and measured like any other.
package middleware

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"

	"storefront-seo-router/internal/route"
)

// RequestLogger returns an Echo middleware that logs each request with slog.
// The path is captured before routing; routed_path differs when a crawler
// request was rewritten to the metadata endpoint.
func RequestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			path := c.Request().URL.Path

			err := next(c)

			req := c.Request()
			res := c.Response()

			attrs := []any{
				"method", req.Method,
				"path", path,
				"status", responseStatus(c, err),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", res.Header().Get(echo.HeaderXRequestID),
				"remote_ip", c.RealIP(),
				"bytes_out", res.Size,
			}
			if routed := req.URL.Path; routed != path {
				attrs = append(attrs, "routed_path", routed)
			}
			if action := res.Header().Get(route.Header); action != "" {
				attrs = append(attrs, "seo_route", action)
			}
			logger.Info("request", attrs...)

			return err
		}
	}
}
