package handler

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
)

// mapError translates an origin failure into a JSON gateway error.
func (h *PageHandler) mapError(c echo.Context, err error) error {
	h.logger.Error("origin error",
		"err", err,
		"path", c.Request().URL.Path,
	)

	if errors.Is(err, context.DeadlineExceeded) {
		return c.JSON(http.StatusGatewayTimeout, map[string]string{
			"error": "origin request timed out",
		})
	}

	if errors.Is(err, context.Canceled) {
		return c.JSON(http.StatusBadGateway, map[string]string{
			"error": "client disconnected",
		})
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return c.JSON(http.StatusBadGateway, map[string]string{
			"error": "origin host unreachable",
		})
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return c.JSON(http.StatusGatewayTimeout, map[string]string{
				"error": "origin request timed out",
			})
		}
		return c.JSON(http.StatusBadGateway, map[string]string{
			"error": "origin connection failed",
		})
	}

	return c.JSON(http.StatusBadGateway, map[string]string{
		"error": "origin request failed",
	})
}
