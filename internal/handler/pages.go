// Package handler holds the HTTP adapters of the router: the pre-routing
// crawler dispatcher, the origin pass-through, the metadata endpoint and the
// service routes.
package handler

import (
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"storefront-seo-router/internal/config"
	"storefront-seo-router/internal/metrics"
	"storefront-seo-router/internal/model"
	"storefront-seo-router/internal/seo"
	"storefront-seo-router/internal/service"
)

// htmlContentType is the content type of every HTML document the router produces.
const htmlContentType = "text/html; charset=utf-8"

// Injection outcomes, used as metric labels.
const (
	injectInjected = "injected"
	injectKept     = "kept"
	injectSkipped  = "skipped"
	injectError    = "error"
)

// PageHandler serves storefront pages: pass-through to the origin and the
// metadata document the crawler rewrite points at.
type PageHandler struct {
	origin   *service.OriginService
	resolver *seo.Resolver
	injector *seo.Injector
	inject   bool
	maxShell int64
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewPageHandler creates a PageHandler. The metrics parameter is optional.
func NewPageHandler(
	origin *service.OriginService,
	resolver *seo.Resolver,
	injector *seo.Injector,
	cfg *config.Config,
	logger *slog.Logger,
	m *metrics.Metrics,
) *PageHandler {
	return &PageHandler{
		origin:   origin,
		resolver: resolver,
		injector: injector,
		inject:   cfg.Render.Mode == config.RenderModeInject,
		maxShell: cfg.Render.MaxShellBytes,
		logger:   logger.With("component", "page_handler"),
		metrics:  m,
	}
}

// PassThrough forwards the request to the origin and streams the response
// back. In inject mode the application shell gets its metadata filled in.
func (h *PageHandler) PassThrough(c echo.Context) error {
	req := c.Request()

	pr := &model.ProxyRequest{
		Ctx:      req.Context(),
		Method:   req.Method,
		Path:     req.URL.Path,
		RawQuery: req.URL.RawQuery,
		Header:   req.Header,
		Body:     req.Body,
		Host:     seo.RequestHost(req),
		Scheme:   seo.RequestScheme(req),
	}

	resp, err := h.origin.Forward(pr)
	if err != nil {
		return h.mapError(c, err)
	}
	defer func() { _ = resp.Body.Close() }()

	for key, vals := range resp.Header {
		for _, v := range vals {
			c.Response().Header().Add(key, v)
		}
	}

	if h.inject && injectable(req, resp) {
		return h.serveInjected(c, pr, resp)
	}

	c.Response().WriteHeader(resp.StatusCode)

	// The status is already sent, so a failed copy leaves the client with a
	// truncated body. Log it and move on.
	if _, err := io.Copy(c.Response(), resp.Body); err != nil {
		h.logger.Error("streaming response body",
			"err", err,
			"path", req.URL.Path,
		)
	}

	return nil
}

// serveInjected buffers the shell, fills its metadata, and writes it. Shells
// over the size bound, and shells that fail to parse, are served as received.
func (h *PageHandler) serveInjected(c echo.Context, pr *model.ProxyRequest, resp *model.ProxyResponse) error {
	doc, err := io.ReadAll(io.LimitReader(resp.Body, h.maxShell+1))
	if err != nil {
		return h.mapError(c, err)
	}

	if int64(len(doc)) > h.maxShell {
		h.recordInjection(injectSkipped)
		c.Response().WriteHeader(resp.StatusCode)
		if _, err := c.Response().Write(doc); err != nil {
			return nil
		}
		if _, err := io.Copy(c.Response(), resp.Body); err != nil {
			h.logger.Error("streaming response body", "err", err, "path", pr.Path)
		}
		return nil
	}

	meta := h.resolver.Resolve(pr.Ctx, pr.Scheme, pr.Host, pr.Path)
	out, changed, err := h.injector.Inject(doc, meta)
	switch {
	case err != nil:
		h.logger.Warn("metadata injection failed, serving original shell", "err", err, "path", pr.Path)
		h.recordInjection(injectError)
		out = doc
	case changed:
		h.recordInjection(injectInjected)
	default:
		h.recordInjection(injectKept)
	}

	c.Response().WriteHeader(resp.StatusCode)
	if _, err := c.Response().Write(out); err != nil {
		h.logger.Error("writing response body", "err", err, "path", pr.Path)
	}
	return nil
}

func (h *PageHandler) recordInjection(outcome string) {
	if h.metrics != nil {
		h.metrics.Injections.WithLabelValues(outcome).Inc()
	}
}

// injectable reports whether resp is an uncompressed application shell.
func injectable(req *http.Request, resp *model.ProxyResponse) bool {
	if req.Method != http.MethodGet || resp.StatusCode != http.StatusOK {
		return false
	}
	if enc := resp.Header.Get("Content-Encoding"); enc != "" && !strings.EqualFold(enc, "identity") {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	return err == nil && mediaType == "text/html"
}

// Metadata returns the resolved record of the page named by the path query
// parameter as JSON. The application shell fetches it to fill its own tags.
func (h *PageHandler) Metadata(c echo.Context) error {
	req := c.Request()
	meta := h.resolver.Resolve(req.Context(), seo.RequestScheme(req), seo.RequestHost(req), pagePath(c))
	return c.JSON(http.StatusOK, meta)
}

// pagePath returns the path query parameter as an absolute path, "/" if absent.
func pagePath(c echo.Context) string {
	path := c.QueryParam("path")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

// Render serves the metadata document of the page named by the path query
// parameter. It is the target of the crawler rewrite.
func (h *PageHandler) Render(c echo.Context) error {
	req := c.Request()
	path := pagePath(c)

	meta := h.resolver.Resolve(req.Context(), seo.RequestScheme(req), seo.RequestHost(req), path)
	body, err := seo.Render(meta)
	if err != nil {
		h.logger.Error("render metadata document", "err", err, "path", path)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to render page metadata",
		})
	}

	return c.Blob(http.StatusOK, htmlContentType, body)
}
