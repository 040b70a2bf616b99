// Package service implements pass-through forwarding to the storefront origin
// and the fetch of pre-rendered pages for crawlers.
package service

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"storefront-seo-router/internal/client"
	"storefront-seo-router/internal/config"
	"storefront-seo-router/internal/model"
)

// hopByHopHeaders are meaningful only for a single transport-level connection
// and are never forwarded in either direction (RFC 9110 section 7.6.1).
var hopByHopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Proxy-Connection",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// OriginService forwards requests to the single-page application origin.
type OriginService struct {
	upstream *client.Upstream
	baseURL  *url.URL
	// identity requests an uncompressed body so the shell can be rewritten.
	identity bool
	logger   *slog.Logger
}

// NewOriginService creates an OriginService for cfg.Origin.
func NewOriginService(u *client.Upstream, cfg *config.Config, logger *slog.Logger) (*OriginService, error) {
	base, err := url.Parse(cfg.Origin.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse origin base_url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("origin base_url %q must be http or https", cfg.Origin.BaseURL)
	}

	return &OriginService{
		upstream: u,
		baseURL:  base,
		identity: cfg.Render.Mode == config.RenderModeInject,
		logger:   logger.With("component", "origin_service"),
	}, nil
}

// Forward sends pr to the origin and returns the response.
// The caller is responsible for closing the response body.
func (s *OriginService) Forward(pr *model.ProxyRequest) (*model.ProxyResponse, error) {
	target := s.buildOriginURL(pr.Path, pr.RawQuery)
	header := s.filterRequestHeaders(pr.Header)
	if pr.Host != "" {
		header.Set("X-Forwarded-Host", pr.Host)
	}
	if pr.Scheme != "" {
		header.Set("X-Forwarded-Proto", pr.Scheme)
	}

	s.logger.Debug("forwarding request",
		"method", pr.Method,
		"path", pr.Path,
	)

	resp, err := s.upstream.DoStream(pr.Ctx, pr.Method, target, header, pr.Body)
	if err != nil {
		return nil, fmt.Errorf("forward to origin: %w", err)
	}

	resp.Header = filterResponseHeaders(resp.Header)
	return resp, nil
}

func (s *OriginService) buildOriginURL(path, rawQuery string) string {
	u := *s.baseURL
	u.Path = strings.TrimSuffix(s.baseURL.Path, "/") + path
	u.RawPath = ""
	u.RawQuery = rawQuery
	return u.String()
}

func (s *OriginService) filterRequestHeaders(src http.Header) http.Header {
	dst := stripHopByHop(src)
	if s.identity {
		dst.Del("Accept-Encoding")
	}
	return dst
}

func filterResponseHeaders(src http.Header) http.Header {
	dst := stripHopByHop(src)
	// The body may be rewritten downstream; the length is recomputed on write.
	dst.Del("Content-Length")
	return dst
}

// stripHopByHop copies src without hop-by-hop headers, including any named
// in the Connection header.
func stripHopByHop(src http.Header) http.Header {
	dst := src.Clone()
	if dst == nil {
		dst = make(http.Header)
	}
	for _, v := range src.Values("Connection") {
		for _, name := range strings.Split(v, ",") {
			if name = textproto.TrimString(name); name != "" {
				dst.Del(name)
			}
		}
	}
	for _, h := range hopByHopHeaders {
		dst.Del(h)
	}
	return dst
}
