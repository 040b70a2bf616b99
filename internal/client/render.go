package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// ErrRenderStatus is returned when the metadata service answers with a non-2xx status.
var ErrRenderStatus = errors.New("metadata service returned non-2xx status")

const defaultMaxRenderBody = 5 << 20

// RenderClient fetches pre-rendered HTML from the external metadata service.
type RenderClient struct {
	upstream *Upstream
	baseURL  *url.URL
	token    string
	maxBody  int64
}

// NewRenderClient creates a RenderClient for the service at baseURL.
func NewRenderClient(u *Upstream, baseURL, token string, maxBody int64) (*RenderClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse metadata service url: %w", err)
	}
	if maxBody <= 0 {
		maxBody = defaultMaxRenderBody
	}
	return &RenderClient{upstream: u, baseURL: parsed, token: token, maxBody: maxBody}, nil
}

// Fetch asks the service to render the page at domain+path on behalf of the
// crawler identified by userAgent. A single attempt is made.
func (c *RenderClient) Fetch(ctx context.Context, userAgent, domain, path string) ([]byte, error) {
	u := *c.baseURL
	q := u.Query()
	q.Set("domain", domain)
	q.Set("path", path)
	u.RawQuery = q.Encode()

	header := make(http.Header)
	header.Set("User-Agent", userAgent)
	header.Set("Accept", "text/html")
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.upstream.DoStream(ctx, http.MethodGet, u.String(), header, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("fetch prerendered page: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: %d", ErrRenderStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read prerendered page: %w", err)
	}
	if int64(len(body)) > c.maxBody {
		return nil, fmt.Errorf("prerendered page exceeds %d bytes", c.maxBody)
	}
	return body, nil
}
