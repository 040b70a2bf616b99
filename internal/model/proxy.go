// Package model defines shared types for the router.
package model

import (
	"context"
	"io"
	"net/http"
)

// ProxyRequest represents a client request to be passed through to the origin.
type ProxyRequest struct {
	Ctx      context.Context
	Method   string
	Path     string
	// RawQuery is forwarded byte for byte.
	RawQuery string
	Header   http.Header
	Body     io.ReadCloser

	// Host and Scheme are the public host and scheme the client addressed.
	Host   string
	Scheme string
}

// ProxyResponse represents an upstream response to be streamed back.
type ProxyResponse struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}
