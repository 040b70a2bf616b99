package seo

import (
	"net/http"
	"net/url"
	"strings"
)

// RequestScheme returns the scheme the client used, honoring X-Forwarded-Proto
// and defaulting to https since public storefronts are served over TLS.
func RequestScheme(r *http.Request) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		proto = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
		if proto == "http" || proto == "https" {
			return proto
		}
	}
	return "https"
}

// RequestHost returns the public host, preferring X-Forwarded-Host.
func RequestHost(r *http.Request) string {
	if fh := r.Header.Get("X-Forwarded-Host"); fh != "" {
		return strings.TrimSpace(strings.Split(fh, ",")[0])
	}
	return r.Host
}

// CanonicalURL builds the canonical URL of a page from its origin and path.
func CanonicalURL(scheme, host, path string) string {
	if host == "" {
		return ""
	}
	if scheme == "" {
		scheme = "https"
	}
	u := url.URL{Scheme: scheme, Host: host, Path: NormalizePath(path)}
	return u.String()
}
