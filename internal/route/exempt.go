// Package route decides how an incoming page request is served.
package route

import (
	"path"
	"strings"
)

// DefaultExemptPrefixes are the namespaces that bypass crawler routing.
var DefaultExemptPrefixes = []string{
	"/api/",
	"/static/",
	"/assets/",
	"/_next/",
	"/_app/",
	"/dashboard",
	"/admin",
	"/auth",
}

// DefaultStaticExtensions is the allowlist of file extensions treated as static assets.
var DefaultStaticExtensions = []string{
	".js", ".mjs", ".css", ".map", ".json", ".xml", ".txt", ".webmanifest",
	".png", ".jpg", ".jpeg", ".gif", ".webp", ".avif", ".svg", ".ico", ".bmp",
	".woff", ".woff2", ".ttf", ".otf", ".eot",
	".mp4", ".webm", ".mp3", ".wav", ".pdf", ".zip", ".wasm",
}

// Exemptions decides which paths are never subject to crawler routing.
type Exemptions struct {
	prefixes   []string
	extensions map[string]bool
}

// NewExemptions builds an exemption filter. A prefix ending in "/" matches
// everything below it; any other prefix also matches itself exactly.
func NewExemptions(prefixes, extensions []string) *Exemptions {
	e := &Exemptions{extensions: make(map[string]bool, len(extensions))}
	for _, p := range prefixes {
		if p = strings.TrimSpace(p); p != "" {
			e.prefixes = append(e.prefixes, p)
		}
	}
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		e.extensions[ext] = true
	}
	return e
}

// Exempt reports whether p bypasses crawler routing.
func (e *Exemptions) Exempt(p string) bool {
	for _, prefix := range e.prefixes {
		if strings.HasSuffix(prefix, "/") {
			if strings.HasPrefix(p, prefix) || p == strings.TrimSuffix(prefix, "/") {
				return true
			}
			continue
		}
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}
	return e.hasStaticExtension(p)
}

// hasStaticExtension checks only the last path segment, so a dotted
// directory such as /v1.0/page is not a file.
func (e *Exemptions) hasStaticExtension(p string) bool {
	ext := strings.ToLower(path.Ext(p))
	if ext == "" {
		return false
	}
	return e.extensions[ext]
}
