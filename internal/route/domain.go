package route

import (
	"net"
	"strings"
)

// DomainMatcher tells tenant-owned custom domains apart from the platform's
// own hosting domains.
type DomainMatcher struct {
	platform []string
}

// NewDomainMatcher creates a DomainMatcher for the given platform domains.
func NewDomainMatcher(platformDomains []string) *DomainMatcher {
	m := &DomainMatcher{}
	for _, d := range platformDomains {
		d = strings.Trim(strings.ToLower(strings.TrimSpace(d)), ".")
		if d != "" {
			m.platform = append(m.platform, d)
		}
	}
	return m
}

// IsCustom reports whether host is a tenant custom domain. Empty hosts, IP
// literals, and platform domains or their subdomains are not.
func (m *DomainMatcher) IsCustom(host string) bool {
	host = NormalizeHost(host)
	if host == "" || net.ParseIP(host) != nil {
		return false
	}
	for _, d := range m.platform {
		if host == d || strings.HasSuffix(host, "."+d) {
			return false
		}
	}
	return true
}

// NormalizeHost lower-cases host and strips any port and trailing dot.
func NormalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimPrefix(strings.TrimSuffix(host, "]"), "[")
	return strings.TrimSuffix(host, ".")
}
