// Package origin validates the embedding page's declared domain against an
// agent's allow-list.
package origin

import (
	"net"
	"strings"
)

// Normalize reduces a raw Origin header or declared-domain value to a bare
// lowercase hostname: scheme, port, path remainder, and surrounding
// whitespace are stripped.
func Normalize(raw string) string {
	s := strings.TrimSpace(strings.ToLower(raw))
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}
	// SplitHostPort keeps IPv6 literals like [::1]:3000 intact; without a
	// port it errors and the value is kept, minus any brackets.
	if host, _, err := net.SplitHostPort(s); err == nil {
		s = host
	} else {
		s = strings.Trim(s, "[]")
	}
	return s
}

// Allowed reports whether domain matches the allow-list. Restriction is
// opt-in per agent: a nil or empty list allows every domain.
//
// Each entry matches by exact equality, by "*." wildcard prefix, or as an
// implicit parent domain (entry "example.com" admits "shop.example.com").
func Allowed(domain string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}

	domain = Normalize(domain)
	for _, entry := range allowed {
		entry = Normalize(entry)
		if entry == "" {
			continue
		}
		if domain == entry {
			return true
		}
		if rest, ok := strings.CutPrefix(entry, "*."); ok {
			if strings.HasSuffix(domain, rest) {
				return true
			}
			continue
		}
		if strings.HasSuffix(domain, "."+entry) {
			return true
		}
	}
	return false
}
