package middleware

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/labstack/echo/v4"
)

// TrustedProxies configures Echo to believe X-Real-IP and X-Forwarded-For
// only when the direct peer is inside one of trustedCIDRs. Rate limiting
// keys on the resolved IP, so trusting every peer would let clients pick
// their own bucket.
func TrustedProxies(e *echo.Echo, trustedCIDRs []string) error {
	extractor, err := buildIPExtractor(trustedCIDRs)
	if err != nil {
		return err
	}
	e.IPExtractor = extractor
	return nil
}

// buildIPExtractor returns an extractor trusting forwarding headers from
// the given prefixes only.
func buildIPExtractor(trustedCIDRs []string) (echo.IPExtractor, error) {
	trusted := make([]netip.Prefix, 0, len(trustedCIDRs))
	for _, cidr := range trustedCIDRs {
		prefix, err := netip.ParsePrefix(cidr)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", cidr, err)
		}
		trusted = append(trusted, prefix.Masked())
	}

	return func(req *http.Request) string {
		directIP := extractDirectIP(req.RemoteAddr)
		if !isTrusted(directIP, trusted) {
			return directIP
		}

		if realIP := strings.TrimSpace(req.Header.Get("X-Real-IP")); realIP != "" {
			return realIP
		}
		if xff := req.Header.Get("X-Forwarded-For"); xff != "" {
			// Leftmost entry is the original client.
			first, _, _ := strings.Cut(xff, ",")
			if first = strings.TrimSpace(first); first != "" {
				return first
			}
		}
		return directIP
	}, nil
}

// extractDirectIP strips the port from a RemoteAddr.
func extractDirectIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

func isTrusted(ipStr string, trusted []netip.Prefix) bool {
	addr, err := netip.ParseAddr(ipStr)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
