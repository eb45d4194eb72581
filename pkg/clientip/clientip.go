package clientip

import (
	"net"
	"net/http"
	"strings"
)

// proxyHeaders are consulted in order before falling back to the socket
// address. X-Forwarded-For may carry a comma-separated chain; the first
// valid address wins.
var proxyHeaders = []string{"X-Forwarded-For", "X-Real-IP"}

// FromRequest returns the client's IP address, preferring proxy headers
// over the connection's remote address. It returns an empty string when no
// candidate parses as an IP, letting callers fail open instead of keying on
// garbage.
func FromRequest(r *http.Request) string {
	for _, header := range proxyHeaders {
		value := r.Header.Get(header)
		if value == "" {
			continue
		}
		for candidate := range strings.SplitSeq(value, ",") {
			if ip := parseIP(candidate); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr without a port, assume it is a bare IP.
		return parseIP(r.RemoteAddr)
	}
	return parseIP(host)
}

// parseIP validates and normalizes an IP address string, returning an empty
// string when invalid.
func parseIP(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return ""
	}
	return ip.String()
}
