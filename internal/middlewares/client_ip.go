package middlewares

import (
	"net/http"
	"strings"
)

// UnknownClientIP is reported when the request carries no forwarding header
const UnknownClientIP = "unknown"

// ClientIP returns the first address of X-Forwarded-For.
// Requests without the header share the UnknownClientIP identity; RemoteAddr
// is not consulted because the site runs behind a proxy that always sets it.
func ClientIP(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff == "" {
		return UnknownClientIP
	}
	first, _, _ := strings.Cut(xff, ",")
	first = strings.TrimSpace(first)
	if first == "" {
		return UnknownClientIP
	}
	return first
}
