package middlewares

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// SecurityHeadersMiddleware sets a nonce based Content-Security-Policy and the
// usual hardening headers on every non-static response
func SecurityHeadersMiddleware(production bool, staticPrefixes []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isStatic(r.URL.Path, staticPrefixes) {
				next.ServeHTTP(w, r)
				return
			}

			nonce := newNonce()
			h := w.Header()
			h.Set("Content-Security-Policy", contentSecurityPolicy(nonce, production))
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			h.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload")

			ctx := context.WithValue(r.Context(), nonceKey, nonce)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NonceFromContext returns the CSP nonce of the current request
func NonceFromContext(ctx context.Context) string {
	if n, ok := ctx.Value(nonceKey).(string); ok {
		return n
	}
	return ""
}

func newNonce() string {
	id := uuid.New()
	return base64.StdEncoding.EncodeToString(id[:])
}

func contentSecurityPolicy(nonce string, production bool) string {
	script := fmt.Sprintf("'self' 'nonce-%s' 'strict-dynamic'", nonce)
	if !production {
		// Dev tooling evaluates code in the page
		script += " 'unsafe-eval'"
	}

	directives := []string{
		"default-src 'self'",
		"script-src " + script,
		fmt.Sprintf("style-src 'self' 'nonce-%s'", nonce),
		"img-src 'self' blob: data: https:",
		"font-src 'self' data:",
		"connect-src 'self'",
		"object-src 'none'",
		"base-uri 'self'",
		"form-action 'self'",
		"frame-ancestors 'none'",
	}
	if production {
		directives = append(directives, "upgrade-insecure-requests")
	}
	return strings.Join(directives, "; ")
}

func isStatic(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
