// Package middleware enforces authentication on incoming requests
package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/HuseyinEmreTech/Ybs-Web-Sitesi-sub000/internal/auth/cookies"
	"github.com/HuseyinEmreTech/Ybs-Web-Sitesi-sub000/internal/models"
	"go.uber.org/zap"
)

type contextKey string

const userKey contextKey = "sessionUser"

// TokenVerifier verifies a session token and returns its claims
type TokenVerifier interface {
	Verify(token string) (*models.SessionUser, error)
}

// GuardConfig lists the paths protected by the route guard
type GuardConfig struct {
	// AdminPagePrefix protects the admin pages; rejected requests are redirected to LoginPath
	AdminPagePrefix string
	// LoginPath is always reachable without a session
	LoginPath string
	// APIPrefixes protect admin APIs; rejected requests get 401 JSON
	APIPrefixes []string
	// StaticPrefixes are passed through untouched
	StaticPrefixes []string
}

// DefaultGuardConfig returns the protected paths of the site
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		AdminPagePrefix: "/admin",
		LoginPath:       "/admin/login",
		APIPrefixes: []string{
			"/api/users",
			"/api/messages",
			"/api/settings",
			"/api/projects",
			"/api/organization",
		},
		StaticPrefixes: []string{"/static/", "/favicon.ico", "/robots.txt", "/images/"},
	}
}

// RouteGuard rejects requests to protected paths that carry no valid session
type RouteGuard struct {
	verifier      TokenVerifier
	cfg           GuardConfig
	secureCookies bool
	logger        *zap.Logger
}

// NewRouteGuard creates a new route guard
func NewRouteGuard(verifier TokenVerifier, cfg GuardConfig, secureCookies bool, logger *zap.Logger) *RouteGuard {
	return &RouteGuard{
		verifier:      verifier,
		cfg:           cfg,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

// Handler wraps next with the guard. Verified claims are available through UserFromContext.
func (g *RouteGuard) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		if g.isStatic(path) || path == g.cfg.LoginPath {
			next.ServeHTTP(w, r)
			return
		}

		api := g.isAPI(path)
		if !api && !underPrefix(path, g.cfg.AdminPagePrefix) {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := cookies.SessionToken(r)
		if !ok {
			g.reject(w, r, api)
			return
		}

		user, err := g.verifier.Verify(token)
		if err != nil {
			g.logger.Debug("Rejected stale session",
				zap.String("path", path),
				zap.Error(err),
			)
			cookies.Clear(w, g.secureCookies)
			g.reject(w, r, api)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

func (g *RouteGuard) reject(w http.ResponseWriter, r *http.Request, api bool) {
	if api {
		writeUnauthorized(w)
		return
	}
	target := g.cfg.LoginPath + "?next=" + url.QueryEscape(r.URL.RequestURI())
	http.Redirect(w, r, target, http.StatusFound)
}

func (g *RouteGuard) isAPI(path string) bool {
	for _, p := range g.cfg.APIPrefixes {
		if underPrefix(path, p) {
			return true
		}
	}
	return false
}

func (g *RouteGuard) isStatic(path string) bool {
	for _, p := range g.cfg.StaticPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// underPrefix matches the prefix itself and anything below it, but not "/adminx"
func underPrefix(path, prefix string) bool {
	if prefix == "" {
		return false
	}
	return path == prefix || strings.HasPrefix(path, strings.TrimSuffix(prefix, "/")+"/")
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
}

// WithUser stores verified session claims in the context
func WithUser(ctx context.Context, user *models.SessionUser) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the claims verified by the route guard
func UserFromContext(ctx context.Context) (*models.SessionUser, bool) {
	user, ok := ctx.Value(userKey).(*models.SessionUser)
	return user, ok && user != nil
}
