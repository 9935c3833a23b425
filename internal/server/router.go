// Package server assembles the HTTP router of the site
package server

import (
	"time"

	authmiddleware "github.com/HuseyinEmreTech/Ybs-Web-Sitesi-sub000/internal/auth/middleware"
	"github.com/HuseyinEmreTech/Ybs-Web-Sitesi-sub000/internal/handlers"
	loggerMiddleware "github.com/HuseyinEmreTech/Ybs-Web-Sitesi-sub000/internal/logger/middleware"
	"github.com/HuseyinEmreTech/Ybs-Web-Sitesi-sub000/internal/middlewares"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// Deps holds everything the router is built from
type Deps struct {
	Logger      *zap.Logger
	Verifier    authmiddleware.TokenVerifier
	AuthService handlers.AuthService
	UserService handlers.UserService
	DB          handlers.Pinger

	// Production enables Secure cookies and the production CSP
	Production     bool
	AllowedOrigins []string
	// APIRequestsPerMinute is the per-IP throttle for every route; zero disables it
	APIRequestsPerMinute int
	// Guard replaces the default protected paths when set
	Guard *authmiddleware.GuardConfig
}

// NewRouter creates the router with the middleware chain and every route registered
func NewRouter(d Deps) chi.Router {
	guardCfg := authmiddleware.DefaultGuardConfig()
	if d.Guard != nil {
		guardCfg = *d.Guard
	}

	guard := authmiddleware.NewRouteGuard(d.Verifier, guardCfg, d.Production, d.Logger)
	authenticator := authmiddleware.NewAuthenticator(d.Verifier)

	authHandler := handlers.NewAuthHandler(d.AuthService, d.Production, d.Logger)
	userHandler := handlers.NewUserHandler(d.UserService, authenticator, d.Logger)
	pageHandler := handlers.NewAdminPageHandler(authenticator, d.Logger)
	healthHandler := handlers.NewHealthHandler(d.DB, d.Logger)

	r := chi.NewRouter()

	// Apply middleware
	r.Use(middlewares.RequestIDMiddleware)
	r.Use(loggerMiddleware.LoggerMiddleware(d.Logger))
	r.Use(middlewares.RecoveryMiddleware(d.Logger))
	r.Use(middlewares.SecurityHeadersMiddleware(d.Production, guardCfg.StaticPrefixes))
	r.Use(middlewares.CORSMiddleware(d.AllowedOrigins))
	if d.APIRequestsPerMinute > 0 {
		r.Use(httprate.LimitByIP(d.APIRequestsPerMinute, time.Minute))
	}
	r.Use(middlewares.RequestSizeLimitMiddleware(middlewares.DefaultMaxRequestSize))
	r.Use(guard.Handler)

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/api", func(r chi.Router) {
		authHandler.RegisterRoutes(r)
		healthHandler.RegisterRoutes(r)
		userHandler.RegisterRoutes(r)
	})

	pageHandler.RegisterRoutes(r)

	return r
}
