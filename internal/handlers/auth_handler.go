package handlers

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/HuseyinEmreTech/Ybs-Web-Sitesi-sub000/internal/auth/cookies"
	"github.com/HuseyinEmreTech/Ybs-Web-Sitesi-sub000/internal/middlewares"
	"github.com/HuseyinEmreTech/Ybs-Web-Sitesi-sub000/internal/models"
	"github.com/HuseyinEmreTech/Ybs-Web-Sitesi-sub000/internal/services"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AuthService is the interface that wraps methods for session authentication business logic.
type AuthService interface {
	// Method Login verifies the credentials and issues a session token.
	//
	// "req" parameter contains email and password.
	// "clientIP" parameter identifies the caller for login throttling.
	//
	// Returns services.ErrMissingCredentials, *services.RateLimitedError or
	// services.ErrInvalidCredentials for rejected attempts.
	Login(ctx context.Context, req *models.LoginRequest, clientIP string) (*models.LoginResult, error)
	// Method Introspect verifies a session token. An invalid token is an unauthenticated session, never an error.
	Introspect(token string) models.SessionResponse
	// Method SessionTTL returns the lifetime of issued sessions.
	SessionTTL() time.Duration
}

const (
	invalidCredentialsMessage = "Invalid email or password"
	rateLimitedMessage        = "Too many login attempts. Please try again later."
)

// AuthHandler handles login, logout and session introspection
type AuthHandler struct {
	BaseHandler
	authService   AuthService
	secureCookies bool
	now           func() time.Time
}

// NewAuthHandler creates a new auth handler.
// secureCookies marks both session cookies Secure and should be set in production.
func NewAuthHandler(authService AuthService, secureCookies bool, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler:   BaseHandler{Logger: logger},
		authService:   authService,
		secureCookies: secureCookies,
		now:           time.Now,
	}
}

// RegisterRoutes registers all auth handler routes
// Note: This assumes the router is already scoped to /api
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Get("/session", h.Session)
	})
}

// Login handles POST /auth/login
// @Summary Log in to the admin panel
// @Description Verifies email and password and sets the HttpOnly session cookie and the display cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Credentials"
// @Success 200 {object} models.LoginResponse
// @Failure 400 {object} map[string]string "Missing credentials or invalid body"
// @Failure 401 {object} map[string]string "Invalid email or password"
// @Failure 429 {object} models.RateLimitedResponse "Too many attempts"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := DecodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.authService.Login(r.Context(), &req, middlewares.ClientIP(r))
	if err != nil {
		h.respondLoginError(w, r, err)
		return
	}

	maxAge := int(h.authService.SessionTTL().Seconds())
	if err := cookies.Set(w, result.Token, result.User, maxAge, h.secureCookies); err != nil {
		h.RespondInternalError(w, r, "failed to set session cookies", err)
		return
	}

	h.RespondJSON(w, http.StatusOK, models.LoginResponse{Success: true, User: result.User})
}

func (h *AuthHandler) respondLoginError(w http.ResponseWriter, r *http.Request, err error) {
	var limited *services.RateLimitedError
	switch {
	case errors.Is(err, services.ErrMissingCredentials):
		h.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &limited):
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(limited.ResetAt, h.now())))
		h.RespondJSON(w, http.StatusTooManyRequests, models.RateLimitedResponse{
			Error:   rateLimitedMessage,
			ResetAt: limited.ResetAt,
		})
	case errors.Is(err, services.ErrInvalidCredentials):
		h.RespondError(w, http.StatusUnauthorized, invalidCredentialsMessage)
	default:
		h.RespondInternalError(w, r, "login failed", err)
	}
}

// retryAfterSeconds rounds the wait up to whole seconds, never below one
func retryAfterSeconds(resetAt, now time.Time) int {
	secs := int(math.Ceil(resetAt.Sub(now).Seconds()))
	return max(secs, 1)
}

// Logout handles POST /auth/logout
// @Summary Log out
// @Description Clears the session, display and legacy cookies. The token itself stays valid until it expires.
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]bool
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookies.Clear(w, h.secureCookies)
	h.RespondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Session handles GET /auth/session
// @Summary Current session
// @Description Reports whether the session cookie holds a valid token and returns its claims.
// @Tags auth
// @Produce json
// @Success 200 {object} models.SessionResponse
// @Router /auth/session [get]
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	token, _ := cookies.SessionToken(r)
	w.Header().Set("Cache-Control", "no-store")
	h.RespondJSON(w, http.StatusOK, h.authService.Introspect(token))
}
