package handlers

import (
	"embed"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	authmiddleware "github.com/HuseyinEmreTech/Ybs-Web-Sitesi-sub000/internal/auth/middleware"
	"github.com/HuseyinEmreTech/Ybs-Web-Sitesi-sub000/internal/middlewares"
	"github.com/HuseyinEmreTech/Ybs-Web-Sitesi-sub000/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// defaultAdminLanding is where a login goes when no safe next path was given
const defaultAdminLanding = "/admin"

type loginPage struct {
	Nonce string
	Next  string
}

type dashboardPage struct {
	Nonce string
	User  *models.SessionUser
}

// AdminPageHandler renders the admin panel pages
type AdminPageHandler struct {
	BaseHandler
	auth RequestAuthenticator
}

// NewAdminPageHandler creates a new admin page handler
func NewAdminPageHandler(auth RequestAuthenticator, logger *zap.Logger) *AdminPageHandler {
	return &AdminPageHandler{
		BaseHandler: BaseHandler{Logger: logger},
		auth:        auth,
	}
}

// RegisterRoutes registers the admin pages on the root router
func (h *AdminPageHandler) RegisterRoutes(r chi.Router) {
	r.Get("/admin/login", h.LoginPage)
	r.Get("/admin", h.Dashboard)
	r.Get("/admin/*", h.Dashboard)
}

// LoginPage handles GET /admin/login.
// A visitor that already has a valid session is sent on to the next page.
func (h *AdminPageHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	next := safeNext(r.URL.Query().Get("next"))

	if _, err := h.auth.RequireAuth(r); err == nil {
		http.Redirect(w, r, next, http.StatusFound)
		return
	}

	h.render(w, r, "login.html", loginPage{
		Nonce: middlewares.NonceFromContext(r.Context()),
		Next:  next,
	})
}

// Dashboard handles GET /admin and every page below it
func (h *AdminPageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := authmiddleware.UserFromContext(r.Context())
	if !ok {
		// Routed without the guard; check the cookie here
		var err error
		if user, err = h.auth.RequireAuth(r); err != nil {
			http.Redirect(w, r, "/admin/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusFound)
			return
		}
	}

	h.render(w, r, "dashboard.html", dashboardPage{
		Nonce: middlewares.NonceFromContext(r.Context()),
		User:  user,
	})
}

func (h *AdminPageHandler) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := pageTemplates.ExecuteTemplate(w, name, data); err != nil {
		h.Logger.Error("failed to render page", zap.String("template", name), zap.String("path", r.URL.Path), zap.Error(err))
	}
}

// safeNext keeps only same-site absolute paths so the login page cannot redirect off site.
// Browsers drop tabs and newlines while parsing, so "/\t/evil.example" would become
// "//evil.example"; any control character rejects the target.
func safeNext(next string) string {
	if next == "" || strings.IndexFunc(next, isControl) >= 0 {
		return defaultAdminLanding
	}
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return defaultAdminLanding
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" || u.Opaque != "" {
		return defaultAdminLanding
	}
	if u.Path == "/admin/login" {
		return defaultAdminLanding
	}
	return next
}

func isControl(r rune) bool {
	return r < 0x20 || r == 0x7f
}
