package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/HuseyinEmreTech/Ybs-Web-Sitesi-sub000/internal/auth/cookies"
	"github.com/HuseyinEmreTech/Ybs-Web-Sitesi-sub000/internal/auth/service"
	"github.com/HuseyinEmreTech/Ybs-Web-Sitesi-sub000/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var editor = models.SessionUser{
	Email: "editor@ybs.example.edu",
	Name:  "Mehmet Kaya",
	Role:  models.RoleEditor,
}

func newCodec(t *testing.T, secret string) *service.SessionCodec {
	t.Helper()
	codec, err := service.NewSessionCodec([]byte(secret), time.Hour)
	require.NoError(t, err)
	return codec
}

func issue(t *testing.T, codec *service.SessionCodec, user models.SessionUser) string {
	t.Helper()
	token, _, err := codec.Issue(user)
	require.NoError(t, err)
	return token
}

// guarded returns a handler that records the claims it was called with
func guarded(t *testing.T, codec *service.SessionCodec) (http.Handler, *bool, **models.SessionUser) {
	t.Helper()
	called := false
	var seen *models.SessionUser
	guard := NewRouteGuard(codec, DefaultGuardConfig(), false, zap.NewNop())
	h := guard.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		seen, _ = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	return h, &called, &seen
}

func TestRouteGuard_Unprotected(t *testing.T) {
	codec := newCodec(t, "guard-secret")

	paths := []string{
		"/",
		"/blog/first-post",
		"/api/auth/login",
		"/api/auth/session",
		"/api/health",
		"/administration",
		"/api/usersettings",
		"/admin/login",
		"/static/admin/app.js",
		"/images/team.png",
	}

	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			h, called, seen := guarded(t, codec)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.True(t, *called)
			assert.Nil(t, *seen)
		})
	}
}

func TestRouteGuard_MissingToken(t *testing.T) {
	codec := newCodec(t, "guard-secret")

	tests := []struct {
		name             string
		path             string
		expectedCode     int
		expectedLocation string
		expectedBody     string
	}{
		{name: "admin root", path: "/admin", expectedCode: http.StatusFound, expectedLocation: "/admin/login?next=%2Fadmin"},
		{name: "admin page", path: "/admin/posts?page=2", expectedCode: http.StatusFound, expectedLocation: "/admin/login?next=%2Fadmin%2Fposts%3Fpage%3D2"},
		{name: "login subpath", path: "/admin/login/extra", expectedCode: http.StatusFound, expectedLocation: "/admin/login?next=%2Fadmin%2Flogin%2Fextra"},
		{name: "users api", path: "/api/users", expectedCode: http.StatusUnauthorized, expectedBody: `{"error":"Unauthorized"}`},
		{name: "users api item", path: "/api/users/7", expectedCode: http.StatusUnauthorized, expectedBody: `{"error":"Unauthorized"}`},
		{name: "messages api", path: "/api/messages", expectedCode: http.StatusUnauthorized, expectedBody: `{"error":"Unauthorized"}`},
		{name: "settings api", path: "/api/settings/site", expectedCode: http.StatusUnauthorized, expectedBody: `{"error":"Unauthorized"}`},
		{name: "projects api", path: "/api/projects", expectedCode: http.StatusUnauthorized, expectedBody: `{"error":"Unauthorized"}`},
		{name: "organization api", path: "/api/organization/tree", expectedCode: http.StatusUnauthorized, expectedBody: `{"error":"Unauthorized"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, called, _ := guarded(t, codec)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.False(t, *called)
			assert.Equal(t, tt.expectedCode, rec.Code)
			assert.Equal(t, tt.expectedLocation, rec.Header().Get("Location"))
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, rec.Body.String())
				assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			}
			// Nothing to clear when no token was sent
			assert.Empty(t, rec.Header().Values("Set-Cookie"))
		})
	}
}

func TestRouteGuard_StaleToken(t *testing.T) {
	codec := newCodec(t, "guard-secret")
	foreign := issue(t, newCodec(t, "another-secret"), editor)

	for _, path := range []string{"/admin/posts", "/api/users"} {
		t.Run(path, func(t *testing.T) {
			h, called, _ := guarded(t, codec)
			req := httptest.NewRequest(http.MethodGet, path, nil)
			req.AddCookie(&http.Cookie{Name: cookies.SessionCookieName, Value: foreign})
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.False(t, *called)
			assert.Contains(t, []int{http.StatusFound, http.StatusUnauthorized}, rec.Code)

			cleared := map[string]bool{}
			for _, c := range rec.Result().Cookies() {
				if c.MaxAge < 0 {
					cleared[c.Name] = true
				}
			}
			assert.True(t, cleared[cookies.SessionCookieName])
			assert.True(t, cleared[cookies.DisplayCookieName])
		})
	}
}

func TestRouteGuard_ValidToken(t *testing.T) {
	codec := newCodec(t, "guard-secret")
	token := issue(t, codec, editor)

	for _, path := range []string{"/admin", "/admin/events/3", "/api/projects"} {
		t.Run(path, func(t *testing.T) {
			h, called, seen := guarded(t, codec)
			req := httptest.NewRequest(http.MethodGet, path, nil)
			req.AddCookie(&http.Cookie{Name: cookies.SessionCookieName, Value: token})
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			require.True(t, *called)
			require.NotNil(t, *seen)
			assert.Equal(t, editor, **seen)
		})
	}
}

func TestUnderPrefix(t *testing.T) {
	assert.True(t, underPrefix("/admin", "/admin"))
	assert.True(t, underPrefix("/admin/", "/admin"))
	assert.True(t, underPrefix("/admin/x", "/admin/"))
	assert.False(t, underPrefix("/adminx", "/admin"))
	assert.False(t, underPrefix("/", ""))
}

func TestAuthenticator_RequireAuth(t *testing.T) {
	codec := newCodec(t, "guard-secret")
	auth := NewAuthenticator(codec)

	tests := []struct {
		name        string
		cookie      string
		expectError bool
	}{
		{name: "valid", cookie: issue(t, codec, editor)},
		{name: "missing", cookie: "", expectError: true},
		{name: "garbage", cookie: "not-a-token", expectError: true},
		{name: "foreign signature", cookie: issue(t, newCodec(t, "other"), editor), expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: cookies.SessionCookieName, Value: tt.cookie})
			}

			user, err := auth.RequireAuth(req)
			if tt.expectError {
				assert.True(t, errors.Is(err, ErrUnauthorized))
				assert.Nil(t, user)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, editor, *user)
		})
	}
}

func TestAuthenticator_RequireAuth_IgnoresContext(t *testing.T) {
	// Claims planted in the context without a cookie do not authenticate
	auth := NewAuthenticator(newCodec(t, "guard-secret"))
	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req = req.WithContext(WithUser(req.Context(), &editor))

	_, err := auth.RequireAuth(req)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthenticator_RequireRole(t *testing.T) {
	codec := newCodec(t, "guard-secret")
	auth := NewAuthenticator(codec)
	admin := models.SessionUser{Email: "admin@ybs.example.edu", Name: "Admin", Role: models.RoleAdmin}

	req := func(user models.SessionUser) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		r.AddCookie(&http.Cookie{Name: cookies.SessionCookieName, Value: issue(t, codec, user)})
		return r
	}

	user, err := auth.RequireRole(req(admin), models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, admin.Email, user.Email)

	_, err = auth.RequireRole(req(editor), models.RoleAdmin)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = auth.RequireRole(httptest.NewRequest(http.MethodGet, "/api/users", nil), models.RoleAdmin)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
