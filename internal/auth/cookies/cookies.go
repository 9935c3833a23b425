// Package cookies reads and writes the session cookies of the admin panel
package cookies

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/HuseyinEmreTech/Ybs-Web-Sitesi-sub000/internal/models"
)

const (
	// SessionCookieName holds the signed session token (HttpOnly)
	SessionCookieName = "ybs_session"
	// DisplayCookieName holds the public claims for client side UI only.
	// It is never trusted for authorization.
	DisplayCookieName = "ybs_user"
)

// legacyDisplayCookieName is the display cookie of earlier versions, readable by scripts
const legacyDisplayCookieName = "user_info"

// LegacyCookieNames were issued by earlier versions of the site and are cleared on logout
var LegacyCookieNames = []string{"admin_session", "admin_token", "auth_token", legacyDisplayCookieName}

// Set writes the session and display cookies with the same max-age in seconds
func Set(w http.ResponseWriter, token string, user models.SessionUser, maxAge int, secure bool) error {
	display, err := json.Marshal(user)
	if err != nil {
		return err
	}

	expires := time.Now().Add(time.Duration(maxAge) * time.Second)

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     DisplayCookieName,
		Value:    url.QueryEscape(string(display)),
		Path:     "/",
		MaxAge:   maxAge,
		Expires:  expires,
		HttpOnly: false,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires the session, display and legacy cookies
func Clear(w http.ResponseWriter, secure bool) {
	names := append([]string{SessionCookieName, DisplayCookieName}, LegacyCookieNames...)
	for _, name := range names {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			Expires:  time.Unix(0, 0),
			HttpOnly: !isDisplayCookie(name),
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// isDisplayCookie reports whether the cookie was written without HttpOnly
func isDisplayCookie(name string) bool {
	return name == DisplayCookieName || name == legacyDisplayCookieName
}

// SessionToken returns the session token sent with the request, if any
func SessionToken(r *http.Request) (string, bool) {
	c, err := r.Cookie(SessionCookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

// DisplayUser decodes the display cookie. Only for presentation.
func DisplayUser(r *http.Request) (*models.SessionUser, bool) {
	c, err := r.Cookie(DisplayCookieName)
	if err != nil || c.Value == "" {
		return nil, false
	}
	raw, err := url.QueryUnescape(c.Value)
	if err != nil {
		return nil, false
	}
	var user models.SessionUser
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, false
	}
	return &user, true
}
