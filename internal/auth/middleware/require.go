package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/HuseyinEmreTech/Ybs-Web-Sitesi-sub000/internal/auth/cookies"
	"github.com/HuseyinEmreTech/Ybs-Web-Sitesi-sub000/internal/models"
)

var (
	// ErrUnauthorized is returned when a request has no valid session
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when the session role may not perform the action
	ErrForbidden = errors.New("forbidden")
)

// Authenticator checks the session of a single request inside a handler.
// It verifies the cookie itself and does not rely on the route guard having run.
type Authenticator struct {
	verifier TokenVerifier
}

// NewAuthenticator creates a new authenticator
func NewAuthenticator(verifier TokenVerifier) *Authenticator {
	return &Authenticator{verifier: verifier}
}

// RequireAuth returns the session claims of the request or ErrUnauthorized
func (a *Authenticator) RequireAuth(r *http.Request) (*models.SessionUser, error) {
	token, ok := cookies.SessionToken(r)
	if !ok {
		return nil, fmt.Errorf("%w: no session cookie", ErrUnauthorized)
	}
	user, err := a.verifier.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return user, nil
}

// RequireRole is RequireAuth followed by a role check; a mismatch is ErrForbidden
func (a *Authenticator) RequireRole(r *http.Request, role models.Role) (*models.SessionUser, error) {
	user, err := a.RequireAuth(r)
	if err != nil {
		return nil, err
	}
	if user.Role != role {
		return user, fmt.Errorf("%w: role %q required", ErrForbidden, role)
	}
	return user, nil
}
