package models

import "time"

// SessionUser is the set of identity claims carried by a session token
// and mirrored into the display cookie
type SessionUser struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
	Role     Role   `json:"role"`
}

// SessionUserOf extracts the public claims of a user
func SessionUserOf(u *User) SessionUser {
	return SessionUser{
		Email:    u.Email,
		Name:     u.Name,
		ImageURL: u.ImageURL,
		Role:     u.Role,
	}
}

// LoginRequest represents a login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is returned by a successful login
type LoginResult struct {
	Token     string
	User      SessionUser
	ExpiresAt time.Time
}

// LoginResponse represents the login endpoint response body
type LoginResponse struct {
	Success bool        `json:"success"`
	User    SessionUser `json:"user"`
}

// RateLimitedResponse represents the body of a throttled login
type RateLimitedResponse struct {
	Error   string    `json:"error"`
	ResetAt time.Time `json:"resetAt"`
}

// SessionResponse represents the session introspection response body
type SessionResponse struct {
	Authenticated bool         `json:"authenticated"`
	User          *SessionUser `json:"user,omitempty"`
}
