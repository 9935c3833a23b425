package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/HuseyinEmreTech/Ybs-Web-Sitesi-sub000/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that fails verification:
// bad signature, malformed encoding, unexpected algorithm, expiry or missing claims
var ErrInvalidToken = errors.New("invalid token")

// DefaultSessionTTL is the lifetime of a session token
const DefaultSessionTTL = 7 * 24 * time.Hour

// sessionClaims is the JWT payload of a session token
type sessionClaims struct {
	Email    string      `json:"email"`
	Name     string      `json:"name"`
	ImageURL string      `json:"imageUrl"`
	Role     models.Role `json:"role"`
	jwt.RegisteredClaims
}

// SessionCodec issues and verifies signed session tokens
type SessionCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// CodecOption configures a SessionCodec
type CodecOption func(*SessionCodec)

// WithCodecClock overrides the clock used for issuing and verifying tokens
func WithCodecClock(now func() time.Time) CodecOption {
	return func(c *SessionCodec) {
		c.now = now
	}
}

// NewSessionCodec creates a new session codec.
// A zero ttl falls back to DefaultSessionTTL.
func NewSessionCodec(secret []byte, ttl time.Duration, opts ...CodecOption) (*SessionCodec, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("session secret cannot be empty")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	c := &SessionCodec{
		secret: secret,
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// TTL returns the lifetime of issued tokens
func (c *SessionCodec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a token carrying the user's claims, an issued-at time and an expiry
func (c *SessionCodec) Issue(user models.SessionUser) (string, time.Time, error) {
	now := c.now()
	expiresAt := now.Add(c.ttl)

	claims := sessionClaims{
		Email:    user.Email,
		Name:     user.Name,
		ImageURL: user.ImageURL,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// Verify checks the signature, the expiry and the claim shape of a token.
// Every failure is reported as ErrInvalidToken.
func (c *SessionCodec) Verify(tokenString string) (*models.SessionUser, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("%w: token is not valid", ErrInvalidToken)
	}

	// Reject payloads that were signed with our key but do not have the session shape
	if claims.Email == "" {
		return nil, fmt.Errorf("%w: email claim missing", ErrInvalidToken)
	}
	if !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}

	return &models.SessionUser{
		Email:    claims.Email,
		Name:     claims.Name,
		ImageURL: claims.ImageURL,
		Role:     claims.Role,
	}, nil
}
