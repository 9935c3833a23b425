package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/HuseyinEmreTech/Ybs-Web-Sitesi-sub000/internal/models"
	"github.com/HuseyinEmreTech/Ybs-Web-Sitesi-sub000/internal/ratelimit"
	"github.com/HuseyinEmreTech/Ybs-Web-Sitesi-sub000/internal/repositories"
	"go.uber.org/zap"
)

// CredentialStore is the interface that wraps the user lookups needed for authentication
type CredentialStore interface {
	// Method GetByEmail retrieves a user by normalized email.
	//
	// If no user has this email, repositories.ErrNotFound is returned.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// Method UpdatePasswordHash replaces the stored password value of a user.
	UpdatePasswordHash(ctx context.Context, id int, hash string) error
	// Method Count returns the number of accounts.
	Count(ctx context.Context) (int, error)
	// Method Create inserts a new user and sets its ID.
	//
	// If the email is taken, repositories.ErrDuplicateEmail is returned.
	Create(ctx context.Context, user *models.User) error
}

// PasswordHasher hashes and verifies passwords
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, stored string) bool
	NeedsRehash(stored string) bool
}

// SessionCodec issues and verifies session tokens
type SessionCodec interface {
	Issue(user models.SessionUser) (string, time.Time, error)
	Verify(token string) (*models.SessionUser, error)
	TTL() time.Duration
}

// AttemptLimiter counts attempts per identifier
type AttemptLimiter interface {
	CheckAndConsume(identifier string, policy ratelimit.Policy) ratelimit.Result
}

// dummyPassword is hashed at startup so that unknown emails cost one bcrypt comparison
const dummyPassword = "ybs-timing-equalizer"

// authService implements login, session introspection and admin bootstrapping
type authService struct {
	users     CredentialStore
	hasher    PasswordHasher
	codec     SessionCodec
	limiter   AttemptLimiter
	policy    ratelimit.Policy
	logger    *zap.Logger
	dummyHash string
}

// NewAuthService creates a new auth service
func NewAuthService(
	users CredentialStore,
	hasher PasswordHasher,
	codec SessionCodec,
	limiter AttemptLimiter,
	policy ratelimit.Policy,
	logger *zap.Logger,
) (*authService, error) {
	dummyHash, err := hasher.Hash(dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}

	return &authService{
		users:     users,
		hasher:    hasher,
		codec:     codec,
		limiter:   limiter,
		policy:    policy,
		logger:    logger,
		dummyHash: dummyHash,
	}, nil
}

// Login authenticates the credentials and issues a session token.
//
// Checks run in order: presence, the client's rate-limit window, account lookup,
// password verification. An unknown email and a wrong password both yield
// ErrInvalidCredentials. Every attempt that passes the presence check counts
// against the window, successful or not.
func (s *authService) Login(ctx context.Context, req *models.LoginRequest, clientIP string) (*models.LoginResult, error) {
	email := models.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		s.logFailure("missing_credentials", clientIP)
		return nil, ErrMissingCredentials
	}

	attempt := s.limiter.CheckAndConsume(ratelimit.LoginKey(clientIP), s.policy)
	if !attempt.Allowed {
		s.logFailure("rate_limited", clientIP)
		return nil, &RateLimitedError{ResetAt: attempt.ResetAt}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repositories.ErrNotFound) {
		s.hasher.Verify(req.Password, s.dummyHash)
		s.logFailure("invalid_credentials", clientIP)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		s.logFailure("invalid_credentials", clientIP)
		return nil, ErrInvalidCredentials
	}

	if s.hasher.NeedsRehash(user.PasswordHash) {
		s.upgradePassword(ctx, user, req.Password)
	}

	claims := models.SessionUserOf(user)
	token, expiresAt, err := s.codec.Issue(claims)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session: %w", err)
	}

	s.logger.Info("Admin login", zap.Int("user_id", user.ID), zap.String("role", string(user.Role)))

	return &models.LoginResult{
		Token:     token,
		User:      claims,
		ExpiresAt: expiresAt,
	}, nil
}

// upgradePassword replaces a legacy plaintext password with a bcrypt hash.
// Failures are logged; the login that triggered it still succeeds.
func (s *authService) upgradePassword(ctx context.Context, user *models.User, plaintext string) {
	s.logger.Warn("Legacy plaintext password accepted, re-hashing", zap.Int("user_id", user.ID))

	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		s.logger.Error("Failed to hash legacy password", zap.Int("user_id", user.ID), zap.Error(err))
		return
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		s.logger.Error("Failed to store re-hashed password", zap.Int("user_id", user.ID), zap.Error(err))
		return
	}
	user.PasswordHash = hash
}

func (s *authService) logFailure(reason, clientIP string) {
	s.logger.Warn("Login failed", zap.String("reason", reason), zap.String("client_ip", clientIP))
}

// Introspect reports whether the token is a valid session. It never fails:
// a missing or invalid token is simply an unauthenticated session.
func (s *authService) Introspect(token string) models.SessionResponse {
	if token == "" {
		return models.SessionResponse{Authenticated: false}
	}
	user, err := s.codec.Verify(token)
	if err != nil {
		s.logger.Debug("Session introspection rejected token", zap.Error(err))
		return models.SessionResponse{Authenticated: false}
	}
	return models.SessionResponse{Authenticated: true, User: user}
}

// SessionTTL returns the lifetime of issued sessions
func (s *authService) SessionTTL() time.Duration {
	return s.codec.TTL()
}

// SeedAdmin creates the first admin when the store is empty.
// It reports whether an account was created.
func (s *authService) SeedAdmin(ctx context.Context, email, password, name string) (bool, error) {
	email = models.NormalizeEmail(email)
	if email == "" || password == "" {
		return false, nil
	}

	n, err := s.users.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to count users: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return false, err
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         models.RoleAdmin,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			// Another instance seeded first
			return false, nil
		}
		return false, fmt.Errorf("failed to create admin: %w", err)
	}

	s.logger.Info("Seeded bootstrap admin", zap.Int("user_id", user.ID), zap.String("email", email))
	return true, nil
}
