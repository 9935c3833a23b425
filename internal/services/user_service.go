package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/HuseyinEmreTech/Ybs-Web-Sitesi-sub000/internal/models"
	"github.com/HuseyinEmreTech/Ybs-Web-Sitesi-sub000/internal/repositories"
	"go.uber.org/zap"
)

// UserRepository is the interface that wraps methods for account administration
type UserRepository interface {
	// Method List returns every account ordered by ID.
	List(ctx context.Context) ([]models.User, error)
	// Method GetByID retrieves an account by ID.
	//
	// If the account does not exist, repositories.ErrNotFound is returned.
	GetByID(ctx context.Context, id int) (*models.User, error)
	// Method Create inserts a new account and sets its ID.
	//
	// If the email is taken, repositories.ErrDuplicateEmail is returned.
	Create(ctx context.Context, user *models.User) error
	// Method Update writes the set fields of changes and returns the stored account.
	//
	// If the account does not exist, repositories.ErrNotFound is returned.
	// Demoting the only admin returns repositories.ErrLastAdmin.
	Update(ctx context.Context, id int, changes *models.UserChanges) (*models.User, error)
	// Method Delete removes an account.
	//
	// Deleting the only admin returns repositories.ErrLastAdmin.
	Delete(ctx context.Context, id int) error
}

// emailRegex validates email format
var emailRegex = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)

// minPasswordLength is the shortest password accepted for new or changed accounts
const minPasswordLength = 8

// maxPasswordBytes is the longest input bcrypt accepts
const maxPasswordBytes = 72

// userService implements admin panel account management
type userService struct {
	repo   UserRepository
	hasher PasswordHasher
	logger *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(repo UserRepository, hasher PasswordHasher, logger *zap.Logger) *userService {
	return &userService{
		repo:   repo,
		hasher: hasher,
		logger: logger,
	}
}

// ListUsers returns every account
func (s *userService) ListUsers(ctx context.Context) ([]models.UserResponse, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, users[i].ToResponse())
	}
	return out, nil
}

// GetUser returns one account
func (s *userService) GetUser(ctx context.Context, id int) (*models.UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err)
	}
	resp := user.ToResponse()
	return &resp, nil
}

// CreateUser validates and stores a new account. The role defaults to editor.
func (s *userService) CreateUser(ctx context.Context, req *models.CreateUserRequest) (*models.UserResponse, error) {
	email := models.NormalizeEmail(req.Email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validationErrorf("name is required")
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}
	role := req.Role
	if role == "" {
		role = models.RoleEditor
	}
	if !role.Valid() {
		return nil, validationErrorf("role must be %q or %q", models.RoleAdmin, models.RoleEditor)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		ImageURL:     strings.TrimSpace(req.ImageURL),
		Role:         role,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, translateRepoError(err)
	}

	s.logger.Info("User created", zap.Int("user_id", user.ID), zap.String("role", string(role)))

	created, err := s.repo.GetByID(ctx, user.ID)
	if err != nil {
		// The insert succeeded; answer with what we know
		resp := user.ToResponse()
		return &resp, nil
	}
	resp := created.ToResponse()
	return &resp, nil
}

// UpdateUser applies a partial update. A new password is hashed before storing.
// Only the requested fields are written.
func (s *userService) UpdateUser(ctx context.Context, id int, req *models.UpdateUserRequest) (*models.UserResponse, error) {
	changes := &models.UserChanges{}

	if req.Email != nil {
		email := models.NormalizeEmail(*req.Email)
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		changes.Email = &email
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, validationErrorf("name cannot be empty")
		}
		changes.Name = &name
	}
	if req.ImageURL != nil {
		imageURL := strings.TrimSpace(*req.ImageURL)
		changes.ImageURL = &imageURL
	}
	if req.Role != nil {
		if !req.Role.Valid() {
			return nil, validationErrorf("role must be %q or %q", models.RoleAdmin, models.RoleEditor)
		}
		role := *req.Role
		changes.Role = &role
	}
	if req.Password != nil {
		if err := validatePassword(*req.Password); err != nil {
			return nil, err
		}
		hash, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, err
		}
		changes.PasswordHash = &hash
	}

	user, err := s.repo.Update(ctx, id, changes)
	if err != nil {
		return nil, translateRepoError(err)
	}

	s.logger.Info("User updated", zap.Int("user_id", id))
	resp := user.ToResponse()
	return &resp, nil
}

// DeleteUser removes an account unless it is the last admin
func (s *userService) DeleteUser(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return translateRepoError(err)
	}
	s.logger.Info("User deleted", zap.Int("user_id", id))
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return validationErrorf("email is required")
	}
	if !emailRegex.MatchString(email) {
		return validationErrorf("invalid email format")
	}
	return nil
}

func validatePassword(password string) error {
	if len([]rune(password)) < minPasswordLength {
		return validationErrorf("password must be at least %d characters", minPasswordLength)
	}
	if len(password) > maxPasswordBytes {
		return validationErrorf("password must be at most %d bytes", maxPasswordBytes)
	}
	return nil
}

// translateRepoError maps storage errors to service errors
func translateRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return ErrUserNotFound
	case errors.Is(err, repositories.ErrDuplicateEmail):
		return ErrEmailTaken
	case errors.Is(err, repositories.ErrLastAdmin):
		return ErrLastAdminProtected
	default:
		return fmt.Errorf("user store: %w", err)
	}
}
