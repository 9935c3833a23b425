package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	authservice "github.com/HuseyinEmreTech/Ybs-Web-Sitesi-sub000/internal/auth/service"
	"github.com/HuseyinEmreTech/Ybs-Web-Sitesi-sub000/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func ptr[T any](v T) *T { return &v }

func newUserFixture(users ...*models.User) (*userService, *mockUserRepository) {
	repo := newMockUserRepository(users...)
	return NewUserService(repo, authservice.NewPasswordHasher(bcrypt.MinCost), zap.NewNop()), repo
}

func seedUsers() []*models.User {
	return []*models.User{
		{ID: 1, Email: "admin@ybs.example.edu", PasswordHash: "$2a$04$x", Name: "Admin", Role: models.RoleAdmin},
		{ID: 2, Email: "editor@ybs.example.edu", PasswordHash: "$2a$04$y", Name: "Editor", Role: models.RoleEditor},
	}
}

func TestUserService_ListAndGet(t *testing.T) {
	svc, repo := newUserFixture(seedUsers()...)
	ctx := context.Background()

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "admin@ybs.example.edu", users[0].Email)
	assert.Equal(t, models.RoleEditor, users[1].Role)

	user, err := svc.GetUser(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Editor", user.Name)

	_, err = svc.GetUser(ctx, 99)
	assert.ErrorIs(t, err, ErrUserNotFound)

	repo.getErr = errors.New("db down")
	_, err = svc.ListUsers(ctx)
	assert.Error(t, err)
}

func TestUserService_CreateUser(t *testing.T) {
	tests := []struct {
		name          string
		req           models.CreateUserRequest
		expectedError error
		expectInvalid bool
		expectedRole  models.Role
	}{
		{
			name:         "editor by default",
			req:          models.CreateUserRequest{Email: " New@YBS.example.edu", Password: "guclu-sifre", Name: " Yeni Üye "},
			expectedRole: models.RoleEditor,
		},
		{
			name:         "explicit admin",
			req:          models.CreateUserRequest{Email: "boss@ybs.example.edu", Password: "guclu-sifre", Name: "Boss", Role: models.RoleAdmin},
			expectedRole: models.RoleAdmin,
		},
		{
			name:          "duplicate email",
			req:           models.CreateUserRequest{Email: "ADMIN@ybs.example.edu", Password: "guclu-sifre", Name: "Dup"},
			expectedError: ErrEmailTaken,
		},
		{name: "missing email", req: models.CreateUserRequest{Password: "guclu-sifre", Name: "N"}, expectInvalid: true},
		{name: "invalid email", req: models.CreateUserRequest{Email: "not-an-email", Password: "guclu-sifre", Name: "N"}, expectInvalid: true},
		{name: "missing name", req: models.CreateUserRequest{Email: "n@ybs.example.edu", Password: "guclu-sifre", Name: "  "}, expectInvalid: true},
		{name: "short password", req: models.CreateUserRequest{Email: "n@ybs.example.edu", Password: "kisa", Name: "N"}, expectInvalid: true},
		{name: "password over 72 bytes", req: models.CreateUserRequest{Email: "n@ybs.example.edu", Password: strings.Repeat("a", 73), Name: "N"}, expectInvalid: true},
		{name: "multibyte password over 72 bytes", req: models.CreateUserRequest{Email: "n@ybs.example.edu", Password: strings.Repeat("ş", 40), Name: "N"}, expectInvalid: true},
		{
			name:         "password of exactly 72 bytes",
			req:          models.CreateUserRequest{Email: "n@ybs.example.edu", Password: strings.Repeat("a", 72), Name: "N"},
			expectedRole: models.RoleEditor,
		},
		{name: "unknown role", req: models.CreateUserRequest{Email: "n@ybs.example.edu", Password: "guclu-sifre", Name: "N", Role: "owner"}, expectInvalid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newUserFixture(seedUsers()...)
			req := tt.req

			resp, err := svc.CreateUser(context.Background(), &req)

			switch {
			case tt.expectedError != nil:
				assert.ErrorIs(t, err, tt.expectedError)
			case tt.expectInvalid:
				var verr *ValidationError
				assert.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
				assert.Nil(t, resp)
			default:
				require.NoError(t, err)
				assert.Equal(t, 3, resp.ID)
				assert.Equal(t, models.NormalizeEmail(tt.req.Email), resp.Email)
				assert.Equal(t, tt.expectedRole, resp.Role)

				stored := repo.stored(resp.ID)
				assert.NotEqual(t, tt.req.Password, stored.PasswordHash)
				assert.True(t, authservice.NewPasswordHasher(bcrypt.MinCost).Verify(tt.req.Password, stored.PasswordHash))
			}
		})
	}
}

func TestUserService_UpdateUser(t *testing.T) {
	t.Run("partial update", func(t *testing.T) {
		svc, repo := newUserFixture(seedUsers()...)

		resp, err := svc.UpdateUser(context.Background(), 2, &models.UpdateUserRequest{
			Name:     ptr("Editör"),
			ImageURL: ptr("/images/editor.jpg"),
		})
		require.NoError(t, err)
		assert.Equal(t, "Editör", resp.Name)
		assert.Equal(t, "editor@ybs.example.edu", resp.Email)
		assert.Equal(t, "$2a$04$y", repo.stored(2).PasswordHash)

		// Untouched fields are not written back
		require.NotNil(t, repo.lastChanges)
		assert.Nil(t, repo.lastChanges.Email)
		assert.Nil(t, repo.lastChanges.PasswordHash)
		assert.Nil(t, repo.lastChanges.Role)
	})

	t.Run("password changed elsewhere is kept", func(t *testing.T) {
		svc, repo := newUserFixture(seedUsers()...)
		require.NoError(t, repo.UpdatePasswordHash(context.Background(), 2, "$2a$04$rehashed"))

		_, err := svc.UpdateUser(context.Background(), 2, &models.UpdateUserRequest{Name: ptr("Editör")})
		require.NoError(t, err)
		assert.Equal(t, "$2a$04$rehashed", repo.stored(2).PasswordHash)
	})

	t.Run("password is hashed", func(t *testing.T) {
		svc, repo := newUserFixture(seedUsers()...)

		_, err := svc.UpdateUser(context.Background(), 2, &models.UpdateUserRequest{Password: ptr("yeni-sifre-123")})
		require.NoError(t, err)
		assert.True(t, authservice.NewPasswordHasher(bcrypt.MinCost).Verify("yeni-sifre-123", repo.stored(2).PasswordHash))
	})

	t.Run("promote editor", func(t *testing.T) {
		svc, _ := newUserFixture(seedUsers()...)

		resp, err := svc.UpdateUser(context.Background(), 2, &models.UpdateUserRequest{Role: ptr(models.RoleAdmin)})
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, resp.Role)
	})

	t.Run("demote last admin", func(t *testing.T) {
		svc, repo := newUserFixture(seedUsers()...)

		_, err := svc.UpdateUser(context.Background(), 1, &models.UpdateUserRequest{Role: ptr(models.RoleEditor)})
		assert.ErrorIs(t, err, ErrLastAdminProtected)
		assert.Equal(t, models.RoleAdmin, repo.stored(1).Role)
	})

	t.Run("email taken", func(t *testing.T) {
		svc, _ := newUserFixture(seedUsers()...)

		_, err := svc.UpdateUser(context.Background(), 2, &models.UpdateUserRequest{Email: ptr("Admin@ybs.example.edu")})
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("not found", func(t *testing.T) {
		svc, _ := newUserFixture(seedUsers()...)

		_, err := svc.UpdateUser(context.Background(), 42, &models.UpdateUserRequest{Name: ptr("X")})
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	invalid := []struct {
		name string
		req  models.UpdateUserRequest
	}{
		{name: "empty name", req: models.UpdateUserRequest{Name: ptr(" ")}},
		{name: "bad email", req: models.UpdateUserRequest{Email: ptr("nope")}},
		{name: "bad role", req: models.UpdateUserRequest{Role: ptr(models.Role("root"))}},
		{name: "short password", req: models.UpdateUserRequest{Password: ptr("1234567")}},
		{name: "password over 72 bytes", req: models.UpdateUserRequest{Password: ptr(strings.Repeat("x", 80))}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newUserFixture(seedUsers()...)
			req := tt.req

			_, err := svc.UpdateUser(context.Background(), 2, &req)
			var verr *ValidationError
			assert.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
			assert.Nil(t, repo.lastChanges, "invalid input must not reach the store")
		})
	}
}

func TestUserService_DeleteUser(t *testing.T) {
	t.Run("editor", func(t *testing.T) {
		svc, repo := newUserFixture(seedUsers()...)

		require.NoError(t, svc.DeleteUser(context.Background(), 2))
		assert.Nil(t, repo.stored(2))
	})

	t.Run("sole admin", func(t *testing.T) {
		svc, repo := newUserFixture(seedUsers()...)

		err := svc.DeleteUser(context.Background(), 1)
		assert.ErrorIs(t, err, ErrLastAdminProtected)
		assert.NotNil(t, repo.stored(1))
	})

	t.Run("one of two admins", func(t *testing.T) {
		users := seedUsers()
		users[1].Role = models.RoleAdmin
		svc, repo := newUserFixture(users...)

		require.NoError(t, svc.DeleteUser(context.Background(), 1))
		assert.Nil(t, repo.stored(1))

		// The survivor is now the last admin
		assert.ErrorIs(t, svc.DeleteUser(context.Background(), 2), ErrLastAdminProtected)
	})

	t.Run("not found", func(t *testing.T) {
		svc, _ := newUserFixture(seedUsers()...)
		assert.ErrorIs(t, svc.DeleteUser(context.Background(), 9), ErrUserNotFound)
	})

	t.Run("store error", func(t *testing.T) {
		svc, repo := newUserFixture(seedUsers()...)
		repo.deleteErr = errors.New("lock wait timeout")

		err := svc.DeleteUser(context.Background(), 2)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrUserNotFound)
	})
}

func TestErrorMessages(t *testing.T) {
	assert.Contains(t, (&RateLimitedError{}).Error(), "too many login attempts")
	assert.Equal(t, "name is required", (&ValidationError{Message: "name is required"}).Error())
}
