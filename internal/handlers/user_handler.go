package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	authmiddleware "github.com/HuseyinEmreTech/Ybs-Web-Sitesi-sub000/internal/auth/middleware"
	"github.com/HuseyinEmreTech/Ybs-Web-Sitesi-sub000/internal/models"
	"github.com/HuseyinEmreTech/Ybs-Web-Sitesi-sub000/internal/services"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// UserService is the interface that wraps methods for admin panel account management.
type UserService interface {
	// Method ListUsers returns every account.
	ListUsers(ctx context.Context) ([]models.UserResponse, error)
	// Method GetUser returns one account or services.ErrUserNotFound.
	GetUser(ctx context.Context, id int) (*models.UserResponse, error)
	// Method CreateUser validates and stores a new account.
	//
	// Returns *services.ValidationError for bad input and services.ErrEmailTaken for a duplicate email.
	CreateUser(ctx context.Context, req *models.CreateUserRequest) (*models.UserResponse, error)
	// Method UpdateUser applies a partial update.
	//
	// Demoting the last admin returns services.ErrLastAdminProtected.
	UpdateUser(ctx context.Context, id int, req *models.UpdateUserRequest) (*models.UserResponse, error)
	// Method DeleteUser removes an account.
	//
	// Deleting the last admin returns services.ErrLastAdminProtected.
	DeleteUser(ctx context.Context, id int) error
}

// RequestAuthenticator checks the session of a request inside a handler
type RequestAuthenticator interface {
	RequireAuth(r *http.Request) (*models.SessionUser, error)
	RequireRole(r *http.Request, role models.Role) (*models.SessionUser, error)
}

// UserHandler handles account administration. Every route requires an admin session,
// checked here in addition to the route guard.
type UserHandler struct {
	BaseHandler
	userService UserService
	auth        RequestAuthenticator
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService UserService, auth RequestAuthenticator, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: BaseHandler{Logger: logger},
		userService: userService,
		auth:        auth,
	}
}

// RegisterRoutes registers all user handler routes
// Note: This assumes the router is already scoped to /api
func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Patch("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// requireAdmin writes 401 or 403 and returns false when the request may not manage users
func (h *UserHandler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	_, err := h.auth.RequireRole(r, models.RoleAdmin)
	switch {
	case err == nil:
		return true
	case errors.Is(err, authmiddleware.ErrForbidden):
		h.RespondError(w, http.StatusForbidden, "Forbidden")
	default:
		h.RespondError(w, http.StatusUnauthorized, "Unauthorized")
	}
	return false
}

// List handles GET /users
// @Summary List accounts
// @Tags users
// @Security SessionCookie
// @Produce json
// @Success 200 {array} models.UserResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Admin role required"
// @Router /users [get]
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	users, err := h.userService.ListUsers(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, users)
}

// Get handles GET /users/{id}
// @Summary Get an account
// @Tags users
// @Security SessionCookie
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.UserResponse
// @Failure 404 {object} map[string]string "User not found"
// @Router /users/{id} [get]
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	user, err := h.userService.GetUser(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, user)
}

// Create handles POST /users
// @Summary Create an account
// @Tags users
// @Security SessionCookie
// @Accept json
// @Produce json
// @Param request body models.CreateUserRequest true "New account"
// @Success 201 {object} models.UserResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 409 {object} map[string]string "Email already in use"
// @Router /users [post]
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	var req models.CreateUserRequest
	if err := DecodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.userService.CreateUser(r.Context(), &req)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusCreated, user)
}

// Update handles PATCH /users/{id}
// @Summary Update an account
// @Tags users
// @Security SessionCookie
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body models.UpdateUserRequest true "Fields to change"
// @Success 200 {object} models.UserResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 404 {object} map[string]string "User not found"
// @Failure 409 {object} map[string]string "Email in use or last admin"
// @Router /users/{id} [patch]
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req models.UpdateUserRequest
	if err := DecodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.userService.UpdateUser(r.Context(), id, &req)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, user)
}

// Delete handles DELETE /users/{id}
// @Summary Delete an account
// @Description The last remaining admin cannot be deleted.
// @Tags users
// @Security SessionCookie
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string "User not found"
// @Failure 409 {object} map[string]string "Last admin"
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.userService.DeleteUser(r.Context(), id); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

func (h *UserHandler) pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		h.RespondError(w, http.StatusBadRequest, "invalid user id")
		return 0, false
	}
	return id, true
}

func (h *UserHandler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		h.RespondError(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, services.ErrUserNotFound):
		h.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrEmailTaken), errors.Is(err, services.ErrLastAdminProtected):
		h.RespondError(w, http.StatusConflict, err.Error())
	default:
		h.RespondInternalError(w, r, "user administration failed", err)
	}
}
