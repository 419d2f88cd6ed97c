package handler

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/aswell/training-system/internal/domain"
	"github.com/aswell/training-system/internal/security/middleware"
	"github.com/aswell/training-system/internal/service"
)

// CreateUserRequest creates a user within the actor's company.
type CreateUserRequest struct {
	LoginID   string     `json:"loginId"`
	Password  string     `json:"password"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	TrainerID *uuid.UUID `json:"trainerId,omitempty"`
}

// UpdateUserRequest replaces profile fields and the user's single role.
type UpdateUserRequest struct {
	Name      string       `json:"name"`
	Email     string       `json:"email"`
	Flag      *domain.Flag `json:"flag,omitempty"`
	Role      string       `json:"role"`
	TrainerID *uuid.UUID   `json:"trainerId,omitempty"`
}

// UserHandler serves /api/users.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a new user handler.
func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{users: users, logger: logger}
}

// List handles GET /api/users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	actor := middleware.PrincipalFromContext(r.Context())
	users, err := h.users.List(actor, r.URL.Query().Get("keyword"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	if users == nil {
		users = []*service.UserDetail{}
	}
	writeJSON(w, http.StatusOK, users)
}

// Create handles POST /api/users.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.LoginID == "" || req.Password == "" || req.Role == "" {
		writeError(w, http.StatusBadRequest, "loginId, password and role are required")
		return
	}

	actor := middleware.PrincipalFromContext(r.Context())
	user, err := h.users.Create(actor, service.CreateUserParams{
		LoginID:   req.LoginID,
		Password:  req.Password,
		Name:      req.Name,
		Email:     req.Email,
		RoleCode:  req.Role,
		TrainerID: req.TrainerID,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Update handles PUT /api/users/{id}.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDPath(w, r, "id")
	if !ok {
		return
	}

	var req UpdateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Role == "" {
		writeError(w, http.StatusBadRequest, "role is required")
		return
	}

	actor := middleware.PrincipalFromContext(r.Context())
	user, err := h.users.Update(actor, id, service.UpdateUserParams{
		Name:      req.Name,
		Email:     req.Email,
		Flag:      req.Flag,
		RoleCode:  req.Role,
		TrainerID: req.TrainerID,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Delete handles DELETE /api/users/{id}.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDPath(w, r, "id")
	if !ok {
		return
	}

	actor := middleware.PrincipalFromContext(r.Context())
	if err := h.users.Delete(actor, id); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
