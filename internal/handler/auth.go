package handler

import (
	"log/slog"
	"net/http"

	"github.com/aswell/training-system/internal/security/middleware"
	"github.com/aswell/training-system/internal/service"
)

// RegisterRequest carries a self-registration request.
type RegisterRequest struct {
	CompanyName string   `json:"companyName"`
	LoginID     string   `json:"loginId"`
	Password    string   `json:"password"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Roles       []string `json:"roles,omitempty"`
}

// LoginRequest carries login credentials.
type LoginRequest struct {
	CompanyName string `json:"companyName"`
	LoginID     string `json:"loginId"`
	Password    string `json:"password"`
}

// AuthHandler serves the authentication endpoints.
type AuthHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(auth *service.AuthService, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{auth: auth, logger: logger}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.CompanyName == "" || req.LoginID == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "companyName, loginId and password are required")
		return
	}

	result, err := h.auth.Register(service.RegisterParams{
		CompanyName: req.CompanyName,
		LoginID:     req.LoginID,
		Password:    req.Password,
		Name:        req.Name,
		Email:       req.Email,
		RoleCodes:   req.Roles,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.CompanyName == "" || req.LoginID == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "companyName, loginId and password are required")
		return
	}

	result, err := h.auth.Login(req.CompanyName, req.LoginID, req.Password)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Logout handles POST /api/auth/logout. Sessions are stateless, so there is
// nothing to revoke server side; clients discard the token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal := middleware.PrincipalFromContext(r.Context())
	if principal == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	writeJSON(w, http.StatusOK, service.UserProfile{
		UserID:      principal.UserID,
		CompanyID:   principal.CompanyID,
		CompanyName: principal.CompanyName,
		LoginID:     principal.LoginID,
		Name:        principal.Name,
		Email:       principal.Email,
		Roles:       principal.Roles,
	})
}
