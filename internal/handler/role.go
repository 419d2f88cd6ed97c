package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aswell/training-system/internal/domain"
	"github.com/aswell/training-system/internal/security/middleware"
	"github.com/aswell/training-system/internal/service"
)

// RoleResponse is the JSON view of a role catalog entry.
type RoleResponse struct {
	ID          int16  `json:"id"`
	Code        string `json:"code"`
	Label       string `json:"label"`
	Description string `json:"description"`
	SortOrder   int16  `json:"sortOrder"`
}

func toRoleResponse(r *domain.Role) RoleResponse {
	return RoleResponse{
		ID:          r.ID,
		Code:        r.Code,
		Label:       r.Label,
		Description: r.Description,
		SortOrder:   r.SortOrder,
	}
}

// RoleRequest carries role create/update fields.
type RoleRequest struct {
	Code        string `json:"code"`
	Label       string `json:"label"`
	Description string `json:"description"`
	SortOrder   int16  `json:"sortOrder"`
}

// RoleHandler serves /api/roles.
type RoleHandler struct {
	roles  *service.RoleService
	logger *slog.Logger
}

// NewRoleHandler creates a new role handler.
func NewRoleHandler(roles *service.RoleService, logger *slog.Logger) *RoleHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RoleHandler{roles: roles, logger: logger}
}

// List handles GET /api/roles.
func (h *RoleHandler) List(w http.ResponseWriter, r *http.Request) {
	roles, err := h.roles.List()
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	out := make([]RoleResponse, 0, len(roles))
	for _, role := range roles {
		out = append(out, toRoleResponse(role))
	}
	writeJSON(w, http.StatusOK, out)
}

// Create handles POST /api/roles.
func (h *RoleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req RoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	actor := middleware.PrincipalFromContext(r.Context())
	role, err := h.roles.Create(actor, service.RoleParams{
		Code:        req.Code,
		Label:       req.Label,
		Description: req.Description,
		SortOrder:   req.SortOrder,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRoleResponse(role))
}

// Update handles PUT /api/roles/{id}.
func (h *RoleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseRoleID(w, r)
	if !ok {
		return
	}

	var req RoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	actor := middleware.PrincipalFromContext(r.Context())
	role, err := h.roles.Update(actor, id, service.RoleParams{
		Code:        req.Code,
		Label:       req.Label,
		Description: req.Description,
		SortOrder:   req.SortOrder,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoleResponse(role))
}

// Delete handles DELETE /api/roles/{id}.
func (h *RoleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseRoleID(w, r)
	if !ok {
		return
	}

	actor := middleware.PrincipalFromContext(r.Context())
	if err := h.roles.Delete(actor, id); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseRoleID(w http.ResponseWriter, r *http.Request) (int16, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 16)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return int16(id), true
}
