package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/aswell/training-system/internal/domain"
	"github.com/aswell/training-system/internal/security/middleware"
	"github.com/aswell/training-system/internal/service"
)

// CompanyResponse is the JSON view of a company.
type CompanyResponse struct {
	ID           uuid.UUID   `json:"id"`
	Name         string      `json:"name"`
	BillingEmail string      `json:"billingEmail"`
	Flag         domain.Flag `json:"flag"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

func toCompanyResponse(c *domain.Company) CompanyResponse {
	return CompanyResponse{
		ID:           c.ID,
		Name:         c.Name,
		BillingEmail: c.BillingEmail,
		Flag:         c.Flag,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

// CreateCompanyRequest creates a company along with its initial admin user.
type CreateCompanyRequest struct {
	Name          string `json:"name"`
	BillingEmail  string `json:"billingEmail"`
	AdminLoginID  string `json:"adminLoginId"`
	AdminPassword string `json:"adminPassword"`
	AdminName     string `json:"adminName"`
	AdminEmail    string `json:"adminEmail"`
}

// UpdateCompanyRequest is a partial company update.
type UpdateCompanyRequest struct {
	Name         *string      `json:"name"`
	BillingEmail *string      `json:"billingEmail"`
	Flag         *domain.Flag `json:"flag"`
}

// CompanyHandler serves /api/companies.
type CompanyHandler struct {
	companies *service.CompanyService
	logger    *slog.Logger
}

// NewCompanyHandler creates a new company handler.
func NewCompanyHandler(companies *service.CompanyService, logger *slog.Logger) *CompanyHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CompanyHandler{companies: companies, logger: logger}
}

// List handles GET /api/companies.
func (h *CompanyHandler) List(w http.ResponseWriter, r *http.Request) {
	actor := middleware.PrincipalFromContext(r.Context())
	companies, err := h.companies.List(actor, r.URL.Query().Get("keyword"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	out := make([]CompanyResponse, 0, len(companies))
	for _, c := range companies {
		out = append(out, toCompanyResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

// Get handles GET /api/companies/{id}.
func (h *CompanyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDPath(w, r, "id")
	if !ok {
		return
	}

	actor := middleware.PrincipalFromContext(r.Context())
	company, err := h.companies.Get(actor, id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toCompanyResponse(company))
}

// Create handles POST /api/companies.
func (h *CompanyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCompanyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" || req.AdminLoginID == "" || req.AdminPassword == "" {
		writeError(w, http.StatusBadRequest, "name, adminLoginId and adminPassword are required")
		return
	}

	actor := middleware.PrincipalFromContext(r.Context())
	company, err := h.companies.Create(actor, service.CreateCompanyParams{
		Name:          req.Name,
		BillingEmail:  req.BillingEmail,
		AdminLoginID:  req.AdminLoginID,
		AdminPassword: req.AdminPassword,
		AdminName:     req.AdminName,
		AdminEmail:    req.AdminEmail,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCompanyResponse(company))
}

// Update handles PUT /api/companies/{id}.
func (h *CompanyHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDPath(w, r, "id")
	if !ok {
		return
	}

	var req UpdateCompanyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	actor := middleware.PrincipalFromContext(r.Context())
	company, err := h.companies.Update(actor, id, service.UpdateCompanyParams{
		Name:         req.Name,
		BillingEmail: req.BillingEmail,
		Flag:         req.Flag,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toCompanyResponse(company))
}

// Delete handles DELETE /api/companies/{id}.
func (h *CompanyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDPath(w, r, "id")
	if !ok {
		return
	}

	actor := middleware.PrincipalFromContext(r.Context())
	if err := h.companies.Delete(actor, id); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseUUIDPath(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return uuid.Nil, false
	}
	return id, true
}
