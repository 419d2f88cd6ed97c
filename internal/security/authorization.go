package security

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/aswell/training-system/internal/domain"
	"github.com/aswell/training-system/internal/observability/metrics"
	"github.com/aswell/training-system/internal/security/auth"
)

// Capability identifies an admin-gated action.
type Capability string

const (
	CapCreateCompany  Capability = "create_company"
	CapManageCompany  Capability = "manage_company"
	CapListCompanies  Capability = "list_companies"
	CapManageUsers    Capability = "manage_users"
	CapManageRoles    Capability = "manage_roles"
	CapManageTraining Capability = "manage_training"
)

// Policy is the single authorization decision point. Every role check in the
// system goes through Allow; handlers and services never compare role
// strings themselves.
type Policy struct {
	logger *slog.Logger
}

// NewPolicy creates an authorization policy.
func NewPolicy(logger *slog.Logger) *Policy {
	if logger == nil {
		logger = slog.Default()
	}
	return &Policy{logger: logger}
}

// Allow decides whether the principal may perform the capability against the
// target company. The rules:
//
//   - no principal: denied
//   - SYSTEM_ADMIN: allowed for anything, any target
//   - ADMIN: allowed only when the target company is the principal's own;
//     a tenant-agnostic action (nil target) is denied
//   - TRAINER/TRAINEE: denied for every admin-gated capability
//
// Denial is always a boolean false, never an error; the caller decides how
// to surface it.
func (p *Policy) Allow(principal *auth.Principal, capability Capability, targetCompanyID *uuid.UUID) bool {
	allowed := p.decide(principal, capability, targetCompanyID)
	metrics.ObserveAuthzDecision(string(capability), allowed)
	return allowed
}

func (p *Policy) decide(principal *auth.Principal, capability Capability, targetCompanyID *uuid.UUID) bool {
	if principal == nil {
		return false
	}
	if principal.HasRole(domain.RoleSystemAdmin) {
		return true
	}
	if principal.HasRole(domain.RoleAdmin) {
		if targetCompanyID != nil && *targetCompanyID == principal.CompanyID {
			return true
		}
		p.logger.Warn("tenant access denied",
			slog.String("capability", string(capability)),
			slog.String("user_id", principal.UserID.String()),
			slog.String("user_company", principal.CompanyID.String()),
		)
		return false
	}
	p.logger.Warn("permission denied",
		slog.String("capability", string(capability)),
		slog.String("user_id", principal.UserID.String()),
	)
	return false
}
