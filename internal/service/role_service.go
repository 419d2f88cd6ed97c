package service

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/aswell/training-system/internal/domain"
	"github.com/aswell/training-system/internal/security"
	"github.com/aswell/training-system/internal/security/auth"
)

// RoleService manages the fixed role catalog. Mutations are SYSTEM_ADMIN
// only; the catalog is tenant-agnostic, so a plain ADMIN is always denied.
type RoleService struct {
	roles     domain.RoleRepository
	userRoles domain.UserRoleRepository
	policy    *security.Policy
	logger    *slog.Logger
}

// NewRoleService creates a new role service.
func NewRoleService(
	roles domain.RoleRepository,
	userRoles domain.UserRoleRepository,
	policy *security.Policy,
	logger *slog.Logger,
) *RoleService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RoleService{roles: roles, userRoles: userRoles, policy: policy, logger: logger}
}

// RoleParams carries role create/update fields.
type RoleParams struct {
	Code        string
	Label       string
	Description string
	SortOrder   int16
}

// List returns the catalog ordered by sort rank, then code.
func (s *RoleService) List() ([]*domain.Role, error) {
	roles, err := s.roles.List()
	if err != nil {
		return nil, fmt.Errorf("role list failed: %w", err)
	}
	return roles, nil
}

// Create adds a role to the catalog.
func (s *RoleService) Create(actor *auth.Principal, p RoleParams) (*domain.Role, error) {
	if !s.policy.Allow(actor, security.CapManageRoles, nil) {
		return nil, ErrForbidden
	}
	exists, err := s.roles.ExistsByCode(p.Code)
	if err != nil {
		return nil, fmt.Errorf("role code check failed: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: role code", ErrConflict)
	}

	role := &domain.Role{
		ID:          0, // assigned below
		Code:        p.Code,
		Label:       p.Label,
		Description: p.Description,
		SortOrder:   p.SortOrder,
	}
	existing, err := s.roles.List()
	if err != nil {
		return nil, fmt.Errorf("role list failed: %w", err)
	}
	for _, r := range existing {
		if r.ID >= role.ID {
			role.ID = r.ID + 1
		}
	}
	if role.ID == 0 {
		role.ID = 1
	}

	if err := s.roles.Create(role); err != nil {
		return nil, fmt.Errorf("failed to create role: %w", err)
	}
	s.logger.Info("role created", slog.String("code", role.Code), slog.Int("role_id", int(role.ID)))
	return role, nil
}

// Update edits a role's code, label, description or sort rank.
func (s *RoleService) Update(actor *auth.Principal, roleID int16, p RoleParams) (*domain.Role, error) {
	if !s.policy.Allow(actor, security.CapManageRoles, nil) {
		return nil, ErrForbidden
	}
	role, err := s.roles.GetByID(roleID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: role", ErrNotFound)
		}
		return nil, fmt.Errorf("role lookup failed: %w", err)
	}

	if p.Code != "" && p.Code != role.Code {
		other, err := s.roles.GetByCode(p.Code)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("role code check failed: %w", err)
		}
		if err == nil && other.ID != roleID {
			return nil, fmt.Errorf("%w: role code", ErrConflict)
		}
		role.Code = p.Code
	}
	if p.Label != "" {
		role.Label = p.Label
	}
	role.Description = p.Description
	if p.SortOrder != 0 {
		role.SortOrder = p.SortOrder
	}

	if err := s.roles.Update(role); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	return role, nil
}

// Delete removes a role. It conflicts while any user still holds it.
func (s *RoleService) Delete(actor *auth.Principal, roleID int16) error {
	if !s.policy.Allow(actor, security.CapManageRoles, nil) {
		return ErrForbidden
	}
	assigned, err := s.userRoles.ExistsByRole(roleID)
	if err != nil {
		return fmt.Errorf("role assignment check failed: %w", err)
	}
	if assigned {
		return fmt.Errorf("%w: role is assigned to users", ErrConflict)
	}
	if err := s.roles.Delete(roleID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: role", ErrNotFound)
		}
		return fmt.Errorf("failed to delete role: %w", err)
	}
	return nil
}
