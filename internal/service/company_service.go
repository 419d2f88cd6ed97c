package service

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/aswell/training-system/internal/domain"
	"github.com/aswell/training-system/internal/security"
	"github.com/aswell/training-system/internal/security/auth"
)

// CompanyService manages tenants. A SYSTEM_ADMIN sees every company; an
// ADMIN sees and manages exactly their own.
type CompanyService struct {
	companies domain.CompanyRepository
	users     domain.UserRepository
	roles     domain.RoleRepository
	userRoles domain.UserRoleRepository
	policy    *security.Policy
	logger    *slog.Logger
}

// NewCompanyService creates a new company service.
func NewCompanyService(
	companies domain.CompanyRepository,
	users domain.UserRepository,
	roles domain.RoleRepository,
	userRoles domain.UserRoleRepository,
	policy *security.Policy,
	logger *slog.Logger,
) *CompanyService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CompanyService{
		companies: companies,
		users:     users,
		roles:     roles,
		userRoles: userRoles,
		policy:    policy,
		logger:    logger,
	}
}

// CreateCompanyParams creates a company together with its initial admin user.
type CreateCompanyParams struct {
	Name          string
	BillingEmail  string
	AdminLoginID  string
	AdminPassword string
	AdminName     string
	AdminEmail    string
}

// UpdateCompanyParams carries a partial company update.
type UpdateCompanyParams struct {
	Name         *string
	BillingEmail *string
	Flag         *domain.Flag
}

// List returns all companies for a SYSTEM_ADMIN (optionally filtered by
// keyword) and exactly the actor's own company for an ADMIN.
func (s *CompanyService) List(actor *auth.Principal, keyword string) ([]*domain.Company, error) {
	if s.policy.Allow(actor, security.CapListCompanies, nil) {
		return s.companies.List(keyword)
	}
	if actor != nil && s.policy.Allow(actor, security.CapListCompanies, &actor.CompanyID) {
		company, err := s.companies.GetByID(actor.CompanyID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return []*domain.Company{}, nil
			}
			return nil, fmt.Errorf("company lookup failed: %w", err)
		}
		return []*domain.Company{company}, nil
	}
	return nil, ErrForbidden
}

// Get returns one company, tenant-scoped for admins.
func (s *CompanyService) Get(actor *auth.Principal, companyID uuid.UUID) (*domain.Company, error) {
	if !s.policy.Allow(actor, security.CapManageCompany, &companyID) {
		return nil, ErrForbidden
	}
	company, err := s.companies.GetByID(companyID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: company", ErrNotFound)
		}
		return nil, fmt.Errorf("company lookup failed: %w", err)
	}
	return company, nil
}

// Create creates a company and its initial ADMIN user. SYSTEM_ADMIN only.
func (s *CompanyService) Create(actor *auth.Principal, p CreateCompanyParams) (*domain.Company, error) {
	if !s.policy.Allow(actor, security.CapCreateCompany, nil) {
		return nil, ErrForbidden
	}

	exists, err := s.companies.ExistsByName(p.Name)
	if err != nil {
		return nil, fmt.Errorf("company name check failed: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: company name", ErrConflict)
	}

	company := &domain.Company{
		ID:           uuid.New(),
		Name:         p.Name,
		BillingEmail: p.BillingEmail,
		Flag:         domain.FlagActive,
	}
	if err := s.companies.Create(company); err != nil {
		return nil, fmt.Errorf("failed to create company: %w", err)
	}

	adminRole, err := s.roles.GetByCode(domain.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("ADMIN role missing: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(p.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash admin password: %w", err)
	}
	admin := &domain.User{
		ID:           uuid.New(),
		CompanyID:    company.ID,
		LoginID:      p.AdminLoginID,
		PasswordHash: string(hash),
		Name:         p.AdminName,
		Email:        p.AdminEmail,
		Flag:         domain.FlagActive,
	}
	if err := s.users.Create(admin); err != nil {
		return nil, fmt.Errorf("failed to create company admin: %w", err)
	}
	link := &domain.UserRole{ID: uuid.New(), UserID: admin.ID, RoleID: adminRole.ID}
	if err := s.userRoles.Create(link); err != nil {
		return nil, fmt.Errorf("failed to assign ADMIN role: %w", err)
	}

	s.logger.Info("company created",
		slog.String("company_id", company.ID.String()),
		slog.String("name", company.Name),
		slog.String("actor", actor.UserID.String()),
	)
	return company, nil
}

// Update applies a partial update. SYSTEM_ADMIN or the company's own ADMIN.
func (s *CompanyService) Update(actor *auth.Principal, companyID uuid.UUID, p UpdateCompanyParams) (*domain.Company, error) {
	if !s.policy.Allow(actor, security.CapManageCompany, &companyID) {
		return nil, ErrForbidden
	}
	company, err := s.companies.GetByID(companyID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: company", ErrNotFound)
		}
		return nil, fmt.Errorf("company lookup failed: %w", err)
	}

	if p.Name != nil && *p.Name != "" {
		other, err := s.companies.GetByName(*p.Name)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("company name check failed: %w", err)
		}
		if err == nil && other.ID != companyID {
			return nil, fmt.Errorf("%w: company name", ErrConflict)
		}
		company.Name = *p.Name
	}
	if p.BillingEmail != nil {
		company.BillingEmail = *p.BillingEmail
	}
	if p.Flag != nil {
		company.Flag = *p.Flag
	}

	if err := s.companies.Update(company); err != nil {
		return nil, fmt.Errorf("failed to update company: %w", err)
	}
	return company, nil
}

// Delete soft-deletes the company and cascades the soft-delete to its users.
func (s *CompanyService) Delete(actor *auth.Principal, companyID uuid.UUID) error {
	if !s.policy.Allow(actor, security.CapManageCompany, &companyID) {
		return ErrForbidden
	}
	if err := s.companies.SoftDelete(companyID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: company", ErrNotFound)
		}
		return fmt.Errorf("failed to delete company: %w", err)
	}
	if err := s.users.SoftDeleteByCompany(companyID); err != nil {
		return fmt.Errorf("failed to deactivate company users: %w", err)
	}
	s.logger.Info("company soft-deleted", slog.String("company_id", companyID.String()))
	return nil
}
