package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/aswell/training-system/internal/domain"
)

// Seeder ensures the base role catalog and demo tenant exist. Every step is
// idempotent so it can run on every startup.
type Seeder struct {
	companies domain.CompanyRepository
	users     domain.UserRepository
	roles     domain.RoleRepository
	userRoles domain.UserRoleRepository
	logger    *slog.Logger
}

// NewSeeder creates a bootstrap seeder.
func NewSeeder(
	companies domain.CompanyRepository,
	users domain.UserRepository,
	roles domain.RoleRepository,
	userRoles domain.UserRoleRepository,
	logger *slog.Logger,
) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{
		companies: companies,
		users:     users,
		roles:     roles,
		userRoles: userRoles,
		logger:    logger,
	}
}

var baseRoles = []domain.Role{
	{ID: 1, Code: domain.RoleSystemAdmin, Label: "System administrator", Description: "Operates every tenant", SortOrder: 1},
	{ID: 2, Code: domain.RoleAdmin, Label: "Administrator", Description: "Manages one company", SortOrder: 2},
	{ID: 3, Code: domain.RoleTrainer, Label: "Trainer", Description: "Runs training for assigned trainees", SortOrder: 3},
	{ID: 4, Code: domain.RoleTrainee, Label: "Trainee", Description: "Receives training", SortOrder: 4},
}

const (
	demoCompanyName  = "demo"
	demoAdminLoginID = "admin"
	demoAdminName    = "Demo Administrator"
	demoAdminEmail   = "admin@demo.example.com"
	// development convenience only, never valid in production deployments
	demoAdminPassword = "Password123!"
)

// SeedRoles inserts any base role missing from the catalog.
func (s *Seeder) SeedRoles() error {
	for i := range baseRoles {
		role := baseRoles[i]
		exists, err := s.roles.ExistsByCode(role.Code)
		if err != nil {
			return fmt.Errorf("failed to check role %s: %w", role.Code, err)
		}
		if exists {
			continue
		}
		if err := s.roles.Create(&role); err != nil {
			return fmt.Errorf("failed to seed role %s: %w", role.Code, err)
		}
		s.logger.Info("seeded role", slog.String("code", role.Code))
	}
	return nil
}

// SeedDemoTenant creates the demo company and its system administrator when
// absent. Roles must already be seeded.
func (s *Seeder) SeedDemoTenant() error {
	company, err := s.companies.GetByName(demoCompanyName)
	if errors.Is(err, domain.ErrNotFound) {
		company = &domain.Company{
			Name:         demoCompanyName,
			BillingEmail: demoAdminEmail,
			Flag:         domain.FlagActive,
		}
		if err := s.companies.Create(company); err != nil {
			return fmt.Errorf("failed to seed demo company: %w", err)
		}
		s.logger.Info("seeded demo company", slog.String("id", company.ID.String()))
	} else if err != nil {
		return fmt.Errorf("failed to look up demo company: %w", err)
	}

	exists, err := s.users.ExistsByCompanyAndLoginID(company.ID, demoAdminLoginID)
	if err != nil {
		return fmt.Errorf("failed to check demo admin: %w", err)
	}
	if exists {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(demoAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash demo admin password: %w", err)
	}

	user := &domain.User{
		CompanyID:    company.ID,
		LoginID:      demoAdminLoginID,
		PasswordHash: string(hash),
		Name:         demoAdminName,
		Email:        demoAdminEmail,
		Flag:         domain.FlagActive,
	}
	if err := s.users.Create(user); err != nil {
		return fmt.Errorf("failed to seed demo admin: %w", err)
	}

	role, err := s.roles.GetByCode(domain.RoleSystemAdmin)
	if err != nil {
		return fmt.Errorf("failed to resolve %s role: %w", domain.RoleSystemAdmin, err)
	}
	link := &domain.UserRole{UserID: user.ID, RoleID: role.ID}
	if err := s.userRoles.Create(link); err != nil {
		return fmt.Errorf("failed to grant demo admin role: %w", err)
	}

	s.logger.Info("seeded demo admin",
		slog.String("company", demoCompanyName),
		slog.String("login_id", demoAdminLoginID),
	)
	return nil
}

// Run seeds roles, then the demo tenant when seedDemo is set.
func (s *Seeder) Run(seedDemo bool) error {
	if err := s.SeedRoles(); err != nil {
		return err
	}
	if !seedDemo {
		return nil
	}
	return s.SeedDemoTenant()
}
