package service

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/aswell/training-system/internal/domain"
	"github.com/aswell/training-system/internal/security"
	"github.com/aswell/training-system/internal/security/auth"
)

// assignableRoles are the codes an admin may hand out when creating or
// updating a user. SYSTEM_ADMIN is excluded; it is seeded, never assigned.
var assignableRoles = []string{domain.RoleAdmin, domain.RoleTrainer, domain.RoleTrainee}

// UserService manages accounts inside companies.
type UserService struct {
	users       domain.UserRepository
	companies   domain.CompanyRepository
	roles       domain.RoleRepository
	userRoles   domain.UserRoleRepository
	assignments domain.TrainerAssignmentRepository
	policy      *security.Policy
	logger      *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(
	users domain.UserRepository,
	companies domain.CompanyRepository,
	roles domain.RoleRepository,
	userRoles domain.UserRoleRepository,
	assignments domain.TrainerAssignmentRepository,
	policy *security.Policy,
	logger *slog.Logger,
) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{
		users:       users,
		companies:   companies,
		roles:       roles,
		userRoles:   userRoles,
		assignments: assignments,
		policy:      policy,
		logger:      logger,
	}
}

// UserDetail is a user row enriched with company name and role codes.
type UserDetail struct {
	UserID      uuid.UUID   `json:"userId"`
	CompanyID   uuid.UUID   `json:"companyId"`
	CompanyName string      `json:"companyName"`
	LoginID     string      `json:"loginId"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Flag        domain.Flag `json:"flag"`
	Roles       []string    `json:"roles"`
}

// CreateUserParams creates a user within the actor's company.
type CreateUserParams struct {
	LoginID   string
	Password  string
	Name      string
	Email     string
	RoleCode  string
	TrainerID *uuid.UUID // required when RoleCode is TRAINEE
}

// UpdateUserParams replaces profile fields and the user's single role.
type UpdateUserParams struct {
	Name      string
	Email     string
	Flag      *domain.Flag
	RoleCode  string
	TrainerID *uuid.UUID
}

// List returns users visible to the actor: everything for a SYSTEM_ADMIN,
// the actor's own company for an ADMIN.
func (s *UserService) List(actor *auth.Principal, keyword string) ([]*UserDetail, error) {
	var (
		users []*domain.User
		err   error
	)
	if s.policy.Allow(actor, security.CapManageUsers, nil) {
		users, err = s.users.Search(keyword)
	} else if actor != nil && s.policy.Allow(actor, security.CapManageUsers, &actor.CompanyID) {
		users, err = s.users.SearchByCompany(actor.CompanyID, keyword)
	} else {
		return nil, ErrForbidden
	}
	if err != nil {
		return nil, fmt.Errorf("user search failed: %w", err)
	}

	companyNames := map[uuid.UUID]string{}
	out := make([]*UserDetail, 0, len(users))
	for _, u := range users {
		name, ok := companyNames[u.CompanyID]
		if !ok {
			company, err := s.companies.GetByID(u.CompanyID)
			if err != nil {
				return nil, fmt.Errorf("company lookup failed: %w", err)
			}
			name = company.Name
			companyNames[u.CompanyID] = name
		}
		codes, err := s.userRoles.CodesByUser(u.ID)
		if err != nil {
			return nil, fmt.Errorf("role lookup failed: %w", err)
		}
		out = append(out, &UserDetail{
			UserID:      u.ID,
			CompanyID:   u.CompanyID,
			CompanyName: name,
			LoginID:     u.LoginID,
			Name:        u.Name,
			Email:       u.Email,
			Flag:        u.Flag,
			Roles:       codes,
		})
	}
	return out, nil
}

// Create adds a user to the actor's own company with a single role. A
// TRAINEE must be assigned a trainer from the same company.
func (s *UserService) Create(actor *auth.Principal, p CreateUserParams) (*UserDetail, error) {
	if actor == nil || !s.policy.Allow(actor, security.CapManageUsers, &actor.CompanyID) {
		return nil, ErrForbidden
	}
	if !isAssignableRole(p.RoleCode) {
		return nil, fmt.Errorf("%w: invalid role code", ErrValidation)
	}
	if len(p.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}

	company, err := s.companies.GetByID(actor.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("company lookup failed: %w", err)
	}

	exists, err := s.users.ExistsByCompanyAndLoginID(company.ID, p.LoginID)
	if err != nil {
		return nil, fmt.Errorf("login id check failed: %w", err)
	}
	if exists {
		return nil, ErrDuplicateLogin
	}

	role, err := s.roles.GetByCode(strings.ToUpper(p.RoleCode))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrRoleUnknown
		}
		return nil, fmt.Errorf("role lookup failed: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &domain.User{
		ID:           uuid.New(),
		CompanyID:    company.ID,
		LoginID:      p.LoginID,
		PasswordHash: string(hash),
		Name:         p.Name,
		Email:        p.Email,
		Flag:         domain.FlagActive,
	}
	if err := s.users.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	if err := s.userRoles.Create(&domain.UserRole{ID: uuid.New(), UserID: user.ID, RoleID: role.ID}); err != nil {
		return nil, fmt.Errorf("failed to assign role: %w", err)
	}

	if strings.EqualFold(p.RoleCode, domain.RoleTrainee) {
		if err := s.assignTrainer(company.ID, user.ID, p.TrainerID); err != nil {
			return nil, err
		}
	}

	s.logger.Info("user created",
		slog.String("user_id", user.ID.String()),
		slog.String("company_id", company.ID.String()),
		slog.String("role", role.Code),
	)
	return &UserDetail{
		UserID:      user.ID,
		CompanyID:   company.ID,
		CompanyName: company.Name,
		LoginID:     user.LoginID,
		Name:        user.Name,
		Email:       user.Email,
		Flag:        user.Flag,
		Roles:       []string{role.Code},
	}, nil
}

// Update rewrites profile fields and resets the role set to the single
// requested role, re-mapping the trainer when the user becomes a TRAINEE.
func (s *UserService) Update(actor *auth.Principal, userID uuid.UUID, p UpdateUserParams) (*UserDetail, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: user", ErrNotFound)
		}
		return nil, fmt.Errorf("user lookup failed: %w", err)
	}
	if !s.policy.Allow(actor, security.CapManageUsers, &user.CompanyID) {
		return nil, ErrForbidden
	}
	if !isAssignableRole(p.RoleCode) {
		return nil, fmt.Errorf("%w: invalid role code", ErrValidation)
	}

	user.Name = p.Name
	user.Email = p.Email
	if p.Flag != nil {
		user.Flag = *p.Flag
	}
	if err := s.users.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	role, err := s.roles.GetByCode(strings.ToUpper(p.RoleCode))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrRoleUnknown
		}
		return nil, fmt.Errorf("role lookup failed: %w", err)
	}
	if err := s.userRoles.DeleteByUser(user.ID); err != nil {
		return nil, fmt.Errorf("failed to reset roles: %w", err)
	}
	if err := s.userRoles.Create(&domain.UserRole{ID: uuid.New(), UserID: user.ID, RoleID: role.ID}); err != nil {
		return nil, fmt.Errorf("failed to assign role: %w", err)
	}

	if err := s.assignments.DeleteByTrainee(user.ID); err != nil {
		return nil, fmt.Errorf("failed to clear trainer mapping: %w", err)
	}
	if strings.EqualFold(p.RoleCode, domain.RoleTrainee) {
		if err := s.assignTrainer(user.CompanyID, user.ID, p.TrainerID); err != nil {
			return nil, err
		}
	}

	company, err := s.companies.GetByID(user.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("company lookup failed: %w", err)
	}
	return &UserDetail{
		UserID:      user.ID,
		CompanyID:   user.CompanyID,
		CompanyName: company.Name,
		LoginID:     user.LoginID,
		Name:        user.Name,
		Email:       user.Email,
		Flag:        user.Flag,
		Roles:       []string{role.Code},
	}, nil
}

// Delete soft-deletes a user; role links stay in place but stop mattering
// because an inactive user can no longer authenticate.
func (s *UserService) Delete(actor *auth.Principal, userID uuid.UUID) error {
	user, err := s.users.GetByID(userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: user", ErrNotFound)
		}
		return fmt.Errorf("user lookup failed: %w", err)
	}
	if !s.policy.Allow(actor, security.CapManageUsers, &user.CompanyID) {
		return ErrForbidden
	}
	if err := s.users.SoftDelete(userID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	s.logger.Info("user soft-deleted", slog.String("user_id", userID.String()))
	return nil
}

func (s *UserService) assignTrainer(companyID, traineeID uuid.UUID, trainerID *uuid.UUID) error {
	if trainerID == nil {
		return fmt.Errorf("%w: trainerId is required for trainee", ErrValidation)
	}
	trainer, err := s.users.GetByID(*trainerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: trainer not found", ErrValidation)
		}
		return fmt.Errorf("trainer lookup failed: %w", err)
	}
	codes, err := s.userRoles.CodesByUser(trainer.ID)
	if err != nil {
		return fmt.Errorf("trainer role lookup failed: %w", err)
	}
	hasTrainerRole := false
	for _, c := range codes {
		if strings.EqualFold(c, domain.RoleTrainer) {
			hasTrainerRole = true
			break
		}
	}
	if trainer.CompanyID != companyID || !hasTrainerRole {
		return fmt.Errorf("%w: trainer must belong to the same company and have the TRAINER role", ErrValidation)
	}
	return s.assignments.Create(&domain.TrainerAssignment{
		ID:        uuid.New(),
		TrainerID: trainer.ID,
		TraineeID: traineeID,
	})
}

func isAssignableRole(code string) bool {
	for _, r := range assignableRoles {
		if strings.EqualFold(r, code) {
			return true
		}
	}
	return false
}
