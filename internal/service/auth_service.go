package service

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/aswell/training-system/internal/domain"
	"github.com/aswell/training-system/internal/observability/metrics"
	"github.com/aswell/training-system/internal/security/auth"
)

// defaultRole is assigned at registration when no role codes are requested.
const defaultRole = domain.RoleTrainee

// AuthService verifies credentials and issues tokens. It is read-only except
// for registration; a failed credential check is never retried.
type AuthService struct {
	companies domain.CompanyRepository
	users     domain.UserRepository
	roles     domain.RoleRepository
	userRoles domain.UserRoleRepository
	tokens    *auth.TokenManager
	logger    *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	companies domain.CompanyRepository,
	users domain.UserRepository,
	roles domain.RoleRepository,
	userRoles domain.UserRoleRepository,
	tokens *auth.TokenManager,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		companies: companies,
		users:     users,
		roles:     roles,
		userRoles: userRoles,
		tokens:    tokens,
		logger:    logger,
	}
}

// UserProfile is the resolved user returned alongside a token.
type UserProfile struct {
	UserID      uuid.UUID `json:"userId"`
	CompanyID   uuid.UUID `json:"companyId"`
	CompanyName string    `json:"companyName"`
	LoginID     string    `json:"loginId"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Roles       []string  `json:"roles"`
}

// AuthResult is the response shape shared by register and login.
type AuthResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      UserProfile `json:"user"`
}

// RegisterParams carries a registration request.
type RegisterParams struct {
	CompanyName string
	LoginID     string
	Password    string
	Name        string
	Email       string
	RoleCodes   []string
}

// Register creates a user under an existing active company and issues a
// token for it. When no role codes are requested the user gets TRAINEE.
func (s *AuthService) Register(p RegisterParams) (*AuthResult, error) {
	if len(p.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}

	company, err := s.companies.GetByName(p.CompanyName)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("company lookup failed: %w", err)
	}
	if !company.Flag.IsActive() {
		return nil, ErrCompanyInactive
	}

	exists, err := s.users.ExistsByCompanyAndLoginID(company.ID, p.LoginID)
	if err != nil {
		return nil, fmt.Errorf("login id check failed: %w", err)
	}
	if exists {
		return nil, ErrDuplicateLogin
	}

	roleCodes := p.RoleCodes
	if len(roleCodes) == 0 {
		roleCodes = []string{defaultRole}
	}
	roles, err := s.roles.GetByCodes(roleCodes)
	if err != nil {
		return nil, fmt.Errorf("role lookup failed: %w", err)
	}
	if len(roles) != len(roleCodes) {
		return nil, ErrRoleUnknown
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to register user: %w", err)
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
		s.logger.Error("failed to create user", slog.String("login_id", p.LoginID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	assigned := make([]string, 0, len(roles))
	for _, role := range roles {
		link := &domain.UserRole{ID: uuid.New(), UserID: user.ID, RoleID: role.ID}
		if err := s.userRoles.Create(link); err != nil {
			return nil, fmt.Errorf("failed to assign role %s: %w", role.Code, err)
		}
		assigned = append(assigned, role.Code)
	}

	s.logger.Info("user registered",
		slog.String("user_id", user.ID.String()),
		slog.String("company", company.Name),
		slog.String("login_id", user.LoginID),
	)
	return s.buildAuthResult(user, company, assigned)
}

// Login authenticates (companyName, loginID, password) and issues a token.
// Unknown company, inactive company, unknown user, inactive user and wrong
// password are all reported as ErrInvalidCredentials.
func (s *AuthService) Login(companyName, loginID, password string) (*AuthResult, error) {
	company, err := s.companies.GetByName(companyName)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.ObserveLogin("invalid_credentials")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("company lookup failed: %w", err)
	}
	if !company.Flag.IsActive() {
		metrics.ObserveLogin("invalid_credentials")
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByCompanyAndLoginID(company.ID, loginID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Info("login attempt for unknown user", slog.String("company", companyName))
			metrics.ObserveLogin("invalid_credentials")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("user lookup failed: %w", err)
	}
	if !user.Flag.IsActive() {
		metrics.ObserveLogin("invalid_credentials")
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("login failed with wrong password",
			slog.String("company", companyName),
			slog.String("login_id", loginID),
		)
		metrics.ObserveLogin("invalid_credentials")
		return nil, ErrInvalidCredentials
	}

	roleCodes, err := s.userRoles.CodesByUser(user.ID)
	if err != nil {
		return nil, fmt.Errorf("role lookup failed: %w", err)
	}
	if len(roleCodes) == 0 {
		metrics.ObserveLogin("no_roles")
		return nil, ErrNoRoles
	}

	s.logger.Info("user logged in",
		slog.String("user_id", user.ID.String()),
		slog.String("company", company.Name),
	)
	metrics.ObserveLogin("success")
	return s.buildAuthResult(user, company, roleCodes)
}

func (s *AuthService) buildAuthResult(user *domain.User, company *domain.Company, roleCodes []string) (*AuthResult, error) {
	claims := auth.Claims{
		CompanyID:   company.ID.String(),
		CompanyName: company.Name,
		LoginID:     user.LoginID,
		Name:        user.Name,
		Email:       user.Email,
		Roles:       roleCodes,
	}
	token, expiresAt, err := s.tokens.Generate(user.ID, claims)
	if err != nil {
		s.logger.Error("failed to issue token", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &AuthResult{
		Token:     token,
		ExpiresAt: expiresAt,
		User: UserProfile{
			UserID:      user.ID,
			CompanyID:   company.ID,
			CompanyName: company.Name,
			LoginID:     user.LoginID,
			Name:        user.Name,
			Email:       user.Email,
			Roles:       roleCodes,
		},
	}, nil
}
