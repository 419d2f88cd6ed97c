package service

import (
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/aswell/training-system/internal/domain"
	"github.com/aswell/training-system/internal/security/auth"
)

type memCompanyRepo struct {
	byID map[uuid.UUID]*domain.Company
}

func newMemCompanyRepo() *memCompanyRepo {
	return &memCompanyRepo{byID: map[uuid.UUID]*domain.Company{}}
}

func (m *memCompanyRepo) Create(c *domain.Company) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	m.byID[c.ID] = c
	return nil
}
func (m *memCompanyRepo) GetByID(id uuid.UUID) (*domain.Company, error) {
	if c, ok := m.byID[id]; ok {
		return c, nil
	}
	return nil, domain.ErrNotFound
}
func (m *memCompanyRepo) GetByName(name string) (*domain.Company, error) {
	for _, c := range m.byID {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return nil, domain.ErrNotFound
}
func (m *memCompanyRepo) ExistsByName(name string) (bool, error) {
	_, err := m.GetByName(name)
	return err == nil, nil
}
func (m *memCompanyRepo) Update(c *domain.Company) error {
	c.UpdatedAt = time.Now()
	m.byID[c.ID] = c
	return nil
}
func (m *memCompanyRepo) SoftDelete(id uuid.UUID) error {
	c, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.Flag = domain.FlagDeleted
	return nil
}
func (m *memCompanyRepo) List(keyword string) ([]*domain.Company, error) {
	var out []*domain.Company
	for _, c := range m.byID {
		if c.Flag != domain.FlagDeleted && (keyword == "" || strings.Contains(c.Name, keyword)) {
			out = append(out, c)
		}
	}
	return out, nil
}

type memUserRepo struct {
	byID map[uuid.UUID]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: map[uuid.UUID]*domain.User{}}
}

func (m *memUserRepo) Create(u *domain.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	m.byID[u.ID] = u
	return nil
}
func (m *memUserRepo) GetByID(id uuid.UUID) (*domain.User, error) {
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}
func (m *memUserRepo) GetByCompanyAndLoginID(companyID uuid.UUID, loginID string) (*domain.User, error) {
	for _, u := range m.byID {
		if u.CompanyID == companyID && u.LoginID == loginID {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}
func (m *memUserRepo) ExistsByCompanyAndLoginID(companyID uuid.UUID, loginID string) (bool, error) {
	_, err := m.GetByCompanyAndLoginID(companyID, loginID)
	return err == nil, nil
}
func (m *memUserRepo) Update(u *domain.User) error {
	u.UpdatedAt = time.Now()
	m.byID[u.ID] = u
	return nil
}
func (m *memUserRepo) SoftDelete(id uuid.UUID) error {
	u, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.Flag = domain.FlagDeleted
	return nil
}
func (m *memUserRepo) SoftDeleteByCompany(companyID uuid.UUID) error {
	for _, u := range m.byID {
		if u.CompanyID == companyID {
			u.Flag = domain.FlagDeleted
		}
	}
	return nil
}
func (m *memUserRepo) Search(keyword string) ([]*domain.User, error) {
	var out []*domain.User
	for _, u := range m.byID {
		if u.Flag != domain.FlagDeleted && (keyword == "" || strings.Contains(u.Name, keyword) || strings.Contains(u.LoginID, keyword)) {
			out = append(out, u)
		}
	}
	return out, nil
}
func (m *memUserRepo) SearchByCompany(companyID uuid.UUID, keyword string) ([]*domain.User, error) {
	all, _ := m.Search(keyword)
	var out []*domain.User
	for _, u := range all {
		if u.CompanyID == companyID {
			out = append(out, u)
		}
	}
	return out, nil
}

type memRoleRepo struct {
	byID map[int16]*domain.Role
}

func newMemRoleRepo() *memRoleRepo {
	m := &memRoleRepo{byID: map[int16]*domain.Role{}}
	for i, code := range []string{domain.RoleSystemAdmin, domain.RoleAdmin, domain.RoleTrainer, domain.RoleTrainee} {
		id := int16(i + 1)
		m.byID[id] = &domain.Role{ID: id, Code: code, SortOrder: id}
	}
	return m
}

func (m *memRoleRepo) Create(r *domain.Role) error { m.byID[r.ID] = r; return nil }
func (m *memRoleRepo) GetByID(id int16) (*domain.Role, error) {
	if r, ok := m.byID[id]; ok {
		return r, nil
	}
	return nil, domain.ErrNotFound
}
func (m *memRoleRepo) GetByCode(code string) (*domain.Role, error) {
	for _, r := range m.byID {
		if r.Code == code {
			return r, nil
		}
	}
	return nil, domain.ErrNotFound
}
func (m *memRoleRepo) GetByCodes(codes []string) ([]*domain.Role, error) {
	var out []*domain.Role
	for _, code := range codes {
		if r, err := m.GetByCode(code); err == nil {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}
func (m *memRoleRepo) ExistsByCode(code string) (bool, error) {
	_, err := m.GetByCode(code)
	return err == nil, nil
}
func (m *memRoleRepo) Update(r *domain.Role) error {
	if _, ok := m.byID[r.ID]; !ok {
		return domain.ErrNotFound
	}
	m.byID[r.ID] = r
	return nil
}
func (m *memRoleRepo) Delete(id int16) error {
	if _, ok := m.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}
func (m *memRoleRepo) List() ([]*domain.Role, error) {
	var out []*domain.Role
	for _, r := range m.byID {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

type memUserRoleRepo struct {
	links []*domain.UserRole
	roles *memRoleRepo
}

func newMemUserRoleRepo(roles *memRoleRepo) *memUserRoleRepo {
	return &memUserRoleRepo{roles: roles}
}

func (m *memUserRoleRepo) Create(link *domain.UserRole) error {
	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	m.links = append(m.links, link)
	return nil
}
func (m *memUserRoleRepo) CodesByUser(userID uuid.UUID) ([]string, error) {
	var held []*domain.Role
	for _, link := range m.links {
		if link.UserID == userID {
			if r, err := m.roles.GetByID(link.RoleID); err == nil {
				held = append(held, r)
			}
		}
	}
	sort.Slice(held, func(i, j int) bool { return held[i].SortOrder < held[j].SortOrder })
	var codes []string
	for _, r := range held {
		codes = append(codes, r.Code)
	}
	return codes, nil
}
func (m *memUserRoleRepo) DeleteByUser(userID uuid.UUID) error {
	var kept []*domain.UserRole
	for _, link := range m.links {
		if link.UserID != userID {
			kept = append(kept, link)
		}
	}
	m.links = kept
	return nil
}
func (m *memUserRoleRepo) ExistsByRole(roleID int16) (bool, error) {
	for _, link := range m.links {
		if link.RoleID == roleID {
			return true, nil
		}
	}
	return false, nil
}

type memAssignmentRepo struct {
	assignments []*domain.TrainerAssignment
}

func (m *memAssignmentRepo) Create(a *domain.TrainerAssignment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	m.assignments = append(m.assignments, a)
	return nil
}
func (m *memAssignmentRepo) DeleteByTrainee(traineeID uuid.UUID) error {
	var kept []*domain.TrainerAssignment
	for _, a := range m.assignments {
		if a.TraineeID != traineeID {
			kept = append(kept, a)
		}
	}
	m.assignments = kept
	return nil
}

type authFixture struct {
	companies *memCompanyRepo
	users     *memUserRepo
	roles     *memRoleRepo
	userRoles *memUserRoleRepo
	tokens    *auth.TokenManager
	svc       *AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	tokens, err := auth.NewTokenManager("0123456789abcdef0123456789abcdef", "training-system", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager failed: %v", err)
	}
	companies := newMemCompanyRepo()
	users := newMemUserRepo()
	roles := newMemRoleRepo()
	userRoles := newMemUserRoleRepo(roles)
	return &authFixture{
		companies: companies,
		users:     users,
		roles:     roles,
		userRoles: userRoles,
		tokens:    tokens,
		svc:       NewAuthService(companies, users, roles, userRoles, tokens, nil),
	}
}

func (f *authFixture) addCompany(t *testing.T, name string, flag domain.Flag) *domain.Company {
	t.Helper()
	c := &domain.Company{Name: name, Flag: flag}
	if err := f.companies.Create(c); err != nil {
		t.Fatalf("company create failed: %v", err)
	}
	return c
}

func (f *authFixture) addUser(t *testing.T, company *domain.Company, loginID, password string, flag domain.Flag, roleCodes ...string) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	u := &domain.User{
		CompanyID:    company.ID,
		LoginID:      loginID,
		PasswordHash: string(hash),
		Name:         loginID,
		Flag:         flag,
	}
	if err := f.users.Create(u); err != nil {
		t.Fatalf("user create failed: %v", err)
	}
	for _, code := range roleCodes {
		role, err := f.roles.GetByCode(code)
		if err != nil {
			t.Fatalf("unknown role %s", code)
		}
		if err := f.userRoles.Create(&domain.UserRole{UserID: u.ID, RoleID: role.ID}); err != nil {
			t.Fatalf("role link failed: %v", err)
		}
	}
	return u
}

func TestRegisterDefaultsToTrainee(t *testing.T) {
	f := newAuthFixture(t)
	f.addCompany(t, "demo", domain.FlagActive)

	result, err := f.svc.Register(RegisterParams{
		CompanyName: "demo",
		LoginID:     "alice",
		Password:    "Password123!",
		Name:        "Alice",
		Email:       "alice@demo.example.com",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if len(result.User.Roles) != 1 || result.User.Roles[0] != domain.RoleTrainee {
		t.Fatalf("roles = %v, want [TRAINEE]", result.User.Roles)
	}

	claims, err := f.tokens.Validate(result.Token)
	if err != nil {
		t.Fatalf("issued token does not validate: %v", err)
	}
	if claims.CompanyName != "demo" || claims.LoginID != "alice" {
		t.Errorf("token claims do not match the registered user")
	}
}

func TestRegisterCompanyNameIsCaseInsensitive(t *testing.T) {
	f := newAuthFixture(t)
	f.addCompany(t, "Demo", domain.FlagActive)

	if _, err := f.svc.Register(RegisterParams{CompanyName: "demo", LoginID: "bob", Password: "Password123!"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
}

func TestRegisterFailures(t *testing.T) {
	f := newAuthFixture(t)
	active := f.addCompany(t, "demo", domain.FlagActive)
	f.addCompany(t, "closed", domain.FlagSuspended)
	f.addUser(t, active, "taken", "Password123!", domain.FlagActive, domain.RoleTrainee)

	tests := []struct {
		name   string
		params RegisterParams
		want   error
	}{
		{"unknown company", RegisterParams{CompanyName: "nowhere", LoginID: "x", Password: "Password123!"}, ErrCompanyNotFound},
		{"inactive company", RegisterParams{CompanyName: "closed", LoginID: "x", Password: "Password123!"}, ErrCompanyInactive},
		{"duplicate login", RegisterParams{CompanyName: "demo", LoginID: "taken", Password: "Password123!"}, ErrDuplicateLogin},
		{"unknown role", RegisterParams{CompanyName: "demo", LoginID: "y", Password: "Password123!", RoleCodes: []string{"WIZARD"}}, ErrRoleUnknown},
		{"short password", RegisterParams{CompanyName: "demo", LoginID: "z", Password: "short"}, ErrValidation},
	}
	for _, tt := range tests {
		if _, err := f.svc.Register(tt.params); !errors.Is(err, tt.want) {
			t.Errorf("%s: err = %v, want %v", tt.name, err, tt.want)
		}
	}
}

func TestLoginIssuesTokenWithRoles(t *testing.T) {
	f := newAuthFixture(t)
	demo := f.addCompany(t, "demo", domain.FlagActive)
	f.addUser(t, demo, "alice", "Password123!", domain.FlagActive, domain.RoleAdmin, domain.RoleTrainer)

	result, err := f.svc.Login("demo", "alice", "Password123!")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if len(result.User.Roles) != 2 || result.User.Roles[0] != domain.RoleAdmin || result.User.Roles[1] != domain.RoleTrainer {
		t.Fatalf("roles = %v, want [ADMIN TRAINER] in sort rank order", result.User.Roles)
	}
	claims, err := f.tokens.Validate(result.Token)
	if err != nil {
		t.Fatalf("issued token does not validate: %v", err)
	}
	if claims.CompanyID != demo.ID.String() {
		t.Errorf("token bound to wrong company")
	}
}

func TestLoginFailsClosed(t *testing.T) {
	f := newAuthFixture(t)
	demo := f.addCompany(t, "demo", domain.FlagActive)
	closed := f.addCompany(t, "closed", domain.FlagSuspended)
	f.addUser(t, demo, "alice", "Password123!", domain.FlagActive, domain.RoleAdmin)
	f.addUser(t, demo, "asleep", "Password123!", domain.FlagSuspended, domain.RoleTrainee)
	f.addUser(t, closed, "bob", "Password123!", domain.FlagActive, domain.RoleAdmin)

	tests := []struct {
		name                       string
		company, loginID, password string
	}{
		{"wrong password", "demo", "alice", "WrongPass1!"},
		{"unknown user", "demo", "nobody", "Password123!"},
		{"unknown company", "nowhere", "alice", "Password123!"},
		{"inactive user", "demo", "asleep", "Password123!"},
		{"inactive company", "closed", "bob", "Password123!"},
		{"user from another tenant", "closed", "alice", "Password123!"},
	}
	for _, tt := range tests {
		if _, err := f.svc.Login(tt.company, tt.loginID, tt.password); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("%s: err = %v, want ErrInvalidCredentials", tt.name, err)
		}
	}
}

func TestLoginWithoutRolesRejected(t *testing.T) {
	f := newAuthFixture(t)
	demo := f.addCompany(t, "demo", domain.FlagActive)
	f.addUser(t, demo, "roleless", "Password123!", domain.FlagActive)

	if _, err := f.svc.Login("demo", "roleless", "Password123!"); !errors.Is(err, ErrNoRoles) {
		t.Fatalf("err = %v, want ErrNoRoles", err)
	}
}
