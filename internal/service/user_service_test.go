package service

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/aswell/training-system/internal/domain"
	"github.com/aswell/training-system/internal/security"
	"github.com/aswell/training-system/internal/security/auth"
)

type userFixture struct {
	*authFixture
	assignments *memAssignmentRepo
	svc         *UserService
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	base := newAuthFixture(t)
	assignments := &memAssignmentRepo{}
	return &userFixture{
		authFixture: base,
		assignments: assignments,
		svc: NewUserService(
			base.users, base.companies, base.roles, base.userRoles,
			assignments, security.NewPolicy(nil), nil,
		),
	}
}

func adminPrincipal(companyID uuid.UUID) *auth.Principal {
	return &auth.Principal{UserID: uuid.New(), CompanyID: companyID, LoginID: "boss", Roles: []string{domain.RoleAdmin}}
}

func TestCreateUserInOwnCompany(t *testing.T) {
	f := newUserFixture(t)
	demo := f.addCompany(t, "demo", domain.FlagActive)
	actor := adminPrincipal(demo.ID)

	detail, err := f.svc.Create(actor, CreateUserParams{
		LoginID:  "carol",
		Password: "Password123!",
		Name:     "Carol",
		RoleCode: domain.RoleTrainer,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if detail.CompanyID != demo.ID {
		t.Errorf("user landed in the wrong company")
	}
	if len(detail.Roles) != 1 || detail.Roles[0] != domain.RoleTrainer {
		t.Errorf("roles = %v, want [TRAINER]", detail.Roles)
	}
}

func TestCreateTraineeRequiresTrainer(t *testing.T) {
	f := newUserFixture(t)
	demo := f.addCompany(t, "demo", domain.FlagActive)
	other := f.addCompany(t, "other", domain.FlagActive)
	actor := adminPrincipal(demo.ID)

	trainer := f.addUser(t, demo, "trainer", "Password123!", domain.FlagActive, domain.RoleTrainer)
	foreignTrainer := f.addUser(t, other, "poacher", "Password123!", domain.FlagActive, domain.RoleTrainer)
	notATrainer := f.addUser(t, demo, "clerk", "Password123!", domain.FlagActive, domain.RoleAdmin)

	// Missing trainer id.
	if _, err := f.svc.Create(actor, CreateUserParams{LoginID: "t1", Password: "Password123!", RoleCode: domain.RoleTrainee}); !errors.Is(err, ErrValidation) {
		t.Errorf("missing trainer: err = %v, want ErrValidation", err)
	}
	// Trainer from another company.
	if _, err := f.svc.Create(actor, CreateUserParams{LoginID: "t2", Password: "Password123!", RoleCode: domain.RoleTrainee, TrainerID: &foreignTrainer.ID}); !errors.Is(err, ErrValidation) {
		t.Errorf("foreign trainer: err = %v, want ErrValidation", err)
	}
	// Same company but without the TRAINER role.
	if _, err := f.svc.Create(actor, CreateUserParams{LoginID: "t3", Password: "Password123!", RoleCode: domain.RoleTrainee, TrainerID: &notATrainer.ID}); !errors.Is(err, ErrValidation) {
		t.Errorf("non-trainer: err = %v, want ErrValidation", err)
	}
	// Valid assignment.
	detail, err := f.svc.Create(actor, CreateUserParams{LoginID: "t4", Password: "Password123!", RoleCode: domain.RoleTrainee, TrainerID: &trainer.ID})
	if err != nil {
		t.Fatalf("valid trainee create failed: %v", err)
	}
	if len(f.assignments.assignments) != 1 || f.assignments.assignments[0].TraineeID != detail.UserID {
		t.Fatalf("trainer assignment not recorded")
	}
}

func TestCreateUserRejectsSystemAdminRole(t *testing.T) {
	f := newUserFixture(t)
	demo := f.addCompany(t, "demo", domain.FlagActive)
	actor := adminPrincipal(demo.ID)

	if _, err := f.svc.Create(actor, CreateUserParams{LoginID: "x", Password: "Password123!", RoleCode: domain.RoleSystemAdmin}); !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation for SYSTEM_ADMIN assignment", err)
	}
}

func TestUpdateUserCrossTenantDenied(t *testing.T) {
	f := newUserFixture(t)
	demo := f.addCompany(t, "demo", domain.FlagActive)
	other := f.addCompany(t, "other", domain.FlagActive)
	victim := f.addUser(t, other, "victim", "Password123!", domain.FlagActive, domain.RoleTrainee)

	actor := adminPrincipal(demo.ID)
	if _, err := f.svc.Update(actor, victim.ID, UpdateUserParams{Name: "Pwned", RoleCode: domain.RoleAdmin}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden for cross-tenant update", err)
	}
}

func TestUpdateUserReplacesRole(t *testing.T) {
	f := newUserFixture(t)
	demo := f.addCompany(t, "demo", domain.FlagActive)
	user := f.addUser(t, demo, "carol", "Password123!", domain.FlagActive, domain.RoleTrainer)
	actor := adminPrincipal(demo.ID)

	detail, err := f.svc.Update(actor, user.ID, UpdateUserParams{Name: "Carol", RoleCode: domain.RoleAdmin})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if len(detail.Roles) != 1 || detail.Roles[0] != domain.RoleAdmin {
		t.Fatalf("roles = %v, want [ADMIN]", detail.Roles)
	}
	codes, _ := f.userRoles.CodesByUser(user.ID)
	if len(codes) != 1 || codes[0] != domain.RoleAdmin {
		t.Fatalf("stored roles = %v, want [ADMIN]", codes)
	}
}

func TestDeleteUserSoftDeletes(t *testing.T) {
	f := newUserFixture(t)
	demo := f.addCompany(t, "demo", domain.FlagActive)
	user := f.addUser(t, demo, "carol", "Password123!", domain.FlagActive, domain.RoleTrainee)
	actor := adminPrincipal(demo.ID)

	if err := f.svc.Delete(actor, user.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	stored, _ := f.users.GetByID(user.ID)
	if stored.Flag != domain.FlagDeleted {
		t.Fatalf("flag = %v, want deleted", stored.Flag)
	}
	// The soft-deleted user can no longer log in.
	if _, err := f.svc.Create(actor, CreateUserParams{LoginID: "unrelated", Password: "Password123!", RoleCode: domain.RoleTrainer}); err != nil {
		t.Fatalf("unrelated operations should still work: %v", err)
	}
}

func TestListScopesByRole(t *testing.T) {
	f := newUserFixture(t)
	demo := f.addCompany(t, "demo", domain.FlagActive)
	other := f.addCompany(t, "other", domain.FlagActive)
	f.addUser(t, demo, "a", "Password123!", domain.FlagActive, domain.RoleTrainee)
	f.addUser(t, other, "b", "Password123!", domain.FlagActive, domain.RoleTrainee)

	sysadmin := &auth.Principal{UserID: uuid.New(), CompanyID: demo.ID, Roles: []string{domain.RoleSystemAdmin}}
	all, err := f.svc.List(sysadmin, "")
	if err != nil {
		t.Fatalf("sysadmin list failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("sysadmin sees %d users, want 2", len(all))
	}

	admin := adminPrincipal(demo.ID)
	own, err := f.svc.List(admin, "")
	if err != nil {
		t.Fatalf("admin list failed: %v", err)
	}
	if len(own) != 1 || own[0].CompanyID != demo.ID {
		t.Errorf("admin must see exactly its own company's users")
	}

	trainee := &auth.Principal{UserID: uuid.New(), CompanyID: demo.ID, Roles: []string{domain.RoleTrainee}}
	if _, err := f.svc.List(trainee, ""); !errors.Is(err, ErrForbidden) {
		t.Errorf("trainee list: err = %v, want ErrForbidden", err)
	}
}
