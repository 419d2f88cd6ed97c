package service

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/aswell/training-system/internal/domain"
	"github.com/aswell/training-system/internal/security"
	"github.com/aswell/training-system/internal/security/auth"
)

type companyFixture struct {
	*authFixture
	svc *CompanyService
}

func newCompanyFixture(t *testing.T) *companyFixture {
	t.Helper()
	base := newAuthFixture(t)
	return &companyFixture{
		authFixture: base,
		svc: NewCompanyService(
			base.companies, base.users, base.roles, base.userRoles,
			security.NewPolicy(nil), nil,
		),
	}
}

func sysadminPrincipal() *auth.Principal {
	return &auth.Principal{UserID: uuid.New(), CompanyID: uuid.New(), Roles: []string{domain.RoleSystemAdmin}}
}

func TestCreateCompanyWithInitialAdmin(t *testing.T) {
	f := newCompanyFixture(t)

	company, err := f.svc.Create(sysadminPrincipal(), CreateCompanyParams{
		Name:          "acme",
		BillingEmail:  "billing@acme.example.com",
		AdminLoginID:  "boss",
		AdminPassword: "Password123!",
		AdminName:     "The Boss",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	admin, err := f.users.GetByCompanyAndLoginID(company.ID, "boss")
	if err != nil {
		t.Fatalf("initial admin missing: %v", err)
	}
	codes, _ := f.userRoles.CodesByUser(admin.ID)
	if len(codes) != 1 || codes[0] != domain.RoleAdmin {
		t.Fatalf("initial admin roles = %v, want [ADMIN]", codes)
	}
}

func TestCreateCompanyRequiresSystemAdmin(t *testing.T) {
	f := newCompanyFixture(t)
	demo := f.addCompany(t, "demo", domain.FlagActive)
	admin := adminPrincipal(demo.ID)

	if _, err := f.svc.Create(admin, CreateCompanyParams{Name: "rogue", AdminLoginID: "x", AdminPassword: "Password123!"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden for company ADMIN", err)
	}
	if _, err := f.svc.Create(nil, CreateCompanyParams{Name: "anon", AdminLoginID: "x", AdminPassword: "Password123!"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden for nil actor", err)
	}
}

func TestCreateCompanyDuplicateName(t *testing.T) {
	f := newCompanyFixture(t)
	f.addCompany(t, "Acme", domain.FlagActive)

	if _, err := f.svc.Create(sysadminPrincipal(), CreateCompanyParams{Name: "acme", AdminLoginID: "x", AdminPassword: "Password123!"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict for case-insensitive duplicate", err)
	}
}

func TestListScopedForAdmin(t *testing.T) {
	f := newCompanyFixture(t)
	demo := f.addCompany(t, "demo", domain.FlagActive)
	f.addCompany(t, "other", domain.FlagActive)

	all, err := f.svc.List(sysadminPrincipal(), "")
	if err != nil {
		t.Fatalf("sysadmin list failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("sysadmin sees %d companies, want 2", len(all))
	}

	own, err := f.svc.List(adminPrincipal(demo.ID), "")
	if err != nil {
		t.Fatalf("admin list failed: %v", err)
	}
	if len(own) != 1 || own[0].ID != demo.ID {
		t.Errorf("admin must see exactly its own company")
	}

	trainee := &auth.Principal{UserID: uuid.New(), CompanyID: demo.ID, Roles: []string{domain.RoleTrainee}}
	if _, err := f.svc.List(trainee, ""); !errors.Is(err, ErrForbidden) {
		t.Errorf("trainee list: err = %v, want ErrForbidden", err)
	}
}

func TestUpdateCompanyCrossTenantDenied(t *testing.T) {
	f := newCompanyFixture(t)
	demo := f.addCompany(t, "demo", domain.FlagActive)
	other := f.addCompany(t, "other", domain.FlagActive)

	newName := "rebranded"
	if _, err := f.svc.Update(adminPrincipal(demo.ID), other.ID, UpdateCompanyParams{Name: &newName}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
	// Own company works.
	updated, err := f.svc.Update(adminPrincipal(demo.ID), demo.ID, UpdateCompanyParams{Name: &newName})
	if err != nil {
		t.Fatalf("own-company update failed: %v", err)
	}
	if updated.Name != "rebranded" {
		t.Fatalf("name = %q, want rebranded", updated.Name)
	}
}

func TestDeleteCompanyCascadesToUsers(t *testing.T) {
	f := newCompanyFixture(t)
	demo := f.addCompany(t, "demo", domain.FlagActive)
	user := f.addUser(t, demo, "alice", "Password123!", domain.FlagActive, domain.RoleTrainee)

	if err := f.svc.Delete(sysadminPrincipal(), demo.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if demo.Flag != domain.FlagDeleted {
		t.Errorf("company flag = %v, want deleted", demo.Flag)
	}
	stored, _ := f.users.GetByID(user.ID)
	if stored.Flag != domain.FlagDeleted {
		t.Errorf("user flag = %v, want deleted after cascade", stored.Flag)
	}
}
