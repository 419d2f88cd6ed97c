package domain

// Canonical role codes seeded at bootstrap.
const (
	RoleSystemAdmin = "SYSTEM_ADMIN"
	RoleAdmin       = "ADMIN"
	RoleTrainer     = "TRAINER"
	RoleTrainee     = "TRAINEE"
)

// Role is an entry in the small fixed role catalog.
type Role struct {
	ID          int16
	Code        string // unique
	Label       string
	Description string
	SortOrder   int16
}

// RoleRepository defines data access for the role catalog.
type RoleRepository interface {
	Create(role *Role) error
	GetByID(id int16) (*Role, error)
	GetByCode(code string) (*Role, error)
	// GetByCodes resolves a set of codes; callers compare result length to
	// detect unknown codes.
	GetByCodes(codes []string) ([]*Role, error)
	ExistsByCode(code string) (bool, error)
	Update(role *Role) error
	Delete(id int16) error
	List() ([]*Role, error)
}
