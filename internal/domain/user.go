package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account inside a company. Login IDs are unique within
// their company, not globally.
type User struct {
	ID           uuid.UUID
	CompanyID    uuid.UUID
	LoginID      string
	PasswordHash string // bcrypt digest, never returned by the API
	Name         string
	Email        string
	Flag         Flag
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserRepository defines data access for users.
type UserRepository interface {
	Create(user *User) error
	GetByID(id uuid.UUID) (*User, error)
	GetByCompanyAndLoginID(companyID uuid.UUID, loginID string) (*User, error)
	ExistsByCompanyAndLoginID(companyID uuid.UUID, loginID string) (bool, error)
	Update(user *User) error
	SoftDelete(id uuid.UUID) error
	// SoftDeleteByCompany cascades a company soft-delete to its users.
	SoftDeleteByCompany(companyID uuid.UUID) error
	Search(keyword string) ([]*User, error)
	SearchByCompany(companyID uuid.UUID, keyword string) ([]*User, error)
}

// UserRole links a user to a role. A (user, role) pair is unique.
type UserRole struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	RoleID    int16
	CreatedAt time.Time
}

// UserRoleRepository defines data access for user/role links.
type UserRoleRepository interface {
	Create(link *UserRole) error
	// CodesByUser returns the role codes assigned to a user, ordered by the
	// role catalog's sort rank.
	CodesByUser(userID uuid.UUID) ([]string, error)
	DeleteByUser(userID uuid.UUID) error
	ExistsByRole(roleID int16) (bool, error)
}

// TrainerAssignment maps a trainee to the trainer responsible for them.
type TrainerAssignment struct {
	ID        uuid.UUID
	TrainerID uuid.UUID
	TraineeID uuid.UUID
	CreatedAt time.Time
}

// TrainerAssignmentRepository defines data access for trainer/trainee links.
type TrainerAssignmentRepository interface {
	Create(assignment *TrainerAssignment) error
	DeleteByTrainee(traineeID uuid.UUID) error
}
