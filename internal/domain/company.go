package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by repositories when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Flag is the tri-state activity status shared by companies and users.
type Flag int16

const (
	FlagActive    Flag = 0
	FlagSuspended Flag = 1
	FlagDeleted   Flag = 9
)

// IsActive reports whether the entity may participate in authentication.
func (f Flag) IsActive() bool {
	return f == FlagActive
}

// Company represents a tenant organization. All users and most domain data
// belong to exactly one company.
type Company struct {
	ID           uuid.UUID
	Name         string // unique, case-insensitive
	BillingEmail string
	Flag         Flag
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CompanyRepository defines data access for companies.
type CompanyRepository interface {
	Create(company *Company) error
	GetByID(id uuid.UUID) (*Company, error)
	// GetByName resolves a company by case-insensitive exact name match.
	GetByName(name string) (*Company, error)
	ExistsByName(name string) (bool, error)
	Update(company *Company) error
	// SoftDelete marks the company deleted without removing the row.
	SoftDelete(id uuid.UUID) error
	List(keyword string) ([]*Company, error)
}
