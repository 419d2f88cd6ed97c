package auth

import (
	"strings"

	"github.com/google/uuid"
)

// Principal is the authenticated identity attached to a request after the
// middleware verified a token and re-resolved the live user record. It is a
// value owned by the current request and is never persisted.
type Principal struct {
	UserID      uuid.UUID
	CompanyID   uuid.UUID
	CompanyName string
	LoginID     string
	Name        string
	Email       string
	Roles       []string
}

// HasRole reports membership by case-insensitive code comparison. Callers
// may present role codes in any letter case.
func (p *Principal) HasRole(code string) bool {
	if p == nil {
		return false
	}
	for _, r := range p.Roles {
		if strings.EqualFold(r, code) {
			return true
		}
	}
	return false
}
