package service

import "errors"

// Terminal error kinds for the current request. None of these are retried
// internally; handlers map them onto HTTP statuses. Storage faults are not
// classified here and surface as generic server errors.
var (
	// ErrInvalidCredentials deliberately covers unknown company, inactive
	// company, unknown user, inactive user and wrong password, so a caller
	// cannot probe which accounts exist.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrCompanyNotFound and ErrCompanyInactive are only surfaced by
	// registration, which is not an authentication path.
	ErrCompanyNotFound = errors.New("company not found")
	ErrCompanyInactive = errors.New("company is inactive")

	ErrValidation = errors.New("invalid request")

	ErrNoRoles        = errors.New("user has no roles")
	ErrRoleUnknown    = errors.New("one or more roles are invalid")
	ErrDuplicateLogin = errors.New("login id already exists for this company")

	ErrForbidden = errors.New("not allowed")
	ErrNotFound  = errors.New("not found")
	ErrConflict  = errors.New("already exists")
)
