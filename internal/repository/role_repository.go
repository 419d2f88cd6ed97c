package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/aswell/training-system/internal/domain"
)

// PostgresRoleRepository implements domain.RoleRepository using PostgreSQL
type PostgresRoleRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresRoleRepository creates a new role repository
func NewPostgresRoleRepository(db *sql.DB, logger *slog.Logger) *PostgresRoleRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresRoleRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new role catalog entry
func (r *PostgresRoleRepository) Create(role *domain.Role) error {
	query := `
		INSERT INTO roles (id, code, label, description, sort_order)
		VALUES ($1, $2, $3, $4, $5)
	`

	if _, err := r.db.Exec(query, role.ID, role.Code, role.Label, role.Description, role.SortOrder); err != nil {
		r.logger.Error("failed to create role",
			slog.String("code", role.Code),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create role: %w", err)
	}

	return nil
}

// GetByID retrieves a role by ID
func (r *PostgresRoleRepository) GetByID(id int16) (*domain.Role, error) {
	role := &domain.Role{}

	query := `
		SELECT id, code, label, description, sort_order
		FROM roles
		WHERE id = $1
	`

	err := r.db.QueryRow(query, id).Scan(
		&role.ID,
		&role.Code,
		&role.Label,
		&role.Description,
		&role.SortOrder,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get role: %w", err)
	}

	return role, nil
}

// GetByCode retrieves a role by its unique code
func (r *PostgresRoleRepository) GetByCode(code string) (*domain.Role, error) {
	role := &domain.Role{}

	query := `
		SELECT id, code, label, description, sort_order
		FROM roles
		WHERE code = $1
	`

	err := r.db.QueryRow(query, code).Scan(
		&role.ID,
		&role.Code,
		&role.Label,
		&role.Description,
		&role.SortOrder,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get role by code: %w", err)
	}

	return role, nil
}

// GetByCodes resolves a set of codes in sort rank order. Unknown codes are
// silently absent from the result.
func (r *PostgresRoleRepository) GetByCodes(codes []string) ([]*domain.Role, error) {
	if len(codes) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, code, label, description, sort_order
		FROM roles
		WHERE code = ANY($1)
		ORDER BY sort_order, id
	`

	rows, err := r.db.Query(query, pq.Array(codes))
	if err != nil {
		return nil, fmt.Errorf("failed to get roles by codes: %w", err)
	}
	defer rows.Close()

	return collectRoles(rows)
}

// ExistsByCode reports whether a role code is taken
func (r *PostgresRoleRepository) ExistsByCode(code string) (bool, error) {
	var exists bool

	query := `SELECT EXISTS (SELECT 1 FROM roles WHERE code = $1)`

	if err := r.db.QueryRow(query, code).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check role code: %w", err)
	}

	return exists, nil
}

// Update updates an existing role
func (r *PostgresRoleRepository) Update(role *domain.Role) error {
	query := `
		UPDATE roles
		SET code = $1, label = $2, description = $3, sort_order = $4
		WHERE id = $5
	`

	result, err := r.db.Exec(query, role.Code, role.Label, role.Description, role.SortOrder, role.ID)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}

	if rows == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// Delete removes a role from the catalog
func (r *PostgresRoleRepository) Delete(id int16) error {
	result, err := r.db.Exec(`DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}

	if rows == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// List returns the whole catalog in sort rank order
func (r *PostgresRoleRepository) List() ([]*domain.Role, error) {
	query := `
		SELECT id, code, label, description, sort_order
		FROM roles
		ORDER BY sort_order, id
	`

	rows, err := r.db.Query(query)
	if err != nil {
		r.logger.Error("failed to list roles",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	return collectRoles(rows)
}

func collectRoles(rows *sql.Rows) ([]*domain.Role, error) {
	var roles []*domain.Role
	for rows.Next() {
		role := &domain.Role{}
		err := rows.Scan(
			&role.ID,
			&role.Code,
			&role.Label,
			&role.Description,
			&role.SortOrder,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, role)
	}

	return roles, rows.Err()
}
