package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/aswell/training-system/internal/domain"
)

// PostgresUserRepository implements domain.UserRepository using PostgreSQL
type PostgresUserRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresUserRepository creates a new user repository
func NewPostgresUserRepository(db *sql.DB, logger *slog.Logger) *PostgresUserRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresUserRepository{
		db:     db,
		logger: logger,
	}
}

const userColumns = `id, company_id, login_id, password_hash, name, email, flag, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	user := &domain.User{}
	err := row.Scan(
		&user.ID,
		&user.CompanyID,
		&user.LoginID,
		&user.PasswordHash,
		&user.Name,
		&user.Email,
		&user.Flag,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Create creates a new user
func (r *PostgresUserRepository) Create(user *domain.User) error {
	query := `
		INSERT INTO users (id, company_id, login_id, password_hash, name, email, flag)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	err := r.db.QueryRow(
		query,
		user.ID,
		user.CompanyID,
		user.LoginID,
		user.PasswordHash,
		user.Name,
		user.Email,
		user.Flag,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		r.logger.Error("failed to create user",
			slog.String("login_id", user.LoginID),
			slog.String("company_id", user.CompanyID.String()),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *PostgresUserRepository) GetByID(id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("failed to get user by id",
			slog.String("id", id.String()),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// GetByCompanyAndLoginID retrieves a user by its login id within a company
func (r *PostgresUserRepository) GetByCompanyAndLoginID(companyID uuid.UUID, loginID string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE company_id = $1 AND login_id = $2`

	user, err := scanUser(r.db.QueryRow(query, companyID, loginID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by login id: %w", err)
	}

	return user, nil
}

// ExistsByCompanyAndLoginID reports whether a login id is taken within a company
func (r *PostgresUserRepository) ExistsByCompanyAndLoginID(companyID uuid.UUID, loginID string) (bool, error) {
	var exists bool

	query := `
		SELECT EXISTS (
			SELECT 1 FROM users WHERE company_id = $1 AND login_id = $2
		)
	`

	if err := r.db.QueryRow(query, companyID, loginID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check login id: %w", err)
	}

	return exists, nil
}

// Update updates an existing user
func (r *PostgresUserRepository) Update(user *domain.User) error {
	query := `
		UPDATE users
		SET login_id = $1, password_hash = $2, name = $3, email = $4, flag = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING updated_at
	`

	err := r.db.QueryRow(
		query,
		user.LoginID,
		user.PasswordHash,
		user.Name,
		user.Email,
		user.Flag,
		user.ID,
	).Scan(&user.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	return nil
}

// SoftDelete marks a user deleted without removing the row
func (r *PostgresUserRepository) SoftDelete(id uuid.UUID) error {
	query := `
		UPDATE users
		SET flag = $1, updated_at = NOW()
		WHERE id = $2 AND flag <> $1
	`

	result, err := r.db.Exec(query, domain.FlagDeleted, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
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

// SoftDeleteByCompany cascades a company soft-delete to its users
func (r *PostgresUserRepository) SoftDeleteByCompany(companyID uuid.UUID) error {
	query := `
		UPDATE users
		SET flag = $1, updated_at = NOW()
		WHERE company_id = $2 AND flag <> $1
	`

	if _, err := r.db.Exec(query, domain.FlagDeleted, companyID); err != nil {
		return fmt.Errorf("failed to delete company users: %w", err)
	}

	return nil
}

// Search returns users across all companies matching the keyword
func (r *PostgresUserRepository) Search(keyword string) ([]*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE flag <> $1 AND ($2 = '' OR name ILIKE '%' || $2 || '%' OR login_id ILIKE '%' || $2 || '%')
		ORDER BY created_at DESC
	`

	return r.queryUsers(query, domain.FlagDeleted, keyword)
}

// SearchByCompany returns a single company's users matching the keyword
func (r *PostgresUserRepository) SearchByCompany(companyID uuid.UUID, keyword string) ([]*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE company_id = $1 AND flag <> $2
			AND ($3 = '' OR name ILIKE '%' || $3 || '%' OR login_id ILIKE '%' || $3 || '%')
		ORDER BY created_at DESC
	`

	return r.queryUsers(query, companyID, domain.FlagDeleted, keyword)
}

func (r *PostgresUserRepository) queryUsers(query string, args ...any) ([]*domain.User, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		r.logger.Error("failed to list users",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	return users, rows.Err()
}
