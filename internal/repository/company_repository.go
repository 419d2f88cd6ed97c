package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/aswell/training-system/internal/domain"
)

// PostgresCompanyRepository implements domain.CompanyRepository using PostgreSQL
type PostgresCompanyRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresCompanyRepository creates a new company repository
func NewPostgresCompanyRepository(db *sql.DB, logger *slog.Logger) *PostgresCompanyRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCompanyRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new company
func (r *PostgresCompanyRepository) Create(company *domain.Company) error {
	query := `
		INSERT INTO companies (id, name, billing_email, flag)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`

	if company.ID == uuid.Nil {
		company.ID = uuid.New()
	}

	err := r.db.QueryRow(
		query,
		company.ID,
		company.Name,
		company.BillingEmail,
		company.Flag,
	).Scan(&company.CreatedAt, &company.UpdatedAt)

	if err != nil {
		r.logger.Error("failed to create company",
			slog.String("name", company.Name),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create company: %w", err)
	}

	return nil
}

// GetByID retrieves a company by ID
func (r *PostgresCompanyRepository) GetByID(id uuid.UUID) (*domain.Company, error) {
	company := &domain.Company{}

	query := `
		SELECT id, name, billing_email, flag, created_at, updated_at
		FROM companies
		WHERE id = $1
	`

	err := r.db.QueryRow(query, id).Scan(
		&company.ID,
		&company.Name,
		&company.BillingEmail,
		&company.Flag,
		&company.CreatedAt,
		&company.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("failed to get company by id",
			slog.String("id", id.String()),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to get company: %w", err)
	}

	return company, nil
}

// GetByName retrieves a company by case-insensitive exact name match
func (r *PostgresCompanyRepository) GetByName(name string) (*domain.Company, error) {
	company := &domain.Company{}

	query := `
		SELECT id, name, billing_email, flag, created_at, updated_at
		FROM companies
		WHERE LOWER(name) = LOWER($1)
	`

	err := r.db.QueryRow(query, name).Scan(
		&company.ID,
		&company.Name,
		&company.BillingEmail,
		&company.Flag,
		&company.CreatedAt,
		&company.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get company by name: %w", err)
	}

	return company, nil
}

// ExistsByName reports whether a company with the given name exists
func (r *PostgresCompanyRepository) ExistsByName(name string) (bool, error) {
	var exists bool

	query := `
		SELECT EXISTS (
			SELECT 1 FROM companies WHERE LOWER(name) = LOWER($1)
		)
	`

	if err := r.db.QueryRow(query, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check company name: %w", err)
	}

	return exists, nil
}

// Update updates an existing company
func (r *PostgresCompanyRepository) Update(company *domain.Company) error {
	query := `
		UPDATE companies
		SET name = $1, billing_email = $2, flag = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at
	`

	err := r.db.QueryRow(
		query,
		company.Name,
		company.BillingEmail,
		company.Flag,
		company.ID,
	).Scan(&company.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to update company: %w", err)
	}

	return nil
}

// SoftDelete marks a company deleted without removing the row
func (r *PostgresCompanyRepository) SoftDelete(id uuid.UUID) error {
	query := `
		UPDATE companies
		SET flag = $1, updated_at = NOW()
		WHERE id = $2 AND flag <> $1
	`

	result, err := r.db.Exec(query, domain.FlagDeleted, id)
	if err != nil {
		return fmt.Errorf("failed to delete company: %w", err)
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

// List returns companies matching the keyword, newest first. An empty
// keyword matches everything. Deleted companies are excluded.
func (r *PostgresCompanyRepository) List(keyword string) ([]*domain.Company, error) {
	query := `
		SELECT id, name, billing_email, flag, created_at, updated_at
		FROM companies
		WHERE flag <> $1 AND ($2 = '' OR name ILIKE '%' || $2 || '%')
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(query, domain.FlagDeleted, keyword)
	if err != nil {
		r.logger.Error("failed to list companies",
			slog.String("keyword", keyword),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	defer rows.Close()

	var companies []*domain.Company
	for rows.Next() {
		company := &domain.Company{}
		err := rows.Scan(
			&company.ID,
			&company.Name,
			&company.BillingEmail,
			&company.Flag,
			&company.CreatedAt,
			&company.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		companies = append(companies, company)
	}

	return companies, rows.Err()
}
