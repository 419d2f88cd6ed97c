package repository

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/aswell/training-system/internal/domain"
)

// PostgresUserRoleRepository implements domain.UserRoleRepository using PostgreSQL
type PostgresUserRoleRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresUserRoleRepository creates a new user/role link repository
func NewPostgresUserRoleRepository(db *sql.DB, logger *slog.Logger) *PostgresUserRoleRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresUserRoleRepository{
		db:     db,
		logger: logger,
	}
}

// Create links a user to a role
func (r *PostgresUserRoleRepository) Create(link *domain.UserRole) error {
	query := `
		INSERT INTO user_roles (id, user_id, role_id)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`

	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}

	err := r.db.QueryRow(query, link.ID, link.UserID, link.RoleID).Scan(&link.CreatedAt)
	if err != nil {
		r.logger.Error("failed to create user role link",
			slog.String("user_id", link.UserID.String()),
			slog.Int("role_id", int(link.RoleID)),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create user role link: %w", err)
	}

	return nil
}

// CodesByUser returns a user's role codes ordered by the catalog's sort rank
func (r *PostgresUserRoleRepository) CodesByUser(userID uuid.UUID) ([]string, error) {
	query := `
		SELECT ro.code
		FROM user_roles ur
		JOIN roles ro ON ro.id = ur.role_id
		WHERE ur.user_id = $1
		ORDER BY ro.sort_order, ro.id
	`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user roles: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("failed to scan role code: %w", err)
		}
		codes = append(codes, code)
	}

	return codes, rows.Err()
}

// DeleteByUser removes all role links for a user
func (r *PostgresUserRoleRepository) DeleteByUser(userID uuid.UUID) error {
	if _, err := r.db.Exec(`DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete user role links: %w", err)
	}

	return nil
}

// ExistsByRole reports whether any user still holds the role
func (r *PostgresUserRoleRepository) ExistsByRole(roleID int16) (bool, error) {
	var exists bool

	query := `SELECT EXISTS (SELECT 1 FROM user_roles WHERE role_id = $1)`

	if err := r.db.QueryRow(query, roleID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check role usage: %w", err)
	}

	return exists, nil
}

// PostgresTrainerAssignmentRepository implements domain.TrainerAssignmentRepository
// using PostgreSQL
type PostgresTrainerAssignmentRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresTrainerAssignmentRepository creates a new trainer assignment repository
func NewPostgresTrainerAssignmentRepository(db *sql.DB, logger *slog.Logger) *PostgresTrainerAssignmentRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTrainerAssignmentRepository{
		db:     db,
		logger: logger,
	}
}

// Create maps a trainee to a trainer
func (r *PostgresTrainerAssignmentRepository) Create(assignment *domain.TrainerAssignment) error {
	query := `
		INSERT INTO trainer_assignments (id, trainer_id, trainee_id)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`

	if assignment.ID == uuid.Nil {
		assignment.ID = uuid.New()
	}

	err := r.db.QueryRow(query, assignment.ID, assignment.TrainerID, assignment.TraineeID).Scan(&assignment.CreatedAt)
	if err != nil {
		r.logger.Error("failed to create trainer assignment",
			slog.String("trainer_id", assignment.TrainerID.String()),
			slog.String("trainee_id", assignment.TraineeID.String()),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create trainer assignment: %w", err)
	}

	return nil
}

// DeleteByTrainee removes a trainee's trainer mapping
func (r *PostgresTrainerAssignmentRepository) DeleteByTrainee(traineeID uuid.UUID) error {
	if _, err := r.db.Exec(`DELETE FROM trainer_assignments WHERE trainee_id = $1`, traineeID); err != nil {
		return fmt.Errorf("failed to delete trainer assignment: %w", err)
	}

	return nil
}
