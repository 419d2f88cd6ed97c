package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aswell/training-system/internal/domain"
)

// PostgresTrainingRepository implements domain.TrainingRepository using
// PostgreSQL. Deleting a parent row cascades to its children through the
// schema's ON DELETE CASCADE constraints.
type PostgresTrainingRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresTrainingRepository creates a new training template repository
func NewPostgresTrainingRepository(db *sql.DB, logger *slog.Logger) *PostgresTrainingRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTrainingRepository{
		db:     db,
		logger: logger,
	}
}

// CreatePlan creates a new training plan
func (r *PostgresTrainingRepository) CreatePlan(plan *domain.TrainingPlan) error {
	query := `
		INSERT INTO training_plans (name, description, expected_days, status, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		query,
		plan.Name,
		plan.Description,
		plan.ExpectedDays,
		plan.Status,
		plan.CreatedBy,
	).Scan(&plan.ID, &plan.CreatedAt, &plan.UpdatedAt)

	if err != nil {
		r.logger.Error("failed to create training plan",
			slog.String("name", plan.Name),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create training plan: %w", err)
	}

	return nil
}

// GetPlan retrieves a training plan by ID
func (r *PostgresTrainingRepository) GetPlan(id int64) (*domain.TrainingPlan, error) {
	plan := &domain.TrainingPlan{}

	query := `
		SELECT id, name, description, expected_days, status, created_by, created_at, updated_at
		FROM training_plans
		WHERE id = $1
	`

	err := r.db.QueryRow(query, id).Scan(
		&plan.ID,
		&plan.Name,
		&plan.Description,
		&plan.ExpectedDays,
		&plan.Status,
		&plan.CreatedBy,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get training plan: %w", err)
	}

	return plan, nil
}

// UpdatePlan updates an existing training plan
func (r *PostgresTrainingRepository) UpdatePlan(plan *domain.TrainingPlan) error {
	query := `
		UPDATE training_plans
		SET name = $1, description = $2, expected_days = $3, status = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at
	`

	err := r.db.QueryRow(
		query,
		plan.Name,
		plan.Description,
		plan.ExpectedDays,
		plan.Status,
		plan.ID,
	).Scan(&plan.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to update training plan: %w", err)
	}

	return nil
}

// DeletePlan deletes a training plan and its item tree
func (r *PostgresTrainingRepository) DeletePlan(id int64) error {
	return r.deleteByID("training_plans", id)
}

// SearchPlans returns plans matching the keyword, newest first
func (r *PostgresTrainingRepository) SearchPlans(keyword string) ([]*domain.TrainingPlan, error) {
	query := `
		SELECT id, name, description, expected_days, status, created_by, created_at, updated_at
		FROM training_plans
		WHERE $1 = '' OR name ILIKE '%' || $1 || '%'
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(query, keyword)
	if err != nil {
		r.logger.Error("failed to search training plans",
			slog.String("keyword", keyword),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to search training plans: %w", err)
	}
	defer rows.Close()

	var plans []*domain.TrainingPlan
	for rows.Next() {
		plan := &domain.TrainingPlan{}
		err := rows.Scan(
			&plan.ID,
			&plan.Name,
			&plan.Description,
			&plan.ExpectedDays,
			&plan.Status,
			&plan.CreatedBy,
			&plan.CreatedAt,
			&plan.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan training plan: %w", err)
		}
		plans = append(plans, plan)
	}

	return plans, rows.Err()
}

// CreateMainItem creates a new main item
func (r *PostgresTrainingRepository) CreateMainItem(item *domain.TrainingMainItem) error {
	query := `
		INSERT INTO training_main_items (plan_id, title, description, expected_days, sort_order)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.db.QueryRow(
		query,
		item.PlanID,
		item.Title,
		item.Description,
		item.ExpectedDays,
		item.SortOrder,
	).Scan(&item.ID)

	if err != nil {
		return fmt.Errorf("failed to create main item: %w", err)
	}

	return nil
}

// GetMainItem retrieves a main item by ID
func (r *PostgresTrainingRepository) GetMainItem(id int64) (*domain.TrainingMainItem, error) {
	item := &domain.TrainingMainItem{}

	query := `
		SELECT id, plan_id, title, description, expected_days, sort_order
		FROM training_main_items
		WHERE id = $1
	`

	err := r.db.QueryRow(query, id).Scan(
		&item.ID,
		&item.PlanID,
		&item.Title,
		&item.Description,
		&item.ExpectedDays,
		&item.SortOrder,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get main item: %w", err)
	}

	return item, nil
}

// UpdateMainItem updates an existing main item
func (r *PostgresTrainingRepository) UpdateMainItem(item *domain.TrainingMainItem) error {
	query := `
		UPDATE training_main_items
		SET plan_id = $1, title = $2, description = $3, expected_days = $4, sort_order = $5
		WHERE id = $6
	`

	return r.execExpectingRow(query,
		item.PlanID, item.Title, item.Description, item.ExpectedDays, item.SortOrder, item.ID)
}

// DeleteMainItem deletes a main item and its children
func (r *PostgresTrainingRepository) DeleteMainItem(id int64) error {
	return r.deleteByID("training_main_items", id)
}

// ListMainItems returns a plan's main items in sort order
func (r *PostgresTrainingRepository) ListMainItems(planID int64) ([]*domain.TrainingMainItem, error) {
	query := `
		SELECT id, plan_id, title, description, expected_days, sort_order
		FROM training_main_items
		WHERE plan_id = $1
		ORDER BY sort_order, id
	`

	rows, err := r.db.Query(query, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to list main items: %w", err)
	}
	defer rows.Close()

	var items []*domain.TrainingMainItem
	for rows.Next() {
		item := &domain.TrainingMainItem{}
		err := rows.Scan(
			&item.ID,
			&item.PlanID,
			&item.Title,
			&item.Description,
			&item.ExpectedDays,
			&item.SortOrder,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan main item: %w", err)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

// CreateSubItem creates a new sub item
func (r *PostgresTrainingRepository) CreateSubItem(item *domain.TrainingSubItem) error {
	query := `
		INSERT INTO training_sub_items (main_item_id, title, description, sort_order)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.db.QueryRow(
		query,
		item.MainItemID,
		item.Title,
		item.Description,
		item.SortOrder,
	).Scan(&item.ID)

	if err != nil {
		return fmt.Errorf("failed to create sub item: %w", err)
	}

	return nil
}

// GetSubItem retrieves a sub item by ID
func (r *PostgresTrainingRepository) GetSubItem(id int64) (*domain.TrainingSubItem, error) {
	item := &domain.TrainingSubItem{}

	query := `
		SELECT id, main_item_id, title, description, sort_order
		FROM training_sub_items
		WHERE id = $1
	`

	err := r.db.QueryRow(query, id).Scan(
		&item.ID,
		&item.MainItemID,
		&item.Title,
		&item.Description,
		&item.SortOrder,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get sub item: %w", err)
	}

	return item, nil
}

// UpdateSubItem updates an existing sub item
func (r *PostgresTrainingRepository) UpdateSubItem(item *domain.TrainingSubItem) error {
	query := `
		UPDATE training_sub_items
		SET main_item_id = $1, title = $2, description = $3, sort_order = $4
		WHERE id = $5
	`

	return r.execExpectingRow(query,
		item.MainItemID, item.Title, item.Description, item.SortOrder, item.ID)
}

// DeleteSubItem deletes a sub item and its todos
func (r *PostgresTrainingRepository) DeleteSubItem(id int64) error {
	return r.deleteByID("training_sub_items", id)
}

// ListSubItems returns a main item's sub items in sort order
func (r *PostgresTrainingRepository) ListSubItems(mainItemID int64) ([]*domain.TrainingSubItem, error) {
	query := `
		SELECT id, main_item_id, title, description, sort_order
		FROM training_sub_items
		WHERE main_item_id = $1
		ORDER BY sort_order, id
	`

	rows, err := r.db.Query(query, mainItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sub items: %w", err)
	}
	defer rows.Close()

	var items []*domain.TrainingSubItem
	for rows.Next() {
		item := &domain.TrainingSubItem{}
		err := rows.Scan(
			&item.ID,
			&item.MainItemID,
			&item.Title,
			&item.Description,
			&item.SortOrder,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sub item: %w", err)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

// CreateTodo creates a new todo
func (r *PostgresTrainingRepository) CreateTodo(todo *domain.TrainingTodo) error {
	query := `
		INSERT INTO training_todos (sub_item_id, title, description, day_index, sort_order)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.db.QueryRow(
		query,
		todo.SubItemID,
		todo.Title,
		todo.Description,
		todo.DayIndex,
		todo.SortOrder,
	).Scan(&todo.ID)

	if err != nil {
		return fmt.Errorf("failed to create todo: %w", err)
	}

	return nil
}

// GetTodo retrieves a todo by ID
func (r *PostgresTrainingRepository) GetTodo(id int64) (*domain.TrainingTodo, error) {
	todo := &domain.TrainingTodo{}

	query := `
		SELECT id, sub_item_id, title, description, day_index, sort_order
		FROM training_todos
		WHERE id = $1
	`

	err := r.db.QueryRow(query, id).Scan(
		&todo.ID,
		&todo.SubItemID,
		&todo.Title,
		&todo.Description,
		&todo.DayIndex,
		&todo.SortOrder,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get todo: %w", err)
	}

	return todo, nil
}

// UpdateTodo updates an existing todo
func (r *PostgresTrainingRepository) UpdateTodo(todo *domain.TrainingTodo) error {
	query := `
		UPDATE training_todos
		SET sub_item_id = $1, title = $2, description = $3, day_index = $4, sort_order = $5
		WHERE id = $6
	`

	return r.execExpectingRow(query,
		todo.SubItemID, todo.Title, todo.Description, todo.DayIndex, todo.SortOrder, todo.ID)
}

// DeleteTodo deletes a todo
func (r *PostgresTrainingRepository) DeleteTodo(id int64) error {
	return r.deleteByID("training_todos", id)
}

// ListTodos returns a sub item's todos in sort order
func (r *PostgresTrainingRepository) ListTodos(subItemID int64) ([]*domain.TrainingTodo, error) {
	query := `
		SELECT id, sub_item_id, title, description, day_index, sort_order
		FROM training_todos
		WHERE sub_item_id = $1
		ORDER BY sort_order, id
	`

	rows, err := r.db.Query(query, subItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	defer rows.Close()

	var todos []*domain.TrainingTodo
	for rows.Next() {
		todo := &domain.TrainingTodo{}
		err := rows.Scan(
			&todo.ID,
			&todo.SubItemID,
			&todo.Title,
			&todo.Description,
			&todo.DayIndex,
			&todo.SortOrder,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, todo)
	}

	return todos, rows.Err()
}

func (r *PostgresTrainingRepository) execExpectingRow(query string, args ...any) error {
	result, err := r.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("update failed: %w", err)
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

func (r *PostgresTrainingRepository) deleteByID(table string, id int64) error {
	result, err := r.db.Exec(`DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete failed: %w", err)
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
