package service

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/aswell/training-system/internal/domain"
	"github.com/aswell/training-system/internal/security"
	"github.com/aswell/training-system/internal/security/auth"
)

// TrainingService manages training templates: plans, main items, sub items
// and todos. Every operation is admin-gated through the policy.
type TrainingService struct {
	templates domain.TrainingRepository
	policy    *security.Policy
	logger    *slog.Logger
}

// NewTrainingService creates a new training template service.
func NewTrainingService(templates domain.TrainingRepository, policy *security.Policy, logger *slog.Logger) *TrainingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TrainingService{templates: templates, policy: policy, logger: logger}
}

// PlanParams carries plan create/update fields.
type PlanParams struct {
	Name         string
	Description  string
	ExpectedDays int
	Status       string
}

// MainItemParams carries main item create/update fields.
type MainItemParams struct {
	PlanID       int64
	Title        string
	Description  string
	ExpectedDays int
	SortOrder    int
}

// SubItemParams carries sub item create/update fields.
type SubItemParams struct {
	MainItemID  int64
	Title       string
	Description string
	SortOrder   int
}

// TodoParams carries todo create/update fields.
type TodoParams struct {
	SubItemID   int64
	Title       string
	Description string
	DayIndex    int
	SortOrder   int
}

func (s *TrainingService) requireAdmin(actor *auth.Principal) error {
	if actor == nil || !s.policy.Allow(actor, security.CapManageTraining, &actor.CompanyID) {
		return ErrForbidden
	}
	return nil
}

// ListPlans returns plans matching the keyword.
func (s *TrainingService) ListPlans(actor *auth.Principal, keyword string) ([]*domain.TrainingPlan, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}
	plans, err := s.templates.SearchPlans(keyword)
	if err != nil {
		return nil, fmt.Errorf("plan search failed: %w", err)
	}
	return plans, nil
}

// CreatePlan creates a plan owned by the acting user.
func (s *TrainingService) CreatePlan(actor *auth.Principal, p PlanParams) (*domain.TrainingPlan, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}
	plan := &domain.TrainingPlan{
		Name:         p.Name,
		Description:  p.Description,
		ExpectedDays: p.ExpectedDays,
		Status:       p.Status,
		CreatedBy:    actor.UserID,
	}
	if err := s.templates.CreatePlan(plan); err != nil {
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}
	s.logger.Info("training plan created",
		slog.Int64("plan_id", plan.ID),
		slog.String("created_by", actor.UserID.String()),
	)
	return plan, nil
}

// UpdatePlan rewrites a plan's fields.
func (s *TrainingService) UpdatePlan(actor *auth.Principal, id int64, p PlanParams) (*domain.TrainingPlan, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}
	plan, err := s.templates.GetPlan(id)
	if err != nil {
		return nil, notFoundOr(err, "plan")
	}
	plan.Name = p.Name
	plan.Description = p.Description
	plan.ExpectedDays = p.ExpectedDays
	plan.Status = p.Status
	if err := s.templates.UpdatePlan(plan); err != nil {
		return nil, fmt.Errorf("failed to update plan: %w", err)
	}
	return plan, nil
}

// DeletePlan removes a plan and, through the storage layer's cascade, its
// item hierarchy.
func (s *TrainingService) DeletePlan(actor *auth.Principal, id int64) error {
	if err := s.requireAdmin(actor); err != nil {
		return err
	}
	if err := s.templates.DeletePlan(id); err != nil {
		return notFoundOr(err, "plan")
	}
	return nil
}

// ListMainItems returns a plan's main items in sort order.
func (s *TrainingService) ListMainItems(actor *auth.Principal, planID int64) ([]*domain.TrainingMainItem, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}
	if _, err := s.templates.GetPlan(planID); err != nil {
		return nil, notFoundOr(err, "plan")
	}
	items, err := s.templates.ListMainItems(planID)
	if err != nil {
		return nil, fmt.Errorf("main item list failed: %w", err)
	}
	return items, nil
}

// CreateMainItem adds a main item to a plan.
func (s *TrainingService) CreateMainItem(actor *auth.Principal, p MainItemParams) (*domain.TrainingMainItem, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}
	if _, err := s.templates.GetPlan(p.PlanID); err != nil {
		return nil, notFoundOr(err, "plan")
	}
	item := &domain.TrainingMainItem{
		PlanID:       p.PlanID,
		Title:        p.Title,
		Description:  p.Description,
		ExpectedDays: p.ExpectedDays,
		SortOrder:    p.SortOrder,
	}
	if err := s.templates.CreateMainItem(item); err != nil {
		return nil, fmt.Errorf("failed to create main item: %w", err)
	}
	return item, nil
}

// UpdateMainItem rewrites a main item, re-parenting it when the plan id
// changes.
func (s *TrainingService) UpdateMainItem(actor *auth.Principal, id int64, p MainItemParams) (*domain.TrainingMainItem, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}
	item, err := s.templates.GetMainItem(id)
	if err != nil {
		return nil, notFoundOr(err, "main item")
	}
	if item.PlanID != p.PlanID {
		if _, err := s.templates.GetPlan(p.PlanID); err != nil {
			return nil, notFoundOr(err, "plan")
		}
		item.PlanID = p.PlanID
	}
	item.Title = p.Title
	item.Description = p.Description
	item.ExpectedDays = p.ExpectedDays
	item.SortOrder = p.SortOrder
	if err := s.templates.UpdateMainItem(item); err != nil {
		return nil, fmt.Errorf("failed to update main item: %w", err)
	}
	return item, nil
}

// DeleteMainItem removes a main item.
func (s *TrainingService) DeleteMainItem(actor *auth.Principal, id int64) error {
	if err := s.requireAdmin(actor); err != nil {
		return err
	}
	if err := s.templates.DeleteMainItem(id); err != nil {
		return notFoundOr(err, "main item")
	}
	return nil
}

// ListSubItems returns a main item's sub items in sort order.
func (s *TrainingService) ListSubItems(actor *auth.Principal, mainItemID int64) ([]*domain.TrainingSubItem, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}
	if _, err := s.templates.GetMainItem(mainItemID); err != nil {
		return nil, notFoundOr(err, "main item")
	}
	items, err := s.templates.ListSubItems(mainItemID)
	if err != nil {
		return nil, fmt.Errorf("sub item list failed: %w", err)
	}
	return items, nil
}

// CreateSubItem adds a sub item to a main item.
func (s *TrainingService) CreateSubItem(actor *auth.Principal, p SubItemParams) (*domain.TrainingSubItem, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}
	if _, err := s.templates.GetMainItem(p.MainItemID); err != nil {
		return nil, notFoundOr(err, "main item")
	}
	item := &domain.TrainingSubItem{
		MainItemID:  p.MainItemID,
		Title:       p.Title,
		Description: p.Description,
		SortOrder:   p.SortOrder,
	}
	if err := s.templates.CreateSubItem(item); err != nil {
		return nil, fmt.Errorf("failed to create sub item: %w", err)
	}
	return item, nil
}

// UpdateSubItem rewrites a sub item.
func (s *TrainingService) UpdateSubItem(actor *auth.Principal, id int64, p SubItemParams) (*domain.TrainingSubItem, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}
	item, err := s.templates.GetSubItem(id)
	if err != nil {
		return nil, notFoundOr(err, "sub item")
	}
	if item.MainItemID != p.MainItemID {
		if _, err := s.templates.GetMainItem(p.MainItemID); err != nil {
			return nil, notFoundOr(err, "main item")
		}
		item.MainItemID = p.MainItemID
	}
	item.Title = p.Title
	item.Description = p.Description
	item.SortOrder = p.SortOrder
	if err := s.templates.UpdateSubItem(item); err != nil {
		return nil, fmt.Errorf("failed to update sub item: %w", err)
	}
	return item, nil
}

// DeleteSubItem removes a sub item.
func (s *TrainingService) DeleteSubItem(actor *auth.Principal, id int64) error {
	if err := s.requireAdmin(actor); err != nil {
		return err
	}
	if err := s.templates.DeleteSubItem(id); err != nil {
		return notFoundOr(err, "sub item")
	}
	return nil
}

// ListTodos returns a sub item's todos in sort order.
func (s *TrainingService) ListTodos(actor *auth.Principal, subItemID int64) ([]*domain.TrainingTodo, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}
	if _, err := s.templates.GetSubItem(subItemID); err != nil {
		return nil, notFoundOr(err, "sub item")
	}
	todos, err := s.templates.ListTodos(subItemID)
	if err != nil {
		return nil, fmt.Errorf("todo list failed: %w", err)
	}
	return todos, nil
}

// CreateTodo adds a todo to a sub item.
func (s *TrainingService) CreateTodo(actor *auth.Principal, p TodoParams) (*domain.TrainingTodo, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}
	if _, err := s.templates.GetSubItem(p.SubItemID); err != nil {
		return nil, notFoundOr(err, "sub item")
	}
	todo := &domain.TrainingTodo{
		SubItemID:   p.SubItemID,
		Title:       p.Title,
		Description: p.Description,
		DayIndex:    p.DayIndex,
		SortOrder:   p.SortOrder,
	}
	if err := s.templates.CreateTodo(todo); err != nil {
		return nil, fmt.Errorf("failed to create todo: %w", err)
	}
	return todo, nil
}

// UpdateTodo rewrites a todo.
func (s *TrainingService) UpdateTodo(actor *auth.Principal, id int64, p TodoParams) (*domain.TrainingTodo, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}
	todo, err := s.templates.GetTodo(id)
	if err != nil {
		return nil, notFoundOr(err, "todo")
	}
	if todo.SubItemID != p.SubItemID {
		if _, err := s.templates.GetSubItem(p.SubItemID); err != nil {
			return nil, notFoundOr(err, "sub item")
		}
		todo.SubItemID = p.SubItemID
	}
	todo.Title = p.Title
	todo.Description = p.Description
	todo.DayIndex = p.DayIndex
	todo.SortOrder = p.SortOrder
	if err := s.templates.UpdateTodo(todo); err != nil {
		return nil, fmt.Errorf("failed to update todo: %w", err)
	}
	return todo, nil
}

// DeleteTodo removes a todo.
func (s *TrainingService) DeleteTodo(actor *auth.Principal, id int64) error {
	if err := s.requireAdmin(actor); err != nil {
		return err
	}
	if err := s.templates.DeleteTodo(id); err != nil {
		return notFoundOr(err, "todo")
	}
	return nil
}

func notFoundOr(err error, what string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return err
}
