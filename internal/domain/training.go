package domain

import (
	"time"

	"github.com/google/uuid"
)

// TrainingPlan is the top level of a training template.
type TrainingPlan struct {
	ID           int64
	Name         string
	Description  string
	ExpectedDays int
	Status       string
	CreatedBy    uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TrainingMainItem groups sub items within a plan.
type TrainingMainItem struct {
	ID           int64
	PlanID       int64
	Title        string
	Description  string
	ExpectedDays int
	SortOrder    int
}

// TrainingSubItem groups todos within a main item.
type TrainingSubItem struct {
	ID          int64
	MainItemID  int64
	Title       string
	Description string
	SortOrder   int
}

// TrainingTodo is a single actionable step scheduled on a day index.
type TrainingTodo struct {
	ID          int64
	SubItemID   int64
	Title       string
	Description string
	DayIndex    int
	SortOrder   int
}

// TrainingRepository defines data access for the template hierarchy.
// Listing methods return rows ordered by sort order, then id.
type TrainingRepository interface {
	CreatePlan(plan *TrainingPlan) error
	GetPlan(id int64) (*TrainingPlan, error)
	UpdatePlan(plan *TrainingPlan) error
	DeletePlan(id int64) error
	SearchPlans(keyword string) ([]*TrainingPlan, error)

	CreateMainItem(item *TrainingMainItem) error
	GetMainItem(id int64) (*TrainingMainItem, error)
	UpdateMainItem(item *TrainingMainItem) error
	DeleteMainItem(id int64) error
	ListMainItems(planID int64) ([]*TrainingMainItem, error)

	CreateSubItem(item *TrainingSubItem) error
	GetSubItem(id int64) (*TrainingSubItem, error)
	UpdateSubItem(item *TrainingSubItem) error
	DeleteSubItem(id int64) error
	ListSubItems(mainItemID int64) ([]*TrainingSubItem, error)

	CreateTodo(todo *TrainingTodo) error
	GetTodo(id int64) (*TrainingTodo, error)
	UpdateTodo(todo *TrainingTodo) error
	DeleteTodo(id int64) error
	ListTodos(subItemID int64) ([]*TrainingTodo, error)
}
