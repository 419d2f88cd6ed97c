package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/aswell/training-system/internal/domain"
	"github.com/aswell/training-system/internal/security/middleware"
	"github.com/aswell/training-system/internal/service"
)

// PlanResponse is the JSON view of a training plan.
type PlanResponse struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	ExpectedDays int       `json:"expectedDays"`
	Status       string    `json:"status"`
	CreatedBy    uuid.UUID `json:"createdBy"`
}

// PlanRequest carries plan create/update fields.
type PlanRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	ExpectedDays int    `json:"expectedDays"`
	Status       string `json:"status"`
}

// MainItemResponse is the JSON view of a main item.
type MainItemResponse struct {
	ID           int64  `json:"id"`
	PlanID       int64  `json:"planId"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	ExpectedDays int    `json:"expectedDays"`
	SortOrder    int    `json:"sortOrder"`
}

// SubItemResponse is the JSON view of a sub item.
type SubItemResponse struct {
	ID          int64  `json:"id"`
	MainItemID  int64  `json:"mainItemId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	SortOrder   int    `json:"sortOrder"`
}

// TodoResponse is the JSON view of a todo.
type TodoResponse struct {
	ID          int64  `json:"id"`
	SubItemID   int64  `json:"subItemId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	DayIndex    int    `json:"dayIndex"`
	SortOrder   int    `json:"sortOrder"`
}

// MainItemRequest carries main item create/update fields.
type MainItemRequest struct {
	PlanID       int64  `json:"planId"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	ExpectedDays int    `json:"expectedDays"`
	SortOrder    int    `json:"sortOrder"`
}

// SubItemRequest carries sub item create/update fields.
type SubItemRequest struct {
	MainItemID  int64  `json:"mainItemId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	SortOrder   int    `json:"sortOrder"`
}

// TodoRequest carries todo create/update fields.
type TodoRequest struct {
	SubItemID   int64  `json:"subItemId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	DayIndex    int    `json:"dayIndex"`
	SortOrder   int    `json:"sortOrder"`
}

// TrainingHandler serves /api/training.
type TrainingHandler struct {
	training *service.TrainingService
	logger   *slog.Logger
}

// NewTrainingHandler creates a new training template handler.
func NewTrainingHandler(training *service.TrainingService, logger *slog.Logger) *TrainingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TrainingHandler{training: training, logger: logger}
}

func toPlanResponse(p *domain.TrainingPlan) PlanResponse {
	return PlanResponse{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		ExpectedDays: p.ExpectedDays,
		Status:       p.Status,
		CreatedBy:    p.CreatedBy,
	}
}

func toMainItemResponse(i *domain.TrainingMainItem) MainItemResponse {
	return MainItemResponse{
		ID:           i.ID,
		PlanID:       i.PlanID,
		Title:        i.Title,
		Description:  i.Description,
		ExpectedDays: i.ExpectedDays,
		SortOrder:    i.SortOrder,
	}
}

func toSubItemResponse(i *domain.TrainingSubItem) SubItemResponse {
	return SubItemResponse{
		ID:          i.ID,
		MainItemID:  i.MainItemID,
		Title:       i.Title,
		Description: i.Description,
		SortOrder:   i.SortOrder,
	}
}

func toTodoResponse(t *domain.TrainingTodo) TodoResponse {
	return TodoResponse{
		ID:          t.ID,
		SubItemID:   t.SubItemID,
		Title:       t.Title,
		Description: t.Description,
		DayIndex:    t.DayIndex,
		SortOrder:   t.SortOrder,
	}
}

// ListPlans handles GET /api/training/plans.
func (h *TrainingHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	actor := middleware.PrincipalFromContext(r.Context())
	plans, err := h.training.ListPlans(actor, r.URL.Query().Get("keyword"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	out := make([]PlanResponse, 0, len(plans))
	for _, p := range plans {
		out = append(out, toPlanResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

// CreatePlan handles POST /api/training/plans.
func (h *TrainingHandler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	actor := middleware.PrincipalFromContext(r.Context())
	plan, err := h.training.CreatePlan(actor, service.PlanParams(req))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPlanResponse(plan))
}

// UpdatePlan handles PUT /api/training/plans/{id}.
func (h *TrainingHandler) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	id, ok := parseInt64Path(w, r, "id")
	if !ok {
		return
	}

	var req PlanRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	actor := middleware.PrincipalFromContext(r.Context())
	plan, err := h.training.UpdatePlan(actor, id, service.PlanParams(req))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanResponse(plan))
}

// DeletePlan handles DELETE /api/training/plans/{id}.
func (h *TrainingHandler) DeletePlan(w http.ResponseWriter, r *http.Request) {
	id, ok := parseInt64Path(w, r, "id")
	if !ok {
		return
	}

	actor := middleware.PrincipalFromContext(r.Context())
	if err := h.training.DeletePlan(actor, id); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListMainItems handles GET /api/training/plans/{id}/items.
func (h *TrainingHandler) ListMainItems(w http.ResponseWriter, r *http.Request) {
	planID, ok := parseInt64Path(w, r, "id")
	if !ok {
		return
	}

	actor := middleware.PrincipalFromContext(r.Context())
	items, err := h.training.ListMainItems(actor, planID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	out := make([]MainItemResponse, 0, len(items))
	for _, i := range items {
		out = append(out, toMainItemResponse(i))
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateMainItem handles POST /api/training/items.
func (h *TrainingHandler) CreateMainItem(w http.ResponseWriter, r *http.Request) {
	var req MainItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Title == "" || req.PlanID == 0 {
		writeError(w, http.StatusBadRequest, "planId and title are required")
		return
	}

	actor := middleware.PrincipalFromContext(r.Context())
	item, err := h.training.CreateMainItem(actor, service.MainItemParams(req))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMainItemResponse(item))
}

// UpdateMainItem handles PUT /api/training/items/{id}.
func (h *TrainingHandler) UpdateMainItem(w http.ResponseWriter, r *http.Request) {
	id, ok := parseInt64Path(w, r, "id")
	if !ok {
		return
	}

	var req MainItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	actor := middleware.PrincipalFromContext(r.Context())
	item, err := h.training.UpdateMainItem(actor, id, service.MainItemParams(req))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toMainItemResponse(item))
}

// DeleteMainItem handles DELETE /api/training/items/{id}.
func (h *TrainingHandler) DeleteMainItem(w http.ResponseWriter, r *http.Request) {
	id, ok := parseInt64Path(w, r, "id")
	if !ok {
		return
	}

	actor := middleware.PrincipalFromContext(r.Context())
	if err := h.training.DeleteMainItem(actor, id); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListSubItems handles GET /api/training/items/{id}/subitems.
func (h *TrainingHandler) ListSubItems(w http.ResponseWriter, r *http.Request) {
	mainItemID, ok := parseInt64Path(w, r, "id")
	if !ok {
		return
	}

	actor := middleware.PrincipalFromContext(r.Context())
	items, err := h.training.ListSubItems(actor, mainItemID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	out := make([]SubItemResponse, 0, len(items))
	for _, i := range items {
		out = append(out, toSubItemResponse(i))
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateSubItem handles POST /api/training/subitems.
func (h *TrainingHandler) CreateSubItem(w http.ResponseWriter, r *http.Request) {
	var req SubItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Title == "" || req.MainItemID == 0 {
		writeError(w, http.StatusBadRequest, "mainItemId and title are required")
		return
	}

	actor := middleware.PrincipalFromContext(r.Context())
	item, err := h.training.CreateSubItem(actor, service.SubItemParams(req))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSubItemResponse(item))
}

// UpdateSubItem handles PUT /api/training/subitems/{id}.
func (h *TrainingHandler) UpdateSubItem(w http.ResponseWriter, r *http.Request) {
	id, ok := parseInt64Path(w, r, "id")
	if !ok {
		return
	}

	var req SubItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	actor := middleware.PrincipalFromContext(r.Context())
	item, err := h.training.UpdateSubItem(actor, id, service.SubItemParams(req))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubItemResponse(item))
}

// DeleteSubItem handles DELETE /api/training/subitems/{id}.
func (h *TrainingHandler) DeleteSubItem(w http.ResponseWriter, r *http.Request) {
	id, ok := parseInt64Path(w, r, "id")
	if !ok {
		return
	}

	actor := middleware.PrincipalFromContext(r.Context())
	if err := h.training.DeleteSubItem(actor, id); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListTodos handles GET /api/training/subitems/{id}/todos.
func (h *TrainingHandler) ListTodos(w http.ResponseWriter, r *http.Request) {
	subItemID, ok := parseInt64Path(w, r, "id")
	if !ok {
		return
	}

	actor := middleware.PrincipalFromContext(r.Context())
	todos, err := h.training.ListTodos(actor, subItemID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	out := make([]TodoResponse, 0, len(todos))
	for _, t := range todos {
		out = append(out, toTodoResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateTodo handles POST /api/training/todos.
func (h *TrainingHandler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	var req TodoRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Title == "" || req.SubItemID == 0 {
		writeError(w, http.StatusBadRequest, "subItemId and title are required")
		return
	}

	actor := middleware.PrincipalFromContext(r.Context())
	todo, err := h.training.CreateTodo(actor, service.TodoParams(req))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTodoResponse(todo))
}

// UpdateTodo handles PUT /api/training/todos/{id}.
func (h *TrainingHandler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := parseInt64Path(w, r, "id")
	if !ok {
		return
	}

	var req TodoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	actor := middleware.PrincipalFromContext(r.Context())
	todo, err := h.training.UpdateTodo(actor, id, service.TodoParams(req))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toTodoResponse(todo))
}

// DeleteTodo handles DELETE /api/training/todos/{id}.
func (h *TrainingHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := parseInt64Path(w, r, "id")
	if !ok {
		return
	}

	actor := middleware.PrincipalFromContext(r.Context())
	if err := h.training.DeleteTodo(actor, id); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseInt64Path(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return id, true
}
