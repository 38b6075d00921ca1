package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"peopledesk/internal/domain/audit"
	"peopledesk/internal/domain/authz"
	"peopledesk/internal/domain/goals"
	"peopledesk/internal/domain/notifications"
	"peopledesk/internal/platform/requestctx"
	"peopledesk/internal/transport/http/api"
	"peopledesk/internal/transport/http/shared"
)

type GoalsHandler struct {
	Store         *goals.Store
	Calc          *authz.Calculator
	Audit         *audit.Service
	Notifications *notifications.Service
}

func NewGoalsHandler(store *goals.Store, calc *authz.Calculator, auditSvc *audit.Service, notify *notifications.Service) *GoalsHandler {
	return &GoalsHandler{Store: store, Calc: calc, Audit: auditSvc, Notifications: notify}
}

func (h *GoalsHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	scope, err := h.Calc.ListScope(r.Context(), principal, r.URL.Query().Get("userId"))
	if err != nil {
		failWith(w, r, err)
		return
	}

	page := shared.ParsePagination(r, defaultPageLimit, maxPageLimit)
	filters := goals.Filters{
		Status:   r.URL.Query().Get("status"),
		Category: r.URL.Query().Get("category"),
	}

	records, total, err := h.Store.List(r.Context(), scope, filters, page.Limit, page.Offset())
	if err != nil {
		failWith(w, r, err)
		return
	}
	stats, err := h.Store.StatsByStatus(r.Context(), scope)
	if err != nil {
		failWith(w, r, err)
		return
	}

	api.Success(w, listResponse{Records: emptyIfNil(records), Stats: stats, Meta: page.Meta(total)})
}

func (h *GoalsHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	goal, err := h.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		failWith(w, r, err)
		return
	}
	allowed, err := h.Calc.CanAccess(r.Context(), principal, authz.RecordRef{SubjectID: goal.UserID})
	if err != nil {
		failWith(w, r, err)
		return
	}
	if !allowed {
		failWith(w, r, authz.ErrForbidden)
		return
	}

	comments, err := h.Store.ListComments(r.Context(), goal.ID)
	if err != nil {
		failWith(w, r, err)
		return
	}

	api.Success(w, map[string]any{
		"goal":     goal,
		"comments": emptyIfNil(comments),
	})
}

type goalRequest struct {
	UserID      string  `json:"userId"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Status      string  `json:"status"`
	Progress    float64 `json:"progress"`
	TargetDate  string  `json:"targetDate"`
}

func (h *GoalsHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var req goalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	v := shared.NewValidator()
	v.Required("title", req.Title)
	req.Status = v.Enum("status", req.Status, goals.Statuses)
	v.Range("progress", req.Progress, 0, 100)
	var targetDate *time.Time
	if req.TargetDate != "" {
		if parsed, ok := v.Date("targetDate", req.TargetDate); ok {
			targetDate = &parsed
		}
	}
	if v.Reject(w) {
		return
	}

	// An omitted subject means the caller's own goal; a supplied one must
	// be inside the caller's mutation scope.
	subjectID := req.UserID
	if subjectID == "" {
		subjectID = principal.ID
	}
	if subjectID != principal.ID {
		allowed, err := h.Calc.CanMutate(r.Context(), principal, authz.RecordRef{SubjectID: subjectID})
		if err != nil {
			failWith(w, r, err)
			return
		}
		if !allowed {
			failWith(w, r, authz.ErrForbidden)
			return
		}
	}

	status := req.Status
	if status == "" {
		status = goals.StatusNotStarted
	}

	id, err := h.Store.Create(r.Context(), subjectID, req.Title, req.Description, req.Category, status, req.Progress, targetDate)
	if err != nil {
		failWith(w, r, err)
		return
	}
	goal, err := h.Store.Get(r.Context(), id)
	if err != nil {
		failWith(w, r, err)
		return
	}

	h.record(r, principal.ID, "goal.create", id, nil, goal)
	if subjectID != principal.ID {
		if err := h.Notifications.Create(r.Context(), subjectID, notifications.TypeGoalCreated, "New goal", "A goal was created for you: "+goal.Title); err != nil {
			slog.Warn("goal notification failed", "err", err, "goalId", id)
		}
	}

	api.Created(w, goal)
}

func (h *GoalsHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	existing, err := h.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		failWith(w, r, err)
		return
	}
	allowed, err := h.Calc.CanMutate(r.Context(), principal, authz.RecordRef{SubjectID: existing.UserID})
	if err != nil {
		failWith(w, r, err)
		return
	}
	if !allowed {
		failWith(w, r, authz.ErrForbidden)
		return
	}

	var req struct {
		Title       *string  `json:"title"`
		Description *string  `json:"description"`
		Category    *string  `json:"category"`
		Status      *string  `json:"status"`
		Progress    *float64 `json:"progress"`
		TargetDate  *string  `json:"targetDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated := existing
	v := shared.NewValidator()
	if req.Title != nil {
		updated.Title = *req.Title
		v.Required("title", updated.Title)
	}
	if req.Description != nil {
		updated.Description = *req.Description
	}
	if req.Category != nil {
		updated.Category = *req.Category
	}
	if req.Status != nil {
		updated.Status = v.Enum("status", *req.Status, goals.Statuses)
	}
	if req.Progress != nil {
		updated.Progress = *req.Progress
		v.Range("progress", updated.Progress, 0, 100)
	}
	if req.TargetDate != nil {
		if *req.TargetDate == "" {
			updated.TargetDate = nil
		} else if parsed, ok := v.Date("targetDate", *req.TargetDate); ok {
			updated.TargetDate = &parsed
		}
	}
	if v.Reject(w) {
		return
	}

	if err := h.Store.Update(r.Context(), existing.ID, updated); err != nil {
		failWith(w, r, err)
		return
	}

	h.record(r, principal.ID, "goal.update", existing.ID, existing, updated)
	api.Success(w, updated)
}

func (h *GoalsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	existing, err := h.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		failWith(w, r, err)
		return
	}
	allowed, err := h.Calc.CanMutate(r.Context(), principal, authz.RecordRef{SubjectID: existing.UserID})
	if err != nil {
		failWith(w, r, err)
		return
	}
	if !allowed {
		failWith(w, r, authz.ErrForbidden)
		return
	}

	if err := h.Store.Delete(r.Context(), existing.ID); err != nil {
		failWith(w, r, err)
		return
	}

	h.record(r, principal.ID, "goal.delete", existing.ID, existing, nil)
	api.Message(w, "Goal deleted")
}

func (h *GoalsHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	goal, err := h.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		failWith(w, r, err)
		return
	}
	allowed, err := h.Calc.CanAccess(r.Context(), principal, authz.RecordRef{SubjectID: goal.UserID})
	if err != nil {
		failWith(w, r, err)
		return
	}
	if !allowed {
		failWith(w, r, authz.ErrForbidden)
		return
	}

	var req struct {
		Body string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	v := shared.NewValidator()
	v.Required("body", req.Body)
	if v.Reject(w) {
		return
	}

	id, err := h.Store.CreateComment(r.Context(), goal.ID, principal.ID, req.Body)
	if err != nil {
		failWith(w, r, err)
		return
	}
	api.Created(w, map[string]string{"id": id})
}

func (h *GoalsHandler) record(r *http.Request, actorID, action, entityID string, before, after any) {
	if err := h.Audit.Record(r.Context(), actorID, action, "goal", entityID, requestctx.GetRequestID(r.Context()), before, after); err != nil {
		slog.Warn("audit record failed", "err", err, "action", action)
	}
}
