package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"peopledesk/internal/domain/audit"
	"peopledesk/internal/domain/auth"
	"peopledesk/internal/domain/authz"
	"peopledesk/internal/domain/directory"
	"peopledesk/internal/platform/requestctx"
	"peopledesk/internal/transport/http/api"
	"peopledesk/internal/transport/http/shared"
)

type DirectoryHandler struct {
	Store *directory.Store
	Audit *audit.Service
}

func NewDirectoryHandler(store *directory.Store, auditSvc *audit.Service) *DirectoryHandler {
	return &DirectoryHandler{Store: store, Audit: auditSvc}
}

// ListUsers is readable by every signed-in user. The directory is the
// company-wide people picker and roster source, not a scoped record
// family; only writes are role-gated.
func (h *DirectoryHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, defaultPageLimit, maxPageLimit)
	filters := directory.UserFilters{
		DepartmentID: r.URL.Query().Get("department"),
		Role:         r.URL.Query().Get("role"),
		Status:       r.URL.Query().Get("status"),
	}

	users, total, err := h.Store.ListUsers(r.Context(), filters, page.Limit, page.Offset())
	if err != nil {
		failWith(w, r, err)
		return
	}

	api.Success(w, map[string]any{
		"records":    emptyIfNil(users),
		"pagination": page.Meta(total),
	})
}

func (h *DirectoryHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.Store.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		failWith(w, r, err)
		return
	}
	api.Success(w, user)
}

type userCreateRequest struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	DepartmentID string `json:"departmentId"`
	Position     string `json:"position"`
	Password     string `json:"password"`
}

func (h *DirectoryHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var req userCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	v := shared.NewValidator()
	v.Required("email", req.Email)
	v.Required("name", req.Name)
	if len(req.Password) < 8 {
		v.Add("password", "must be at least 8 characters")
	}
	if v.Reject(w) {
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		failWith(w, r, err)
		return
	}

	role := string(authz.ParseRole(req.Role))
	id, err := h.Store.CreateUser(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)), req.Name, role, req.DepartmentID, req.Position, passwordHash)
	if err != nil {
		failWith(w, r, err)
		return
	}
	user, err := h.Store.GetUser(r.Context(), id)
	if err != nil {
		failWith(w, r, err)
		return
	}

	h.record(r, principal.ID, "user.create", id, nil, user)
	api.Created(w, user)
}

func (h *DirectoryHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	existing, err := h.Store.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		failWith(w, r, err)
		return
	}

	var req struct {
		Name         *string `json:"name"`
		Role         *string `json:"role"`
		DepartmentID *string `json:"departmentId"`
		Position     *string `json:"position"`
		Status       *string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated := existing
	v := shared.NewValidator()
	if req.Name != nil {
		updated.Name = *req.Name
		v.Required("name", updated.Name)
	}
	if req.Role != nil {
		updated.Role = string(authz.ParseRole(*req.Role))
	}
	if req.DepartmentID != nil {
		updated.DepartmentID = *req.DepartmentID
	}
	if req.Position != nil {
		updated.Position = *req.Position
	}
	if req.Status != nil {
		updated.Status = v.Enum("status", *req.Status, []string{directory.UserStatusActive, directory.UserStatusInactive})
	}
	if v.Reject(w) {
		return
	}

	if err := h.Store.UpdateUser(r.Context(), existing.ID, updated.Name, updated.Role, updated.DepartmentID, updated.Position, updated.Status); err != nil {
		failWith(w, r, err)
		return
	}

	h.record(r, principal.ID, "user.update", existing.ID, existing, updated)
	api.Success(w, updated)
}

// DeactivateUser soft-deletes: the row stays for history, sessions die and
// the user drops off every live roster.
func (h *DirectoryHandler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	existing, err := h.Store.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		failWith(w, r, err)
		return
	}

	if err := h.Store.DeactivateUser(r.Context(), existing.ID); err != nil {
		failWith(w, r, err)
		return
	}

	h.record(r, principal.ID, "user.deactivate", existing.ID, existing, nil)
	api.Message(w, "User deactivated")
}

func (h *DirectoryHandler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.Store.ListDepartments(r.Context())
	if err != nil {
		failWith(w, r, err)
		return
	}
	api.Success(w, map[string]any{"records": emptyIfNil(departments)})
}

type departmentRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (h *DirectoryHandler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var req departmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.ID = strings.ToLower(strings.TrimSpace(req.ID))
	v := shared.NewValidator()
	v.Required("id", req.ID)
	v.Required("name", req.Name)
	if v.Reject(w) {
		return
	}

	if err := h.Store.CreateDepartment(r.Context(), req.ID, req.Name); err != nil {
		failWith(w, r, err)
		return
	}

	h.record(r, principal.ID, "department.create", req.ID, nil, req)
	api.Created(w, map[string]string{"id": req.ID, "name": req.Name})
}

func (h *DirectoryHandler) UpdateDepartment(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	v := shared.NewValidator()
	v.Required("name", req.Name)
	if v.Reject(w) {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.Store.UpdateDepartment(r.Context(), id, req.Name); err != nil {
		failWith(w, r, err)
		return
	}

	h.record(r, principal.ID, "department.update", id, nil, req)
	api.Success(w, map[string]string{"id": id, "name": req.Name})
}

func (h *DirectoryHandler) record(r *http.Request, actorID, action, entityID string, before, after any) {
	if err := h.Audit.Record(r.Context(), actorID, action, "directory", entityID, requestctx.GetRequestID(r.Context()), before, after); err != nil {
		slog.Warn("audit record failed", "err", err, "action", action)
	}
}
