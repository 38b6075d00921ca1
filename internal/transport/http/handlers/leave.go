package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"peopledesk/internal/domain/audit"
	"peopledesk/internal/domain/authz"
	"peopledesk/internal/domain/leave"
	"peopledesk/internal/domain/notifications"
	"peopledesk/internal/platform/requestctx"
	"peopledesk/internal/transport/http/api"
	"peopledesk/internal/transport/http/shared"
)

type LeaveHandler struct {
	Store         *leave.Store
	Calc          *authz.Calculator
	Audit         *audit.Service
	Notifications *notifications.Service
}

func NewLeaveHandler(store *leave.Store, calc *authz.Calculator, auditSvc *audit.Service, notify *notifications.Service) *LeaveHandler {
	return &LeaveHandler{Store: store, Calc: calc, Audit: auditSvc, Notifications: notify}
}

func (h *LeaveHandler) List(w http.ResponseWriter, r *http.Request) {
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
	filters := leave.Filters{
		Status: r.URL.Query().Get("status"),
		Type:   r.URL.Query().Get("type"),
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

func (h *LeaveHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	request, err := h.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		failWith(w, r, err)
		return
	}
	allowed, err := h.Calc.CanAccess(r.Context(), principal, authz.RecordRef{SubjectID: request.UserID})
	if err != nil {
		failWith(w, r, err)
		return
	}
	if !allowed {
		failWith(w, r, authz.ErrForbidden)
		return
	}

	api.Success(w, request)
}

type leaveCreateRequest struct {
	Type      string `json:"type"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Reason    string `json:"reason"`
}

// Create always files the request for the caller; leave is never requested
// on someone else's behalf.
func (h *LeaveHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var req leaveCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	v := shared.NewValidator()
	v.Required("type", req.Type)
	req.Type = v.Enum("type", req.Type, leave.Types)
	start, startOK := v.Date("startDate", req.StartDate)
	end, endOK := v.Date("endDate", req.EndDate)
	if v.Reject(w) {
		return
	}

	days := 0
	if startOK && endOK {
		var err error
		days, err = leave.CalculateDays(start, end)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "endDate must not be before startDate")
			return
		}
	}

	id, err := h.Store.Create(r.Context(), principal.ID, req.Type, start, end, days, req.Reason)
	if err != nil {
		failWith(w, r, err)
		return
	}
	request, err := h.Store.Get(r.Context(), id)
	if err != nil {
		failWith(w, r, err)
		return
	}

	h.record(r, principal.ID, "leave.create", id, nil, request)
	api.Created(w, request)
}

func (h *LeaveHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, leave.StatusApproved, "leave.approve", notifications.TypeLeaveApproved, "Leave request approved")
}

func (h *LeaveHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, leave.StatusRejected, "leave.reject", notifications.TypeLeaveRejected, "Leave request rejected")
}

// decide handles approve/reject. A principal never decides their own
// request, even with an unrestricted role.
func (h *LeaveHandler) decide(w http.ResponseWriter, r *http.Request, status, action, notifyType, message string) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	existing, err := h.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		failWith(w, r, err)
		return
	}
	if existing.UserID == principal.ID {
		failWith(w, r, authz.ErrForbidden)
		return
	}

	// Deciding requires scope over the requester, not just visibility of
	// the record, so an assignee-style widening never applies here.
	allowed, err := h.Calc.CanMutate(r.Context(), principal, authz.RecordRef{SubjectID: existing.UserID})
	if err != nil {
		failWith(w, r, err)
		return
	}
	if !allowed || principal.Role == authz.RoleEmployee {
		failWith(w, r, authz.ErrForbidden)
		return
	}

	if err := h.Store.Decide(r.Context(), existing.ID, status, principal.ID); err != nil {
		failWith(w, r, err)
		return
	}

	h.record(r, principal.ID, action, existing.ID, existing, map[string]string{"status": status})
	if err := h.Notifications.Create(r.Context(), existing.UserID, notifyType, message, "Your leave request was "+status+"."); err != nil {
		slog.Warn("leave notification failed", "err", err, "requestId", existing.ID)
	}

	api.Message(w, message)
}

func (h *LeaveHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	h.record(r, principal.ID, "leave.delete", existing.ID, existing, nil)
	api.Message(w, "Leave request deleted")
}

func (h *LeaveHandler) record(r *http.Request, actorID, action, entityID string, before, after any) {
	if err := h.Audit.Record(r.Context(), actorID, action, "leave", entityID, requestctx.GetRequestID(r.Context()), before, after); err != nil {
		slog.Warn("audit record failed", "err", err, "action", action)
	}
}
