package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"peopledesk/internal/domain/audit"
	"peopledesk/internal/domain/authz"
	"peopledesk/internal/domain/notifications"
	"peopledesk/internal/domain/tickets"
	"peopledesk/internal/platform/requestctx"
	"peopledesk/internal/transport/http/api"
	"peopledesk/internal/transport/http/shared"
)

type TicketsHandler struct {
	Store         *tickets.Store
	Calc          *authz.Calculator
	Audit         *audit.Service
	Notifications *notifications.Service
}

func NewTicketsHandler(store *tickets.Store, calc *authz.Calculator, auditSvc *audit.Service, notify *notifications.Service) *TicketsHandler {
	return &TicketsHandler{Store: store, Calc: calc, Audit: auditSvc, Notifications: notify}
}

func (h *TicketsHandler) List(w http.ResponseWriter, r *http.Request) {
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
	filters := tickets.Filters{
		Status:     r.URL.Query().Get("status"),
		Category:   r.URL.Query().Get("category"),
		Department: r.URL.Query().Get("department"),
	}

	records, total, err := h.Store.List(r.Context(), scope, principal.ID, filters, page.Limit, page.Offset())
	if err != nil {
		failWith(w, r, err)
		return
	}
	stats, err := h.Store.StatsByStatus(r.Context(), scope, principal.ID)
	if err != nil {
		failWith(w, r, err)
		return
	}

	api.Success(w, listResponse{Records: emptyIfNil(records), Stats: stats, Meta: page.Meta(total)})
}

func (h *TicketsHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	ticket, err := h.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		failWith(w, r, err)
		return
	}
	allowed, err := h.Calc.CanAccess(r.Context(), principal, ticketRef(ticket))
	if err != nil {
		failWith(w, r, err)
		return
	}
	if !allowed {
		failWith(w, r, authz.ErrForbidden)
		return
	}

	messages, err := h.Store.ListMessages(r.Context(), ticket.ID)
	if err != nil {
		failWith(w, r, err)
		return
	}

	api.Success(w, map[string]any{
		"ticket":   ticket,
		"messages": emptyIfNil(messages),
	})
}

type ticketCreateRequest struct {
	Subject     string `json:"subject"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Department  string `json:"department"`
	Priority    string `json:"priority"`
}

func (h *TicketsHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var req ticketCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	v := shared.NewValidator()
	v.Required("subject", req.Subject)
	req.Priority = v.Enum("priority", req.Priority, tickets.Priorities)
	if v.Reject(w) {
		return
	}

	priority := req.Priority
	if priority == "" {
		priority = tickets.PriorityMedium
	}

	id, err := h.Store.Create(r.Context(), principal.ID, req.Department, req.Subject, req.Description, req.Category, priority)
	if err != nil {
		failWith(w, r, err)
		return
	}
	ticket, err := h.Store.Get(r.Context(), id)
	if err != nil {
		failWith(w, r, err)
		return
	}

	h.record(r, principal.ID, "ticket.create", id, nil, ticket)
	api.Created(w, ticket)
}

// Update runs the two-tier check: record-level access first, then the
// workflow-field guard. Disallowed workflow fields are stripped, the rest
// of the change-set still applies.
func (h *TicketsHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	existing, err := h.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		failWith(w, r, err)
		return
	}
	allowed, err := h.Calc.CanMutate(r.Context(), principal, ticketRef(existing))
	if err != nil {
		failWith(w, r, err)
		return
	}
	if !allowed {
		failWith(w, r, authz.ErrForbidden)
		return
	}

	var changes authz.TicketChangeSet
	if err := json.NewDecoder(r.Body).Decode(&changes); err != nil {
		api.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	v := shared.NewValidator()
	if changes.Subject != nil {
		v.Required("subject", *changes.Subject)
	}
	if changes.Status != nil {
		*changes.Status = v.Enum("status", *changes.Status, tickets.Statuses)
	}
	if changes.Priority != nil {
		*changes.Priority = v.Enum("priority", *changes.Priority, tickets.Priorities)
	}
	if v.Reject(w) {
		return
	}

	changes = authz.NarrowTicketChanges(principal, existing.AssignedID, changes)

	updated := existing
	if changes.Subject != nil {
		updated.Subject = *changes.Subject
	}
	if changes.Description != nil {
		updated.Description = *changes.Description
	}
	if changes.Category != nil {
		updated.Category = *changes.Category
	}
	if changes.Department != nil {
		updated.Department = *changes.Department
	}
	if changes.Status != nil {
		updated.Status = *changes.Status
	}
	if changes.Priority != nil {
		updated.Priority = *changes.Priority
	}
	if changes.AssignedID != nil {
		updated.AssignedID = *changes.AssignedID
	}

	if err := h.Store.Update(r.Context(), existing.ID, updated); err != nil {
		failWith(w, r, err)
		return
	}

	h.record(r, principal.ID, "ticket.update", existing.ID, existing, updated)

	if updated.AssignedID != "" && updated.AssignedID != existing.AssignedID {
		if err := h.Notifications.Create(r.Context(), updated.AssignedID, notifications.TypeTicketAssigned, "Ticket assigned", "You were assigned the ticket: "+updated.Subject); err != nil {
			slog.Warn("ticket notification failed", "err", err, "ticketId", existing.ID)
		}
	}

	api.Success(w, updated)
}

func (h *TicketsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	existing, err := h.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		failWith(w, r, err)
		return
	}
	allowed, err := h.Calc.CanMutate(r.Context(), principal, ticketRef(existing))
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

	h.record(r, principal.ID, "ticket.delete", existing.ID, existing, nil)
	api.Message(w, "Ticket deleted")
}

// AddMessage needs record-level access only; commenting never requires
// workflow rights.
func (h *TicketsHandler) AddMessage(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	ticket, err := h.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		failWith(w, r, err)
		return
	}
	allowed, err := h.Calc.CanAccess(r.Context(), principal, ticketRef(ticket))
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

	id, err := h.Store.CreateMessage(r.Context(), ticket.ID, principal.ID, req.Body)
	if err != nil {
		failWith(w, r, err)
		return
	}
	api.Created(w, map[string]string{"id": id})
}

func (h *TicketsHandler) record(r *http.Request, actorID, action, entityID string, before, after any) {
	if err := h.Audit.Record(r.Context(), actorID, action, "ticket", entityID, requestctx.GetRequestID(r.Context()), before, after); err != nil {
		slog.Warn("audit record failed", "err", err, "action", action)
	}
}

func ticketRef(t tickets.Ticket) authz.RecordRef {
	return authz.RecordRef{
		SubjectID:     t.CreatorID,
		AssignedID:    t.AssignedID,
		DepartmentTag: t.Department,
	}
}
