package handlers

import (
	"errors"
	"net/http"
	"time"

	"peopledesk/internal/domain/attendance"
	"peopledesk/internal/domain/authz"
	"peopledesk/internal/transport/http/api"
	"peopledesk/internal/transport/http/shared"
)

type AttendanceHandler struct {
	Store *attendance.Store
	Calc  *authz.Calculator
}

func NewAttendanceHandler(store *attendance.Store, calc *authz.Calculator) *AttendanceHandler {
	return &AttendanceHandler{Store: store, Calc: calc}
}

func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
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
	v := shared.NewValidator()
	var filters attendance.Filters
	if raw := r.URL.Query().Get("from"); raw != "" {
		if parsed, ok := v.Date("from", raw); ok {
			filters.From = parsed
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		if parsed, ok := v.Date("to", raw); ok {
			filters.To = parsed
		}
	}
	if v.Reject(w) {
		return
	}

	records, total, err := h.Store.List(r.Context(), scope, filters, page.Limit, page.Offset())
	if err != nil {
		failWith(w, r, err)
		return
	}

	api.Success(w, map[string]any{
		"records":    emptyIfNil(records),
		"pagination": page.Meta(total),
	})
}

// ClockIn opens today's entry for the caller. One entry per user per day.
func (h *AttendanceHandler) ClockIn(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	id, err := h.Store.ClockIn(r.Context(), principal.ID, time.Now())
	if errors.Is(err, attendance.ErrAlreadyClockedIn) {
		api.Fail(w, http.StatusBadRequest, "Already clocked in today")
		return
	}
	if err != nil {
		failWith(w, r, err)
		return
	}
	api.Created(w, map[string]string{"id": id})
}

func (h *AttendanceHandler) ClockOut(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	closed, err := h.Store.ClockOut(r.Context(), principal.ID, time.Now())
	if err != nil {
		failWith(w, r, err)
		return
	}
	if !closed {
		api.Fail(w, http.StatusBadRequest, "No open attendance entry to close")
		return
	}
	api.Message(w, "Clocked out")
}
