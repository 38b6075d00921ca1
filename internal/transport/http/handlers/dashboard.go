package handlers

import (
	"net/http"

	"peopledesk/internal/domain/authz"
	"peopledesk/internal/domain/dashboard"
	"peopledesk/internal/transport/http/api"
)

type DashboardHandler struct {
	Store *dashboard.Store
	Calc  *authz.Calculator
}

func NewDashboardHandler(store *dashboard.Store, calc *authz.Calculator) *DashboardHandler {
	return &DashboardHandler{Store: store, Calc: calc}
}

// Summary aggregates counts under the caller's own scope, so the dashboard
// can never show more than the list endpoints would.
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	scope, err := h.Calc.ListScope(r.Context(), principal, "")
	if err != nil {
		failWith(w, r, err)
		return
	}

	summary, err := h.Store.Summary(r.Context(), principal, scope)
	if err != nil {
		failWith(w, r, err)
		return
	}
	api.Success(w, summary)
}
