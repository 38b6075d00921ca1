package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"peopledesk/internal/domain/authz"
	"peopledesk/internal/domain/payroll"
	"peopledesk/internal/transport/http/api"
	"peopledesk/internal/transport/http/shared"
)

type PayrollHandler struct {
	Store *payroll.Store
	Calc  *authz.Calculator
}

func NewPayrollHandler(store *payroll.Store, calc *authz.Calculator) *PayrollHandler {
	return &PayrollHandler{Store: store, Calc: calc}
}

func (h *PayrollHandler) List(w http.ResponseWriter, r *http.Request) {
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
	records, total, err := h.Store.List(r.Context(), scope, page.Limit, page.Offset())
	if err != nil {
		failWith(w, r, err)
		return
	}

	api.Success(w, map[string]any{
		"records":    emptyIfNil(records),
		"pagination": page.Meta(total),
	})
}

func (h *PayrollHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	slip, allowed := h.fetch(w, r, principal)
	if !allowed {
		return
	}
	api.Success(w, slip)
}

// PDF streams a rendered payslip. The bytes are built fully in memory;
// slips are single pages so that is fine.
func (h *PayrollHandler) PDF(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	slip, allowed := h.fetch(w, r, principal)
	if !allowed {
		return
	}

	name, email, err := h.Store.OwnerName(r.Context(), slip.UserID)
	if err != nil {
		failWith(w, r, err)
		return
	}
	rendered, err := payroll.RenderPDF(slip, name, email)
	if err != nil {
		failWith(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=payslip-%s.pdf", slip.ID))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(rendered); err != nil {
		return
	}
}

func (h *PayrollHandler) fetch(w http.ResponseWriter, r *http.Request, principal authz.Principal) (payroll.Payslip, bool) {
	slip, err := h.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		failWith(w, r, err)
		return payroll.Payslip{}, false
	}
	allowed, err := h.Calc.CanAccess(r.Context(), principal, authz.RecordRef{SubjectID: slip.UserID})
	if err != nil {
		failWith(w, r, err)
		return payroll.Payslip{}, false
	}
	if !allowed {
		failWith(w, r, authz.ErrForbidden)
		return payroll.Payslip{}, false
	}
	return slip, true
}
