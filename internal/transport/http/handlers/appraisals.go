package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"peopledesk/internal/domain/appraisals"
	"peopledesk/internal/domain/audit"
	"peopledesk/internal/domain/authz"
	"peopledesk/internal/platform/requestctx"
	"peopledesk/internal/transport/http/api"
	"peopledesk/internal/transport/http/shared"
)

type AppraisalsHandler struct {
	Store *appraisals.Store
	Calc  *authz.Calculator
	Audit *audit.Service
}

func NewAppraisalsHandler(store *appraisals.Store, calc *authz.Calculator, auditSvc *audit.Service) *AppraisalsHandler {
	return &AppraisalsHandler{Store: store, Calc: calc, Audit: auditSvc}
}

func (h *AppraisalsHandler) List(w http.ResponseWriter, r *http.Request) {
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
	filters := appraisals.Filters{Status: r.URL.Query().Get("status")}

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

func (h *AppraisalsHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	appraisal, err := h.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		failWith(w, r, err)
		return
	}
	allowed, err := h.Calc.CanAccess(r.Context(), principal, authz.RecordRef{SubjectID: appraisal.ReceiverID})
	if err != nil {
		failWith(w, r, err)
		return
	}
	if !allowed {
		failWith(w, r, authz.ErrForbidden)
		return
	}

	api.Success(w, appraisal)
}

type appraisalCreateRequest struct {
	ReceiverID   string  `json:"receiverId"`
	Period       string  `json:"period"`
	Rating       float64 `json:"rating"`
	Strengths    string  `json:"strengths"`
	Improvements string  `json:"improvements"`
	Status       string  `json:"status"`
}

// Create is limited to unrestricted roles and team leads by the route; the
// scope check below still verifies the receiver is reachable for a lead.
func (h *AppraisalsHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var req appraisalCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	v := shared.NewValidator()
	v.Required("receiverId", req.ReceiverID)
	req.Status = v.Enum("status", req.Status, appraisals.Statuses)
	v.Range("rating", req.Rating, 0, 5)
	if v.Reject(w) {
		return
	}

	allowed, err := h.Calc.CanMutate(r.Context(), principal, authz.RecordRef{SubjectID: req.ReceiverID})
	if err != nil {
		failWith(w, r, err)
		return
	}
	if !allowed {
		failWith(w, r, authz.ErrForbidden)
		return
	}

	status := req.Status
	if status == "" {
		status = appraisals.StatusPending
	}

	id, err := h.Store.Create(r.Context(), req.ReceiverID, principal.ID, req.Period, req.Rating, req.Strengths, req.Improvements, status)
	if err != nil {
		failWith(w, r, err)
		return
	}
	appraisal, err := h.Store.Get(r.Context(), id)
	if err != nil {
		failWith(w, r, err)
		return
	}

	h.record(r, principal.ID, "appraisal.create", id, nil, appraisal)
	api.Created(w, appraisal)
}

func (h *AppraisalsHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	existing, err := h.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		failWith(w, r, err)
		return
	}
	allowed, err := h.Calc.CanMutate(r.Context(), principal, authz.RecordRef{SubjectID: existing.ReceiverID})
	if err != nil {
		failWith(w, r, err)
		return
	}
	if !allowed {
		failWith(w, r, authz.ErrForbidden)
		return
	}

	var req struct {
		Period       *string  `json:"period"`
		Rating       *float64 `json:"rating"`
		Strengths    *string  `json:"strengths"`
		Improvements *string  `json:"improvements"`
		Status       *string  `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated := existing
	v := shared.NewValidator()
	if req.Period != nil {
		updated.Period = *req.Period
	}
	if req.Rating != nil {
		updated.Rating = *req.Rating
		v.Range("rating", updated.Rating, 0, 5)
	}
	if req.Strengths != nil {
		updated.Strengths = *req.Strengths
	}
	if req.Improvements != nil {
		updated.Improvements = *req.Improvements
	}
	if req.Status != nil {
		updated.Status = v.Enum("status", *req.Status, appraisals.Statuses)
	}
	if v.Reject(w) {
		return
	}

	if err := h.Store.Update(r.Context(), existing.ID, updated); err != nil {
		failWith(w, r, err)
		return
	}

	h.record(r, principal.ID, "appraisal.update", existing.ID, existing, updated)

	if req.Status != nil && updated.Status == appraisals.StatusArchived {
		api.Message(w, "Appraisal has been archived")
		return
	}
	api.Success(w, updated)
}

func (h *AppraisalsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	existing, err := h.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		failWith(w, r, err)
		return
	}
	allowed, err := h.Calc.CanMutate(r.Context(), principal, authz.RecordRef{SubjectID: existing.ReceiverID})
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

	h.record(r, principal.ID, "appraisal.delete", existing.ID, existing, nil)
	api.Message(w, "Appraisal deleted")
}

func (h *AppraisalsHandler) record(r *http.Request, actorID, action, entityID string, before, after any) {
	if err := h.Audit.Record(r.Context(), actorID, action, "appraisal", entityID, requestctx.GetRequestID(r.Context()), before, after); err != nil {
		slog.Warn("audit record failed", "err", err, "action", action)
	}
}
