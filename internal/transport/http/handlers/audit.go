package handlers

import (
	"net/http"

	"peopledesk/internal/domain/audit"
	"peopledesk/internal/transport/http/api"
	"peopledesk/internal/transport/http/shared"
)

type AuditHandler struct {
	Service *audit.Service
}

func NewAuditHandler(service *audit.Service) *AuditHandler {
	return &AuditHandler{Service: service}
}

// List is admin-only; the route enforces the role.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, defaultPageLimit, maxPageLimit)
	filter := audit.Filter{
		Action:     r.URL.Query().Get("action"),
		EntityType: r.URL.Query().Get("entityType"),
		ActorID:    r.URL.Query().Get("actorId"),
	}

	total, err := h.Service.Count(r.Context(), filter)
	if err != nil {
		failWith(w, r, err)
		return
	}
	events, err := h.Service.List(r.Context(), filter, page.Limit, page.Offset())
	if err != nil {
		failWith(w, r, err)
		return
	}

	api.Success(w, map[string]any{
		"records":    emptyIfNil(events),
		"pagination": page.Meta(total),
	})
}
