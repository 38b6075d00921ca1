package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"peopledesk/internal/domain/notifications"
	"peopledesk/internal/transport/http/api"
	"peopledesk/internal/transport/http/shared"
)

type NotificationsHandler struct {
	Service *notifications.Service
}

func NewNotificationsHandler(service *notifications.Service) *NotificationsHandler {
	return &NotificationsHandler{Service: service}
}

// List returns the caller's own notifications; there is no cross-user
// visibility here at all.
func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	page := shared.ParsePagination(r, defaultPageLimit, maxPageLimit)
	records, err := h.Service.List(r.Context(), principal.ID, page.Limit, page.Offset())
	if err != nil {
		failWith(w, r, err)
		return
	}
	unread, err := h.Service.UnreadCount(r.Context(), principal.ID)
	if err != nil {
		failWith(w, r, err)
		return
	}

	api.Success(w, map[string]any{
		"records": emptyIfNil(records),
		"unread":  unread,
	})
}

func (h *NotificationsHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	if err := h.Service.MarkRead(r.Context(), principal.ID, chi.URLParam(r, "id")); err != nil {
		failWith(w, r, err)
		return
	}
	api.Message(w, "Notification marked as read")
}
