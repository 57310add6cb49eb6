package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/dbvault/internal/api/request"
	"github.com/edvin/dbvault/internal/api/response"
	"github.com/edvin/dbvault/internal/core"
)

// Notification handles backup notification endpoints.
type Notification struct {
	svc *core.NotificationService
}

func NewNotification(svc *core.NotificationService) *Notification {
	return &Notification{svc: svc}
}

func (h *Notification) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUserID(w, r)
	if !ok {
		return
	}

	pg := request.ParsePagination(r)
	unreadOnly := r.URL.Query().Get("unread") == "true"

	notifications, hasMore, err := h.svc.ListByUser(r.Context(), userID, unreadOnly, pg.Limit, pg.Cursor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var nextCursor string
	if hasMore && len(notifications) > 0 {
		nextCursor = notifications[len(notifications)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, notifications, nextCursor, hasMore)
}

func (h *Notification) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUserID(w, r)
	if !ok {
		return
	}
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.MarkRead(r.Context(), userID, id); err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteSuccess(w, http.StatusOK, map[string]any{})
}

func (h *Notification) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUserID(w, r)
	if !ok {
		return
	}

	count, err := h.svc.MarkAllRead(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteSuccess(w, http.StatusOK, map[string]any{"updated": count})
}
