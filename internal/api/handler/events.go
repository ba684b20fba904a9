package handler

import (
	"net/http"
	"strconv"

	"github.com/bcnelson/firewall-ddns/internal/storage"
)

// EventHandler exposes the audit trail on the admin listener.
type EventHandler struct {
	store storage.AuditStore
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(store storage.AuditStore) *EventHandler {
	return &EventHandler{store: store}
}

// List lists audit events, newest first.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := storage.DefaultListLimit
	offset := 0

	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	events, err := h.store.ListEvents(r.Context(), limit, offset)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, events)
}
