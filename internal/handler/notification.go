package handler

import (
	"net/http"
)

// handleListNotifications handles GET /notifications.
// ?unread_only=true restricts the page to unread entries; the unread count
// always covers the caller's full inbox.
func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	callerID, err := caller(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	unreadOnly := r.URL.Query().Get("unread_only") == "true"
	list, err := s.notifications.List(r.Context(), callerID, unreadOnly)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, list)
}

// handleMarkNotificationRead handles PUT /notifications/{id}/read.
func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	callerID, err := caller(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	id, err := urlUUID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.notifications.MarkRead(r.Context(), id, callerID); err != nil {
		respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleMarkAllNotificationsRead handles PUT /notifications/read-all.
func (s *Server) handleMarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	callerID, err := caller(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.notifications.MarkAllRead(r.Context(), callerID); err != nil {
		respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteNotification handles DELETE /notifications/{id}.
func (s *Server) handleDeleteNotification(w http.ResponseWriter, r *http.Request) {
	callerID, err := caller(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	id, err := urlUUID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.notifications.Delete(r.Context(), id, callerID); err != nil {
		respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
