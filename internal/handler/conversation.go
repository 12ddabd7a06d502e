package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

// getOrCreateConversationRequest is the body of POST /conversations.
type getOrCreateConversationRequest struct {
	UserID uuid.UUID `json:"user_id"`
}

// sendMessageRequest is the body of POST /conversations/{id}/messages.
type sendMessageRequest struct {
	Content string `json:"content"`
}

// handleListConversations handles GET /conversations: the caller's inbox,
// most recently active first, with unread counts. Cheap enough to poll.
func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	callerID, err := caller(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	summaries, err := s.conversations.ListForUser(r.Context(), callerID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Data any `json:"data"`
	}{Data: summaries})
}

// handleGetOrCreateConversation handles POST /conversations: returns the
// conversation with the given user, creating it on first contact.
// Idempotent — repeated or concurrent calls return the same conversation.
func (s *Server) handleGetOrCreateConversation(w http.ResponseWriter, r *http.Request) {
	callerID, err := caller(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var body getOrCreateConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.UserID == uuid.Nil {
		requestError(w, "user_id is required")
		return
	}

	conv, err := s.conversations.GetOrCreate(r.Context(), callerID, body.UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, conv)
}

// handleListMessages handles GET /conversations/{id}/messages.
// Listing marks the caller's unread incoming messages as read — polling
// this endpoint is what produces read receipts.
func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	callerID, err := caller(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	conversationID, err := urlUUID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	messages, err := s.conversations.ListMessages(r.Context(), conversationID, callerID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Data any `json:"data"`
	}{Data: messages})
}

// handleSendMessage handles POST /conversations/{id}/messages.
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	callerID, err := caller(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	conversationID, err := urlUUID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	var body sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		requestError(w, "invalid request body")
		return
	}

	msg, err := s.conversations.SendMessage(r.Context(), conversationID, callerID, body.Content)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}
