package domain

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is the single message thread between an unordered pair of
// users. The database enforces uniqueness on the normalized pair, so two
// near-simultaneous first contacts converge on the same row.
type Conversation struct {
	ID            uuid.UUID `json:"id"`
	UserA         uuid.UUID `json:"user_a"`
	UserB         uuid.UUID `json:"user_b"`
	LastMessageAt time.Time `json:"last_message_at"`
	CreatedAt     time.Time `json:"created_at"`
}

// HasParticipant reports whether userID is one of the two participants.
func (c Conversation) HasParticipant(userID uuid.UUID) bool {
	return c.UserA == userID || c.UserB == userID
}

// OtherParticipant returns the participant that is not userID.
// Call HasParticipant first; for a non-participant it returns UserA.
func (c Conversation) OtherParticipant(userID uuid.UUID) uuid.UUID {
	if c.UserA == userID {
		return c.UserB
	}
	return c.UserA
}

// ConversationSummary is the inbox read model: the conversation plus the
// caller's unread message count, cheap enough to poll every few seconds.
type ConversationSummary struct {
	Conversation
	UnreadCount int64 `json:"unread_count"`
}

// Message is a single message inside a conversation. Immutable once
// created except for the read flag, which flips when the recipient lists
// the conversation.
type Message struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	SenderID       uuid.UUID `json:"sender_id"`
	Content        string    `json:"content"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"created_at"`
}
