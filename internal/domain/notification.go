package domain

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType enumerates the domain events that fan out into
// notification rows. The type is part of the wire contract so clients can
// pick icons and deep links without parsing the message text.
type NotificationType string

const (
	NotificationBookingRequest   NotificationType = "booking_request"
	NotificationBookingConfirmed NotificationType = "booking_confirmed"
	NotificationBookingRejected  NotificationType = "booking_rejected"
	NotificationBookingCancelled NotificationType = "booking_cancelled"
	NotificationNewMessage       NotificationType = "new_message"
)

// Notification is a durable record of a domain event addressed to one user.
// It is created only as a side effect of a domain mutation and mutated only
// by its recipient (mark-read, delete).
type Notification struct {
	ID          uuid.UUID        `json:"id"`
	RecipientID uuid.UUID        `json:"recipient_id"`
	Type        NotificationType `json:"type"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	Link        string           `json:"link,omitempty"`
	Read        bool             `json:"read"`
	CreatedAt   time.Time        `json:"created_at"`
}

// NotificationList is the poll-friendly read model: the most recent page of
// notifications plus the total unread count for the badge.
type NotificationList struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int64          `json:"unread_count"`
}
