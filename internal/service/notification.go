// Package service contains the business logic for the Retourly API.
// Services validate inputs, enforce ownership and state rules, and
// orchestrate repo calls. No SQL lives here — services depend on repo
// interfaces, not implementations.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/retourly/backend/internal/domain"
	"github.com/retourly/backend/internal/repo"
)

// notificationPageSize is the fixed page returned to polling clients.
const notificationPageSize = 50

// NotificationService implements the notification fan-out and inbox.
//
// Notify is deliberately infallible from the caller's point of view: a
// failed notification insert is logged and dropped, never propagated into
// the domain mutation that triggered it.
type NotificationService struct {
	notifications repo.NotificationRepo
	log           *slog.Logger
}

// NewNotificationService constructs a NotificationService backed by the
// provided repo. The logger receives fan-out failures; pass
// slog.Default() in production.
func NewNotificationService(notifications repo.NotificationRepo, log *slog.Logger) *NotificationService {
	if log == nil {
		log = slog.Default()
	}
	return &NotificationService{notifications: notifications, log: log}
}

// Notify records a notification for recipientID. Failures are logged and
// swallowed so the triggering operation (booking, message) never fails on
// notification delivery.
func (s *NotificationService) Notify(ctx context.Context, recipientID uuid.UUID, typ domain.NotificationType, title, message, link string) {
	n := domain.Notification{
		RecipientID: recipientID,
		Type:        typ,
		Title:       title,
		Message:     message,
		Link:        link,
	}
	if _, err := s.notifications.Create(ctx, n); err != nil {
		s.log.ErrorContext(ctx, "notification fan-out failed",
			"recipient_id", recipientID,
			"type", typ,
			"error", err,
		)
	}
}

// List returns the caller's most recent notifications (up to 50, newest
// first) plus the unread count. Always returns a non-nil slice.
func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, unreadOnly bool) (domain.NotificationList, error) {
	notifications, err := s.notifications.ListByRecipient(ctx, userID, unreadOnly, notificationPageSize)
	if err != nil {
		return domain.NotificationList{}, fmt.Errorf("service.NotificationService.List: %w", err)
	}
	if notifications == nil {
		notifications = []domain.Notification{}
	}

	unread, err := s.notifications.CountUnread(ctx, userID)
	if err != nil {
		return domain.NotificationList{}, fmt.Errorf("service.NotificationService.List: %w", err)
	}

	return domain.NotificationList{Notifications: notifications, UnreadCount: unread}, nil
}

// MarkRead flips the read flag on one notification.
// Returns domain.ErrNotFound if it does not exist, domain.ErrForbidden if
// userID is not the recipient.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	if err := s.ownedBy(ctx, id, userID); err != nil {
		return fmt.Errorf("service.NotificationService.MarkRead: %w", err)
	}
	if err := s.notifications.MarkRead(ctx, id); err != nil {
		return fmt.Errorf("service.NotificationService.MarkRead: %w", err)
	}
	return nil
}

// MarkAllRead flips the read flag on all of the caller's notifications.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	if err := s.notifications.MarkAllRead(ctx, userID); err != nil {
		return fmt.Errorf("service.NotificationService.MarkAllRead: %w", err)
	}
	return nil
}

// Delete removes one notification.
// Returns domain.ErrNotFound if it does not exist, domain.ErrForbidden if
// userID is not the recipient.
func (s *NotificationService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	if err := s.ownedBy(ctx, id, userID); err != nil {
		return fmt.Errorf("service.NotificationService.Delete: %w", err)
	}
	if err := s.notifications.Delete(ctx, id); err != nil {
		return fmt.Errorf("service.NotificationService.Delete: %w", err)
	}
	return nil
}

// ownedBy loads the notification and checks that userID is its recipient.
func (s *NotificationService) ownedBy(ctx context.Context, id, userID uuid.UUID) error {
	n, err := s.notifications.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n.RecipientID != userID {
		return fmt.Errorf("not the recipient: %w", domain.ErrForbidden)
	}
	return nil
}
