package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/retourly/backend/internal/domain"
)

// NotificationRepo defines the persistence operations for Notifications.
type NotificationRepo interface {
	// Create inserts a notification row and returns the persisted record.
	Create(ctx context.Context, n domain.Notification) (domain.Notification, error)

	// GetByID retrieves a notification by primary key.
	// Returns domain.ErrNotFound if no notification with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Notification, error)

	// ListByRecipient returns up to limit notifications for recipientID,
	// newest first. With unreadOnly set, read notifications are excluded.
	ListByRecipient(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, limit int) ([]domain.Notification, error)

	// CountUnread returns the number of unread notifications for recipientID.
	CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error)

	// MarkRead sets the read flag on one notification.
	MarkRead(ctx context.Context, id uuid.UUID) error

	// MarkAllRead sets the read flag on every unread notification for recipientID.
	MarkAllRead(ctx context.Context, recipientID uuid.UUID) error

	// Delete removes a notification by primary key.
	Delete(ctx context.Context, id uuid.UUID) error
}

// pgNotificationRepo is the Postgres implementation of NotificationRepo.
type pgNotificationRepo struct {
	db db
}

// NewNotificationRepo constructs a NotificationRepo backed by the provided
// db connection.
func NewNotificationRepo(db db) NotificationRepo {
	return &pgNotificationRepo{db: db}
}

const notificationColumns = `id, recipient_id, type, title, message, link, read, created_at`

// Create inserts a notification row and returns the full persisted record.
func (r *pgNotificationRepo) Create(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	const q = `
		INSERT INTO notifications (recipient_id, type, title, message, link)
		VALUES (@recipient_id, @type, @title, @message, @link)
		RETURNING ` + notificationColumns

	var link *string
	if n.Link != "" {
		link = &n.Link
	}
	args := pgx.NamedArgs{
		"recipient_id": n.RecipientID,
		"type":         n.Type,
		"title":        n.Title,
		"message":      n.Message,
		"link":         link,
	}

	result, err := scanNotification(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Notification{}, fmt.Errorf("repo.NotificationRepo.Create: %w", err)
	}
	return result, nil
}

// GetByID retrieves a notification by primary key.
func (r *pgNotificationRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Notification, error) {
	const q = `SELECT ` + notificationColumns + ` FROM notifications WHERE id = @id`

	result, err := scanNotification(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Notification{}, fmt.Errorf("repo.NotificationRepo.GetByID: %w", err)
	}
	return result, nil
}

// ListByRecipient returns up to limit notifications, newest first.
func (r *pgNotificationRepo) ListByRecipient(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, limit int) ([]domain.Notification, error) {
	q := `SELECT ` + notificationColumns + ` FROM notifications WHERE recipient_id = @recipient_id`
	if unreadOnly {
		q += ` AND NOT read`
	}
	q += ` ORDER BY created_at DESC LIMIT @limit`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"recipient_id": recipientID, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("repo.NotificationRepo.ListByRecipient: %w", err)
	}
	defer rows.Close()

	var notifications []domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.NotificationRepo.ListByRecipient: scan: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.NotificationRepo.ListByRecipient: rows: %w", err)
	}

	return notifications, nil
}

// CountUnread returns the recipient's unread notification count.
func (r *pgNotificationRepo) CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	const q = `SELECT count(*) FROM notifications WHERE recipient_id = @recipient_id AND NOT read`

	var count int64
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"recipient_id": recipientID}).Scan(&count); err != nil {
		return 0, fmt.Errorf("repo.NotificationRepo.CountUnread: %w", err)
	}
	return count, nil
}

// MarkRead sets the read flag on one notification.
func (r *pgNotificationRepo) MarkRead(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE notifications SET read = true WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.NotificationRepo.MarkRead: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.NotificationRepo.MarkRead: %w", domain.ErrNotFound)
	}
	return nil
}

// MarkAllRead sets the read flag on every unread notification for recipientID.
func (r *pgNotificationRepo) MarkAllRead(ctx context.Context, recipientID uuid.UUID) error {
	const q = `UPDATE notifications SET read = true WHERE recipient_id = @recipient_id AND NOT read`

	if _, err := r.db.Exec(ctx, q, pgx.NamedArgs{"recipient_id": recipientID}); err != nil {
		return fmt.Errorf("repo.NotificationRepo.MarkAllRead: %w", err)
	}
	return nil
}

// Delete removes a notification by primary key.
func (r *pgNotificationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM notifications WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.NotificationRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.NotificationRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// scanNotification maps a single database row into a domain.Notification.
func scanNotification(s scanner) (domain.Notification, error) {
	var (
		n           domain.Notification
		id          pgtype.UUID
		recipientID pgtype.UUID
		typ         string
		link        pgtype.Text
	)

	err := s.Scan(&id, &recipientID, &typ, &n.Title, &n.Message, &link, &n.Read, &n.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Notification{}, domain.ErrNotFound
		}
		return domain.Notification{}, err
	}

	n.ID = uuid.UUID(id.Bytes)
	n.RecipientID = uuid.UUID(recipientID.Bytes)
	n.Type = domain.NotificationType(typ)
	if link.Valid {
		n.Link = link.String
	}

	return n, nil
}
