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

// ConversationRepo defines the persistence operations for Conversations and
// their Messages. The two live in one repo because every message write
// touches its conversation (last_message_at) and the read path folds the
// read-receipt update into the same transaction as the listing.
type ConversationRepo interface {
	// GetOrCreate returns the conversation for the unordered (userA, userB)
	// pair, creating it if absent. The insert is an upsert against the
	// normalized-pair unique index, so concurrent first contacts from both
	// sides converge on the same row.
	GetOrCreate(ctx context.Context, userA, userB uuid.UUID) (domain.Conversation, error)

	// GetByID retrieves a conversation by primary key.
	// Returns domain.ErrNotFound if no conversation with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Conversation, error)

	// ListForUser returns the conversations userID participates in, most
	// recently active first, each with userID's unread message count.
	ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.ConversationSummary, error)

	// CreateMessage inserts a message and bumps the conversation's
	// last_message_at in one transaction.
	CreateMessage(ctx context.Context, msg domain.Message) (domain.Message, error)

	// ListMessages returns the conversation's messages oldest first. All
	// unread messages not sent by callerID are marked read in the same
	// transaction; the returned records reflect the new flags.
	ListMessages(ctx context.Context, conversationID, callerID uuid.UUID) ([]domain.Message, error)
}

// pgConversationRepo is the Postgres implementation of ConversationRepo.
type pgConversationRepo struct {
	db db
}

// NewConversationRepo constructs a ConversationRepo backed by the provided
// db connection.
func NewConversationRepo(db db) ConversationRepo {
	return &pgConversationRepo{db: db}
}

const conversationColumns = `id, user_a, user_b, last_message_at, created_at`

// GetOrCreate upserts the conversation for the unordered pair.
//
// ON CONFLICT DO NOTHING returns no row when the pair already exists (or
// when a concurrent insert just won), so the follow-up SELECT against the
// normalized pair serves both outcomes.
func (r *pgConversationRepo) GetOrCreate(ctx context.Context, userA, userB uuid.UUID) (domain.Conversation, error) {
	const insert = `
		INSERT INTO conversations (user_a, user_b)
		VALUES (@user_a, @user_b)
		ON CONFLICT (least(user_a, user_b), greatest(user_a, user_b)) DO NOTHING`

	args := pgx.NamedArgs{"user_a": userA, "user_b": userB}
	if _, err := r.db.Exec(ctx, insert, args); err != nil {
		return domain.Conversation{}, fmt.Errorf("repo.ConversationRepo.GetOrCreate: insert: %w", err)
	}

	const q = `
		SELECT ` + conversationColumns + `
		FROM conversations
		WHERE least(user_a, user_b) = least(@user_a, @user_b)
		  AND greatest(user_a, user_b) = greatest(@user_a, @user_b)`

	conv, err := scanConversation(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("repo.ConversationRepo.GetOrCreate: select: %w", err)
	}
	return conv, nil
}

// GetByID retrieves a conversation by primary key.
func (r *pgConversationRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Conversation, error) {
	const q = `SELECT ` + conversationColumns + ` FROM conversations WHERE id = @id`

	conv, err := scanConversation(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("repo.ConversationRepo.GetByID: %w", err)
	}
	return conv, nil
}

// ListForUser returns the caller's conversations, most recently active
// first, with per-conversation unread counts.
func (r *pgConversationRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.ConversationSummary, error) {
	const q = `
		SELECT c.id, c.user_a, c.user_b, c.last_message_at, c.created_at,
		       count(m.id) FILTER (WHERE NOT m.read AND m.sender_id <> @user_id) AS unread
		FROM conversations c
		LEFT JOIN messages m ON m.conversation_id = c.id
		WHERE c.user_a = @user_id OR c.user_b = @user_id
		GROUP BY c.id
		ORDER BY c.last_message_at DESC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("repo.ConversationRepo.ListForUser: %w", err)
	}
	defer rows.Close()

	var summaries []domain.ConversationSummary
	for rows.Next() {
		var (
			s     domain.ConversationSummary
			id    pgtype.UUID
			userA pgtype.UUID
			userB pgtype.UUID
		)
		if err := rows.Scan(&id, &userA, &userB, &s.LastMessageAt, &s.CreatedAt, &s.UnreadCount); err != nil {
			return nil, fmt.Errorf("repo.ConversationRepo.ListForUser: scan: %w", err)
		}
		s.ID = uuid.UUID(id.Bytes)
		s.UserA = uuid.UUID(userA.Bytes)
		s.UserB = uuid.UUID(userB.Bytes)
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ConversationRepo.ListForUser: rows: %w", err)
	}

	return summaries, nil
}

const messageColumns = `id, conversation_id, sender_id, content, read, created_at`

// CreateMessage inserts a message and bumps last_message_at in one transaction.
func (r *pgConversationRepo) CreateMessage(ctx context.Context, msg domain.Message) (domain.Message, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.Message{}, fmt.Errorf("repo.ConversationRepo.CreateMessage: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const insert = `
		INSERT INTO messages (conversation_id, sender_id, content)
		VALUES (@conversation_id, @sender_id, @content)
		RETURNING ` + messageColumns

	args := pgx.NamedArgs{
		"conversation_id": msg.ConversationID,
		"sender_id":       msg.SenderID,
		"content":         msg.Content,
	}
	result, err := scanMessage(tx.QueryRow(ctx, insert, args))
	if err != nil {
		return domain.Message{}, fmt.Errorf("repo.ConversationRepo.CreateMessage: insert: %w", err)
	}

	const bump = `UPDATE conversations SET last_message_at = now() WHERE id = @conversation_id`
	if _, err := tx.Exec(ctx, bump, pgx.NamedArgs{"conversation_id": msg.ConversationID}); err != nil {
		return domain.Message{}, fmt.Errorf("repo.ConversationRepo.CreateMessage: bump: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Message{}, fmt.Errorf("repo.ConversationRepo.CreateMessage: commit: %w", err)
	}
	return result, nil
}

// ListMessages returns the thread oldest first, marking the caller's unread
// incoming messages read inside the same transaction.
func (r *pgConversationRepo) ListMessages(ctx context.Context, conversationID, callerID uuid.UUID) ([]domain.Message, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("repo.ConversationRepo.ListMessages: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const markRead = `
		UPDATE messages
		SET read = true
		WHERE conversation_id = @conversation_id AND sender_id <> @caller_id AND NOT read`

	args := pgx.NamedArgs{"conversation_id": conversationID, "caller_id": callerID}
	if _, err := tx.Exec(ctx, markRead, args); err != nil {
		return nil, fmt.Errorf("repo.ConversationRepo.ListMessages: mark read: %w", err)
	}

	const q = `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE conversation_id = @conversation_id
		ORDER BY created_at ASC`

	rows, err := tx.Query(ctx, q, pgx.NamedArgs{"conversation_id": conversationID})
	if err != nil {
		return nil, fmt.Errorf("repo.ConversationRepo.ListMessages: %w", err)
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.ConversationRepo.ListMessages: scan: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ConversationRepo.ListMessages: rows: %w", err)
	}
	rows.Close()

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("repo.ConversationRepo.ListMessages: commit: %w", err)
	}
	return messages, nil
}

// scanConversation maps a single database row into a domain.Conversation.
func scanConversation(s scanner) (domain.Conversation, error) {
	var (
		c     domain.Conversation
		id    pgtype.UUID
		userA pgtype.UUID
		userB pgtype.UUID
	)

	err := s.Scan(&id, &userA, &userB, &c.LastMessageAt, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Conversation{}, domain.ErrNotFound
		}
		return domain.Conversation{}, err
	}

	c.ID = uuid.UUID(id.Bytes)
	c.UserA = uuid.UUID(userA.Bytes)
	c.UserB = uuid.UUID(userB.Bytes)

	return c, nil
}

// scanMessage maps a single database row into a domain.Message.
func scanMessage(s scanner) (domain.Message, error) {
	var (
		m              domain.Message
		id             pgtype.UUID
		conversationID pgtype.UUID
		senderID       pgtype.UUID
	)

	err := s.Scan(&id, &conversationID, &senderID, &m.Content, &m.Read, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Message{}, domain.ErrNotFound
		}
		return domain.Message{}, err
	}

	m.ID = uuid.UUID(id.Bytes)
	m.ConversationID = uuid.UUID(conversationID.Bytes)
	m.SenderID = uuid.UUID(senderID.Bytes)

	return m, nil
}
