package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/retourly/backend/internal/domain"
	"github.com/retourly/backend/internal/repo"
)

// maxMessageLength bounds a single message's content.
const maxMessageLength = 4000

// ConversationService implements the 1:1 messaging bridge between two
// users: lazy conversation creation, message threading, read receipts, and
// the new-message notification fan-out.
type ConversationService struct {
	conversations repo.ConversationRepo
	notifier      Notifier
}

// NewConversationService constructs a ConversationService backed by the
// provided repo and notifier.
func NewConversationService(conversations repo.ConversationRepo, notifier Notifier) *ConversationService {
	return &ConversationService{conversations: conversations, notifier: notifier}
}

// GetOrCreate returns the conversation between callerID and otherID,
// creating it on first contact. Idempotent under concurrent calls from
// both sides — the repo upserts against the normalized pair.
func (s *ConversationService) GetOrCreate(ctx context.Context, callerID, otherID uuid.UUID) (domain.Conversation, error) {
	if callerID == otherID {
		return domain.Conversation{}, fmt.Errorf("%w: cannot start a conversation with yourself", domain.ErrValidation)
	}

	conv, err := s.conversations.GetOrCreate(ctx, callerID, otherID)
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("service.ConversationService.GetOrCreate: %w", err)
	}
	return conv, nil
}

// ListForUser returns the caller's conversations, most recently active
// first, with unread counts. Always returns a non-nil slice.
func (s *ConversationService) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.ConversationSummary, error) {
	summaries, err := s.conversations.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service.ConversationService.ListForUser: %w", err)
	}
	if summaries == nil {
		summaries = []domain.ConversationSummary{}
	}
	return summaries, nil
}

// SendMessage appends a message to the conversation and notifies the other
// participant. Returns domain.ErrForbidden if senderID is not a
// participant, domain.ErrValidation for empty or oversized content.
func (s *ConversationService) SendMessage(ctx context.Context, conversationID, senderID uuid.UUID, content string) (domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.Message{}, fmt.Errorf("%w: message content is required", domain.ErrValidation)
	}
	if len(content) > maxMessageLength {
		return domain.Message{}, fmt.Errorf("%w: message exceeds %d characters", domain.ErrValidation, maxMessageLength)
	}

	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return domain.Message{}, fmt.Errorf("service.ConversationService.SendMessage: %w", err)
	}
	if !conv.HasParticipant(senderID) {
		return domain.Message{}, fmt.Errorf("service.ConversationService.SendMessage: not a participant: %w", domain.ErrForbidden)
	}

	msg, err := s.conversations.CreateMessage(ctx, domain.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("service.ConversationService.SendMessage: %w", err)
	}

	s.notifier.Notify(ctx, conv.OtherParticipant(senderID), domain.NotificationNewMessage,
		"New message",
		"You have a new message.",
		"/conversations/"+conversationID.String(),
	)
	return msg, nil
}

// ListMessages returns the conversation's messages oldest first. As a
// documented side effect, the caller's unread incoming messages are marked
// read — read receipts are folded into the read path, so polling this
// endpoint is how messages become read. Always returns a non-nil slice.
func (s *ConversationService) ListMessages(ctx context.Context, conversationID, callerID uuid.UUID) ([]domain.Message, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("service.ConversationService.ListMessages: %w", err)
	}
	if !conv.HasParticipant(callerID) {
		return nil, fmt.Errorf("service.ConversationService.ListMessages: not a participant: %w", domain.ErrForbidden)
	}

	messages, err := s.conversations.ListMessages(ctx, conversationID, callerID)
	if err != nil {
		return nil, fmt.Errorf("service.ConversationService.ListMessages: %w", err)
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	return messages, nil
}
