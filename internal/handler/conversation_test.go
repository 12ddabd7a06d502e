package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retourly/backend/internal/domain"
	"github.com/retourly/backend/internal/handler"
)

// mockConversationServicer is a test double for handler.ConversationServicer.
type mockConversationServicer struct {
	getOrCreate  func(ctx context.Context, callerID, otherID uuid.UUID) (domain.Conversation, error)
	listForUser  func(ctx context.Context, userID uuid.UUID) ([]domain.ConversationSummary, error)
	sendMessage  func(ctx context.Context, conversationID, senderID uuid.UUID, content string) (domain.Message, error)
	listMessages func(ctx context.Context, conversationID, callerID uuid.UUID) ([]domain.Message, error)
}

func (m *mockConversationServicer) GetOrCreate(ctx context.Context, callerID, otherID uuid.UUID) (domain.Conversation, error) {
	return m.getOrCreate(ctx, callerID, otherID)
}
func (m *mockConversationServicer) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.ConversationSummary, error) {
	return m.listForUser(ctx, userID)
}
func (m *mockConversationServicer) SendMessage(ctx context.Context, conversationID, senderID uuid.UUID, content string) (domain.Message, error) {
	return m.sendMessage(ctx, conversationID, senderID, content)
}
func (m *mockConversationServicer) ListMessages(ctx context.Context, conversationID, callerID uuid.UUID) ([]domain.Message, error) {
	return m.listMessages(ctx, conversationID, callerID)
}

// compile-time check: mockConversationServicer must satisfy handler.ConversationServicer.
var _ handler.ConversationServicer = (*mockConversationServicer)(nil)

// ---- POST /conversations ---------------------------------------------------

func TestGetOrCreateConversation_200(t *testing.T) {
	callerID := uuid.New()
	otherID := uuid.New()
	conv := domain.Conversation{ID: uuid.New(), UserA: callerID, UserB: otherID}

	m := &serverMocks{}
	m.conversations.getOrCreate = func(_ context.Context, gotCaller, gotOther uuid.UUID) (domain.Conversation, error) {
		assert.Equal(t, callerID, gotCaller)
		assert.Equal(t, otherID, gotOther)
		return conv, nil
	}

	body := jsonBody(t, map[string]any{"user_id": otherID.String()})

	rec := doJSON(t, m.router(callerID), http.MethodPost, "/conversations", body)

	assert.Equal(t, http.StatusOK, rec.Code, "get-or-create is idempotent, not a plain create")

	var resp struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, conv.ID.String(), resp.ID)
}

func TestGetOrCreateConversation_422_MissingUserID(t *testing.T) {
	m := &serverMocks{}

	body := jsonBody(t, map[string]any{})

	rec := doJSON(t, m.router(uuid.New()), http.MethodPost, "/conversations", body)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestGetOrCreateConversation_422_Self(t *testing.T) {
	callerID := uuid.New()

	m := &serverMocks{}
	m.conversations.getOrCreate = func(_ context.Context, _, _ uuid.UUID) (domain.Conversation, error) {
		return domain.Conversation{}, fmt.Errorf("%w: cannot start a conversation with yourself", domain.ErrValidation)
	}

	body := jsonBody(t, map[string]any{"user_id": callerID.String()})

	rec := doJSON(t, m.router(callerID), http.MethodPost, "/conversations", body)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

// ---- GET /conversations ----------------------------------------------------

func TestListConversations_200(t *testing.T) {
	callerID := uuid.New()

	m := &serverMocks{}
	m.conversations.listForUser = func(_ context.Context, userID uuid.UUID) ([]domain.ConversationSummary, error) {
		assert.Equal(t, callerID, userID)
		return []domain.ConversationSummary{
			{Conversation: domain.Conversation{ID: uuid.New(), UserA: callerID, UserB: uuid.New()}, UnreadCount: 2},
		}, nil
	}

	rec := doJSON(t, m.router(callerID), http.MethodGet, "/conversations", nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []struct {
			UnreadCount int64 `json:"unread_count"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, int64(2), resp.Data[0].UnreadCount)
}

// ---- POST /conversations/{id}/messages -------------------------------------

func TestSendMessage_201(t *testing.T) {
	callerID := uuid.New()
	convID := uuid.New()

	m := &serverMocks{}
	m.conversations.sendMessage = func(_ context.Context, conversationID, senderID uuid.UUID, content string) (domain.Message, error) {
		assert.Equal(t, convID, conversationID)
		assert.Equal(t, callerID, senderID)
		assert.Equal(t, "see you thursday", content)
		return domain.Message{ID: uuid.New(), ConversationID: convID, SenderID: callerID, Content: content}, nil
	}

	body := jsonBody(t, map[string]any{"content": "see you thursday"})

	rec := doJSON(t, m.router(callerID), http.MethodPost, "/conversations/"+convID.String()+"/messages", body)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestSendMessage_403_NotParticipant(t *testing.T) {
	m := &serverMocks{}
	m.conversations.sendMessage = func(_ context.Context, _, _ uuid.UUID, _ string) (domain.Message, error) {
		return domain.Message{}, fmt.Errorf("not a participant: %w", domain.ErrForbidden)
	}

	body := jsonBody(t, map[string]any{"content": "hello"})

	rec := doJSON(t, m.router(uuid.New()), http.MethodPost, "/conversations/"+uuid.NewString()+"/messages", body)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// ---- GET /conversations/{id}/messages --------------------------------------

func TestListMessages_200(t *testing.T) {
	callerID := uuid.New()
	convID := uuid.New()

	m := &serverMocks{}
	m.conversations.listMessages = func(_ context.Context, conversationID, gotCaller uuid.UUID) ([]domain.Message, error) {
		assert.Equal(t, convID, conversationID)
		assert.Equal(t, callerID, gotCaller)
		return []domain.Message{
			{ID: uuid.New(), ConversationID: convID, Content: "first"},
			{ID: uuid.New(), ConversationID: convID, Content: "second"},
		}, nil
	}

	rec := doJSON(t, m.router(callerID), http.MethodGet, "/conversations/"+convID.String()+"/messages", nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []struct {
			Content string `json:"content"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "first", resp.Data[0].Content)
}
