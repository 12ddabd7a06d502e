package repo_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retourly/backend/internal/domain"
	"github.com/retourly/backend/internal/repo"
)

func TestConversationRepo_GetOrCreate(t *testing.T) {
	tx := newTestTx(t)
	r := repo.NewConversationRepo(tx)
	ctx := context.Background()

	alice := mustCreateUser(t, tx, "alice")
	bob := mustCreateUser(t, tx, "bob")

	created, err := r.GetOrCreate(ctx, alice, bob)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.UUID{}, created.ID)
	assert.True(t, created.HasParticipant(alice))
	assert.True(t, created.HasParticipant(bob))
}

func TestConversationRepo_GetOrCreate_PairIsUnordered(t *testing.T) {
	tx := newTestTx(t)
	r := repo.NewConversationRepo(tx)
	ctx := context.Background()

	alice := mustCreateUser(t, tx, "alice")
	bob := mustCreateUser(t, tx, "bob")

	first, err := r.GetOrCreate(ctx, alice, bob)
	require.NoError(t, err)

	// Same pair from the other side must resolve to the same thread.
	second, err := r.GetOrCreate(ctx, bob, alice)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "both directions should converge on one conversation")
}

func TestConversationRepo_GetByID_NotFound(t *testing.T) {
	tx := newTestTx(t)
	r := repo.NewConversationRepo(tx)

	_, err := r.GetByID(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConversationRepo_CreateMessage(t *testing.T) {
	tx := newTestTx(t)
	r := repo.NewConversationRepo(tx)
	ctx := context.Background()

	alice := mustCreateUser(t, tx, "alice")
	bob := mustCreateUser(t, tx, "bob")

	conv, err := r.GetOrCreate(ctx, alice, bob)
	require.NoError(t, err)

	msg, err := r.CreateMessage(ctx, domain.Message{
		ConversationID: conv.ID,
		SenderID:       alice,
		Content:        "see you thursday",
	})

	require.NoError(t, err)
	assert.NotEqual(t, uuid.UUID{}, msg.ID)
	assert.Equal(t, alice, msg.SenderID)
	assert.Equal(t, "see you thursday", msg.Content)
	assert.False(t, msg.Read, "new messages start unread")

	// Sending bumps the thread's activity timestamp.
	reread, err := r.GetByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.True(t, reread.LastMessageAt.After(conv.LastMessageAt) || reread.LastMessageAt.Equal(msg.CreatedAt),
		"last_message_at should track the newest message")
}

func TestConversationRepo_ListMessages_MarksRead(t *testing.T) {
	tx := newTestTx(t)
	r := repo.NewConversationRepo(tx)
	ctx := context.Background()

	alice := mustCreateUser(t, tx, "alice")
	bob := mustCreateUser(t, tx, "bob")

	conv, err := r.GetOrCreate(ctx, alice, bob)
	require.NoError(t, err)

	for _, content := range []string{"first", "second"} {
		_, err := r.CreateMessage(ctx, domain.Message{
			ConversationID: conv.ID,
			SenderID:       alice,
			Content:        content,
		})
		require.NoError(t, err)
	}

	summaries, err := r.ListForUser(ctx, bob)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, int64(2), summaries[0].UnreadCount)

	messages, err := r.ListMessages(ctx, conv.ID, bob)

	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "first", messages[0].Content, "messages should come back oldest first")
	assert.Equal(t, "second", messages[1].Content)

	// Reading as the recipient clears the unread count.
	summaries, err = r.ListForUser(ctx, bob)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, int64(0), summaries[0].UnreadCount)
}

func TestConversationRepo_ListMessages_SenderReadLeavesUnreadAlone(t *testing.T) {
	tx := newTestTx(t)
	r := repo.NewConversationRepo(tx)
	ctx := context.Background()

	alice := mustCreateUser(t, tx, "alice")
	bob := mustCreateUser(t, tx, "bob")

	conv, err := r.GetOrCreate(ctx, alice, bob)
	require.NoError(t, err)

	_, err = r.CreateMessage(ctx, domain.Message{
		ConversationID: conv.ID,
		SenderID:       alice,
		Content:        "hello",
	})
	require.NoError(t, err)

	// The sender rereading their own thread does not consume bob's unread.
	_, err = r.ListMessages(ctx, conv.ID, alice)
	require.NoError(t, err)

	summaries, err := r.ListForUser(ctx, bob)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, int64(1), summaries[0].UnreadCount)
}

func TestConversationRepo_ListForUser_OnlyOwnThreads(t *testing.T) {
	tx := newTestTx(t)
	r := repo.NewConversationRepo(tx)
	ctx := context.Background()

	alice := mustCreateUser(t, tx, "alice")
	bob := mustCreateUser(t, tx, "bob")
	carol := mustCreateUser(t, tx, "carol")

	_, err := r.GetOrCreate(ctx, alice, bob)
	require.NoError(t, err)
	_, err = r.GetOrCreate(ctx, bob, carol)
	require.NoError(t, err)

	summaries, err := r.ListForUser(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, summaries, 1)

	summaries, err = r.ListForUser(ctx, bob)
	require.NoError(t, err)
	assert.Len(t, summaries, 2)
}
