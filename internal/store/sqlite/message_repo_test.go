package sqlite

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchlink/internal/domain"
)

func (f *DBFixture) seedChat(t *testing.T, a, b int64) *domain.Chat {
	t.Helper()
	if a > b {
		a, b = b, a
	}
	c := &domain.Chat{Profile1ID: a, Profile2ID: b}
	if err := f.Chats.Create(context.Background(), c); err != nil {
		t.Fatalf("seed chat: %v", err)
	}
	return c
}

func TestMessageRepo_CreateUpdatesChatCache(t *testing.T) {
	f := newTestDB(t)
	ctx := context.Background()
	alice := f.seedProfile(t, "alice")
	bob := f.seedProfile(t, "bob")
	chat := f.seedChat(t, alice, bob)

	msg := &domain.Message{ChatID: chat.ID, SenderID: alice, Content: "hello there"}
	require.NoError(t, f.Messages.Create(ctx, msg, "hello there"))
	assert.NotZero(t, msg.ID)
	assert.False(t, msg.CreatedAt.IsZero())

	got, err := f.Chats.GetByID(ctx, chat.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastMessage)
	assert.Equal(t, "hello there", *got.LastMessage)
	require.NotNil(t, got.LastMessageAt)
	assert.True(t, got.LastMessageAt.Equal(msg.CreatedAt))
}

func TestMessageRepo_ListOrdering(t *testing.T) {
	f := newTestDB(t)
	ctx := context.Background()
	alice := f.seedProfile(t, "alice")
	bob := f.seedProfile(t, "bob")
	chat := f.seedChat(t, alice, bob)

	const n = 10
	for i := 0; i < n; i++ {
		msg := &domain.Message{ChatID: chat.ID, SenderID: alice, Content: fmt.Sprintf("msg %d", i)}
		require.NoError(t, f.Messages.Create(ctx, msg, msg.Content))
	}

	// Newest first, id as tie-break for identical timestamps.
	msgs, err := f.Messages.ListForChat(ctx, chat.ID, n, 0)
	require.NoError(t, err)
	require.Len(t, msgs, n)
	for i := 0; i < n-1; i++ {
		assert.True(t, !msgs[i].CreatedAt.Before(msgs[i+1].CreatedAt))
		assert.Greater(t, msgs[i].ID, msgs[i+1].ID)
	}

	// Pagination keeps the newest-first order across pages.
	page, err := f.Messages.ListForChat(ctx, chat.ID, 3, 3)
	require.NoError(t, err)
	require.Len(t, page, 3)
	assert.Equal(t, msgs[3].ID, page[0].ID)
}

func TestMessageRepo_MarkReadAndUnreadCount(t *testing.T) {
	f := newTestDB(t)
	ctx := context.Background()
	alice := f.seedProfile(t, "alice")
	bob := f.seedProfile(t, "bob")
	chat := f.seedChat(t, alice, bob)

	for i := 0; i < 3; i++ {
		msg := &domain.Message{ChatID: chat.ID, SenderID: alice, Content: "from alice"}
		require.NoError(t, f.Messages.Create(ctx, msg, msg.Content))
	}
	msg := &domain.Message{ChatID: chat.ID, SenderID: bob, Content: "from bob"}
	require.NoError(t, f.Messages.Create(ctx, msg, msg.Content))

	count, err := f.Messages.UnreadCount(ctx, bob, chat.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	count, err = f.Messages.UnreadCount(ctx, alice, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Bob marking the chat read clears his count but not alice's.
	require.NoError(t, f.Messages.MarkRead(ctx, chat.ID, bob))

	count, err = f.Messages.UnreadCount(ctx, bob, chat.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	count, err = f.Messages.UnreadCount(ctx, alice, chat.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Idempotent.
	require.NoError(t, f.Messages.MarkRead(ctx, chat.ID, bob))
	count, err = f.Messages.UnreadCount(ctx, bob, chat.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestMessageRepo_UpdateAndDelete(t *testing.T) {
	f := newTestDB(t)
	ctx := context.Background()
	alice := f.seedProfile(t, "alice")
	bob := f.seedProfile(t, "bob")
	chat := f.seedChat(t, alice, bob)

	msg := &domain.Message{ChatID: chat.ID, SenderID: alice, Content: "first"}
	require.NoError(t, f.Messages.Create(ctx, msg, msg.Content))

	msg.Content = "edited"
	msg.IsEdited = true
	require.NoError(t, f.Messages.Update(ctx, msg))

	got, err := f.Messages.GetByID(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Content)
	assert.True(t, got.IsEdited)

	// Hard delete; no tombstone remains.
	require.NoError(t, f.Messages.Delete(ctx, msg.ID))
	got, err = f.Messages.GetByID(ctx, msg.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}
