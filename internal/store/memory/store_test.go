package memory

import (
	"context"
	"testing"

	"mechaniai-backend/internal/models"
	"mechaniai-backend/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConversation(t *testing.T, s *MemoryStore, userID string) *models.Conversation {
	t.Helper()
	conv, err := s.CreateConversation(context.Background(), store.CreateConversationParams{
		ID:       uuid.New(),
		UserID:   userID,
		Language: models.LanguageEnglish,
		Title:    "Brake noise",
		Status:   models.ConversationStatusActive,
	})
	require.NoError(t, err)
	return conv
}

func addMessage(t *testing.T, s *MemoryStore, convID uuid.UUID, role, content string) *models.Message {
	t.Helper()
	msg, err := s.AddMessage(context.Background(), store.AddMessageParams{
		ID:             uuid.New(),
		ConversationID: convID,
		Role:           role,
		Content:        content,
		Language:       models.LanguageEnglish,
	})
	require.NoError(t, err)
	return msg
}

func TestConversationLifecycle(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	conv := newConversation(t, s, "user-1")

	got, err := s.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, models.ConversationStatusActive, got.Status)

	newTitle := "Engine overheating"
	updated, err := s.UpdateConversation(ctx, store.UpdateConversationParams{ID: conv.ID, Title: &newTitle})
	require.NoError(t, err)
	assert.Equal(t, "Engine overheating", updated.Title)

	require.NoError(t, s.DeleteConversation(ctx, conv.ID))
	_, err = s.GetConversation(ctx, conv.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetConversationNotFound(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.GetConversation(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListConversationsFiltersByUser(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	newConversation(t, s, "alice")
	newConversation(t, s, "alice")
	newConversation(t, s, "bob")

	convs, err := s.ListConversations(ctx, "alice", 50)
	require.NoError(t, err)
	assert.Len(t, convs, 2)
	for _, c := range convs {
		assert.Equal(t, "alice", c.UserID)
	}
}

func TestAddMessageRequiresConversation(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.AddMessage(context.Background(), store.AddMessageParams{
		ID:             uuid.New(),
		ConversationID: uuid.New(),
		Role:           models.RoleUser,
		Content:        "hello",
		Language:       models.LanguageEnglish,
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListRecentMessagesOrderAndLimit(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	conv := newConversation(t, s, "user-1")

	for _, content := range []string{"one", "two", "three", "four", "five", "six"} {
		addMessage(t, s, conv.ID, models.RoleUser, content)
	}

	recent, err := s.ListRecentMessages(ctx, conv.ID, 5)
	require.NoError(t, err)
	require.Len(t, recent, 5)
	assert.Equal(t, "two", recent[0].Content)
	assert.Equal(t, "six", recent[4].Content)

	all, err := s.ListMessages(ctx, conv.ID)
	require.NoError(t, err)
	assert.Len(t, all, 6)
	assert.Equal(t, "one", all[0].Content)
}

func TestDeleteConversationCascades(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	conv := newConversation(t, s, "user-1")
	addMessage(t, s, conv.ID, models.RoleUser, "hello")

	_, err := s.CreateContext(ctx, store.CreateContextParams{
		ID:                uuid.New(),
		ConversationID:    conv.ID,
		CompressedContext: "summary",
		MessageCount:      1,
	})
	require.NoError(t, err)

	require.NoError(t, s.DeleteConversation(ctx, conv.ID))

	msgs, err := s.ListMessages(ctx, conv.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	_, err = s.GetActiveContext(ctx, conv.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestReplaceActiveContextKeepsSingleActive(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	conv := newConversation(t, s, "user-1")

	first, err := s.CreateContext(ctx, store.CreateContextParams{
		ID:                uuid.New(),
		ConversationID:    conv.ID,
		CompressedContext: "first summary",
		MessageCount:      10,
	})
	require.NoError(t, err)
	assert.True(t, first.IsActive)

	second, err := s.ReplaceActiveContext(ctx, store.CreateContextParams{
		ID:                uuid.New(),
		ConversationID:    conv.ID,
		CompressedContext: "second summary",
		MessageCount:      20,
	})
	require.NoError(t, err)
	assert.True(t, second.IsActive)

	active, err := s.GetActiveContext(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)
	assert.Equal(t, "second summary", active.CompressedContext)
}

func TestReplaceActiveContextRequiresConversation(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.ReplaceActiveContext(context.Background(), store.CreateContextParams{
		ID:                uuid.New(),
		ConversationID:    uuid.New(),
		CompressedContext: "summary",
		MessageCount:      10,
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
}
