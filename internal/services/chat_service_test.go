package services

import (
	"context"
	"strings"
	"testing"

	"mechaniai-backend/internal/models"
	"mechaniai-backend/internal/store"
	"mechaniai-backend/internal/store/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChatFixture() (*ChatService, *memory.MemoryStore, *stubClient) {
	s := memory.NewMemoryStore()
	client := newStubClient()
	return NewChatService(s, client, 10), s, client
}

func seedMessages(t *testing.T, s *memory.MemoryStore, convID uuid.UUID, count int) {
	t.Helper()
	for i := 0; i < count; i++ {
		role := models.RoleUser
		if i%2 == 1 {
			role = models.RoleAssistant
		}
		_, err := s.AddMessage(context.Background(), store.AddMessageParams{
			ID:             uuid.New(),
			ConversationID: convID,
			Role:           role,
			Content:        "the engine keeps stalling",
			Language:       models.LanguageEnglish,
		})
		require.NoError(t, err)
	}
}

func TestStartConversationPersistsExchange(t *testing.T) {
	svc, s, client := newChatFixture()
	ctx := context.Background()

	resp, err := svc.StartConversation(ctx, "user-1", "My brakes are squealing", models.LanguageEnglish)
	require.NoError(t, err)
	assert.Equal(t, "Check the brake pads first.", resp.Response)
	assert.Equal(t, models.LanguageEnglish, resp.Language)

	messages, err := s.ListMessages(ctx, resp.ConversationID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, models.RoleUser, messages[0].Role)
	assert.Equal(t, "My brakes are squealing", messages[0].Content)
	require.NotNil(t, messages[0].IsAutomotive)
	assert.True(t, *messages[0].IsAutomotive)
	assert.Equal(t, models.RoleAssistant, messages[1].Role)

	assert.Equal(t, 1, client.moderationCalls)
	assert.Equal(t, 1, client.relevanceCalls)
	assert.Equal(t, 1, client.expertCalls)
}

func TestStartConversationSetsTitle(t *testing.T) {
	svc, s, _ := newChatFixture()
	ctx := context.Background()

	long := strings.Repeat("brake noise ", 10)
	resp, err := svc.StartConversation(ctx, "user-1", long, models.LanguageEnglish)
	require.NoError(t, err)

	conv, err := s.GetConversation(ctx, resp.ConversationID)
	require.NoError(t, err)
	assert.Len(t, []rune(conv.Title), 53)
	assert.True(t, strings.HasSuffix(conv.Title, "..."))
}

func TestValidation(t *testing.T) {
	svc, _, _ := newChatFixture()
	ctx := context.Background()

	tests := []struct {
		name     string
		userID   string
		message  string
		language string
	}{
		{"empty user", "", "hello", models.LanguageEnglish},
		{"empty message", "user-1", "", models.LanguageEnglish},
		{"oversized message", "user-1", strings.Repeat("a", 5001), models.LanguageEnglish},
		{"unsupported language", "user-1", "hello", "fr"},
		{"mixed is not a conversation language", "user-1", "hello", models.LanguageMixed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.StartConversation(ctx, tt.userID, tt.message, tt.language)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestFlaggedMessageGetsSafetyReply(t *testing.T) {
	svc, s, client := newChatFixture()
	client.flagged = true
	ctx := context.Background()

	resp, err := svc.StartConversation(ctx, "user-1", "something hostile", models.LanguageEnglish)
	require.NoError(t, err)
	assert.Equal(t, safetyMessages[models.LanguageEnglish], resp.Response)

	// The refused message is still persisted for the record.
	messages, err := s.ListMessages(ctx, resp.ConversationID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "something hostile", messages[0].Content)

	// Nothing downstream of moderation ran.
	assert.Zero(t, client.relevanceCalls)
	assert.Zero(t, client.expertCalls)
}

func TestFlaggedMessageGeorgianReply(t *testing.T) {
	svc, _, client := newChatFixture()
	client.flagged = true

	resp, err := svc.StartConversation(context.Background(), "user-1", "რაღაც მტრული", models.LanguageGeorgian)
	require.NoError(t, err)
	assert.Equal(t, safetyMessages[models.LanguageGeorgian], resp.Response)
}

func TestOffTopicMessageGetsRedirect(t *testing.T) {
	svc, _, client := newChatFixture()
	client.isAutomotive = false

	resp, err := svc.StartConversation(context.Background(), "user-1", "what's a good pasta recipe", models.LanguageEnglish)
	require.NoError(t, err)
	assert.Equal(t, redirectMessages[models.LanguageEnglish], resp.Response)
	assert.Zero(t, client.expertCalls)

	// An automotive follow-up in the same conversation proceeds through
	// full generation.
	client.isAutomotive = true
	followUp, err := svc.ProcessMessage(context.Background(), resp.ConversationID, "user-1", "ok, my car won't start", models.LanguageEnglish)
	require.NoError(t, err)
	assert.Equal(t, "Check the brake pads first.", followUp.Response)
	assert.Equal(t, 1, client.expertCalls)
}

func TestFollowUpTrustedInEngagedConversation(t *testing.T) {
	svc, _, client := newChatFixture()
	ctx := context.Background()

	resp, err := svc.StartConversation(ctx, "user-1", "My engine is overheating", models.LanguageEnglish)
	require.NoError(t, err)

	// A terse follow-up carries no vehicle words, but the engaged
	// conversation is trusted without a classifier call.
	client.isAutomotive = false
	followUp, err := svc.ProcessMessage(ctx, resp.ConversationID, "user-1", "yes, it does that too", models.LanguageEnglish)
	require.NoError(t, err)
	assert.Equal(t, "Check the brake pads first.", followUp.Response)
	assert.Equal(t, 2, client.expertCalls)
	assert.Equal(t, 1, client.relevanceCalls)
}

func TestProcessMessageOwnership(t *testing.T) {
	svc, _, _ := newChatFixture()
	ctx := context.Background()

	resp, err := svc.StartConversation(ctx, "alice", "My engine is overheating", models.LanguageEnglish)
	require.NoError(t, err)

	_, err = svc.ProcessMessage(ctx, resp.ConversationID, "bob", "still overheating", models.LanguageEnglish)
	assert.ErrorIs(t, err, ErrConversationNotFound)

	_, err = svc.ProcessMessage(ctx, uuid.New(), "alice", "still overheating", models.LanguageEnglish)
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestCompressionTriggersAtThreshold(t *testing.T) {
	svc, s, client := newChatFixture()
	ctx := context.Background()

	resp, err := svc.StartConversation(ctx, "user-1", "My engine is overheating", models.LanguageEnglish)
	require.NoError(t, err)

	// 2 messages so far; seeding 6 more leaves the next turn landing
	// exactly on the threshold of 10.
	seedMessages(t, s, resp.ConversationID, 6)

	_, err = svc.ProcessMessage(ctx, resp.ConversationID, "user-1", "now there's steam too", models.LanguageEnglish)
	require.NoError(t, err)
	assert.Equal(t, 1, client.compressionCalls)

	active, err := s.GetActiveContext(ctx, resp.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, "compressed summary", active.CompressedContext)
	assert.Equal(t, 10, active.MessageCount)
}

func TestCompressionNotTriggeredBelowThreshold(t *testing.T) {
	svc, s, client := newChatFixture()
	ctx := context.Background()

	resp, err := svc.StartConversation(ctx, "user-1", "My engine is overheating", models.LanguageEnglish)
	require.NoError(t, err)

	// 2 + 5 + 2 = 9 messages after the next turn, below the threshold.
	seedMessages(t, s, resp.ConversationID, 5)

	_, err = svc.ProcessMessage(ctx, resp.ConversationID, "user-1", "now there's steam too", models.LanguageEnglish)
	require.NoError(t, err)
	assert.Zero(t, client.compressionCalls)

	_, err = s.GetActiveContext(ctx, resp.ConversationID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCompressionFailureDoesNotFailTurn(t *testing.T) {
	svc, s, client := newChatFixture()
	client.compressionErr = assert.AnError
	ctx := context.Background()

	resp, err := svc.StartConversation(ctx, "user-1", "My engine is overheating", models.LanguageEnglish)
	require.NoError(t, err)
	seedMessages(t, s, resp.ConversationID, 6)

	followUp, err := svc.ProcessMessage(ctx, resp.ConversationID, "user-1", "now there's steam too", models.LanguageEnglish)
	require.NoError(t, err)
	assert.NotEmpty(t, followUp.Response)
}

func TestEnglishResponseSkipsTranslation(t *testing.T) {
	svc, _, client := newChatFixture()

	_, err := svc.StartConversation(context.Background(), "user-1", "My brakes are squealing", models.LanguageEnglish)
	require.NoError(t, err)
	assert.Zero(t, client.translateCalls)
}

func TestGeorgianUserGetsTranslatedResponse(t *testing.T) {
	svc, s, client := newChatFixture()
	ctx := context.Background()

	resp, err := svc.StartConversation(ctx, "user-1", "მუხრუჭები ჭრიალებს", models.LanguageGeorgian)
	require.NoError(t, err)
	assert.Equal(t, 1, client.translateCalls)
	assert.Equal(t, "[ka] Check the brake pads first.", resp.Response)

	// The stored assistant message keeps the response as generated.
	messages, err := s.ListMessages(ctx, resp.ConversationID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "Check the brake pads first.", messages[1].Content)
}

func TestTurnLanguageOverridesConversationLanguage(t *testing.T) {
	svc, _, client := newChatFixture()
	ctx := context.Background()

	resp, err := svc.StartConversation(ctx, "user-1", "მუხრუჭები ჭრიალებს", models.LanguageGeorgian)
	require.NoError(t, err)
	assert.Equal(t, 1, client.translateCalls)

	// An English turn in a Georgian-created conversation answers in
	// English and echoes the turn's language.
	followUp, err := svc.ProcessMessage(ctx, resp.ConversationID, "user-1", "How much will new pads cost?", models.LanguageEnglish)
	require.NoError(t, err)
	assert.Equal(t, models.LanguageEnglish, followUp.Language)
	assert.Equal(t, "Check the brake pads first.", followUp.Response)
	assert.Equal(t, 1, client.translateCalls)
}

func TestEnglishQueryInGeorgianTurnSkipsTranslation(t *testing.T) {
	svc, _, client := newChatFixture()

	// The query and the generated response are both English, so there
	// is nothing to translate even on a Georgian turn.
	resp, err := svc.StartConversation(context.Background(), "user-1", "My brakes are squealing", models.LanguageGeorgian)
	require.NoError(t, err)
	assert.Equal(t, models.LanguageGeorgian, resp.Language)
	assert.Equal(t, "Check the brake pads first.", resp.Response)
	assert.Zero(t, client.translateCalls)
}

func TestEmptyLanguageDefaultsToEnglish(t *testing.T) {
	svc, _, client := newChatFixture()

	resp, err := svc.StartConversation(context.Background(), "user-1", "My brakes are squealing", "")
	require.NoError(t, err)
	assert.Equal(t, models.LanguageEnglish, resp.Language)
	assert.Zero(t, client.translateCalls)
}

func TestGetConversationHistory(t *testing.T) {
	svc, _, _ := newChatFixture()
	ctx := context.Background()

	resp, err := svc.StartConversation(ctx, "user-1", "My brakes are squealing", models.LanguageEnglish)
	require.NoError(t, err)

	history, err := svc.GetConversationHistory(ctx, resp.ConversationID, "user-1")
	require.NoError(t, err)
	assert.Len(t, history, 2)

	_, err = svc.GetConversationHistory(ctx, resp.ConversationID, "mallory")
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestGetUserConversations(t *testing.T) {
	svc, _, _ := newChatFixture()
	ctx := context.Background()

	_, err := svc.StartConversation(ctx, "user-1", "My brakes are squealing", models.LanguageEnglish)
	require.NoError(t, err)
	_, err = svc.StartConversation(ctx, "user-1", "Engine light is on", models.LanguageEnglish)
	require.NoError(t, err)

	convs, err := svc.GetUserConversations(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, convs, 2)

	_, err = svc.GetUserConversations(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
