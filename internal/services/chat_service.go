package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"mechaniai-backend/internal/llm"
	"mechaniai-backend/internal/models"
	"mechaniai-backend/internal/store"

	"github.com/google/uuid"
)

const (
	maxMessageLength     = 5000
	recentMessagesLimit  = 5
	conversationTitleLen = 50
)

// Canned replies for messages the pipeline refuses to answer.
var safetyMessages = map[string]string{
	models.LanguageEnglish:  "I can't respond to that message. If you have a question about your vehicle, I'm here to help.",
	models.LanguageGeorgian: "ამ შეტყობინებაზე პასუხის გაცემა არ შემიძლია. თუ გაქვთ შეკითხვა თქვენი ავტომობილის შესახებ, სიამოვნებით დაგეხმარებით.",
}

var redirectMessages = map[string]string{
	models.LanguageEnglish:  "I'm the Tegeta Motors automotive assistant, so I can only help with vehicle-related questions. Is there anything about your car I can help you with?",
	models.LanguageGeorgian: "მე ვარ თეგეტა მოტორსის საავტომობილო ასისტენტი და მხოლოდ ავტომობილებთან დაკავშირებულ კითხვებზე შემიძლია დახმარება. გაქვთ შეკითხვა თქვენი მანქანის შესახებ?",
}

func cannedMessage(messages map[string]string, language string) string {
	if msg, ok := messages[language]; ok {
		return msg
	}
	return messages[models.LanguageEnglish]
}

// ChatService runs the conversational pipeline: moderation, relevance,
// context assembly, response generation, compression and translation.
type ChatService struct {
	store                store.Store
	llm                  llm.Client
	compressionThreshold int
}

func NewChatService(s store.Store, client llm.Client, compressionThreshold int) *ChatService {
	if compressionThreshold <= 0 {
		compressionThreshold = 10
	}
	return &ChatService{
		store:                s,
		llm:                  client,
		compressionThreshold: compressionThreshold,
	}
}

// StartConversation creates a conversation for the user's first
// message and runs the full pipeline on it.
func (s *ChatService) StartConversation(ctx context.Context, userID, message, language string) (*models.ChatResponse, error) {
	language, err := s.validate(userID, message, language)
	if err != nil {
		return nil, err
	}

	conv, err := s.store.CreateConversation(ctx, store.CreateConversationParams{
		ID:       uuid.New(),
		UserID:   userID,
		Language: language,
		Title:    conversationTitle(message),
		Status:   models.ConversationStatusActive,
	})
	if err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}

	response, err := s.processTurn(ctx, conv, message, language)
	if err != nil {
		return nil, err
	}

	return &models.ChatResponse{
		ConversationID: conv.ID,
		Response:       response,
		Language:       language,
	}, nil
}

// ProcessMessage runs the pipeline on a follow-up message in an
// existing conversation. The conversation must belong to the user.
func (s *ChatService) ProcessMessage(ctx context.Context, conversationID uuid.UUID, userID, message, language string) (*models.ChatResponse, error) {
	language, err := s.validate(userID, message, language)
	if err != nil {
		return nil, err
	}

	conv, err := s.loadOwnedConversation(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}

	response, err := s.processTurn(ctx, conv, message, language)
	if err != nil {
		return nil, err
	}

	return &models.ChatResponse{
		ConversationID: conv.ID,
		Response:       response,
		Language:       language,
	}, nil
}

// GetConversationHistory returns the full message log, oldest first.
func (s *ChatService) GetConversationHistory(ctx context.Context, conversationID uuid.UUID, userID string) ([]models.Message, error) {
	if _, err := s.loadOwnedConversation(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	messages, err := s.store.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	return messages, nil
}

// GetUserConversations lists the user's conversations, newest first.
func (s *ChatService) GetUserConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	conversations, err := s.store.ListConversations(ctx, userID, 50)
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	return conversations, nil
}

func (s *ChatService) loadOwnedConversation(ctx context.Context, conversationID uuid.UUID, userID string) (*models.Conversation, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrConversationNotFound, conversationID)
		}
		return nil, fmt.Errorf("loading conversation: %w", err)
	}
	// A conversation owned by someone else is indistinguishable from a
	// missing one.
	if conv.UserID != userID {
		return nil, fmt.Errorf("%w: %s", ErrConversationNotFound, conversationID)
	}
	return conv, nil
}

func (s *ChatService) validate(userID, message, language string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if message == "" {
		return "", fmt.Errorf("%w: message is required", ErrInvalidInput)
	}
	if len(message) > maxMessageLength {
		return "", fmt.Errorf("%w: message exceeds %d characters", ErrInvalidInput, maxMessageLength)
	}
	switch language {
	case models.LanguageEnglish, models.LanguageGeorgian:
		return language, nil
	case "":
		return models.LanguageEnglish, nil
	default:
		return "", fmt.Errorf("%w: unsupported language %q", ErrInvalidInput, language)
	}
}

// processTurn runs one user message through the pipeline and returns
// the reply to send back. language is the turn's requested language,
// which may differ from the one the conversation was created with.
func (s *ChatService) processTurn(ctx context.Context, conv *models.Conversation, message, language string) (string, error) {
	// Moderation gates everything else.
	moderation, err := s.llm.ModerateContent(ctx, message)
	if err != nil {
		return "", fmt.Errorf("moderating message: %w", err)
	}
	if moderation.Flagged {
		reply := cannedMessage(safetyMessages, language)
		if err := s.persistExchange(ctx, conv.ID, message, reply, language, boolPtr(false)); err != nil {
			return "", err
		}
		return reply, nil
	}

	history, priorCount, err := s.assembleContext(ctx, conv.ID)
	if err != nil {
		return "", err
	}

	// Follow-ups in an engaged conversation are trusted without a
	// classifier call ("yes, it does that too" carries no vehicle
	// words but continues an automotive thread).
	isAutomotive := priorCount > 0
	if !isAutomotive {
		relevance, err := s.llm.CheckAutomotiveRelevance(ctx, message)
		if err != nil {
			return "", fmt.Errorf("classifying message: %w", err)
		}
		isAutomotive = relevance.IsAutomotive
	}
	if !isAutomotive {
		reply := cannedMessage(redirectMessages, language)
		if err := s.persistExchange(ctx, conv.ID, message, reply, language, boolPtr(false)); err != nil {
			return "", err
		}
		return reply, nil
	}

	if _, err := s.store.AddMessage(ctx, store.AddMessageParams{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		Role:           models.RoleUser,
		Content:        message,
		Language:       language,
		IsAutomotive:   boolPtr(true),
	}); err != nil {
		return "", fmt.Errorf("persisting user message: %w", err)
	}

	expert, err := s.llm.GenerateExpertResponse(ctx, message, history, language)
	if err != nil {
		return "", fmt.Errorf("generating response: %w", err)
	}

	if _, err := s.store.AddMessage(ctx, store.AddMessageParams{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		Role:           models.RoleAssistant,
		Content:        expert.Response,
		Language:       llm.DetectLanguage(expert.Response).Language,
	}); err != nil {
		return "", fmt.Errorf("persisting assistant message: %w", err)
	}

	// Compression failures never lose the turn.
	s.maybeCompress(ctx, conv.ID)

	// English turns get the response as generated; otherwise the
	// detected languages of query and response decide whether the
	// reply needs translating.
	reply := expert.Response
	if language != models.LanguageEnglish {
		translated, err := s.llm.AutoTranslateResponse(ctx, message, expert.Response)
		if err != nil {
			return "", fmt.Errorf("translating response: %w", err)
		}
		reply = translated.TranslatedResponse
	}

	return reply, nil
}

// assembleContext builds the model-facing history: the active
// compressed summary, when one exists, followed by the most recent
// turns. Also reports how many messages the conversation already has.
func (s *ChatService) assembleContext(ctx context.Context, conversationID uuid.UUID) ([]llm.Message, int, error) {
	var history []llm.Message

	active, err := s.store.GetActiveContext(ctx, conversationID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, 0, fmt.Errorf("loading active context: %w", err)
	}
	if active != nil {
		history = append(history, llm.Message{
			Role:    llm.RoleSystem,
			Content: "Previous conversation summary: " + active.CompressedContext,
		})
	}

	recent, err := s.store.ListRecentMessages(ctx, conversationID, recentMessagesLimit)
	if err != nil {
		return nil, 0, fmt.Errorf("loading recent messages: %w", err)
	}
	for _, msg := range recent {
		role := llm.RoleUser
		if msg.Role == models.RoleAssistant {
			role = llm.RoleAssistant
		}
		history = append(history, llm.Message{Role: role, Content: msg.Content})
	}

	return history, len(recent), nil
}

// maybeCompress replaces the active context with a fresh summary once
// the message log reaches the threshold. Failures are logged and
// swallowed; the turn already succeeded.
func (s *ChatService) maybeCompress(ctx context.Context, conversationID uuid.UUID) {
	messages, err := s.store.ListMessages(ctx, conversationID)
	if err != nil {
		log.Printf("ERROR [ChatService] maybeCompress: loading messages for %s: %v", conversationID, err)
		return
	}
	if len(messages) < s.compressionThreshold {
		return
	}

	transcript := make([]llm.Message, 0, len(messages))
	for _, msg := range messages {
		role := llm.RoleUser
		if msg.Role == models.RoleAssistant {
			role = llm.RoleAssistant
		}
		transcript = append(transcript, llm.Message{Role: role, Content: msg.Content})
	}

	result, err := s.llm.CompressConversation(ctx, transcript)
	if err != nil {
		log.Printf("ERROR [ChatService] maybeCompress: compression for %s: %v", conversationID, err)
		return
	}
	if result.Summary == "" {
		return
	}

	if _, err := s.store.ReplaceActiveContext(ctx, store.CreateContextParams{
		ID:                uuid.New(),
		ConversationID:    conversationID,
		CompressedContext: result.Summary,
		MessageCount:      len(messages),
	}); err != nil {
		log.Printf("ERROR [ChatService] maybeCompress: storing context for %s: %v", conversationID, err)
	}
}

// persistExchange stores a refused user message and the canned reply.
func (s *ChatService) persistExchange(ctx context.Context, conversationID uuid.UUID, userMessage, reply, language string, isAutomotive *bool) error {
	if _, err := s.store.AddMessage(ctx, store.AddMessageParams{
		ID:             uuid.New(),
		ConversationID: conversationID,
		Role:           models.RoleUser,
		Content:        userMessage,
		Language:       language,
		IsAutomotive:   isAutomotive,
	}); err != nil {
		return fmt.Errorf("persisting user message: %w", err)
	}
	if _, err := s.store.AddMessage(ctx, store.AddMessageParams{
		ID:             uuid.New(),
		ConversationID: conversationID,
		Role:           models.RoleAssistant,
		Content:        reply,
		Language:       language,
	}); err != nil {
		return fmt.Errorf("persisting assistant message: %w", err)
	}
	return nil
}

func conversationTitle(message string) string {
	runes := []rune(message)
	if len(runes) <= conversationTitleLen {
		return message
	}
	return string(runes[:conversationTitleLen]) + "..."
}

func boolPtr(b bool) *bool { return &b }
