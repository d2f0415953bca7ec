package store

import (
	"context"
	"errors"

	"mechaniai-backend/internal/models"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a specific record is not found. It is also
// returned when an insert references a conversation that does not exist,
// so callers can distinguish referential-integrity failures from outages.
var ErrNotFound = errors.New("record not found")

// CreateConversationParams contains parameters for creating a conversation.
type CreateConversationParams struct {
	ID       uuid.UUID
	UserID   string
	Language string
	Title    string
	Status   string
}

// UpdateConversationParams contains parameters for updating a conversation.
// Pointer fields allow partial updates.
type UpdateConversationParams struct {
	ID     uuid.UUID
	Title  *string
	Status *string
}

// AddMessageParams contains parameters for appending a message to a
// conversation's log.
type AddMessageParams struct {
	ID              uuid.UUID
	ConversationID  uuid.UUID
	Role            string
	Content         string
	OriginalContent *string
	Language        string
	IsAutomotive    *bool
}

// CreateContextParams contains parameters for creating a compressed context.
type CreateContextParams struct {
	ID                uuid.UUID
	ConversationID    uuid.UUID
	CompressedContext string
	MessageCount      int
}

// Store defines the interface for durable conversation state.
// This allows for mocking in tests and potential DB backend switching.
type Store interface {
	// Conversation operations
	CreateConversation(ctx context.Context, arg CreateConversationParams) (*models.Conversation, error)
	GetConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error)
	UpdateConversation(ctx context.Context, arg UpdateConversationParams) (*models.Conversation, error)
	// DeleteConversation cascades to the conversation's messages and contexts.
	DeleteConversation(ctx context.Context, id uuid.UUID) error
	ListConversations(ctx context.Context, userID string, limit int) ([]models.Conversation, error)

	// Message operations. Messages are append-only and ordered by creation
	// time; AddMessage fails with ErrNotFound when the conversation does
	// not exist.
	AddMessage(ctx context.Context, arg AddMessageParams) (*models.Message, error)
	ListMessages(ctx context.Context, conversationID uuid.UUID) ([]models.Message, error)
	ListRecentMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]models.Message, error)

	// Compressed context operations. At most one context is active per
	// conversation; ReplaceActiveContext deactivates the previous active
	// context and inserts the new one inside a single transaction boundary.
	GetActiveContext(ctx context.Context, conversationID uuid.UUID) (*models.CompressedContext, error)
	CreateContext(ctx context.Context, arg CreateContextParams) (*models.CompressedContext, error)
	DeactivateContext(ctx context.Context, contextID uuid.UUID) error
	ReplaceActiveContext(ctx context.Context, arg CreateContextParams) (*models.CompressedContext, error)
}
