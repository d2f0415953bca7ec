package models

import (
	"time"

	"github.com/google/uuid"
)

// Conversation status values.
const (
	ConversationStatusActive = "active"
	ConversationStatusClosed = "closed"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Supported language codes.
const (
	LanguageEnglish  = "en"
	LanguageGeorgian = "ka"
	LanguageMixed    = "mixed"
)

// Conversation represents a conversation between a user and the assistant.
type Conversation struct {
	ID        uuid.UUID `db:"id"`
	UserID    string    `db:"user_id"`
	Language  string    `db:"language"` // "en" or "ka"
	Status    string    `db:"status"`   // "active" or "closed"
	Title     string    `db:"title"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Message represents a single message within a conversation.
// Messages are immutable once written and strictly ordered by CreatedAt.
type Message struct {
	ID              uuid.UUID `db:"id"`
	ConversationID  uuid.UUID `db:"conversation_id"`
	Role            string    `db:"role"` // "user", "assistant" or "system"
	Content         string    `db:"content"`
	OriginalContent *string   `db:"original_content"` // Pre-translation text, nullable
	Language        string    `db:"language"`
	IsAutomotive    *bool     `db:"is_automotive"` // Nullable; set when relevance was classified
	CreatedAt       time.Time `db:"created_at"`
}

// CompressedContext holds a generated summary that replaces full message
// history once a conversation grows past the compression threshold.
// At most one context is active per conversation at any time.
type CompressedContext struct {
	ID                uuid.UUID `db:"id"`
	ConversationID    uuid.UUID `db:"conversation_id"`
	CompressedContext string    `db:"compressed_context"`
	MessageCount      int       `db:"message_count"`
	IsActive          bool      `db:"is_active"`
	CreatedAt         time.Time `db:"created_at"`
}
