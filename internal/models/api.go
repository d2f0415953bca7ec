package models

import (
	"time"

	"github.com/google/uuid"
)

// --- Request Structs ---

// ChatRequest defines the expected body for the chat endpoint.
// When ConversationID is nil a new conversation is started.
type ChatRequest struct {
	Message        string  `json:"message"`
	UserID         string  `json:"user_id"`
	ConversationID *string `json:"conversation_id,omitempty"`
	Language       string  `json:"language"`
}

// --- Response Structs ---

// ChatResponse defines the response body for a completed chat turn.
// Language echoes the requested language, not the detected one, so API
// consumers get a stable field.
type ChatResponse struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	Response       string    `json:"response"`
	Language       string    `json:"language"`
}

// ConversationResponse defines the conversation metadata returned by the API.
type ConversationResponse struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	Language  string    `json:"language"`
	Status    string    `json:"status"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListConversationsResponse wraps a list of conversations for a user.
type ListConversationsResponse struct {
	Conversations []ConversationResponse `json:"conversations"`
}

// MessageResponse defines a single history entry returned by the API.
type MessageResponse struct {
	ID           uuid.UUID `json:"id"`
	Role         string    `json:"role"`
	Content      string    `json:"content"`
	Language     string    `json:"language"`
	IsAutomotive *bool     `json:"is_automotive,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// HistoryResponse wraps the chronological message history of a conversation.
type HistoryResponse struct {
	ConversationID uuid.UUID         `json:"conversation_id"`
	Messages       []MessageResponse `json:"messages"`
}

// ErrorResponse defines the standard structure for API errors.
type ErrorResponse struct {
	Error string `json:"error"`
}
