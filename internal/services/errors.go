package services

import "errors"

var (
	// ErrInvalidInput marks request validation failures.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConversationNotFound marks lookups for a conversation that
	// does not exist or belongs to another user.
	ErrConversationNotFound = errors.New("conversation not found")
)
