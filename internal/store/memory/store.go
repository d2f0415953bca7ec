// Package memory provides an in-memory store.Store implementation,
// used by tests and for running the server without a database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"mechaniai-backend/internal/models"
	"mechaniai-backend/internal/store"

	"github.com/google/uuid"
)

// Compile-time check to ensure MemoryStore implements store.Store
var _ store.Store = (*MemoryStore)(nil)

type MemoryStore struct {
	mu            sync.RWMutex
	conversations map[uuid.UUID]*models.Conversation
	messages      map[uuid.UUID][]models.Message
	contexts      map[uuid.UUID][]models.CompressedContext

	// Monotonic counter so messages created within the same clock tick
	// still sort in insertion order.
	seq int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[uuid.UUID]*models.Conversation),
		messages:      make(map[uuid.UUID][]models.Message),
		contexts:      make(map[uuid.UUID][]models.CompressedContext),
	}
}

func (s *MemoryStore) CreateConversation(_ context.Context, arg store.CreateConversationParams) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	conv := &models.Conversation{
		ID:        arg.ID,
		UserID:    arg.UserID,
		Language:  arg.Language,
		Status:    arg.Status,
		Title:     arg.Title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.conversations[arg.ID] = conv

	copied := *conv
	return &copied, nil
}

func (s *MemoryStore) GetConversation(_ context.Context, id uuid.UUID) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[id]
	if !ok {
		return nil, store.ErrNotFound
	}

	copied := *conv
	return &copied, nil
}

func (s *MemoryStore) UpdateConversation(_ context.Context, arg store.UpdateConversationParams) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[arg.ID]
	if !ok {
		return nil, store.ErrNotFound
	}

	if arg.Title != nil {
		conv.Title = *arg.Title
	}
	if arg.Status != nil {
		conv.Status = *arg.Status
	}
	conv.UpdatedAt = time.Now().UTC()

	copied := *conv
	return &copied, nil
}

func (s *MemoryStore) DeleteConversation(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[id]; !ok {
		return store.ErrNotFound
	}

	delete(s.conversations, id)
	delete(s.messages, id)
	delete(s.contexts, id)

	return nil
}

func (s *MemoryStore) ListConversations(_ context.Context, userID string, limit int) ([]models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	result := []models.Conversation{}
	for _, conv := range s.conversations {
		if conv.UserID == userID {
			result = append(result, *conv)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

func (s *MemoryStore) AddMessage(_ context.Context, arg store.AddMessageParams) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[arg.ConversationID]; !ok {
		return nil, store.ErrNotFound
	}

	s.seq++
	msg := models.Message{
		ID:              arg.ID,
		ConversationID:  arg.ConversationID,
		Role:            arg.Role,
		Content:         arg.Content,
		OriginalContent: arg.OriginalContent,
		Language:        arg.Language,
		IsAutomotive:    arg.IsAutomotive,
		CreatedAt:       time.Unix(0, s.seq).UTC(),
	}
	s.messages[arg.ConversationID] = append(s.messages[arg.ConversationID], msg)

	copied := msg
	return &copied, nil
}

func (s *MemoryStore) ListMessages(_ context.Context, conversationID uuid.UUID) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.messages[conversationID]
	result := make([]models.Message, len(msgs))
	copy(result, msgs)

	return result, nil
}

func (s *MemoryStore) ListRecentMessages(_ context.Context, conversationID uuid.UUID, limit int) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}

	msgs := s.messages[conversationID]
	start := len(msgs) - limit
	if start < 0 {
		start = 0
	}
	result := make([]models.Message, len(msgs)-start)
	copy(result, msgs[start:])

	return result, nil
}

func (s *MemoryStore) GetActiveContext(_ context.Context, conversationID uuid.UUID) (*models.CompressedContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	contexts := s.contexts[conversationID]
	for i := len(contexts) - 1; i >= 0; i-- {
		if contexts[i].IsActive {
			copied := contexts[i]
			return &copied, nil
		}
	}

	return nil, store.ErrNotFound
}

func (s *MemoryStore) CreateContext(_ context.Context, arg store.CreateContextParams) (*models.CompressedContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insertContextLocked(arg)
}

func (s *MemoryStore) DeactivateContext(_ context.Context, contextID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for convID, contexts := range s.contexts {
		for i := range contexts {
			if contexts[i].ID == contextID {
				s.contexts[convID][i].IsActive = false
				return nil
			}
		}
	}

	return store.ErrNotFound
}

func (s *MemoryStore) ReplaceActiveContext(_ context.Context, arg store.CreateContextParams) (*models.CompressedContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contexts := s.contexts[arg.ConversationID]
	for i := range contexts {
		contexts[i].IsActive = false
	}

	return s.insertContextLocked(arg)
}

func (s *MemoryStore) insertContextLocked(arg store.CreateContextParams) (*models.CompressedContext, error) {
	if _, ok := s.conversations[arg.ConversationID]; !ok {
		return nil, store.ErrNotFound
	}

	cc := models.CompressedContext{
		ID:                arg.ID,
		ConversationID:    arg.ConversationID,
		CompressedContext: arg.CompressedContext,
		MessageCount:      arg.MessageCount,
		IsActive:          true,
		CreatedAt:         time.Now().UTC(),
	}
	s.contexts[arg.ConversationID] = append(s.contexts[arg.ConversationID], cc)

	copied := cc
	return &copied, nil
}
