package postgres

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"mechaniai-backend/internal/models"
	"mechaniai-backend/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Compile-time check to ensure PostgresStore implements store.Store
var _ store.Store = (*PostgresStore)(nil)

// PostgreSQL error code for foreign key violations.
const pgErrForeignKeyViolation = "23503"

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// CreateConversation inserts a new conversation record.
func (s *PostgresStore) CreateConversation(ctx context.Context, arg store.CreateConversationParams) (*models.Conversation, error) {
	query := `
		INSERT INTO conversations (id, user_id, language, title, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, language, status, title, created_at, updated_at`

	conv := &models.Conversation{}
	err := s.db.QueryRow(ctx, query, arg.ID, arg.UserID, arg.Language, arg.Title, arg.Status).Scan(
		&conv.ID,
		&conv.UserID,
		&conv.Language,
		&conv.Status,
		&conv.Title,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	)
	if err != nil {
		log.Printf("ERROR [PostgresStore] CreateConversation: insert failed for user %s: %v", arg.UserID, err)
		return nil, fmt.Errorf("database error creating conversation: %w", err)
	}

	return conv, nil
}

// GetConversation retrieves a conversation by ID.
// Returns store.ErrNotFound if the conversation does not exist.
func (s *PostgresStore) GetConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	query := `
		SELECT id, user_id, language, status, title, created_at, updated_at
		FROM conversations
		WHERE id = $1`

	conv := &models.Conversation{}
	err := s.db.QueryRow(ctx, query, id).Scan(
		&conv.ID,
		&conv.UserID,
		&conv.Language,
		&conv.Status,
		&conv.Title,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		log.Printf("ERROR [PostgresStore] GetConversation: query failed for %s: %v", id, err)
		return nil, fmt.Errorf("database error fetching conversation: %w", err)
	}

	return conv, nil
}

// UpdateConversation applies a partial update (title and/or status).
func (s *PostgresStore) UpdateConversation(ctx context.Context, arg store.UpdateConversationParams) (*models.Conversation, error) {
	setClauses := []string{}
	args := []interface{}{}
	argID := 1

	if arg.Title != nil {
		setClauses = append(setClauses, fmt.Sprintf("title = $%d", argID))
		args = append(args, *arg.Title)
		argID++
	}
	if arg.Status != nil {
		setClauses = append(setClauses, fmt.Sprintf("status = $%d", argID))
		args = append(args, *arg.Status)
		argID++
	}

	if len(setClauses) == 0 {
		return s.GetConversation(ctx, arg.ID)
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	query := fmt.Sprintf(`
		UPDATE conversations SET %s
		WHERE id = $%d
		RETURNING id, user_id, language, status, title, created_at, updated_at`,
		strings.Join(setClauses, ", "), argID)
	args = append(args, arg.ID)

	conv := &models.Conversation{}
	err := s.db.QueryRow(ctx, query, args...).Scan(
		&conv.ID,
		&conv.UserID,
		&conv.Language,
		&conv.Status,
		&conv.Title,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		log.Printf("ERROR [PostgresStore] UpdateConversation: update failed for %s: %v", arg.ID, err)
		return nil, fmt.Errorf("database error updating conversation: %w", err)
	}

	return conv, nil
}

// DeleteConversation removes a conversation. Messages and contexts are
// removed by ON DELETE CASCADE on their foreign keys.
func (s *PostgresStore) DeleteConversation(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM conversations WHERE id = $1`

	tag, err := s.db.Exec(ctx, query, id)
	if err != nil {
		log.Printf("ERROR [PostgresStore] DeleteConversation: delete failed for %s: %v", id, err)
		return fmt.Errorf("database error deleting conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}

	return nil
}

// ListConversations retrieves the conversations of a user, most recent first.
func (s *PostgresStore) ListConversations(ctx context.Context, userID string, limit int) ([]models.Conversation, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, user_id, language, status, title, created_at, updated_at
		FROM conversations
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := s.db.Query(ctx, query, userID, limit)
	if err != nil {
		log.Printf("ERROR [PostgresStore] ListConversations: query failed for user %s: %v", userID, err)
		return nil, fmt.Errorf("database error listing conversations: %w", err)
	}
	defer rows.Close()

	conversations := []models.Conversation{}
	for rows.Next() {
		var conv models.Conversation
		if err := rows.Scan(&conv.ID, &conv.UserID, &conv.Language, &conv.Status, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("database error scanning conversation: %w", err)
		}
		conversations = append(conversations, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database error iterating conversations: %w", err)
	}

	return conversations, nil
}

// AddMessage appends a message to a conversation's log.
// A foreign key violation (nonexistent conversation) maps to store.ErrNotFound.
func (s *PostgresStore) AddMessage(ctx context.Context, arg store.AddMessageParams) (*models.Message, error) {
	query := `
		INSERT INTO messages (id, conversation_id, role, content, original_content, language, is_automotive)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, conversation_id, role, content, original_content, language, is_automotive, created_at`

	msg := &models.Message{}
	err := s.db.QueryRow(ctx, query,
		arg.ID,
		arg.ConversationID,
		arg.Role,
		arg.Content,
		arg.OriginalContent,
		arg.Language,
		arg.IsAutomotive,
	).Scan(
		&msg.ID,
		&msg.ConversationID,
		&msg.Role,
		&msg.Content,
		&msg.OriginalContent,
		&msg.Language,
		&msg.IsAutomotive,
		&msg.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgErrForeignKeyViolation {
			log.Printf("[PostgresStore] AddMessage: conversation %s does not exist", arg.ConversationID)
			return nil, store.ErrNotFound
		}
		log.Printf("ERROR [PostgresStore] AddMessage: insert failed for conversation %s: %v", arg.ConversationID, err)
		return nil, fmt.Errorf("database error adding message: %w", err)
	}

	return msg, nil
}

// ListMessages retrieves all messages of a conversation in chronological order.
func (s *PostgresStore) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]models.Message, error) {
	query := `
		SELECT id, conversation_id, role, content, original_content, language, is_automotive, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC`

	rows, err := s.db.Query(ctx, query, conversationID)
	if err != nil {
		log.Printf("ERROR [PostgresStore] ListMessages: query failed for conversation %s: %v", conversationID, err)
		return nil, fmt.Errorf("database error listing messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// ListRecentMessages retrieves the newest messages of a conversation,
// returned in chronological order (oldest first).
func (s *PostgresStore) ListRecentMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `
		SELECT id, conversation_id, role, content, original_content, language, is_automotive, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := s.db.Query(ctx, query, conversationID, limit)
	if err != nil {
		log.Printf("ERROR [PostgresStore] ListRecentMessages: query failed for conversation %s: %v", conversationID, err)
		return nil, fmt.Errorf("database error listing recent messages: %w", err)
	}
	defer rows.Close()

	messages, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}

	// Reverse newest-first into chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

func scanMessages(rows pgx.Rows) ([]models.Message, error) {
	messages := []models.Message{}
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.ConversationID,
			&msg.Role,
			&msg.Content,
			&msg.OriginalContent,
			&msg.Language,
			&msg.IsAutomotive,
			&msg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("database error scanning message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database error iterating messages: %w", err)
	}
	return messages, nil
}

// GetActiveContext retrieves the active compressed context of a conversation.
func (s *PostgresStore) GetActiveContext(ctx context.Context, conversationID uuid.UUID) (*models.CompressedContext, error) {
	query := `
		SELECT id, conversation_id, compressed_context, message_count, is_active, created_at
		FROM conversation_contexts
		WHERE conversation_id = $1 AND is_active = TRUE
		ORDER BY created_at DESC
		LIMIT 1`

	cc := &models.CompressedContext{}
	err := s.db.QueryRow(ctx, query, conversationID).Scan(
		&cc.ID,
		&cc.ConversationID,
		&cc.CompressedContext,
		&cc.MessageCount,
		&cc.IsActive,
		&cc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		log.Printf("ERROR [PostgresStore] GetActiveContext: query failed for conversation %s: %v", conversationID, err)
		return nil, fmt.Errorf("database error fetching active context: %w", err)
	}

	return cc, nil
}

// CreateContext inserts a new compressed context flagged active.
func (s *PostgresStore) CreateContext(ctx context.Context, arg store.CreateContextParams) (*models.CompressedContext, error) {
	return s.insertContext(ctx, s.db, arg)
}

// DeactivateContext marks a context as inactive.
func (s *PostgresStore) DeactivateContext(ctx context.Context, contextID uuid.UUID) error {
	query := `UPDATE conversation_contexts SET is_active = FALSE WHERE id = $1`

	tag, err := s.db.Exec(ctx, query, contextID)
	if err != nil {
		log.Printf("ERROR [PostgresStore] DeactivateContext: update failed for %s: %v", contextID, err)
		return fmt.Errorf("database error deactivating context: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}

	return nil
}

// ReplaceActiveContext deactivates any active context of the conversation
// and inserts the new one inside one transaction, so the "at most one
// active context per conversation" invariant holds at the store boundary.
func (s *PostgresStore) ReplaceActiveContext(ctx context.Context, arg store.CreateContextParams) (*models.CompressedContext, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("database error starting transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	deactivate := `UPDATE conversation_contexts SET is_active = FALSE WHERE conversation_id = $1 AND is_active = TRUE`
	if _, err := tx.Exec(ctx, deactivate, arg.ConversationID); err != nil {
		log.Printf("ERROR [PostgresStore] ReplaceActiveContext: deactivate failed for conversation %s: %v", arg.ConversationID, err)
		return nil, fmt.Errorf("database error deactivating previous context: %w", err)
	}

	cc, err := s.insertContext(ctx, tx, arg)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("database error committing context replacement: %w", err)
	}

	return cc, nil
}

// queryRower is satisfied by both *pgxpool.Pool and pgx.Tx.
type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *PostgresStore) insertContext(ctx context.Context, q queryRower, arg store.CreateContextParams) (*models.CompressedContext, error) {
	query := `
		INSERT INTO conversation_contexts (id, conversation_id, compressed_context, message_count, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING id, conversation_id, compressed_context, message_count, is_active, created_at`

	cc := &models.CompressedContext{}
	err := q.QueryRow(ctx, query, arg.ID, arg.ConversationID, arg.CompressedContext, arg.MessageCount).Scan(
		&cc.ID,
		&cc.ConversationID,
		&cc.CompressedContext,
		&cc.MessageCount,
		&cc.IsActive,
		&cc.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgErrForeignKeyViolation {
			return nil, store.ErrNotFound
		}
		log.Printf("ERROR [PostgresStore] insertContext: insert failed for conversation %s: %v", arg.ConversationID, err)
		return nil, fmt.Errorf("database error creating context: %w", err)
	}

	return cc, nil
}
