package postgres

import (
	"context"

	"thinkwise/models"
	"thinkwise/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ChatRepositoryImpl implements ChatRepository for PostgreSQL
type ChatRepositoryImpl struct {
	db *sqlx.DB
}

// NewChatRepository creates a new PostgreSQL chat repository
func NewChatRepository(db *sqlx.DB) ports.ChatRepository {
	return &ChatRepositoryImpl{db: db}
}

// AppendMessage records one chat turn
func (r *ChatRepositoryImpl) AppendMessage(ctx context.Context, msg *models.ChatMessage) error {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO chat_messages (id, user_id, idea_id, role, content, created_at)
		VALUES (:id, :user_id, :idea_id, :role, :content, NOW())
	`, msg)
	return err
}

// History returns the conversation for (user, idea), oldest first.
// The limit keeps prompt replay bounded; the newest messages win when
// history exceeds it.
func (r *ChatRepositoryImpl) History(ctx context.Context, userID uuid.UUID, ideaID string, limit int) ([]*models.ChatMessage, error) {
	if limit <= 0 {
		limit = 50
	}

	var messages []*models.ChatMessage
	err := r.db.SelectContext(ctx, &messages, `
		SELECT id, user_id, idea_id, role, content, created_at
		FROM (
			SELECT id, user_id, idea_id, role, content, created_at
			FROM chat_messages
			WHERE user_id = $1 AND idea_id = $2
			ORDER BY created_at DESC
			LIMIT $3
		) recent
		ORDER BY created_at ASC
	`, userID, ideaID, limit)
	return messages, err
}
