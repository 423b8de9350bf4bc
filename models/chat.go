package models

import (
	"time"

	"github.com/google/uuid"
)

// Chat message roles, matching the OpenAI wire vocabulary.
const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is one turn of a per-idea conversation. History is keyed by
// (user_id, idea_id) and replayed chronologically into the chat prompt.
type ChatMessage struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	IdeaID    string    `json:"idea_id" db:"idea_id"`
	Role      string    `json:"role" db:"role"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
