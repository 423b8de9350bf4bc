package ports

import (
	"context"

	"thinkwise/models"

	"github.com/google/uuid"
)

// AnalysisRepository defines the interface for persisted idea analyses
type AnalysisRepository interface {
	// UpsertAnalysis inserts or overwrites the analysis keyed on
	// (user_id, idea_id)
	UpsertAnalysis(ctx context.Context, record *models.AnalysisRecord) error

	// GetAnalysis retrieves one idea's analysis for a user
	GetAnalysis(ctx context.Context, userID uuid.UUID, ideaID string) (*models.AnalysisRecord, error)

	// ListAnalyses returns all analyses for a user, newest first
	ListAnalyses(ctx context.Context, userID uuid.UUID) ([]*models.AnalysisRecord, error)

	// TopAnalyses returns the highest ranked analyses for a user,
	// combined score descending; filename "" means across all uploads
	TopAnalyses(ctx context.Context, userID uuid.UUID, filename string, limit int) ([]*models.AnalysisRecord, error)
}

// ChatRepository stores per-idea conversation history
type ChatRepository interface {
	// AppendMessage records one chat turn
	AppendMessage(ctx context.Context, msg *models.ChatMessage) error

	// History returns the conversation for (user, idea) oldest first
	History(ctx context.Context, userID uuid.UUID, ideaID string, limit int) ([]*models.ChatMessage, error)
}
