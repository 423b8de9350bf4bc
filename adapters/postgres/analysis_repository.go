package postgres

import (
	"context"
	"database/sql"
	"errors"

	apperrors "thinkwise/internal/errors"
	"thinkwise/models"
	"thinkwise/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// AnalysisRepositoryImpl implements AnalysisRepository for PostgreSQL
type AnalysisRepositoryImpl struct {
	db *sqlx.DB
}

// NewAnalysisRepository creates a new PostgreSQL analysis repository
func NewAnalysisRepository(db *sqlx.DB) ports.AnalysisRepository {
	return &AnalysisRepositoryImpl{db: db}
}

// UpsertAnalysis inserts or overwrites the analysis keyed on (user_id, idea_id).
// Re-analyzing the same idea for the same user replaces the previous outcome.
func (r *AnalysisRepositoryImpl) UpsertAnalysis(ctx context.Context, record *models.AnalysisRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO idea_analyses (
			id, user_id, idea_id, filename, title, description, author, category,
			submitted_at, value_score, effort_score, combined_score, ranked, evidence,
			created_at, updated_at
		) VALUES (
			:id, :user_id, :idea_id, :filename, :title, :description, :author, :category,
			:submitted_at, :value_score, :effort_score, :combined_score, :ranked, :evidence,
			NOW(), NOW()
		)
		ON CONFLICT (user_id, idea_id) DO UPDATE SET
			filename       = EXCLUDED.filename,
			title          = EXCLUDED.title,
			description    = EXCLUDED.description,
			author         = EXCLUDED.author,
			category       = EXCLUDED.category,
			submitted_at   = EXCLUDED.submitted_at,
			value_score    = EXCLUDED.value_score,
			effort_score   = EXCLUDED.effort_score,
			combined_score = EXCLUDED.combined_score,
			ranked         = EXCLUDED.ranked,
			evidence       = EXCLUDED.evidence,
			updated_at     = NOW()
	`, record)
	return err
}

// GetAnalysis retrieves one idea's analysis for a user
func (r *AnalysisRepositoryImpl) GetAnalysis(ctx context.Context, userID uuid.UUID, ideaID string) (*models.AnalysisRecord, error) {
	var record models.AnalysisRecord
	err := r.db.GetContext(ctx, &record, `
		SELECT id, user_id, idea_id, filename, title, description, author, category,
		       submitted_at, value_score, effort_score, combined_score, ranked, evidence,
		       created_at, updated_at
		FROM idea_analyses
		WHERE user_id = $1 AND idea_id = $2
	`, userID, ideaID)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("analysis")
		}
		return nil, err
	}

	return &record, nil
}

// ListAnalyses returns all analyses for a user, newest first
func (r *AnalysisRepositoryImpl) ListAnalyses(ctx context.Context, userID uuid.UUID) ([]*models.AnalysisRecord, error) {
	var records []*models.AnalysisRecord
	err := r.db.SelectContext(ctx, &records, `
		SELECT id, user_id, idea_id, filename, title, description, author, category,
		       submitted_at, value_score, effort_score, combined_score, ranked, evidence,
		       created_at, updated_at
		FROM idea_analyses
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`, userID)
	return records, err
}

// TopAnalyses returns the highest ranked analyses for a user, combined
// score descending. filename "" means across all uploads. Only ranked
// outcomes (ideas with a final summary) qualify.
func (r *AnalysisRepositoryImpl) TopAnalyses(ctx context.Context, userID uuid.UUID, filename string, limit int) ([]*models.AnalysisRecord, error) {
	if limit <= 0 {
		limit = 3
	}

	var records []*models.AnalysisRecord
	err := r.db.SelectContext(ctx, &records, `
		SELECT id, user_id, idea_id, filename, title, description, author, category,
		       submitted_at, value_score, effort_score, combined_score, ranked, evidence,
		       created_at, updated_at
		FROM idea_analyses
		WHERE user_id = $1 AND ranked AND ($2 = '' OR filename = $2)
		ORDER BY combined_score DESC, idea_id ASC
		LIMIT $3
	`, userID, filename, limit)
	return records, err
}
