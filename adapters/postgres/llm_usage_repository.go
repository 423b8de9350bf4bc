package postgres

import (
	"context"
	"time"

	"thinkwise/models"
	"thinkwise/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// LLMUsageRepositoryImpl implements LLMUsageRepository for PostgreSQL
type LLMUsageRepositoryImpl struct {
	db *sqlx.DB
}

// NewLLMUsageRepository creates a new PostgreSQL LLM usage repository
func NewLLMUsageRepository(db *sqlx.DB) ports.LLMUsageRepository {
	return &LLMUsageRepositoryImpl{db: db}
}

// RecordUsage records LLM usage for an API call
func (r *LLMUsageRepositoryImpl) RecordUsage(ctx context.Context, usage *models.LLMUsage) error {
	if usage.ID == uuid.Nil {
		usage.ID = uuid.New()
	}

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO llm_usage (
			id, user_id, idea_id, provider, model, operation_type,
			prompt_tokens, completion_tokens, total_tokens, created_at
		) VALUES (
			:id, :user_id, :idea_id, :provider, :model, :operation_type,
			:prompt_tokens, :completion_tokens, :total_tokens, :created_at
		)
	`, usage)
	return err
}

// GetUserUsage retrieves usage records for a user within a date range
func (r *LLMUsageRepositoryImpl) GetUserUsage(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]*models.LLMUsage, error) {
	var usages []*models.LLMUsage
	err := r.db.SelectContext(ctx, &usages, `
		SELECT id, user_id, idea_id, provider, model, operation_type,
		       prompt_tokens, completion_tokens, total_tokens, created_at
		FROM llm_usage
		WHERE user_id = $1 AND created_at >= $2 AND created_at <= $3
		ORDER BY created_at DESC
	`, userID, start, end)
	return usages, err
}

// GetUserUsageSummary returns aggregated usage statistics for a user
func (r *LLMUsageRepositoryImpl) GetUserUsageSummary(ctx context.Context, userID uuid.UUID, start, end time.Time) (*models.UserUsageSummary, error) {
	summary := &models.UserUsageSummary{
		UserID:      userID,
		PeriodStart: start,
		PeriodEnd:   end,
		ByProvider:  make(map[string]models.ProviderUsage),
		ByModel:     make(map[string]models.ModelUsage),
	}

	// Basic aggregates; COALESCE keeps empty periods at zero
	var aggregates struct {
		RequestCount          int `db:"request_count"`
		TotalTokens           int `db:"total_tokens"`
		TotalPromptTokens     int `db:"total_prompt_tokens"`
		TotalCompletionTokens int `db:"total_completion_tokens"`
	}
	err := r.db.GetContext(ctx, &aggregates, `
		SELECT
			COUNT(*) as request_count,
			COALESCE(SUM(total_tokens), 0) as total_tokens,
			COALESCE(SUM(prompt_tokens), 0) as total_prompt_tokens,
			COALESCE(SUM(completion_tokens), 0) as total_completion_tokens
		FROM llm_usage
		WHERE user_id = $1 AND created_at >= $2 AND created_at <= $3
	`, userID, start, end)
	if err != nil {
		return nil, err
	}
	summary.RequestCount = aggregates.RequestCount
	summary.TotalTokens = aggregates.TotalTokens
	summary.TotalPromptTokens = aggregates.TotalPromptTokens
	summary.TotalCompletionTokens = aggregates.TotalCompletionTokens

	// Provider breakdown
	providerRows, err := r.db.QueryContext(ctx, `
		SELECT provider, SUM(total_tokens) as total_tokens, COUNT(*) as request_count
		FROM llm_usage
		WHERE user_id = $1 AND created_at >= $2 AND created_at <= $3
		GROUP BY provider
	`, userID, start, end)
	if err != nil {
		return nil, err
	}
	defer providerRows.Close()

	for providerRows.Next() {
		var provider models.ProviderUsage
		if err := providerRows.Scan(&provider.Provider, &provider.TotalTokens, &provider.RequestCount); err != nil {
			return nil, err
		}
		summary.ByProvider[provider.Provider] = provider
	}
	if err := providerRows.Err(); err != nil {
		return nil, err
	}

	// Model breakdown
	modelRows, err := r.db.QueryContext(ctx, `
		SELECT model, provider, SUM(total_tokens) as total_tokens, COUNT(*) as request_count
		FROM llm_usage
		WHERE user_id = $1 AND created_at >= $2 AND created_at <= $3
		GROUP BY model, provider
	`, userID, start, end)
	if err != nil {
		return nil, err
	}
	defer modelRows.Close()

	for modelRows.Next() {
		var model models.ModelUsage
		if err := modelRows.Scan(&model.Model, &model.Provider, &model.TotalTokens, &model.RequestCount); err != nil {
			return nil, err
		}
		summary.ByModel[model.Model] = model
	}
	if err := modelRows.Err(); err != nil {
		return nil, err
	}

	return summary, nil
}

// GetTotalTokens returns the total token count for a user in a time period
func (r *LLMUsageRepositoryImpl) GetTotalTokens(ctx context.Context, userID uuid.UUID, start, end time.Time) (int, error) {
	var total int
	err := r.db.GetContext(ctx, &total, `
		SELECT COALESCE(SUM(total_tokens), 0)
		FROM llm_usage
		WHERE user_id = $1 AND created_at >= $2 AND created_at <= $3
	`, userID, start, end)
	return total, err
}
