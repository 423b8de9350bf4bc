package usage

import (
	"context"
	"log"
	"time"

	"thinkwise/internal"
	"thinkwise/models"
	"thinkwise/ports"

	"github.com/google/uuid"
)

// Service handles LLM usage tracking and persistence. Agents call
// RecordOperation fire-and-forget; the authenticated user travels in
// the context so the agents stay identity-agnostic.
type Service struct {
	repo ports.LLMUsageRepository
}

// NewService creates a new usage service
func NewService(repo ports.LLMUsageRepository) *Service {
	return &Service{repo: repo}
}

// RecordOperation records LLM usage for one agent call. Calls without an
// authenticated user in the context (CLI runs) are skipped. Tracking
// problems never fail the caller.
func (s *Service) RecordOperation(ctx context.Context, operationType, ideaID string, usage *ports.UsageData) {
	if usage == nil {
		log.Printf("[UsageService] ERROR: nil usage data provided")
		return
	}
	if usage.PromptTokens < 0 || usage.CompletionTokens < 0 || usage.TotalTokens < 0 {
		log.Printf("[UsageService] ERROR: invalid token counts: %+v", usage)
		return
	}

	userID, ok := internal.UserIDFromContext(ctx)
	if !ok {
		log.Printf("[UsageService] Skipping usage record without authenticated user (op=%s)", operationType)
		return
	}

	var ideaRef *string
	if ideaID != "" {
		ideaRef = &ideaID
	}

	llmUsage := &models.LLMUsage{
		UserID:           userID,
		IdeaID:           ideaRef,
		Provider:         usage.Provider,
		Model:            usage.Model,
		OperationType:    operationType,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		TotalTokens:      usage.TotalTokens,
		CreatedAt:        time.Now(),
	}

	// Async persistence to avoid blocking LLM calls
	go func() {
		if err := s.persistWithRetry(llmUsage); err != nil {
			log.Printf("[UsageService] ERROR: failed to persist usage after retries: %v", err)
		}
	}()
}

// persistWithRetry attempts to persist usage with linear backoff
func (s *Service) persistWithRetry(usage *models.LLMUsage) error {
	const maxRetries = 3
	const baseDelay = 100 * time.Millisecond

	for attempt := 0; attempt < maxRetries; attempt++ {
		if err := s.repo.RecordUsage(context.Background(), usage); err == nil {
			return nil // Success
		}

		if attempt < maxRetries-1 {
			delay := time.Duration(attempt+1) * baseDelay
			time.Sleep(delay)
		}
	}

	// Final attempt
	return s.repo.RecordUsage(context.Background(), usage)
}

// GetUserUsageSummary returns aggregated usage for a user in a time period
func (s *Service) GetUserUsageSummary(ctx context.Context, userID uuid.UUID, start, end time.Time) (*models.UserUsageSummary, error) {
	return s.repo.GetUserUsageSummary(ctx, userID, start, end)
}

// GetUserUsage returns detailed usage records for a user
func (s *Service) GetUserUsage(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]*models.LLMUsage, error) {
	return s.repo.GetUserUsage(ctx, userID, start, end)
}

// GetTotalTokens returns total token usage for a user in a time period
func (s *Service) GetTotalTokens(ctx context.Context, userID uuid.UUID, start, end time.Time) (int, error) {
	return s.repo.GetTotalTokens(ctx, userID, start, end)
}
