package models

import (
	"time"

	"github.com/google/uuid"
)

// LLMUsage represents a single LLM API call's token usage
type LLMUsage struct {
	ID               uuid.UUID `json:"id" db:"id"`
	UserID           uuid.UUID `json:"user_id" db:"user_id"`
	IdeaID           *string   `json:"idea_id,omitempty" db:"idea_id"`
	Provider         string    `json:"provider" db:"provider"`
	Model            string    `json:"model" db:"model"`
	OperationType    string    `json:"operation_type" db:"operation_type"`
	PromptTokens     int       `json:"prompt_tokens" db:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens" db:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens" db:"total_tokens"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// UserUsageSummary provides aggregated usage statistics for a user
type UserUsageSummary struct {
	UserID                uuid.UUID                `json:"user_id"`
	PeriodStart           time.Time                `json:"period_start"`
	PeriodEnd             time.Time                `json:"period_end"`
	TotalTokens           int                      `json:"total_tokens"`
	TotalPromptTokens     int                      `json:"total_prompt_tokens"`
	TotalCompletionTokens int                      `json:"total_completion_tokens"`
	ByProvider            map[string]ProviderUsage `json:"by_provider"`
	ByModel               map[string]ModelUsage    `json:"by_model"`
	RequestCount          int                      `json:"request_count"`
}

// ProviderUsage represents usage aggregated by provider
type ProviderUsage struct {
	Provider     string `json:"provider"`
	TotalTokens  int    `json:"total_tokens"`
	RequestCount int    `json:"request_count"`
}

// ModelUsage represents usage aggregated by model
type ModelUsage struct {
	Model        string `json:"model"`
	Provider     string `json:"provider"`
	TotalTokens  int    `json:"total_tokens"`
	RequestCount int    `json:"request_count"`
}

// Operation types for categorization
const (
	OpEffortEstimate = "effort_estimate"
	OpValueEstimate  = "value_estimate"
	OpFinalSummary   = "final_summary"
	OpIdeaChat       = "idea_chat"
)
