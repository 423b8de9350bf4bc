package ports

import "context"

// UsageData represents raw usage data from LLM provider APIs
type UsageData struct {
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
	Model            string `json:"model"`
	Provider         string `json:"provider"`
}

// LLMResponse represents an enhanced LLM response with usage data
type LLMResponse struct {
	Content string
	Usage   *UsageData
}

// ChatMessage is one turn of a multi-turn prompt (system/user/assistant).
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// LLMClient interface for LLM providers (enhanced with usage tracking)
type LLMClient interface {
	// Single-prompt completion
	ChatCompletion(ctx context.Context, model string, prompt string, maxTokens int) (string, error)

	// Single-prompt completion with usage tracking
	ChatCompletionWithUsage(ctx context.Context, model string, prompt string, maxTokens int) (*LLMResponse, error)

	// Multi-turn completion with usage tracking; used by the idea chat
	// agent to replay persisted history
	ChatWithMessages(ctx context.Context, model string, messages []ChatMessage, maxTokens int) (*LLMResponse, error)
}
