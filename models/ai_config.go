package models

import (
	"os"
	"strconv"
	"time"
)

// AIConfig holds LLM configuration shared by the evaluator agents
type AIConfig struct {
	OpenAIKey     string
	OpenAIModel   string
	BaseURL       string // Override for OpenAI-compatible endpoints
	SystemContext string
	MaxTokens     int
	Temperature   float64
	Timeout       time.Duration
	PromptsDir    string // Directory for external prompt files
}

// DefaultAIConfig returns sensible defaults for AI configuration
func DefaultAIConfig() *AIConfig {
	config := &AIConfig{
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   os.Getenv("LLM_MODEL"),
		BaseURL:       os.Getenv("OPENAI_BASE_URL"),
		SystemContext: "You are a product analyst evaluating startup and product ideas",
		MaxTokens:     2000, // default
		Temperature:   0.1,  // default
		Timeout:       60 * time.Second,
		PromptsDir:    "./prompts",
	}

	if config.OpenAIModel == "" {
		config.OpenAIModel = "gpt-4o-mini"
	}

	// Parse MaxTokens from environment
	if maxTokensStr := os.Getenv("LLM_MAX_TOKENS"); maxTokensStr != "" {
		if maxTokens, err := strconv.Atoi(maxTokensStr); err == nil {
			config.MaxTokens = maxTokens
		}
	}

	// Parse Temperature from environment
	if tempStr := os.Getenv("LLM_TEMPERATURE"); tempStr != "" {
		if temp, err := strconv.ParseFloat(tempStr, 64); err == nil {
			config.Temperature = temp
		}
	}

	return config
}
