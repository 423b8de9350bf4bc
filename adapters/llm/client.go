package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"thinkwise/models"
	"thinkwise/ports"
)

const defaultBaseURL = "https://api.openai.com/v1"

// NewClient creates an LLM client from config. Returns the mock client
// when no API key is configured so local runs work without credentials.
func NewClient(config *models.AIConfig) ports.LLMClient {
	if config == nil || strings.TrimSpace(config.OpenAIKey) == "" {
		return &MockLLMClient{}
	}
	return NewOpenAIClient(config)
}

// NewOpenAIClient creates a client for the OpenAI Chat Completions API.
func NewOpenAIClient(config *models.AIConfig) *OpenAIClient {
	baseURL := strings.TrimSpace(config.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAIClient{
		APIKey:      config.OpenAIKey,
		BaseURL:     baseURL,
		Timeout:     timeout,
		Temperature: config.Temperature,
	}
}

// MockLLMClient is a mock LLM client for testing and offline runs
type MockLLMClient struct {
	Response string // Set this for testing
	Error    error  // Set this to simulate errors
	Calls    int    // Incremented on every completion
}

func (m *MockLLMClient) ChatCompletion(ctx context.Context, model string, prompt string, maxTokens int) (string, error) {
	resp, err := m.ChatCompletionWithUsage(ctx, model, prompt, maxTokens)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func (m *MockLLMClient) ChatCompletionWithUsage(ctx context.Context, model string, prompt string, maxTokens int) (*ports.LLMResponse, error) {
	m.Calls++
	if m.Error != nil {
		return nil, m.Error
	}
	content := m.Response
	if content == "" {
		// Default mock response: one blob carrying the fields every
		// evaluator agent parses, so unknown keys are simply ignored
		content = `{
			"effort_score": 0.5,
			"value_score": 0.5,
			"reasoning": "Mock assessment used for offline runs.",
			"aggregated_reasoning": "Mock assessment used for offline runs.",
			"reply": "Mock reply used for offline runs."
		}`
	}
	return &ports.LLMResponse{
		Content: content,
		Usage: &ports.UsageData{
			PromptTokens:     12,
			CompletionTokens: 34,
			TotalTokens:      46,
			Model:            model,
			Provider:         "mock",
		},
	}, nil
}

func (m *MockLLMClient) ChatWithMessages(ctx context.Context, model string, messages []ports.ChatMessage, maxTokens int) (*ports.LLMResponse, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("no messages provided")
	}
	last := messages[len(messages)-1]
	return m.ChatCompletionWithUsage(ctx, model, last.Content, maxTokens)
}

// OpenAIClient implements ports.LLMClient for OpenAI
type OpenAIClient struct {
	APIKey      string
	BaseURL     string
	Timeout     time.Duration
	Temperature float64
}

func (c *OpenAIClient) ChatCompletion(ctx context.Context, model string, prompt string, maxTokens int) (string, error) {
	resp, err := c.ChatCompletionWithUsage(ctx, model, prompt, maxTokens)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func (c *OpenAIClient) ChatCompletionWithUsage(ctx context.Context, model string, prompt string, maxTokens int) (*ports.LLMResponse, error) {
	messages := []ports.ChatMessage{
		{Role: "system", Content: "You are a careful assistant. Output exactly what the user asks for."},
		{Role: "user", Content: prompt},
	}
	return c.ChatWithMessages(ctx, model, messages, maxTokens)
}

func (c *OpenAIClient) ChatWithMessages(ctx context.Context, model string, messages []ports.ChatMessage, maxTokens int) (*ports.LLMResponse, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("missing model")
	}
	if len(messages) == 0 {
		return nil, fmt.Errorf("no messages provided")
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	type reqBody struct {
		Model       string              `json:"model"`
		Messages    []ports.ChatMessage `json:"messages"`
		Temperature float64             `json:"temperature,omitempty"`
		MaxTokens   int                 `json:"max_tokens,omitempty"`
	}
	body := reqBody{
		Model:       model,
		Messages:    messages,
		Temperature: c.Temperature,
		MaxTokens:   maxTokens,
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	client := &http.Client{Timeout: c.Timeout}
	url := strings.TrimRight(c.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	respRaw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openai http %d: %s", resp.StatusCode, string(respRaw))
	}

	type choice struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	type respBody struct {
		Choices []choice `json:"choices"`
		Usage   struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
		Model string `json:"model"`
	}
	var decoded respBody
	if err := json.Unmarshal(respRaw, &decoded); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return nil, fmt.Errorf("openai response missing choices")
	}

	respModel := decoded.Model
	if respModel == "" {
		respModel = model
	}
	return &ports.LLMResponse{
		Content: decoded.Choices[0].Message.Content,
		Usage: &ports.UsageData{
			PromptTokens:     decoded.Usage.PromptTokens,
			CompletionTokens: decoded.Usage.CompletionTokens,
			TotalTokens:      decoded.Usage.TotalTokens,
			Model:            respModel,
			Provider:         "openai",
		},
	}, nil
}
