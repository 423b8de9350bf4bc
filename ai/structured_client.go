package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"thinkwise/models"
	"thinkwise/ports"
)

// StructuredClient provides typed JSON responses from LLM calls. It
// renders a prompt, sends it through the configured LLM client, strips
// the markdown and chatter models wrap around JSON, and unmarshals the
// payload into T.
type StructuredClient[T any] struct {
	LLM           ports.LLMClient
	PromptManager *PromptManager
	Model         string
	MaxTokens     int
	SystemContext string
}

// NewStructuredClient creates a new structured client over an LLM port
func NewStructuredClient[T any](llm ports.LLMClient, config *models.AIConfig) *StructuredClient[T] {
	log.Printf("[StructuredClient] Initializing client with model=%s, temp=%.2f, maxTokens=%d",
		config.OpenAIModel, config.Temperature, config.MaxTokens)

	return &StructuredClient[T]{
		LLM:           llm,
		PromptManager: NewPromptManager(config.PromptsDir),
		Model:         config.OpenAIModel,
		MaxTokens:     config.MaxTokens,
		SystemContext: config.SystemContext,
	}
}

// GetJsonResponse makes a typed LLM call and parses the JSON response.
// Returns the parsed result together with provider usage data (nil when
// the provider reports none).
func (client *StructuredClient[T]) GetJsonResponse(ctx context.Context, prompt string) (*T, *ports.UsageData, error) {
	systemContent := client.SystemContext
	// JSON mode compatibility: OpenAI rejects json_object output unless
	// the conversation mentions JSON
	if !strings.Contains(strings.ToLower(systemContent), "json") {
		systemContent = systemContent + "\n\nIMPORTANT: Respond with valid JSON output."
	}

	messages := []ports.ChatMessage{
		{Role: "system", Content: systemContent},
		{Role: "user", Content: prompt},
	}

	log.Printf("[StructuredClient] Sending request to %s - promptLength=%d", client.Model, len(prompt))

	resp, err := client.LLM.ChatWithMessages(ctx, client.Model, messages, client.MaxTokens)
	if err != nil {
		log.Printf("[StructuredClient] ERROR: LLM call failed: %v", err)
		return nil, nil, fmt.Errorf("llm call failed: %w", err)
	}

	content := cleanJSONContent(resp.Content)

	var result T
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		log.Printf("[StructuredClient] ERROR: Failed to unmarshal JSON content into result type: %v", err)
		log.Printf("[StructuredClient] Cleaned content: %s", content)
		return nil, resp.Usage, fmt.Errorf("failed to parse JSON content into result type: %w\nCleaned content: %s", err, content)
	}

	return &result, resp.Usage, nil
}

// GetJsonResponseFromPrompt loads an external prompt template, renders
// it with the replacements, and gets a structured response.
func (client *StructuredClient[T]) GetJsonResponseFromPrompt(ctx context.Context, promptName string, replacements map[string]string) (*T, *ports.UsageData, error) {
	prompt, err := client.PromptManager.RenderPrompt(promptName, replacements)
	if err != nil {
		log.Printf("[StructuredClient] ERROR: Failed to load/render prompt %s: %v", promptName, err)
		return nil, nil, fmt.Errorf("failed to load/render prompt: %w", err)
	}

	return client.GetJsonResponse(ctx, prompt)
}

// cleanJSONContent removes markdown code blocks and cleans JSON content
func cleanJSONContent(content string) string {
	content = strings.TrimSpace(content)

	// Remove markdown code blocks with various prefixes
	if strings.HasPrefix(content, "```json") && strings.HasSuffix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimSuffix(content, "```")
		content = strings.TrimSpace(content)
	} else if strings.HasPrefix(content, "```") && strings.HasSuffix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
		content = strings.TrimSpace(content)
	}

	// Remove common AI chatter patterns that might precede JSON
	lines := strings.Split(content, "\n")
	cleanedLines := make([]string, 0, len(lines))
	skippedLines := 0

	for _, line := range lines {
		line = strings.TrimSpace(line)
		// Skip empty lines, explanations, or common chatter
		if line == "" ||
			strings.HasPrefix(strings.ToLower(line), "here is") ||
			strings.HasPrefix(strings.ToLower(line), "the json") ||
			strings.HasPrefix(strings.ToLower(line), "output:") ||
			strings.HasPrefix(strings.ToLower(line), "response:") ||
			strings.HasPrefix(strings.ToLower(line), "##") ||
			strings.Contains(strings.ToLower(line), "below is") ||
			strings.Contains(strings.ToLower(line), "following is") {
			skippedLines++
			continue
		}
		cleanedLines = append(cleanedLines, line)
	}

	if skippedLines > 0 {
		log.Printf("[StructuredClient] Filtered out %d lines of AI chatter", skippedLines)
	}

	content = strings.Join(cleanedLines, "\n")
	content = strings.TrimSpace(content)

	// If content starts with a line that looks like chatter, remove it
	if strings.Contains(content, "\n{") {
		parts := strings.SplitN(content, "\n{", 2)
		if len(parts) == 2 && !strings.Contains(parts[0], "{") && !strings.Contains(parts[0], "[") {
			content = "{" + parts[1]
		}
	} else if strings.Contains(content, "\n[") {
		parts := strings.SplitN(content, "\n[", 2)
		if len(parts) == 2 && !strings.Contains(parts[0], "{") && !strings.Contains(parts[0], "[") {
			content = "[" + parts[1]
		}
	}

	return content
}
