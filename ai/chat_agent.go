package ai

import (
	"context"
	"fmt"
	"log"
	"strings"

	"thinkwise/internal/errors"
	"thinkwise/models"
	"thinkwise/ports"
)

// Oldest history replayed into a chat prompt; keeps token spend bounded.
const maxChatHistory = 20

// ChatAgent answers follow-up questions about one evaluated idea. The
// system prompt is rebuilt from the stored analysis on every turn and
// persisted history is replayed chronologically, so conversations survive
// process restarts.
type ChatAgent struct {
	llm           ports.LLMClient
	promptManager *PromptManager
	model         string
	maxTokens     int
	recorder      UsageRecorder
}

// NewChatAgent creates a per-idea chat agent
func NewChatAgent(llm ports.LLMClient, config *models.AIConfig, recorder UsageRecorder) *ChatAgent {
	return &ChatAgent{
		llm:           llm,
		promptManager: NewPromptManager(config.PromptsDir),
		model:         config.OpenAIModel,
		maxTokens:     config.MaxTokens,
		recorder:      recorder,
	}
}

// Chat sends the user's message with replayed history and returns the
// assistant's reply.
func (a *ChatAgent) Chat(ctx context.Context, record *models.AnalysisRecord, history []*models.ChatMessage, userMessage string) (string, error) {
	if record == nil {
		return "", errors.InvalidInput("no analysis record for chat")
	}
	if strings.TrimSpace(userMessage) == "" {
		return "", errors.InvalidInput("empty chat message")
	}

	system, err := a.buildSystemPrompt(record)
	if err != nil {
		return "", err
	}

	messages := make([]ports.ChatMessage, 0, len(history)+2)
	messages = append(messages, ports.ChatMessage{Role: "system", Content: system})

	start := 0
	if len(history) > maxChatHistory {
		start = len(history) - maxChatHistory
	}
	for _, msg := range history[start:] {
		role := msg.Role
		if role != models.ChatRoleUser && role != models.ChatRoleAssistant {
			continue
		}
		messages = append(messages, ports.ChatMessage{Role: role, Content: msg.Content})
	}
	messages = append(messages, ports.ChatMessage{Role: models.ChatRoleUser, Content: userMessage})

	log.Printf("[ChatAgent] Idea %s chat turn with %d history messages", record.IdeaID, len(messages)-2)

	resp, err := a.llm.ChatWithMessages(ctx, a.model, messages, a.maxTokens)
	if err != nil {
		return "", errors.Wrapf(err, "chat failed for idea %s", record.IdeaID)
	}
	recordUsage(ctx, a.recorder, models.OpIdeaChat, record.IdeaID, resp.Usage)

	reply := strings.TrimSpace(resp.Content)
	if reply == "" {
		return "", errors.InvalidInput("empty chat reply from model")
	}
	return reply, nil
}

func (a *ChatAgent) buildSystemPrompt(record *models.AnalysisRecord) (string, error) {
	reasoning := "The idea was not fully evaluated; no closing assessment is available."
	if s := record.Evidence.Summary; s != nil && s.Summary != nil && s.Summary.AggregatedReasoning != "" {
		reasoning = s.Summary.AggregatedReasoning
	}

	prompt, err := a.promptManager.RenderPrompt(PromptIdeaChat, map[string]string{
		"TITLE":        record.Title,
		"DESCRIPTION":  record.Description,
		"VALUE_SCORE":  fmt.Sprintf("%.2f", record.ValueScore),
		"EFFORT_SCORE": fmt.Sprintf("%.2f", record.EffortScore),
		"REASONING":    reasoning,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to build chat system prompt")
	}
	return prompt, nil
}
