package ai

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"thinkwise/adapters/llm"
	"thinkwise/models"
	"thinkwise/ports"
)

// recordingLLM captures every message sent to it so tests can inspect
// prompt construction and history replay.
type recordingLLM struct {
	mu       sync.Mutex
	response string
	err      error
	messages [][]ports.ChatMessage
}

func (r *recordingLLM) ChatCompletion(ctx context.Context, model string, prompt string, maxTokens int) (string, error) {
	resp, err := r.ChatCompletionWithUsage(ctx, model, prompt, maxTokens)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func (r *recordingLLM) ChatCompletionWithUsage(ctx context.Context, model string, prompt string, maxTokens int) (*ports.LLMResponse, error) {
	return r.ChatWithMessages(ctx, model, []ports.ChatMessage{{Role: "user", Content: prompt}}, maxTokens)
}

func (r *recordingLLM) ChatWithMessages(ctx context.Context, model string, messages []ports.ChatMessage, maxTokens int) (*ports.LLMResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	copied := make([]ports.ChatMessage, len(messages))
	copy(copied, messages)
	r.messages = append(r.messages, copied)
	return &ports.LLMResponse{
		Content: r.response,
		Usage:   &ports.UsageData{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30, Model: model, Provider: "mock"},
	}, nil
}

func (r *recordingLLM) lastMessages() []ports.ChatMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return nil
	}
	return r.messages[len(r.messages)-1]
}

// recordingRecorder captures usage callbacks from agents
type recordingRecorder struct {
	mu    sync.Mutex
	calls []recordedUsage
}

type recordedUsage struct {
	operationType string
	ideaID        string
	usage         *ports.UsageData
}

func (r *recordingRecorder) RecordOperation(ctx context.Context, operationType, ideaID string, usage *ports.UsageData) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, recordedUsage{operationType, ideaID, usage})
}

func TestEffortAgent_ParsesFencedResponse(t *testing.T) {
	mock := &llm.MockLLMClient{Response: "```json\n" + `{
		"effort_score": 0.72,
		"reasoning": "Needs ML expertise and a data pipeline.",
		"details": {"time_needed": "6-9 months", "resources": "4 engineers", "dependencies": "labeled data", "complexity": "model training"}
	}` + "\n```"}
	recorder := &recordingRecorder{}
	agent := NewEffortAgent(mock, testAIConfig(t), recorder)

	assessment, err := agent.EstimateEffort(context.Background(), "3", "An AI copilot for tax filings.")
	if err != nil {
		t.Fatalf("EstimateEffort failed: %v", err)
	}

	if assessment.Score != 0.72 {
		t.Errorf("Expected score 0.72, got %.4f", assessment.Score)
	}
	if assessment.Details.TimeNeeded != "6-9 months" {
		t.Errorf("Details not parsed: %+v", assessment.Details)
	}

	if len(recorder.calls) != 1 {
		t.Fatalf("Expected 1 usage record, got %d", len(recorder.calls))
	}
	call := recorder.calls[0]
	if call.operationType != models.OpEffortEstimate || call.ideaID != "3" {
		t.Errorf("Unexpected usage record: %+v", call)
	}
	if call.usage == nil || call.usage.TotalTokens == 0 {
		t.Errorf("Expected token counts in usage record, got %+v", call.usage)
	}
}

func TestEffortAgent_RejectsOutOfRangeScore(t *testing.T) {
	tests := []struct {
		name  string
		score string
	}{
		{"above one", "1.7"},
		{"negative", "-0.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &llm.MockLLMClient{Response: fmt.Sprintf(`{"effort_score": %s, "reasoning": "bad"}`, tt.score)}
			agent := NewEffortAgent(mock, testAIConfig(t), nil)

			assessment, err := agent.EstimateEffort(context.Background(), "1", "anything")
			if err == nil {
				t.Fatal("Expected error for out-of-range score")
			}
			if assessment != nil {
				t.Errorf("Expected nil assessment, got %+v", assessment)
			}
			if !strings.Contains(err.Error(), "out of range") {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestEffortAgent_PropagatesLLMError(t *testing.T) {
	mock := &llm.MockLLMClient{Error: fmt.Errorf("openai http 429: rate limited")}
	agent := NewEffortAgent(mock, testAIConfig(t), nil)

	_, err := agent.EstimateEffort(context.Background(), "1", "anything")
	if err == nil {
		t.Fatal("Expected error from failing LLM")
	}
	if !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("Expected cause to surface, got: %v", err)
	}
}

func TestValueAgent_ParsesResponse(t *testing.T) {
	mock := &llm.MockLLMClient{Response: `{
		"value_score": 0.88,
		"reasoning": "Large underserved market.",
		"details": {"value_created": "saves hours weekly", "user_demand": "strong waitlist signal", "business_impact": "subscription revenue"}
	}`}
	agent := NewValueAgent(mock, testAIConfig(t), nil)

	assessment, err := agent.EstimateValue(context.Background(), "2", "A meal planner for shift workers.")
	if err != nil {
		t.Fatalf("EstimateValue failed: %v", err)
	}

	if assessment.Score != 0.88 {
		t.Errorf("Expected score 0.88, got %.4f", assessment.Score)
	}
	if assessment.Details.UserDemand != "strong waitlist signal" {
		t.Errorf("Details not parsed: %+v", assessment.Details)
	}
}

func TestValueAgent_RejectsOutOfRangeScore(t *testing.T) {
	mock := &llm.MockLLMClient{Response: `{"value_score": 2.5, "reasoning": "bad"}`}
	agent := NewValueAgent(mock, testAIConfig(t), nil)

	if _, err := agent.EstimateValue(context.Background(), "1", "anything"); err == nil {
		t.Fatal("Expected error for out-of-range score")
	}
}

func TestSummaryAgent_BuildsDeterministicEnvelope(t *testing.T) {
	// The model only writes the reasoning; everything else must come
	// from the request even if the model tries to drift
	mock := &llm.MockLLMClient{Response: "Here is the JSON:\n" + `{"aggregated_reasoning": "  Strong value for modest effort; pursue a pilot.  "}`}
	recorder := &recordingRecorder{}
	agent := NewSummaryAgent(mock, testAIConfig(t), recorder)

	req := ports.SummaryRequest{
		Idea: models.Idea{
			ID:          "5",
			Title:       "Rent split reminders",
			Description: "Reminds tenants of rent and splits it with roommates.",
		},
		EffortScore: 0.3,
		ValueScore:  0.8,
		Context: &models.SearchContext{
			Answer: "Several consumer fintech apps address adjacent needs.",
		},
	}

	summary, err := agent.Summarize(context.Background(), req)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	if !summary.Final {
		t.Error("Expected Final=true")
	}
	if summary.IdeaID != "5" || summary.Title != "Rent split reminders" {
		t.Errorf("Identity fields not echoed: %+v", summary)
	}
	if summary.Description != req.Idea.Description {
		t.Errorf("Description not echoed: %s", summary.Description)
	}
	if summary.ValueScore != 0.8 || summary.EffortScore != 0.3 {
		t.Errorf("Scores not echoed: value=%.2f effort=%.2f", summary.ValueScore, summary.EffortScore)
	}
	if summary.AggregatedReasoning != "Strong value for modest effort; pursue a pilot." {
		t.Errorf("Reasoning not trimmed: %q", summary.AggregatedReasoning)
	}

	if len(recorder.calls) != 1 || recorder.calls[0].operationType != models.OpFinalSummary {
		t.Errorf("Expected one final_summary usage record, got %+v", recorder.calls)
	}
}

func TestSummaryAgent_RejectsEmptyReasoning(t *testing.T) {
	mock := &llm.MockLLMClient{Response: `{"aggregated_reasoning": "   "}`}
	agent := NewSummaryAgent(mock, testAIConfig(t), nil)

	req := ports.SummaryRequest{Idea: models.Idea{ID: "1", Title: "x", Description: "y"}}
	if _, err := agent.Summarize(context.Background(), req); err == nil {
		t.Fatal("Expected error for blank reasoning")
	}
}

func TestRenderContext(t *testing.T) {
	if got := renderContext(nil); !strings.Contains(got, "No market context") {
		t.Errorf("Expected nil-context fallback, got %q", got)
	}

	sc := &models.SearchContext{
		Answer: "Competitive space.",
		Findings: []models.SearchFinding{
			{Title: "Competitor A", Snippet: "raised a series B"},
			{Title: "Competitor B"},
		},
	}
	got := renderContext(sc)
	if !strings.Contains(got, "Competitive space.") {
		t.Errorf("Answer missing from rendered context: %q", got)
	}
	if !strings.Contains(got, "Competitor A: raised a series B") {
		t.Errorf("Finding with snippet missing: %q", got)
	}
	if !strings.Contains(got, "- Competitor B") {
		t.Errorf("Finding without snippet missing: %q", got)
	}
}

func TestChatAgent_ReplaysHistoryInOrder(t *testing.T) {
	rec := &recordingLLM{response: "The effort score reflects the ML pipeline work."}
	agent := NewChatAgent(rec, testAIConfig(t), nil)

	record := &models.AnalysisRecord{
		IdeaID:      "3",
		Title:       "AI tax copilot",
		Description: "An AI copilot for tax filings.",
		ValueScore:  0.8,
		EffortScore: 0.72,
		Evidence: models.EvidenceDoc{Evidence: models.Evidence{
			Summary: &models.SummaryEvidence{
				Summary: &models.IdeaSummary{AggregatedReasoning: "High value, high effort; de-risk with a narrow vertical."},
			},
		}},
	}
	history := []*models.ChatMessage{
		{Role: models.ChatRoleUser, Content: "Why is effort so high?"},
		{Role: models.ChatRoleAssistant, Content: "Mostly the data pipeline."},
		{Role: "system", Content: "should never be replayed"},
	}

	reply, err := agent.Chat(context.Background(), record, history, "Could we descope it?")
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if reply != "The effort score reflects the ML pipeline work." {
		t.Errorf("Unexpected reply: %q", reply)
	}

	messages := rec.lastMessages()
	if len(messages) != 4 {
		t.Fatalf("Expected system + 2 history + user message, got %d: %+v", len(messages), messages)
	}
	if messages[0].Role != "system" {
		t.Errorf("First message should be system prompt, got %s", messages[0].Role)
	}
	system := messages[0].Content
	for _, want := range []string{"AI tax copilot", "0.80", "0.72", "de-risk with a narrow vertical"} {
		if !strings.Contains(system, want) {
			t.Errorf("System prompt missing %q:\n%s", want, system)
		}
	}
	if messages[1].Content != "Why is effort so high?" || messages[2].Content != "Mostly the data pipeline." {
		t.Errorf("History not replayed in order: %+v", messages[1:3])
	}
	if messages[3].Role != models.ChatRoleUser || messages[3].Content != "Could we descope it?" {
		t.Errorf("User turn not last: %+v", messages[3])
	}
}

func TestChatAgent_TrimsLongHistory(t *testing.T) {
	rec := &recordingLLM{response: "ok"}
	agent := NewChatAgent(rec, testAIConfig(t), nil)

	record := &models.AnalysisRecord{IdeaID: "1", Title: "t", Description: "d"}
	history := make([]*models.ChatMessage, 0, 30)
	for i := 0; i < 30; i++ {
		history = append(history, &models.ChatMessage{Role: models.ChatRoleUser, Content: fmt.Sprintf("message %d", i)})
	}

	if _, err := agent.Chat(context.Background(), record, history, "latest question"); err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	messages := rec.lastMessages()
	// system + trimmed history + user turn
	if len(messages) != maxChatHistory+2 {
		t.Fatalf("Expected %d messages, got %d", maxChatHistory+2, len(messages))
	}
	if messages[1].Content != "message 10" {
		t.Errorf("Expected history trimmed from the front, first replayed is %q", messages[1].Content)
	}
}

func TestChatAgent_RejectsEmptyMessage(t *testing.T) {
	agent := NewChatAgent(&llm.MockLLMClient{}, testAIConfig(t), nil)
	record := &models.AnalysisRecord{IdeaID: "1", Title: "t", Description: "d"}

	if _, err := agent.Chat(context.Background(), record, nil, "   "); err == nil {
		t.Error("Expected error for blank message")
	}
	if _, err := agent.Chat(context.Background(), nil, nil, "hi"); err == nil {
		t.Error("Expected error for missing record")
	}
}
