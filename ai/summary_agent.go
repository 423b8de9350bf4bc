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

// summaryResponse is the only part of the final summary the LLM writes.
// Everything else (id, title, scores, the final flag) is deterministic
// and filled in from the request, so a chatty model can never corrupt it.
type summaryResponse struct {
	AggregatedReasoning string `json:"aggregated_reasoning"`
}

// SummaryAgent produces the terminal summary for a fully scored idea.
// Implements ports.Summarizer.
type SummaryAgent struct {
	client   *StructuredClient[summaryResponse]
	recorder UsageRecorder
}

// NewSummaryAgent creates a final summary agent
func NewSummaryAgent(llm ports.LLMClient, config *models.AIConfig, recorder UsageRecorder) *SummaryAgent {
	return &SummaryAgent{
		client:   NewStructuredClient[summaryResponse](llm, config),
		recorder: recorder,
	}
}

// Summarize asks the LLM for the closing assessment and assembles the
// final summary around it. The returned summary always has Final=true
// and echoes the request's idea and scores.
func (a *SummaryAgent) Summarize(ctx context.Context, req ports.SummaryRequest) (*models.IdeaSummary, error) {
	resp, usage, err := a.client.GetJsonResponseFromPrompt(ctx, PromptFinalSummary, map[string]string{
		"IDEA_ID":      req.Idea.ID,
		"TITLE":        req.Idea.Title,
		"DESCRIPTION":  req.Idea.Description,
		"VALUE_SCORE":  fmt.Sprintf("%.2f", req.ValueScore),
		"EFFORT_SCORE": fmt.Sprintf("%.2f", req.EffortScore),
		"CONTEXT":      renderContext(req.Context),
	})
	recordUsage(ctx, a.recorder, models.OpFinalSummary, req.Idea.ID, usage)
	if err != nil {
		return nil, errors.Wrapf(err, "final summary failed for idea %s", req.Idea.ID)
	}

	reasoning := strings.TrimSpace(resp.AggregatedReasoning)
	if reasoning == "" {
		return nil, errors.InvalidInput("summary response missing aggregated_reasoning")
	}

	log.Printf("[SummaryAgent] ✅ Final summary ready for idea %s", req.Idea.ID)
	return &models.IdeaSummary{
		Final:               true,
		IdeaID:              req.Idea.ID,
		Title:               req.Idea.Title,
		Description:         req.Idea.Description,
		ValueScore:          req.ValueScore,
		EffortScore:         req.EffortScore,
		AggregatedReasoning: reasoning,
	}, nil
}

// renderContext flattens gathered market context into prompt text.
func renderContext(sc *models.SearchContext) string {
	if sc == nil {
		return "No market context was gathered for this idea."
	}

	var b strings.Builder
	if sc.Answer != "" {
		b.WriteString(sc.Answer)
		b.WriteString("\n")
	}
	for i, f := range sc.Findings {
		if i >= 5 {
			break
		}
		b.WriteString(fmt.Sprintf("- %s", f.Title))
		if f.Snippet != "" {
			b.WriteString(": " + f.Snippet)
		}
		b.WriteString("\n")
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return "No market context was gathered for this idea."
	}
	return text
}
