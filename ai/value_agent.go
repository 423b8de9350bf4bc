package ai

import (
	"context"
	"log"

	"thinkwise/internal/errors"
	"thinkwise/models"
	"thinkwise/ports"
)

// ValueAgent estimates the expected return of an idea via LLM.
// Implements ports.ValueEstimator.
type ValueAgent struct {
	client   *StructuredClient[models.ValueAssessment]
	recorder UsageRecorder
}

// NewValueAgent creates a value estimation agent
func NewValueAgent(llm ports.LLMClient, config *models.AIConfig, recorder UsageRecorder) *ValueAgent {
	return &ValueAgent{
		client:   NewStructuredClient[models.ValueAssessment](llm, config),
		recorder: recorder,
	}
}

// EstimateValue scores the idea's expected return, in [0,1] with 1
// meaning best. Same boundary validation as the effort agent.
func (a *ValueAgent) EstimateValue(ctx context.Context, ideaID, description string) (*models.ValueAssessment, error) {
	assessment, usage, err := a.client.GetJsonResponseFromPrompt(ctx, PromptValueEstimate, map[string]string{
		"IDEA_ID":     ideaID,
		"DESCRIPTION": description,
	})
	recordUsage(ctx, a.recorder, models.OpValueEstimate, ideaID, usage)
	if err != nil {
		return nil, errors.Wrapf(err, "value estimate failed for idea %s", ideaID)
	}

	if !scoreInRange(assessment.Score) {
		log.Printf("[ValueAgent] ❌ Rejecting out-of-range value score %.4f for idea %s", assessment.Score, ideaID)
		return nil, errors.InvalidInput("value score out of range")
	}

	log.Printf("[ValueAgent] ✅ Idea %s scored value=%.2f", ideaID, assessment.Score)
	return assessment, nil
}
