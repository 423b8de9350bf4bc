package ai

import (
	"context"
	"log"

	"thinkwise/internal/errors"
	"thinkwise/models"
	"thinkwise/ports"
)

// EffortAgent estimates implementation effort for an idea via LLM.
// Implements ports.EffortEstimator.
type EffortAgent struct {
	client   *StructuredClient[models.EffortAssessment]
	recorder UsageRecorder
}

// NewEffortAgent creates an effort estimation agent
func NewEffortAgent(llm ports.LLMClient, config *models.AIConfig, recorder UsageRecorder) *EffortAgent {
	return &EffortAgent{
		client:   NewStructuredClient[models.EffortAssessment](llm, config),
		recorder: recorder,
	}
}

// EstimateEffort scores how hard the idea is to build, in [0,1] with 1
// meaning hardest. Out-of-range or malformed LLM responses are rejected
// here so the evaluation loop only ever stores validated scores.
func (a *EffortAgent) EstimateEffort(ctx context.Context, ideaID, description string) (*models.EffortAssessment, error) {
	assessment, usage, err := a.client.GetJsonResponseFromPrompt(ctx, PromptEffortEstimate, map[string]string{
		"IDEA_ID":     ideaID,
		"DESCRIPTION": description,
	})
	recordUsage(ctx, a.recorder, models.OpEffortEstimate, ideaID, usage)
	if err != nil {
		return nil, errors.Wrapf(err, "effort estimate failed for idea %s", ideaID)
	}

	if !scoreInRange(assessment.Score) {
		log.Printf("[EffortAgent] ❌ Rejecting out-of-range effort score %.4f for idea %s", assessment.Score, ideaID)
		return nil, errors.InvalidInput("effort score out of range")
	}

	log.Printf("[EffortAgent] ✅ Idea %s scored effort=%.2f", ideaID, assessment.Score)
	return assessment, nil
}
