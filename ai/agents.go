package ai

import (
	"context"
	"math"

	"thinkwise/ports"
)

// UsageRecorder receives token usage from agent LLM calls. Recording is
// fire-and-forget: implementations must never fail the calling agent.
type UsageRecorder interface {
	RecordOperation(ctx context.Context, operationType, ideaID string, usage *ports.UsageData)
}

// NopUsageRecorder discards usage data; used by CLI runs without a database.
type NopUsageRecorder struct{}

func (NopUsageRecorder) RecordOperation(ctx context.Context, operationType, ideaID string, usage *ports.UsageData) {
}

func recordUsage(ctx context.Context, recorder UsageRecorder, operationType, ideaID string, usage *ports.UsageData) {
	if recorder == nil || usage == nil {
		return
	}
	recorder.RecordOperation(ctx, operationType, ideaID, usage)
}

// scoreInRange reports whether a score is finite and within [0,1].
// Agents enforce this before handing results to the evaluation loop.
func scoreInRange(score float64) bool {
	return !math.IsNaN(score) && !math.IsInf(score, 0) && score >= 0 && score <= 1
}
