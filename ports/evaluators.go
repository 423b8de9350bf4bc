package ports

import (
	"context"

	"thinkwise/models"
)

// ContextSearcher gathers external market/context findings for an idea.
type ContextSearcher interface {
	SearchContext(ctx context.Context, ideaID, description string) (*models.SearchContext, error)
}

// EffortEstimator scores how hard an idea is to implement, in [0,1]
// with 1 meaning hardest. Implementations validate the score before
// returning; out-of-range or malformed responses come back as errors.
type EffortEstimator interface {
	EstimateEffort(ctx context.Context, ideaID, description string) (*models.EffortAssessment, error)
}

// ValueEstimator scores the expected return of an idea, in [0,1] with 1
// meaning best. Same boundary validation contract as EffortEstimator.
type ValueEstimator interface {
	EstimateValue(ctx context.Context, ideaID, description string) (*models.ValueAssessment, error)
}

// SummaryRequest carries everything the summarizer needs: the idea, both
// validated scores, and whatever context search produced (may be nil).
type SummaryRequest struct {
	Idea        models.Idea
	EffortScore float64
	ValueScore  float64
	Context     *models.SearchContext
}

// Summarizer produces the final structured summary for a fully scored
// idea. The returned summary always has Final=true and echoes the
// request's id, title, description, and scores.
type Summarizer interface {
	Summarize(ctx context.Context, req SummaryRequest) (*models.IdeaSummary, error)
}
