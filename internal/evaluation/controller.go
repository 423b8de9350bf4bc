package evaluation

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"thinkwise/internal"
	"thinkwise/models"
	"thinkwise/ports"
)

// DefaultIterationBudget bounds the per-idea loop when the caller does
// not configure one. Four working evaluators finish in four iterations,
// so the default leaves one spare.
const DefaultIterationBudget = 5

// Evaluators bundles the four capabilities the controller can invoke.
// It is constructed once at process start and passed by reference; there
// is no global registry.
type Evaluators struct {
	Context ports.ContextSearcher
	Effort  ports.EffortEstimator
	Value   ports.ValueEstimator
	Summary ports.Summarizer
}

func (e Evaluators) validate() error {
	if e.Context == nil {
		return fmt.Errorf("context searcher is required")
	}
	if e.Effort == nil {
		return fmt.Errorf("effort estimator is required")
	}
	if e.Value == nil {
		return fmt.Errorf("value estimator is required")
	}
	if e.Summary == nil {
		return fmt.Errorf("summarizer is required")
	}
	return nil
}

// Controller evaluates one idea at a time: a bounded loop that fills the
// evidence slots in fixed priority order (context, effort, value,
// summary). Evaluator failures become error markers in the evidence and
// never abort the loop; slots are monotonic and never retried.
type Controller struct {
	evaluators Evaluators
	budget     int
	logger     *internal.Logger
}

// NewController creates a controller with an explicit iteration budget.
// A zero budget is legal and evaluates nothing.
func NewController(evaluators Evaluators, budget int) (*Controller, error) {
	if err := evaluators.validate(); err != nil {
		return nil, fmt.Errorf("invalid evaluator registry: %w", err)
	}
	if budget < 0 {
		return nil, fmt.Errorf("iteration budget must be non-negative, got %d", budget)
	}

	return &Controller{
		evaluators: evaluators,
		budget:     budget,
		logger:     internal.NewDefaultLogger().Component("EvalController"),
	}, nil
}

// Budget returns the configured iteration budget.
func (c *Controller) Budget() int { return c.budget }

// Evaluate runs the loop for one idea, filling ev in place. It returns
// an error only for controller-level defects (nil evidence, policy
// reaching an impossible state); evaluator failures are recorded as
// markers and reported through the evidence itself. On context
// cancellation the loop stops between steps, leaving partial evidence
// and a trace record of the cancellation.
func (c *Controller) Evaluate(ctx context.Context, idea models.Idea, ev *models.Evidence) error {
	if ev == nil {
		return fmt.Errorf("nil evidence record for idea %s", idea.ID)
	}

	for i := 0; i < c.budget; i++ {
		if err := ctx.Err(); err != nil {
			ev.AddTrace(models.TraceRecord{
				Step:      ev.NextStep(),
				OK:        false,
				Detail:    "cancelled: " + err.Error(),
				Timestamp: time.Now(),
			})
			c.logger.Warn("idea %s cancelled after %d steps", idea.ID, i)
			return nil
		}

		step := ev.NextStep()
		if step == models.StepDone {
			break
		}

		if err := c.runStep(ctx, step, idea, ev); err != nil {
			return err
		}

		if ev.Complete() {
			break
		}
	}

	c.logger.Debug("idea %s finished: steps=%d complete=%v", idea.ID, len(ev.Trace), ev.Complete())
	return nil
}

// runStep invokes one capability and writes the outcome into its slot.
func (c *Controller) runStep(ctx context.Context, step models.EvalStep, idea models.Idea, ev *models.Evidence) error {
	started := time.Now()
	var ok bool
	var detail string

	switch step {
	case models.StepContextSearch:
		result, err := c.searchContext(ctx, idea)
		if err != nil {
			ev.Context = &models.ContextEvidence{Error: err.Error()}
			detail = err.Error()
		} else {
			ev.Context = &models.ContextEvidence{Result: result}
			ok = true
			detail = fmt.Sprintf("%d findings", len(result.Findings))
		}

	case models.StepEffortEstimate:
		assessment, err := c.estimateEffort(ctx, idea)
		if err != nil {
			ev.Effort = &models.EffortEvidence{Score: models.EffortErrorScore, Error: err.Error()}
			detail = err.Error()
		} else {
			ev.Effort = &models.EffortEvidence{Score: assessment.Score, Assessment: assessment}
			ok = true
			detail = fmt.Sprintf("score=%.2f", assessment.Score)
		}

	case models.StepValueEstimate:
		assessment, err := c.estimateValue(ctx, idea)
		if err != nil {
			ev.Value = &models.ValueEvidence{Score: models.ValueErrorScore, Error: err.Error()}
			detail = err.Error()
		} else {
			ev.Value = &models.ValueEvidence{Score: assessment.Score, Assessment: assessment}
			ok = true
			detail = fmt.Sprintf("score=%.2f", assessment.Score)
		}

	case models.StepFinalSummary:
		summary, err := c.summarize(ctx, idea, ev)
		if err != nil {
			ev.Summary = &models.SummaryEvidence{Error: err.Error()}
			detail = err.Error()
		} else {
			ev.Summary = &models.SummaryEvidence{Summary: summary}
			ok = true
			detail = "final summary"
		}

	default:
		// NextStep only emits the four step names handled above; anything
		// else means the policy and this switch have drifted apart.
		return fmt.Errorf("evaluation policy selected unexpected step %q for idea %s", step, idea.ID)
	}

	ev.AddTrace(models.TraceRecord{
		Step:      step,
		OK:        ok,
		Detail:    detail,
		Timestamp: started,
		ElapsedMs: time.Since(started).Milliseconds(),
	})

	if ok {
		log.Printf("[EvalController] ✅ idea %s step %s (%s)", idea.ID, step, detail)
	} else {
		log.Printf("[EvalController] ❌ idea %s step %s failed: %s", idea.ID, step, detail)
	}
	return nil
}

// searchContext invokes the context searcher, absorbing panics.
func (c *Controller) searchContext(ctx context.Context, idea models.Idea) (result *models.SearchContext, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("context search panicked: %v", r)
		}
	}()

	result, err = c.evaluators.Context.SearchContext(ctx, idea.ID, idea.Description)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, fmt.Errorf("context search returned no result")
	}
	return result, nil
}

// estimateEffort invokes the effort estimator and enforces the score
// contract at the boundary.
func (c *Controller) estimateEffort(ctx context.Context, idea models.Idea) (assessment *models.EffortAssessment, err error) {
	defer func() {
		if r := recover(); r != nil {
			assessment, err = nil, fmt.Errorf("effort estimator panicked: %v", r)
		}
	}()

	assessment, err = c.evaluators.Effort.EstimateEffort(ctx, idea.ID, idea.Description)
	if err != nil {
		return nil, err
	}
	if assessment == nil {
		return nil, fmt.Errorf("effort estimator returned no assessment")
	}
	if err := validScore(assessment.Score); err != nil {
		return nil, fmt.Errorf("effort estimator returned invalid score: %w", err)
	}
	return assessment, nil
}

// estimateValue invokes the value estimator with the same boundary checks.
func (c *Controller) estimateValue(ctx context.Context, idea models.Idea) (assessment *models.ValueAssessment, err error) {
	defer func() {
		if r := recover(); r != nil {
			assessment, err = nil, fmt.Errorf("value estimator panicked: %v", r)
		}
	}()

	assessment, err = c.evaluators.Value.EstimateValue(ctx, idea.ID, idea.Description)
	if err != nil {
		return nil, err
	}
	if assessment == nil {
		return nil, fmt.Errorf("value estimator returned no assessment")
	}
	if err := validScore(assessment.Score); err != nil {
		return nil, fmt.Errorf("value estimator returned invalid score: %w", err)
	}
	return assessment, nil
}

// summarize invokes the summarizer once context, effort, and value are
// all set, feeding it the evidence scores (fallbacks included).
func (c *Controller) summarize(ctx context.Context, idea models.Idea, ev *models.Evidence) (summary *models.IdeaSummary, err error) {
	defer func() {
		if r := recover(); r != nil {
			summary, err = nil, fmt.Errorf("summarizer panicked: %v", r)
		}
	}()

	req := ports.SummaryRequest{
		Idea:        idea,
		EffortScore: ev.EffortScore(),
		ValueScore:  ev.ValueScore(),
	}
	if ev.Context != nil {
		req.Context = ev.Context.Result
	}

	summary, err = c.evaluators.Summary.Summarize(ctx, req)
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return nil, fmt.Errorf("summarizer returned no summary")
	}
	if !summary.Final {
		return nil, fmt.Errorf("summarizer returned non-final summary")
	}
	if summary.IdeaID != idea.ID {
		return nil, fmt.Errorf("summarizer returned summary for idea %s, want %s", summary.IdeaID, idea.ID)
	}
	return summary, nil
}

func validScore(score float64) error {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return fmt.Errorf("score is not finite")
	}
	if score < 0 || score > 1 {
		return fmt.Errorf("score %.3f outside [0,1]", score)
	}
	return nil
}
