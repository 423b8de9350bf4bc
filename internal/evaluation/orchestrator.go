package evaluation

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"sync"
	"time"

	"thinkwise/internal"
	"thinkwise/models"

	"golang.org/x/sync/semaphore"
)

// IdeaEvaluator runs the per-idea loop; *Controller is the production
// implementation.
type IdeaEvaluator interface {
	Evaluate(ctx context.Context, idea models.Idea, ev *models.Evidence) error
}

// BatchOrchestrator fans a batch of ideas out over the controller with
// bounded concurrency. Ideas are isolated: one idea failing hard (panic
// or controller defect) leaves every other idea's outcome intact.
type BatchOrchestrator struct {
	evaluator   IdeaEvaluator
	concurrency int64
	publisher   EventPublisher
	logger      *internal.Logger
}

// NewBatchOrchestrator creates an orchestrator. Concurrency below 1 is
// coerced to 1; a nil publisher disables progress events.
func NewBatchOrchestrator(evaluator IdeaEvaluator, concurrency int, publisher EventPublisher) (*BatchOrchestrator, error) {
	if evaluator == nil {
		return nil, fmt.Errorf("idea evaluator is required")
	}
	if concurrency < 1 {
		concurrency = 1
	}
	if publisher == nil {
		publisher = NopPublisher{}
	}

	return &BatchOrchestrator{
		evaluator:   evaluator,
		concurrency: int64(concurrency),
		publisher:   publisher,
		logger:      internal.NewDefaultLogger().Component("BatchOrchestrator"),
	}, nil
}

// RunBatch evaluates every idea and returns the complete batch result.
// Cross-idea ordering is unspecified; per-idea step order follows the
// controller policy. The batch id only scopes progress events.
func (o *BatchOrchestrator) RunBatch(ctx context.Context, batchID string, ideas map[string]models.Idea) models.BatchResult {
	result := make(models.BatchResult, len(ideas))
	if len(ideas) == 0 {
		return result
	}

	log.Printf("[BatchOrchestrator] Starting batch %s with %d ideas (concurrency %d)",
		batchID, len(ideas), o.concurrency)
	o.publish(BatchEvent{BatchID: batchID, EventType: EventBatchStarted, Total: len(ideas)})

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		completed int
	)
	sem := semaphore.NewWeighted(o.concurrency)

	record := func(res *models.IdeaResult, eventType, detail string) {
		mu.Lock()
		result[res.IdeaID] = res
		completed++
		done := completed
		mu.Unlock()

		o.publish(BatchEvent{
			BatchID:   batchID,
			EventType: eventType,
			IdeaID:    res.IdeaID,
			Detail:    detail,
			Completed: done,
			Total:     len(ideas),
		})
	}

	for id, idea := range ideas {
		// Ideas without a description never reach the evaluators.
		if !idea.HasDescription() {
			log.Printf("[BatchOrchestrator] Skipping idea %s: %s", id, models.NoDescriptionMarker)
			record(&models.IdeaResult{
				IdeaID:      id,
				Error:       models.NoDescriptionMarker,
				Description: idea.Description,
			}, EventIdeaSkipped, models.NoDescriptionMarker)
			continue
		}

		wg.Add(1)
		go func(id string, idea models.Idea) {
			defer wg.Done()

			if err := sem.Acquire(ctx, 1); err != nil {
				record(&models.IdeaResult{
					IdeaID:      id,
					Error:       fmt.Sprintf("evaluation cancelled: %v", err),
					Description: idea.Description,
				}, EventIdeaFailed, "cancelled")
				return
			}
			defer sem.Release(1)

			o.publish(BatchEvent{BatchID: batchID, EventType: EventIdeaStarted, IdeaID: id, Total: len(ideas)})
			res := o.evaluateOne(ctx, idea)

			if res.Error != "" {
				record(res, EventIdeaFailed, res.Error)
			} else {
				record(res, EventIdeaCompleted, string(statusOf(res.Evidence)))
			}
		}(id, idea)
	}

	wg.Wait()

	o.publish(BatchEvent{BatchID: batchID, EventType: EventBatchCompleted, Completed: len(result), Total: len(ideas)})
	log.Printf("[BatchOrchestrator] Batch %s complete: %d/%d ideas processed", batchID, len(result), len(ideas))
	return result
}

// evaluateOne runs the controller for a single idea, converting panics
// and controller defects into an idea-level error marker.
func (o *BatchOrchestrator) evaluateOne(ctx context.Context, idea models.Idea) (res *models.IdeaResult) {
	ev := models.NewEvidence()
	res = &models.IdeaResult{IdeaID: idea.ID, Evidence: ev}

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("idea %s panicked: %v", idea.ID, r)
			res = &models.IdeaResult{
				IdeaID:      idea.ID,
				Error:       fmt.Sprintf("evaluation panicked: %v", r),
				Description: idea.Description,
			}
		}
	}()

	if err := o.evaluator.Evaluate(ctx, idea, ev); err != nil {
		o.logger.Error("idea %s controller error: %v", idea.ID, err)
		return &models.IdeaResult{
			IdeaID:      idea.ID,
			Error:       err.Error(),
			Description: idea.Description,
		}
	}
	return res
}

func (o *BatchOrchestrator) publish(event BatchEvent) {
	event.Timestamp = time.Now()
	o.publisher.PublishBatchEvent(event)
}

func statusOf(ev *models.Evidence) models.EvalStep {
	if ev == nil {
		return models.StepContextSearch
	}
	if ev.Complete() {
		return models.StepDone
	}
	return ev.NextStep()
}

// SortedIdeaIDs returns batch ids in deterministic order: numeric ids
// ascending (parser order), non-numeric ids lexicographic after them.
func SortedIdeaIDs(result models.BatchResult) []string {
	ids := make([]string, 0, len(result))
	for id := range result {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ideaIDLess(ids[i], ids[j]) })
	return ids
}

func ideaIDLess(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		return na < nb
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}
