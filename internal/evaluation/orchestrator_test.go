package evaluation

import (
	"context"
	"strings"
	"sync"
	"testing"

	"thinkwise/models"
)

// recordingPublisher captures events for assertions.
type recordingPublisher struct {
	mu     sync.Mutex
	events []BatchEvent
}

func (p *recordingPublisher) PublishBatchEvent(event BatchEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) byType(eventType string) []BatchEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []BatchEvent
	for _, e := range p.events {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

// faultyEvaluator panics for the configured idea id and otherwise
// completes the evidence like a working controller would.
type faultyEvaluator struct {
	panicOn string
}

func (f *faultyEvaluator) Evaluate(_ context.Context, idea models.Idea, ev *models.Evidence) error {
	if idea.ID == f.panicOn {
		panic("injected controller defect")
	}
	completeEvidence(idea, ev)
	return nil
}

func completeEvidence(idea models.Idea, ev *models.Evidence) {
	ev.Context = &models.ContextEvidence{Result: &models.SearchContext{Query: idea.ID}}
	ev.Effort = &models.EffortEvidence{Score: 0.2}
	ev.Value = &models.ValueEvidence{Score: 0.8}
	ev.Summary = &models.SummaryEvidence{Summary: &models.IdeaSummary{
		Final:       true,
		IdeaID:      idea.ID,
		Title:       idea.Title,
		Description: idea.Description,
		ValueScore:  0.8,
		EffortScore: 0.2,
	}}
}

func ideaBatch(ids ...string) map[string]models.Idea {
	batch := make(map[string]models.Idea, len(ids))
	for _, id := range ids {
		batch[id] = testIdea(id)
	}
	return batch
}

func mustOrchestrator(t *testing.T, evaluator IdeaEvaluator, concurrency int, publisher EventPublisher) *BatchOrchestrator {
	t.Helper()
	o, err := NewBatchOrchestrator(evaluator, concurrency, publisher)
	if err != nil {
		t.Fatalf("NewBatchOrchestrator failed: %v", err)
	}
	return o
}

func TestBatchOrchestrator_IsolatesHardFailures(t *testing.T) {
	// Idea 2 blows up inside the per-idea loop; 1 and 3 must still
	// complete and idea 2 must carry an error marker plus description.
	orchestrator := mustOrchestrator(t, &faultyEvaluator{panicOn: "2"}, 2, nil)

	result := orchestrator.RunBatch(context.Background(), "batch-1", ideaBatch("1", "2", "3"))

	if len(result) != 3 {
		t.Fatalf("expected 3 results, got %d", len(result))
	}

	for _, id := range []string{"1", "3"} {
		res := result[id]
		if res == nil || !res.Rankable() {
			t.Errorf("idea %s should have completed cleanly, got %+v", id, res)
		}
	}

	failed := result["2"]
	if failed == nil {
		t.Fatal("idea 2 missing from batch result")
	}
	if failed.Error == "" || !strings.Contains(failed.Error, "injected controller defect") {
		t.Errorf("idea 2 error = %q, want the panic message", failed.Error)
	}
	if failed.Description != testIdea("2").Description {
		t.Errorf("idea 2 must echo its description, got %q", failed.Description)
	}
	if failed.Rankable() {
		t.Error("failed idea must not be rankable")
	}
}

func TestBatchOrchestrator_RealControllerIsolation(t *testing.T) {
	// Same isolation property through the production controller: every
	// evaluator fails hard for idea 2 only.
	stubs := workingStubs()
	searcher := &routingSearcher{inner: stubs.searcher, panicOn: "2"}
	evaluators := stubs.evaluators()
	evaluators.Context = searcher

	controller := mustController(t, evaluators, DefaultIterationBudget)
	orchestrator := mustOrchestrator(t, controller, 3, nil)

	result := orchestrator.RunBatch(context.Background(), "batch-2", ideaBatch("1", "2", "3"))

	for _, id := range []string{"1", "3"} {
		if !result[id].Rankable() {
			t.Errorf("idea %s should be rankable, got %+v", id, result[id])
		}
	}

	// The evaluator panic is absorbed at the slot level: idea 2 still
	// terminates with markers rather than an idea-level failure.
	res := result["2"]
	if res == nil || res.Error != "" {
		t.Fatalf("idea 2 should carry slot markers, not an idea-level error: %+v", res)
	}
	if !res.Evidence.Context.Failed() {
		t.Error("idea 2 context slot should hold an error marker")
	}
	if !res.Evidence.Complete() {
		t.Error("idea 2 should still reach a terminal state")
	}
}

type routingSearcher struct {
	inner   *stubSearcher
	panicOn string
}

func (r *routingSearcher) SearchContext(ctx context.Context, ideaID, description string) (*models.SearchContext, error) {
	if ideaID == r.panicOn {
		panic("search exploded")
	}
	return r.inner.SearchContext(ctx, ideaID, description)
}

func TestBatchOrchestrator_MarksIdeasWithoutDescription(t *testing.T) {
	stubs := workingStubs()
	controller := mustController(t, stubs.evaluators(), DefaultIterationBudget)
	publisher := &recordingPublisher{}
	orchestrator := mustOrchestrator(t, controller, 2, publisher)

	batch := map[string]models.Idea{
		"1": testIdea("1"),
		"2": {ID: "2", Title: "Empty idea", Description: ""},
		"3": {ID: "3", Title: "Whitespace idea", Description: "   \t"},
	}

	result := orchestrator.RunBatch(context.Background(), "batch-3", batch)

	for _, id := range []string{"2", "3"} {
		res := result[id]
		if res == nil || res.Error != models.NoDescriptionMarker {
			t.Errorf("idea %s should carry the no-description marker, got %+v", id, res)
		}
		if res.Evidence != nil {
			t.Errorf("idea %s must not accumulate evidence", id)
		}
	}

	// Only idea 1 reaches the evaluators: exactly one call per capability.
	if stubs.searcher.callCount() != 1 || stubs.summarizer.callCount() != 1 {
		t.Errorf("skipped ideas must not invoke evaluators (searcher=%d summarizer=%d)",
			stubs.searcher.callCount(), stubs.summarizer.callCount())
	}

	if skipped := publisher.byType(EventIdeaSkipped); len(skipped) != 2 {
		t.Errorf("expected 2 skip events, got %d", len(skipped))
	}
}

func TestBatchOrchestrator_EmptyBatch(t *testing.T) {
	stubs := workingStubs()
	controller := mustController(t, stubs.evaluators(), DefaultIterationBudget)
	publisher := &recordingPublisher{}
	orchestrator := mustOrchestrator(t, controller, 2, publisher)

	result := orchestrator.RunBatch(context.Background(), "batch-4", nil)

	if len(result) != 0 {
		t.Errorf("expected empty result, got %d entries", len(result))
	}
	if len(publisher.events) != 0 {
		t.Errorf("empty batch should publish no events, got %d", len(publisher.events))
	}
}

func TestBatchOrchestrator_PublishesProgressEvents(t *testing.T) {
	stubs := workingStubs()
	controller := mustController(t, stubs.evaluators(), DefaultIterationBudget)
	publisher := &recordingPublisher{}
	orchestrator := mustOrchestrator(t, controller, 1, publisher)

	orchestrator.RunBatch(context.Background(), "batch-5", ideaBatch("1", "2"))

	if got := publisher.byType(EventBatchStarted); len(got) != 1 || got[0].Total != 2 {
		t.Errorf("expected one batch_started with total 2, got %+v", got)
	}
	if got := publisher.byType(EventIdeaCompleted); len(got) != 2 {
		t.Errorf("expected 2 idea_completed events, got %d", len(got))
	}
	finished := publisher.byType(EventBatchCompleted)
	if len(finished) != 1 || finished[0].Completed != 2 {
		t.Errorf("expected final batch_completed with 2 completions, got %+v", finished)
	}
	for _, e := range publisher.events {
		if e.BatchID != "batch-5" {
			t.Errorf("event leaked into wrong batch scope: %+v", e)
		}
		if e.Timestamp.IsZero() {
			t.Error("events must be timestamped")
		}
	}
}

func TestBatchOrchestrator_BoundedConcurrencyStillProcessesAll(t *testing.T) {
	stubs := workingStubs()
	controller := mustController(t, stubs.evaluators(), DefaultIterationBudget)
	orchestrator := mustOrchestrator(t, controller, 2, nil)

	ids := []string{"1", "2", "3", "4", "5", "6", "7", "8"}
	result := orchestrator.RunBatch(context.Background(), "batch-6", ideaBatch(ids...))

	if len(result) != len(ids) {
		t.Fatalf("expected %d results, got %d", len(ids), len(result))
	}
	for _, id := range ids {
		if !result[id].Rankable() {
			t.Errorf("idea %s incomplete under bounded concurrency", id)
		}
	}
	// 8 ideas, 4 evaluator calls each.
	if got := stubs.totalCalls(); got != len(ids)*4 {
		t.Errorf("expected %d evaluator calls, got %d", len(ids)*4, got)
	}
}

func TestSortedIdeaIDs_NumericOrder(t *testing.T) {
	result := models.BatchResult{
		"10":    {IdeaID: "10"},
		"2":     {IdeaID: "2"},
		"1":     {IdeaID: "1"},
		"draft": {IdeaID: "draft"},
	}

	got := SortedIdeaIDs(result)
	want := []string{"1", "2", "10", "draft"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
