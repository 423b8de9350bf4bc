package evaluation

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	"thinkwise/models"
	"thinkwise/ports"
)

// stubSearcher implements ports.ContextSearcher with scripted behavior.
type stubSearcher struct {
	mu       sync.Mutex
	calls    int
	err      error
	panicMsg string
	result   *models.SearchContext
}

func (s *stubSearcher) SearchContext(_ context.Context, ideaID, _ string) (*models.SearchContext, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	if s.err != nil {
		return nil, s.err
	}
	if s.result != nil {
		return s.result, nil
	}
	return &models.SearchContext{
		Query:    "market research for idea " + ideaID,
		Findings: []models.SearchFinding{{Title: "competitor study", URL: "https://example.com"}},
	}, nil
}

func (s *stubSearcher) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubEffort struct {
	mu       sync.Mutex
	calls    int
	score    float64
	err      error
	panicMsg string
}

func (s *stubEffort) EstimateEffort(_ context.Context, _, _ string) (*models.EffortAssessment, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	if s.err != nil {
		return nil, s.err
	}
	return &models.EffortAssessment{Score: s.score, Reasoning: "scripted"}, nil
}

func (s *stubEffort) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubValue struct {
	mu       sync.Mutex
	calls    int
	score    float64
	err      error
	panicMsg string
}

func (s *stubValue) EstimateValue(_ context.Context, _, _ string) (*models.ValueAssessment, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	if s.err != nil {
		return nil, s.err
	}
	return &models.ValueAssessment{Score: s.score, Reasoning: "scripted"}, nil
}

func (s *stubValue) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// stubSummarizer records the last request so tests can inspect the
// scores the controller fed it.
type stubSummarizer struct {
	mu       sync.Mutex
	calls    int
	err      error
	panicMsg string
	lastReq  ports.SummaryRequest
	override *models.IdeaSummary
}

func (s *stubSummarizer) Summarize(_ context.Context, req ports.SummaryRequest) (*models.IdeaSummary, error) {
	s.mu.Lock()
	s.calls++
	s.lastReq = req
	s.mu.Unlock()
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	if s.err != nil {
		return nil, s.err
	}
	if s.override != nil {
		return s.override, nil
	}
	return &models.IdeaSummary{
		Final:               true,
		IdeaID:              req.Idea.ID,
		Title:               req.Idea.Title,
		Description:         req.Idea.Description,
		ValueScore:          req.ValueScore,
		EffortScore:         req.EffortScore,
		AggregatedReasoning: "scripted synthesis",
	}, nil
}

func (s *stubSummarizer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *stubSummarizer) lastRequest() ports.SummaryRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastReq
}

type stubSet struct {
	searcher   *stubSearcher
	effort     *stubEffort
	value      *stubValue
	summarizer *stubSummarizer
}

func workingStubs() stubSet {
	return stubSet{
		searcher:   &stubSearcher{},
		effort:     &stubEffort{score: 0.2},
		value:      &stubValue{score: 0.8},
		summarizer: &stubSummarizer{},
	}
}

func (s stubSet) evaluators() Evaluators {
	return Evaluators{
		Context: s.searcher,
		Effort:  s.effort,
		Value:   s.value,
		Summary: s.summarizer,
	}
}

func (s stubSet) totalCalls() int {
	return s.searcher.callCount() + s.effort.callCount() + s.value.callCount() + s.summarizer.callCount()
}

func mustController(t *testing.T, evaluators Evaluators, budget int) *Controller {
	t.Helper()
	controller, err := NewController(evaluators, budget)
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}
	return controller
}

func testIdea(id string) models.Idea {
	return models.Idea{
		ID:          id,
		Title:       "Idea " + id,
		Description: "A description for idea " + id,
	}
}

func TestController_CompletesInFourStepsWithinDefaultBudget(t *testing.T) {
	stubs := workingStubs()
	controller := mustController(t, stubs.evaluators(), DefaultIterationBudget)

	ev := models.NewEvidence()
	if err := controller.Evaluate(context.Background(), testIdea("1"), ev); err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}

	if !ev.Complete() {
		t.Fatal("expected complete evidence")
	}
	if len(ev.Trace) != 4 {
		t.Fatalf("expected 4 trace records, got %d", len(ev.Trace))
	}

	wantOrder := []models.EvalStep{
		models.StepContextSearch,
		models.StepEffortEstimate,
		models.StepValueEstimate,
		models.StepFinalSummary,
	}
	for i, rec := range ev.Trace {
		if rec.Step != wantOrder[i] {
			t.Errorf("trace[%d] = %s, want %s", i, rec.Step, wantOrder[i])
		}
		if !rec.OK {
			t.Errorf("trace[%d] (%s) not OK: %s", i, rec.Step, rec.Detail)
		}
	}

	if !ev.Summary.IsFinal() {
		t.Error("expected final summary")
	}
	if got := ev.Summary.Summary.EffortScore; got != 0.2 {
		t.Errorf("summary effort score = %v, want 0.2", got)
	}
	if got := ev.Summary.Summary.ValueScore; got != 0.8 {
		t.Errorf("summary value score = %v, want 0.8", got)
	}
	if got := ev.NextStep(); got != models.StepDone {
		t.Errorf("NextStep after completion = %s, want %s", got, models.StepDone)
	}
}

func TestController_SecondEvaluateIsNoOp(t *testing.T) {
	stubs := workingStubs()
	controller := mustController(t, stubs.evaluators(), DefaultIterationBudget)

	ev := models.NewEvidence()
	if err := controller.Evaluate(context.Background(), testIdea("1"), ev); err != nil {
		t.Fatalf("first Evaluate: %v", err)
	}
	callsAfterFirst := stubs.totalCalls()
	traceAfterFirst := len(ev.Trace)

	// Re-running over complete evidence must select "done" immediately:
	// no evaluator calls, no new trace records, no slot changes.
	contextSlot, summarySlot := ev.Context, ev.Summary
	if err := controller.Evaluate(context.Background(), testIdea("1"), ev); err != nil {
		t.Fatalf("second Evaluate: %v", err)
	}

	if got := stubs.totalCalls(); got != callsAfterFirst {
		t.Errorf("second Evaluate made %d extra evaluator calls", got-callsAfterFirst)
	}
	if len(ev.Trace) != traceAfterFirst {
		t.Errorf("second Evaluate appended trace records: %d -> %d", traceAfterFirst, len(ev.Trace))
	}
	if ev.Context != contextSlot || ev.Summary != summarySlot {
		t.Error("second Evaluate replaced evidence slots")
	}
}

func TestController_PresetSlotsAreNeverRetried(t *testing.T) {
	stubs := workingStubs()
	controller := mustController(t, stubs.evaluators(), DefaultIterationBudget)

	// Context already holds an error marker; the controller must leave it
	// alone and resume from the effort step.
	preset := &models.ContextEvidence{Error: "search quota exhausted"}
	ev := &models.Evidence{Context: preset}

	if err := controller.Evaluate(context.Background(), testIdea("7"), ev); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if stubs.searcher.callCount() != 0 {
		t.Errorf("searcher called %d times for a set slot", stubs.searcher.callCount())
	}
	if ev.Context != preset {
		t.Error("context slot was overwritten")
	}
	if !ev.Complete() {
		t.Error("expected evaluation to finish from preset state")
	}
	if len(ev.Trace) != 3 {
		t.Errorf("expected 3 trace records (effort, value, summary), got %d", len(ev.Trace))
	}
}

func TestController_EffortErrorStoresExactFallback(t *testing.T) {
	stubs := workingStubs()
	stubs.effort.err = errors.New("estimator unavailable")
	controller := mustController(t, stubs.evaluators(), DefaultIterationBudget)

	ev := models.NewEvidence()
	if err := controller.Evaluate(context.Background(), testIdea("1"), ev); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if !ev.Effort.Failed() {
		t.Fatal("expected effort error marker")
	}
	if ev.Effort.Score != 1.0 {
		t.Errorf("effort fallback score = %v, want exactly 1.0", ev.Effort.Score)
	}
	if !ev.Complete() {
		t.Error("effort failure must not stop the loop")
	}
	if got := stubs.summarizer.lastRequest().EffortScore; got != 1.0 {
		t.Errorf("summarizer received effort score %v, want fallback 1.0", got)
	}
}

func TestController_ValueErrorStoresExactFallback(t *testing.T) {
	stubs := workingStubs()
	stubs.value.err = errors.New("estimator unavailable")
	controller := mustController(t, stubs.evaluators(), DefaultIterationBudget)

	ev := models.NewEvidence()
	if err := controller.Evaluate(context.Background(), testIdea("1"), ev); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if !ev.Value.Failed() {
		t.Fatal("expected value error marker")
	}
	if ev.Value.Score != 0.0 {
		t.Errorf("value fallback score = %v, want exactly 0.0", ev.Value.Score)
	}
	if got := stubs.summarizer.lastRequest().ValueScore; got != 0.0 {
		t.Errorf("summarizer received value score %v, want fallback 0.0", got)
	}
}

func TestController_SummarizerErrorTerminatesWithoutFinalSummary(t *testing.T) {
	stubs := workingStubs()
	stubs.summarizer.err = errors.New("synthesis failed")
	controller := mustController(t, stubs.evaluators(), DefaultIterationBudget)

	ev := models.NewEvidence()
	if err := controller.Evaluate(context.Background(), testIdea("1"), ev); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if !ev.Complete() {
		t.Fatal("summary error marker must still terminate the evaluation")
	}
	if ev.Summary.IsFinal() {
		t.Error("errored summary must not be final")
	}
	if !strings.Contains(ev.Summary.Error, "synthesis failed") {
		t.Errorf("summary error = %q, want the evaluator message", ev.Summary.Error)
	}
	if stubs.summarizer.callCount() != 1 {
		t.Errorf("summarizer called %d times, want 1 (no retry)", stubs.summarizer.callCount())
	}
}

func TestController_BudgetExhaustionLeavesPartialEvidence(t *testing.T) {
	stubs := workingStubs()
	controller := mustController(t, stubs.evaluators(), 2)

	ev := models.NewEvidence()
	if err := controller.Evaluate(context.Background(), testIdea("1"), ev); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if ev.Complete() {
		t.Fatal("budget 2 must not reach the summary")
	}
	if ev.Context == nil || ev.Effort == nil {
		t.Error("first two slots should be set")
	}
	if ev.Value != nil || ev.Summary != nil {
		t.Error("later slots must stay unset")
	}
	if len(ev.Trace) != 2 {
		t.Errorf("expected 2 trace records, got %d", len(ev.Trace))
	}
}

func TestController_ZeroBudgetDoesNothing(t *testing.T) {
	stubs := workingStubs()
	controller := mustController(t, stubs.evaluators(), 0)

	ev := models.NewEvidence()
	if err := controller.Evaluate(context.Background(), testIdea("1"), ev); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if stubs.totalCalls() != 0 {
		t.Errorf("zero budget made %d evaluator calls", stubs.totalCalls())
	}
	if len(ev.Trace) != 0 || ev.Context != nil {
		t.Error("zero budget must leave the evidence empty")
	}
}

func TestController_EvaluatorPanicBecomesErrorMarker(t *testing.T) {
	stubs := workingStubs()
	stubs.effort.panicMsg = "nil pointer in estimator"
	controller := mustController(t, stubs.evaluators(), DefaultIterationBudget)

	ev := models.NewEvidence()
	if err := controller.Evaluate(context.Background(), testIdea("1"), ev); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if !ev.Effort.Failed() {
		t.Fatal("expected effort marker after panic")
	}
	if ev.Effort.Score != models.EffortErrorScore {
		t.Errorf("panic fallback score = %v, want %v", ev.Effort.Score, models.EffortErrorScore)
	}
	if !strings.Contains(ev.Effort.Error, "panicked") {
		t.Errorf("marker %q should mention the panic", ev.Effort.Error)
	}
	if !ev.Complete() {
		t.Error("panic must not stop the rest of the evaluation")
	}
}

func TestController_OutOfRangeScoresRejectedAtBoundary(t *testing.T) {
	tests := []struct {
		name   string
		effort float64
		value  float64
	}{
		{"effort above one", 1.7, 0.5},
		{"value below zero", 0.5, -0.2},
		{"effort NaN", math.NaN(), 0.5},
		{"value infinite", 0.5, math.Inf(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubs := workingStubs()
			stubs.effort.score = tt.effort
			stubs.value.score = tt.value
			controller := mustController(t, stubs.evaluators(), DefaultIterationBudget)

			ev := models.NewEvidence()
			if err := controller.Evaluate(context.Background(), testIdea("1"), ev); err != nil {
				t.Fatalf("Evaluate: %v", err)
			}

			effortBad := math.IsNaN(tt.effort) || tt.effort < 0 || tt.effort > 1
			if effortBad {
				if !ev.Effort.Failed() || ev.Effort.Score != models.EffortErrorScore {
					t.Errorf("invalid effort score must become a marker with fallback, got %+v", ev.Effort)
				}
			}
			valueBad := math.IsNaN(tt.value) || math.IsInf(tt.value, 0) || tt.value < 0 || tt.value > 1
			if valueBad {
				if !ev.Value.Failed() || ev.Value.Score != models.ValueErrorScore {
					t.Errorf("invalid value score must become a marker with fallback, got %+v", ev.Value)
				}
			}
		})
	}
}

func TestController_NonFinalSummaryRejected(t *testing.T) {
	stubs := workingStubs()
	stubs.summarizer.override = &models.IdeaSummary{Final: false, IdeaID: "1"}
	controller := mustController(t, stubs.evaluators(), DefaultIterationBudget)

	ev := models.NewEvidence()
	if err := controller.Evaluate(context.Background(), testIdea("1"), ev); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if ev.Summary.IsFinal() {
		t.Error("non-final summarizer output must not produce a final summary")
	}
	if ev.Summary.Error == "" {
		t.Error("expected a validation error marker in the summary slot")
	}
}

func TestController_CancelledContextStopsBetweenSteps(t *testing.T) {
	stubs := workingStubs()
	controller := mustController(t, stubs.evaluators(), DefaultIterationBudget)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ev := models.NewEvidence()
	if err := controller.Evaluate(ctx, testIdea("1"), ev); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if stubs.totalCalls() != 0 {
		t.Errorf("cancelled context still made %d evaluator calls", stubs.totalCalls())
	}
	if ev.Complete() {
		t.Error("cancelled evaluation must stay partial")
	}
	if len(ev.Trace) != 1 || !strings.Contains(ev.Trace[0].Detail, "cancelled") {
		t.Errorf("expected one cancellation trace record, got %+v", ev.Trace)
	}
}

func TestNewController_Validation(t *testing.T) {
	stubs := workingStubs()

	if _, err := NewController(Evaluators{}, DefaultIterationBudget); err == nil {
		t.Error("empty registry must be rejected")
	}

	missingSummary := stubs.evaluators()
	missingSummary.Summary = nil
	if _, err := NewController(missingSummary, DefaultIterationBudget); err == nil {
		t.Error("registry missing the summarizer must be rejected")
	}

	if _, err := NewController(stubs.evaluators(), -1); err == nil {
		t.Error("negative budget must be rejected")
	}

	if _, err := NewController(stubs.evaluators(), 0); err != nil {
		t.Errorf("zero budget is legal, got error: %v", err)
	}
}

// Exercised by the orchestrator tests too, but the wrapper contract is
// worth pinning down on its own: a nil evidence record is a caller bug.
func TestController_NilEvidenceIsAnError(t *testing.T) {
	stubs := workingStubs()
	controller := mustController(t, stubs.evaluators(), DefaultIterationBudget)

	err := controller.Evaluate(context.Background(), testIdea("1"), nil)
	if err == nil {
		t.Fatal("expected error for nil evidence")
	}
	if !strings.Contains(err.Error(), "nil evidence") {
		t.Errorf("unexpected error: %v", err)
	}
}
