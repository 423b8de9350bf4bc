package models

import "time"

// EvalStep identifies one evaluator capability in the fixed priority order.
type EvalStep string

const (
	StepContextSearch  EvalStep = "context_search"
	StepEffortEstimate EvalStep = "effort_estimate"
	StepValueEstimate  EvalStep = "value_estimate"
	StepFinalSummary   EvalStep = "final_summary"
	StepDone           EvalStep = "done"
)

// Fallback scores recorded when an estimator fails. Effort falls back to
// the most pessimistic reading (hardest), value to the least.
const (
	EffortErrorScore = 1.0
	ValueErrorScore  = 0.0
)

// SearchFinding is one web result returned by the context search provider.
type SearchFinding struct {
	Title   string  `json:"title,omitempty"`
	URL     string  `json:"url,omitempty"`
	Snippet string  `json:"snippet,omitempty"`
	Score   float64 `json:"score,omitempty"`
}

// SearchContext is the opaque market/context blob gathered for an idea.
// The controller stores it verbatim; only the summarizer prompt consumes it.
type SearchContext struct {
	Query    string          `json:"query,omitempty"`
	Answer   string          `json:"answer,omitempty"`
	Findings []SearchFinding `json:"findings,omitempty"`
}

// EffortDetails breaks an effort estimate into its contributing factors.
type EffortDetails struct {
	TimeNeeded   string `json:"time_needed,omitempty"`
	Resources    string `json:"resources,omitempty"`
	Dependencies string `json:"dependencies,omitempty"`
	Complexity   string `json:"complexity,omitempty"`
}

// EffortAssessment is a validated effort estimate. Score is in [0,1],
// 1 meaning hardest to implement.
type EffortAssessment struct {
	Score     float64       `json:"effort_score"`
	Reasoning string        `json:"reasoning,omitempty"`
	Details   EffortDetails `json:"details,omitempty"`
}

// ValueDetails breaks a value estimate into its contributing factors.
type ValueDetails struct {
	ValueCreated   string `json:"value_created,omitempty"`
	UserDemand     string `json:"user_demand,omitempty"`
	BusinessImpact string `json:"business_impact,omitempty"`
}

// ValueAssessment is a validated value/ROI estimate. Score is in [0,1],
// 1 meaning best possible return.
type ValueAssessment struct {
	Score     float64      `json:"value_score"`
	Reasoning string       `json:"reasoning,omitempty"`
	Details   ValueDetails `json:"details,omitempty"`
}

// IdeaSummary is the terminal artifact of a successful evaluation.
type IdeaSummary struct {
	Final               bool    `json:"final"`
	IdeaID              string  `json:"idea_id"`
	Title               string  `json:"title"`
	Description         string  `json:"description"`
	ValueScore          float64 `json:"value_score"`
	EffortScore         float64 `json:"effort_score"`
	AggregatedReasoning string  `json:"aggregated_reasoning"`
}

// ContextEvidence is the context slot: search results or an error marker.
type ContextEvidence struct {
	Result *SearchContext `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// Failed reports whether the slot holds an error marker.
func (c *ContextEvidence) Failed() bool { return c != nil && c.Error != "" }

// EffortEvidence is the effort slot. Score always holds a usable value:
// the validated estimate, or EffortErrorScore when Error is set.
type EffortEvidence struct {
	Score      float64           `json:"score"`
	Assessment *EffortAssessment `json:"assessment,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// Failed reports whether the slot holds an error marker.
func (e *EffortEvidence) Failed() bool { return e != nil && e.Error != "" }

// ValueEvidence is the value slot. Score always holds a usable value:
// the validated estimate, or ValueErrorScore when Error is set.
type ValueEvidence struct {
	Score      float64          `json:"score"`
	Assessment *ValueAssessment `json:"assessment,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// Failed reports whether the slot holds an error marker.
func (v *ValueEvidence) Failed() bool { return v != nil && v.Error != "" }

// SummaryEvidence is the summary slot. A set slot terminates the
// evaluation either way; only an error-free one makes the idea rankable.
type SummaryEvidence struct {
	Summary *IdeaSummary `json:"summary,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// IsFinal reports whether the slot holds a usable final summary.
func (s *SummaryEvidence) IsFinal() bool {
	return s != nil && s.Error == "" && s.Summary != nil && s.Summary.Final
}

// TraceRecord documents one controller step for observability. The trace
// is append-only and never consulted when selecting the next step.
type TraceRecord struct {
	Step      EvalStep  `json:"step"`
	OK        bool      `json:"ok"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	ElapsedMs int64     `json:"elapsed_ms"`
}

// Evidence accumulates everything learned about one idea. Slots are
// monotonic: once set (success or error marker) they are never replaced,
// cleared, or retried.
type Evidence struct {
	Context *ContextEvidence `json:"context,omitempty"`
	Effort  *EffortEvidence  `json:"effort,omitempty"`
	Value   *ValueEvidence   `json:"value,omitempty"`
	Summary *SummaryEvidence `json:"summary,omitempty"`
	Trace   []TraceRecord    `json:"trace,omitempty"`
}

// NewEvidence returns an empty evidence record.
func NewEvidence() *Evidence {
	return &Evidence{}
}

// NextStep is the fixed selection policy: the first unset slot in priority
// order context → effort → value → summary, StepDone when all are set.
// Error markers count as set. Pure function of the slots.
func (e *Evidence) NextStep() EvalStep {
	switch {
	case e.Context == nil:
		return StepContextSearch
	case e.Effort == nil:
		return StepEffortEstimate
	case e.Value == nil:
		return StepValueEstimate
	case e.Summary == nil:
		return StepFinalSummary
	default:
		return StepDone
	}
}

// Complete reports whether evaluation has terminated (summary slot set,
// with either a final summary or an error marker).
func (e *Evidence) Complete() bool { return e.Summary != nil }

// EffortScore returns the effort reading for aggregation, falling back to
// EffortErrorScore when the slot was never filled.
func (e *Evidence) EffortScore() float64 {
	if e.Effort == nil {
		return EffortErrorScore
	}
	return e.Effort.Score
}

// ValueScore returns the value reading for aggregation, falling back to
// ValueErrorScore when the slot was never filled.
func (e *Evidence) ValueScore() float64 {
	if e.Value == nil {
		return ValueErrorScore
	}
	return e.Value.Score
}

// AddTrace appends a step record.
func (e *Evidence) AddTrace(rec TraceRecord) {
	e.Trace = append(e.Trace, rec)
}
