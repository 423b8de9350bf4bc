package models

// NoDescriptionMarker is recorded for ideas that arrive without any
// evaluable description. Such ideas never reach the evaluators.
const NoDescriptionMarker = "no description provided"

// IdeaResult is one idea's outcome within a batch: accumulated evidence,
// or an idea-level error marker with the description echoed for diagnosis.
type IdeaResult struct {
	IdeaID      string    `json:"idea_id"`
	Evidence    *Evidence `json:"evidence,omitempty"`
	Error       string    `json:"error,omitempty"`
	Description string    `json:"description,omitempty"`
}

// Rankable reports whether the idea qualifies for ranking: no idea-level
// error and a final (error-free) summary in the evidence.
func (r *IdeaResult) Rankable() bool {
	return r != nil && r.Error == "" && r.Evidence != nil && r.Evidence.Summary.IsFinal()
}

// BatchResult maps idea id to its outcome. Every submitted idea appears
// exactly once, evaluated or not.
type BatchResult map[string]*IdeaResult

// RankedIdea is one entry of the ranked output.
type RankedIdea struct {
	IdeaID        string       `json:"idea_id"`
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	ValueScore    float64      `json:"value_score"`
	EffortScore   float64      `json:"effort_score"`
	CombinedScore float64      `json:"combined_score"`
	Summary       *IdeaSummary `json:"summary,omitempty"`
}

// RankingSummary is the aggregated batch output: the top three ideas by
// combined score, their ids, and the complete batch result including
// ideas that never produced a final summary.
type RankingSummary struct {
	Top3       []RankedIdea `json:"top_3"`
	TopIdeaIDs []string     `json:"top_idea_ids"`
	AllIdeas   BatchResult  `json:"all_ideas"`
}
