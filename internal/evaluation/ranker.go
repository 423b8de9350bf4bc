package evaluation

import (
	"math"
	"sort"

	"thinkwise/models"
)

// TopIdeaCount is how many ideas the ranking surfaces.
const TopIdeaCount = 3

// Rank aggregates a batch result into the ranked output. Pure function:
// no I/O, no retries, inputs are not mutated.
//
// Only ideas with a final summary are ranked; everything else stays in
// AllIdeas untouched. Combined score is the weighted blend
// weights.Value*value + weights.Effort*effort, where the slot scores
// already carry the error fallbacks (value 0.0, effort 1.0). Ordering is
// descending by combined score with ties resolved by ascending idea id
// via a stable sort.
func Rank(result models.BatchResult, weights models.Weights) models.RankingSummary {
	summary := models.RankingSummary{
		Top3:       []models.RankedIdea{},
		TopIdeaIDs: []string{},
		AllIdeas:   result,
	}
	if summary.AllIdeas == nil {
		summary.AllIdeas = models.BatchResult{}
	}
	if len(result) == 0 {
		return summary
	}

	candidates := make([]models.RankedIdea, 0, len(result))
	for _, id := range SortedIdeaIDs(result) {
		res := result[id]
		if !res.Rankable() {
			continue
		}

		ev := res.Evidence
		value := sanitizeScore(ev.ValueScore())
		effort := sanitizeScore(ev.EffortScore())
		combined := sanitizeScore(weights.Value*value + weights.Effort*effort)

		final := ev.Summary.Summary
		candidates = append(candidates, models.RankedIdea{
			IdeaID:        id,
			Title:         final.Title,
			Description:   final.Description,
			ValueScore:    value,
			EffortScore:   effort,
			CombinedScore: combined,
			Summary:       final,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].CombinedScore > candidates[j].CombinedScore
	})

	top := len(candidates)
	if top > TopIdeaCount {
		top = TopIdeaCount
	}
	summary.Top3 = candidates[:top]
	for _, c := range summary.Top3 {
		summary.TopIdeaIDs = append(summary.TopIdeaIDs, c.IdeaID)
	}
	return summary
}

// CombinedScore exposes the blend for callers that score a single idea
// (persistence, chat context).
func CombinedScore(weights models.Weights, valueScore, effortScore float64) float64 {
	return sanitizeScore(weights.Value*sanitizeScore(valueScore) + weights.Effort*sanitizeScore(effortScore))
}

// sanitizeScore guards the arithmetic: anything non-finite collapses to 0.
func sanitizeScore(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
