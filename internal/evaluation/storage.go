package evaluation

import (
	"context"
	"log"
	"time"

	"thinkwise/internal/errors"
	"thinkwise/models"
	"thinkwise/ports"

	"github.com/google/uuid"
)

// ResultStore persists a completed batch as per-idea analysis records.
type ResultStore struct {
	analysisRepo ports.AnalysisRepository
}

// NewResultStore creates a new result store instance
func NewResultStore(analysisRepo ports.AnalysisRepository) *ResultStore {
	return &ResultStore{analysisRepo: analysisRepo}
}

// PersistBatch upserts one analysis record per batch outcome, keyed on
// (user, idea). Every outcome is stored: unranked ideas (missing or
// errored summary, idea-level markers) keep Ranked=false, their slot
// fallback scores, and a combined score of 0 so listings stay total.
func (rs *ResultStore) PersistBatch(ctx context.Context, userID uuid.UUID, filename string, ideas map[string]models.Idea, ranking models.RankingSummary, weights models.Weights) error {
	saved := 0
	for _, id := range SortedIdeaIDs(ranking.AllIdeas) {
		res := ranking.AllIdeas[id]
		record := rs.buildRecord(userID, filename, ideas[id], res, weights)

		if err := rs.analysisRepo.UpsertAnalysis(ctx, record); err != nil {
			return errors.Wrapf(err, "failed to persist analysis for idea %s", id)
		}
		saved++
	}

	log.Printf("[ResultStore] Persisted %d analyses for file %s", saved, filename)
	return nil
}

func (rs *ResultStore) buildRecord(userID uuid.UUID, filename string, idea models.Idea, res *models.IdeaResult, weights models.Weights) *models.AnalysisRecord {
	valueScore := models.ValueErrorScore
	effortScore := models.EffortErrorScore
	var evidence models.EvidenceDoc
	if res.Evidence != nil {
		valueScore = sanitizeScore(res.Evidence.ValueScore())
		effortScore = sanitizeScore(res.Evidence.EffortScore())
		evidence = models.EvidenceDoc{Evidence: *res.Evidence}
	} else if res.Error != "" {
		// Idea-level markers keep a minimal evidence trail for the UI.
		evidence = models.EvidenceDoc{Evidence: models.Evidence{
			Summary: &models.SummaryEvidence{Error: res.Error},
		}}
	}

	combined := 0.0
	if res.Rankable() {
		combined = CombinedScore(weights, valueScore, effortScore)
	}

	category := idea.Category
	if category == "" {
		category = models.DefaultCategory
	}

	var submittedAt *time.Time
	if !idea.SubmittedAt.IsZero() {
		t := idea.SubmittedAt
		submittedAt = &t
	}

	return &models.AnalysisRecord{
		ID:            uuid.New(),
		UserID:        userID,
		IdeaID:        res.IdeaID,
		Filename:      filename,
		Title:         idea.Title,
		Description:   idea.Description,
		Author:        idea.Author,
		Category:      category,
		SubmittedAt:   submittedAt,
		ValueScore:    valueScore,
		EffortScore:   effortScore,
		CombinedScore: combined,
		Ranked:        res.Rankable(),
		Evidence:      evidence,
	}
}
