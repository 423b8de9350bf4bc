package evaluation

import (
	"context"
	"testing"
	"time"

	"thinkwise/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryAnalysisRepo is an in-memory AnalysisRepository for tests.
type memoryAnalysisRepo struct {
	records map[string]*models.AnalysisRecord // keyed by idea id
}

func newMemoryAnalysisRepo() *memoryAnalysisRepo {
	return &memoryAnalysisRepo{records: make(map[string]*models.AnalysisRecord)}
}

func (m *memoryAnalysisRepo) UpsertAnalysis(_ context.Context, record *models.AnalysisRecord) error {
	m.records[record.IdeaID] = record
	return nil
}

func (m *memoryAnalysisRepo) GetAnalysis(_ context.Context, _ uuid.UUID, ideaID string) (*models.AnalysisRecord, error) {
	return m.records[ideaID], nil
}

func (m *memoryAnalysisRepo) ListAnalyses(_ context.Context, _ uuid.UUID) ([]*models.AnalysisRecord, error) {
	out := make([]*models.AnalysisRecord, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r)
	}
	return out, nil
}

func (m *memoryAnalysisRepo) TopAnalyses(_ context.Context, _ uuid.UUID, _ string, limit int) ([]*models.AnalysisRecord, error) {
	all, _ := m.ListAnalyses(context.Background(), uuid.Nil)
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func TestResultStore_PersistsEveryOutcome(t *testing.T) {
	repo := newMemoryAnalysisRepo()
	store := NewResultStore(repo)
	userID := uuid.New()
	submitted := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

	ideas := map[string]models.Idea{
		"1": {ID: "1", Title: "Ranked idea", Description: "solid", Author: "ana", Category: "growth", SubmittedAt: submitted},
		"2": {ID: "2", Title: "Empty idea"},
		"3": {ID: "3", Title: "Broken idea", Description: "crashy"},
	}
	result := models.BatchResult{
		"1": rankableResult("1", 0.8, 0.2),
		"2": {IdeaID: "2", Error: models.NoDescriptionMarker},
		"3": {IdeaID: "3", Error: "evaluation panicked: boom", Description: "crashy"},
	}
	weights := models.DefaultWeights()
	ranking := Rank(result, weights)

	err := store.PersistBatch(context.Background(), userID, "ideas.csv", ideas, ranking, weights)
	require.NoError(t, err)
	require.Len(t, repo.records, 3)

	ranked := repo.records["1"]
	assert.True(t, ranked.Ranked)
	assert.InDelta(t, 0.56, ranked.CombinedScore, 1e-9)
	assert.Equal(t, 0.8, ranked.ValueScore)
	assert.Equal(t, 0.2, ranked.EffortScore)
	assert.Equal(t, "growth", ranked.Category)
	assert.Equal(t, "ideas.csv", ranked.Filename)
	assert.Equal(t, userID, ranked.UserID)
	require.NotNil(t, ranked.SubmittedAt)
	assert.True(t, ranked.SubmittedAt.Equal(submitted))
	require.NotNil(t, ranked.Evidence.Summary)
	assert.True(t, ranked.Evidence.Summary.IsFinal())

	skipped := repo.records["2"]
	assert.False(t, skipped.Ranked)
	assert.Equal(t, 0.0, skipped.CombinedScore)
	assert.Equal(t, models.DefaultCategory, skipped.Category, "missing category defaults")
	assert.Nil(t, skipped.SubmittedAt)
	require.NotNil(t, skipped.Evidence.Summary)
	assert.Equal(t, models.NoDescriptionMarker, skipped.Evidence.Summary.Error)

	failed := repo.records["3"]
	assert.False(t, failed.Ranked)
	assert.Equal(t, models.ValueErrorScore, failed.ValueScore)
	assert.Equal(t, models.EffortErrorScore, failed.EffortScore)
	assert.Equal(t, 0.0, failed.CombinedScore)
}
