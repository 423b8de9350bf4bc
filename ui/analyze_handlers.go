package ui

import (
	"log"
	"net/http"
	"path/filepath"
	"strconv"

	apperrors "thinkwise/internal/errors"
	"thinkwise/internal/evaluation"
	"thinkwise/internal/ingest"
	"thinkwise/models"
	"thinkwise/ui/middleware"

	"github.com/gin-gonic/gin"
)

// AnalyzeHandler runs the upload-evaluate-rank-persist pipeline.
type AnalyzeHandler struct {
	parser         *ingest.Parser
	orchestrator   *evaluation.BatchOrchestrator
	store          *evaluation.ResultStore
	defaultWeights models.Weights
}

// NewAnalyzeHandler creates a new analyze handler
func NewAnalyzeHandler(
	parser *ingest.Parser,
	orchestrator *evaluation.BatchOrchestrator,
	store *evaluation.ResultStore,
	defaultWeights models.Weights,
) *AnalyzeHandler {
	return &AnalyzeHandler{
		parser:         parser,
		orchestrator:   orchestrator,
		store:          store,
		defaultWeights: defaultWeights,
	}
}

// HandleUpload accepts an idea file (CSV, JSON, or XLSX), evaluates the
// batch, ranks it, and persists every outcome for the authenticated user.
// The uploaded filename doubles as the batch id for the SSE progress
// stream, so clients can subscribe before the upload returns.
func (h *AnalyzeHandler) HandleUpload(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file upload required (multipart field \"file\")"})
		return
	}

	weights, err := h.weightsFromForm(c)
	if err != nil {
		respondError(c, err)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, apperrors.Wrap(err, "failed to open uploaded file"))
		return
	}
	defer file.Close()

	filename := filepath.Base(fileHeader.Filename)
	log.Printf("[API] 📥 Upload from user %s: %s (%d bytes)", userID, filename, fileHeader.Size)

	ideas, err := h.parser.Parse(filename, file)
	if err != nil {
		respondError(c, err)
		return
	}

	result := h.orchestrator.RunBatch(c.Request.Context(), filename, ideas)
	ranking := evaluation.Rank(result, weights)

	if err := h.store.PersistBatch(c.Request.Context(), userID, filename, ideas, ranking, weights); err != nil {
		respondError(c, err)
		return
	}

	log.Printf("[API] ✅ Batch %s complete for user %s: %d ideas, %d ranked",
		filename, userID, len(result), len(ranking.TopIdeaIDs))

	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"filename":     filename,
		"batch_id":     filename,
		"ideas_total":  len(result),
		"top_3":        ranking.Top3,
		"top_idea_ids": ranking.TopIdeaIDs,
	})
}

// weightsFromForm merges optional w_value/w_effort form fields over the
// configured defaults. The merged pair must still sum to 1.
func (h *AnalyzeHandler) weightsFromForm(c *gin.Context) (models.Weights, error) {
	weights := h.defaultWeights

	if raw := c.PostForm("w_value"); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return weights, apperrors.InvalidInput("w_value must be a number")
		}
		weights.Value = value
	}
	if raw := c.PostForm("w_effort"); raw != "" {
		effort, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return weights, apperrors.InvalidInput("w_effort must be a number")
		}
		weights.Effort = effort
	}

	if err := weights.Validate(); err != nil {
		return weights, apperrors.ValidationError(err.Error())
	}
	return weights, nil
}
