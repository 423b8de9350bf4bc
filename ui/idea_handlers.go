package ui

import (
	"net/http"
	"strconv"
	"time"

	"thinkwise/internal/analytics"
	"thinkwise/models"
	"thinkwise/ports"
	"thinkwise/ui/middleware"

	"github.com/gin-gonic/gin"
)

// IdeaHandler serves stored analyses: listings, leaderboards, raw
// evidence, and the aggregate analytics report.
type IdeaHandler struct {
	analyses ports.AnalysisRepository
}

// NewIdeaHandler creates a new idea handler
func NewIdeaHandler(analyses ports.AnalysisRepository) *IdeaHandler {
	return &IdeaHandler{analyses: analyses}
}

// ideaView is the listing projection of a stored analysis. The full
// evidence document is served by HandleIdeaData only.
type ideaView struct {
	IdeaID        string     `json:"idea_id"`
	Filename      string     `json:"filename"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Author        string     `json:"author,omitempty"`
	Category      string     `json:"category"`
	SubmittedAt   *time.Time `json:"submitted_at,omitempty"`
	ValueScore    float64    `json:"value_score"`
	EffortScore   float64    `json:"effort_score"`
	CombinedScore float64    `json:"combined_score"`
	Ranked        bool       `json:"ranked"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func toIdeaView(record *models.AnalysisRecord) ideaView {
	return ideaView{
		IdeaID:        record.IdeaID,
		Filename:      record.Filename,
		Title:         record.Title,
		Description:   record.Description,
		Author:        record.Author,
		Category:      record.Category,
		SubmittedAt:   record.SubmittedAt,
		ValueScore:    record.ValueScore,
		EffortScore:   record.EffortScore,
		CombinedScore: record.CombinedScore,
		Ranked:        record.Ranked,
		UpdatedAt:     record.UpdatedAt,
	}
}

// HandleListIdeas returns every stored analysis for the user, newest first
func (h *IdeaHandler) HandleListIdeas(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}

	records, err := h.analyses.ListAnalyses(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]ideaView, 0, len(records))
	for _, record := range records {
		views = append(views, toIdeaView(record))
	}

	c.JSON(http.StatusOK, gin.H{
		"all_ideas": views,
		"count":     len(views),
	})
}

// HandleOverallTop returns the user's highest-scoring ranked ideas across
// every uploaded file
func (h *IdeaHandler) HandleOverallTop(c *gin.Context) {
	h.serveTop(c, "")
}

// HandleTopForFile returns the top ranked ideas for one uploaded file
func (h *IdeaHandler) HandleTopForFile(c *gin.Context) {
	filename := c.Query("filename")
	if filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "filename query parameter required"})
		return
	}
	h.serveTop(c, filename)
}

func (h *IdeaHandler) serveTop(c *gin.Context, filename string) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}

	limit := 3
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 50 {
			limit = parsed
		}
	}

	records, err := h.analyses.TopAnalyses(c.Request.Context(), userID, filename, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]ideaView, 0, len(records))
	ids := make([]string, 0, len(records))
	for _, record := range records {
		views = append(views, toIdeaView(record))
		ids = append(ids, record.IdeaID)
	}

	response := gin.H{
		"top_3_ideas":  views,
		"top_idea_ids": ids,
	}
	if filename != "" {
		response["filename"] = filename
	}
	c.JSON(http.StatusOK, response)
}

// HandleIdeaData returns the complete stored records, full evidence
// documents included, as a flat array for frontend tables
func (h *IdeaHandler) HandleIdeaData(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}

	records, err := h.analyses.ListAnalyses(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if records == nil {
		records = []*models.AnalysisRecord{}
	}

	c.JSON(http.StatusOK, records)
}

// HandleAnalytics computes the aggregate report over the user's analyses
func (h *IdeaHandler) HandleAnalytics(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}

	records, err := h.analyses.ListAnalyses(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, analytics.Analyze(records))
}
