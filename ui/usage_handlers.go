package ui

import (
	"net/http"
	"time"

	"thinkwise/internal/usage"
	"thinkwise/ui/middleware"

	"github.com/gin-gonic/gin"
)

// UsageHandler reports a user's LLM token consumption.
type UsageHandler struct {
	usage *usage.Service
}

// NewUsageHandler creates a new usage handler
func NewUsageHandler(usageService *usage.Service) *UsageHandler {
	return &UsageHandler{usage: usageService}
}

// HandleUsageSummary aggregates token usage for the authenticated user.
// Optional start/end query parameters (RFC 3339 or YYYY-MM-DD) bound the
// window; the default is the trailing 30 days.
func (h *UsageHandler) HandleUsageSummary(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}

	end := time.Now()
	start := end.AddDate(0, 0, -30)

	if raw := c.Query("start"); raw != "" {
		parsed, err := parseTimeParam(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start must be RFC 3339 or YYYY-MM-DD"})
			return
		}
		start = parsed
	}
	if raw := c.Query("end"); raw != "" {
		parsed, err := parseTimeParam(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end must be RFC 3339 or YYYY-MM-DD"})
			return
		}
		end = parsed
	}

	summary, err := h.usage.GetUserUsageSummary(c.Request.Context(), userID, start, end)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"start":   start,
		"end":     end,
		"summary": summary,
	})
}

func parseTimeParam(raw string) (time.Time, error) {
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed, nil
	}
	return time.Parse("2006-01-02", raw)
}
