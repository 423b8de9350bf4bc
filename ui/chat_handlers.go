package ui

import (
	"log"
	"net/http"

	"thinkwise/ai"
	"thinkwise/models"
	"thinkwise/ports"
	"thinkwise/ui/middleware"

	"github.com/gin-gonic/gin"
)

// ChatHandler serves the per-idea conversation endpoint.
type ChatHandler struct {
	agent    *ai.ChatAgent
	chats    ports.ChatRepository
	analyses ports.AnalysisRepository
}

// NewChatHandler creates a new chat handler
func NewChatHandler(agent *ai.ChatAgent, chats ports.ChatRepository, analyses ports.AnalysisRepository) *ChatHandler {
	return &ChatHandler{
		agent:    agent,
		chats:    chats,
		analyses: analyses,
	}
}

type chatRequest struct {
	Message string `json:"message" binding:"required"`
}

// HandleIdeaChat answers a question about one analyzed idea, grounded in
// its stored evaluation, and appends both turns to the history.
func (h *ChatHandler) HandleIdeaChat(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}

	ideaID := c.Param("id")
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	ctx := c.Request.Context()

	record, err := h.analyses.GetAnalysis(ctx, userID, ideaID)
	if err != nil {
		respondError(c, err)
		return
	}

	history, err := h.chats.History(ctx, userID, ideaID, 0)
	if err != nil {
		respondError(c, err)
		return
	}

	// The user turn is stored before the model answers, so an LLM failure
	// still leaves the question in the transcript.
	userTurn := &models.ChatMessage{
		UserID:  userID,
		IdeaID:  ideaID,
		Role:    models.ChatRoleUser,
		Content: req.Message,
	}
	if err := h.chats.AppendMessage(ctx, userTurn); err != nil {
		respondError(c, err)
		return
	}

	reply, err := h.agent.Chat(ctx, record, history, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}

	assistantTurn := &models.ChatMessage{
		UserID:  userID,
		IdeaID:  ideaID,
		Role:    models.ChatRoleAssistant,
		Content: reply,
	}
	if err := h.chats.AppendMessage(ctx, assistantTurn); err != nil {
		// The reply already exists; losing its storage should not hide it.
		log.Printf("[API] ❌ Failed to store assistant reply for idea %s: %v", ideaID, err)
	}

	c.JSON(http.StatusOK, gin.H{
		"idea_id": ideaID,
		"reply":   reply,
	})
}

// HandleChatHistory returns the stored conversation for one idea
func (h *ChatHandler) HandleChatHistory(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}

	ideaID := c.Param("id")
	history, err := h.chats.History(c.Request.Context(), userID, ideaID, 0)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"idea_id":  ideaID,
		"messages": history,
		"count":    len(history),
	})
}
