package ui

import (
	"log"
	"net/http"

	"thinkwise/internal/api"
	"thinkwise/internal/auth"
	apperrors "thinkwise/internal/errors"
	"thinkwise/ui/middleware"

	"github.com/gin-gonic/gin"
)

// Server is the JSON API for idea analysis: auth, batch uploads, ranked
// idea queries, per-idea chat, and live batch progress over SSE.
type Server struct {
	router      *gin.Engine
	authService *auth.Service
	sseHub      *api.SSEHub

	authHandler    *AuthHandler
	analyzeHandler *AnalyzeHandler
	ideaHandler    *IdeaHandler
	chatHandler    *ChatHandler
	usageHandler   *UsageHandler

	corsOrigins string
}

// NewServer assembles the router from the handler set. Pass ginMode
// through from configuration; an empty string keeps gin's default.
func NewServer(
	ginMode string,
	corsOrigins string,
	authService *auth.Service,
	sseHub *api.SSEHub,
	analyzeHandler *AnalyzeHandler,
	ideaHandler *IdeaHandler,
	chatHandler *ChatHandler,
	usageHandler *UsageHandler,
) *Server {
	if ginMode != "" {
		gin.SetMode(ginMode)
	}

	s := &Server{
		router:         gin.New(),
		authService:    authService,
		sseHub:         sseHub,
		authHandler:    NewAuthHandler(authService),
		analyzeHandler: analyzeHandler,
		ideaHandler:    ideaHandler,
		chatHandler:    chatHandler,
		usageHandler:   usageHandler,
		corsOrigins:    corsOrigins,
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures Gin middleware
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Logger())
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.CORS(s.corsOrigins))
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authGroup := s.router.Group("/auth")
	{
		authGroup.POST("/register", s.authHandler.HandleRegister)
		authGroup.POST("/login", s.authHandler.HandleLogin)
		authGroup.POST("/forgot-password", s.authHandler.HandleForgotPassword)
		authGroup.POST("/reset-password", s.authHandler.HandleResetPassword)
	}

	protected := s.router.Group("/")
	protected.Use(middleware.RequireAuth(s.authService))
	{
		protected.POST("/analyze/upload", s.analyzeHandler.HandleUpload)
		protected.GET("/analyze/events/:batch", s.sseHub.HandleSSE)

		protected.GET("/ideas", s.ideaHandler.HandleListIdeas)
		protected.GET("/ideas/overall_top", s.ideaHandler.HandleOverallTop)
		protected.GET("/ideas/top", s.ideaHandler.HandleTopForFile)
		protected.GET("/ideas/data", s.ideaHandler.HandleIdeaData)
		protected.GET("/ideas/analytics", s.ideaHandler.HandleAnalytics)

		protected.POST("/chat/idea/:id", s.chatHandler.HandleIdeaChat)
		protected.GET("/chat/idea/:id", s.chatHandler.HandleChatHistory)

		protected.GET("/usage/summary", s.usageHandler.HandleUsageSummary)
	}
}

// Router exposes the underlying engine for tests
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start runs the HTTP server on the given port
func (s *Server) Start(port string) error {
	addr := ":" + port
	log.Printf("[Server] Starting Thinkwise API on %s", addr)
	return s.router.Run(addr)
}

// respondError maps application error codes onto HTTP statuses and
// writes a uniform error body.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch apperrors.GetCode(err) {
	case apperrors.CodeValidationError, apperrors.CodeInvalidInput:
		status = http.StatusUnprocessableEntity
	case apperrors.CodeUnauthorized:
		status = http.StatusUnauthorized
	case apperrors.CodeNotFound:
		status = http.StatusNotFound
	case apperrors.CodeAlreadyExists:
		status = http.StatusConflict
	case apperrors.CodeExternalService:
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		log.Printf("[API] ❌ Internal error: %v", err)
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
