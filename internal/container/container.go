package container

import (
	"context"
	"fmt"
	"log"

	"thinkwise/adapters/llm"
	"thinkwise/adapters/postgres"
	"thinkwise/adapters/search"
	"thinkwise/ai"
	"thinkwise/internal/api"
	"thinkwise/internal/auth"
	"thinkwise/internal/config"
	"thinkwise/internal/evaluation"
	"thinkwise/internal/ingest"
	"thinkwise/internal/mail"
	"thinkwise/internal/usage"
	"thinkwise/models"
	"thinkwise/ports"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Infrastructure
	DB *sqlx.DB

	// Repositories (data access layer)
	UserRepo     ports.UserRepository
	ResetRepo    ports.PasswordResetRepository
	AnalysisRepo ports.AnalysisRepository
	ChatRepo     ports.ChatRepository
	UsageRepo    ports.LLMUsageRepository

	// Cross-cutting services
	UsageService *usage.Service
	AuthService  *auth.Service
	Mailer       ports.Mailer

	// Evaluation pipeline
	LLMClient    ports.LLMClient
	Searcher     ports.ContextSearcher
	Controller   *evaluation.Controller
	Orchestrator *evaluation.BatchOrchestrator
	ResultStore  *evaluation.ResultStore
	ChatAgent    *ai.ChatAgent
	Parser       *ingest.Parser
	SSEHub       *api.SSEHub
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	return &Container{Config: cfg}, nil
}

// InitWithDatabase initializes components that require database access
func (c *Container) InitWithDatabase(db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}

	c.DB = db

	// Test database connection
	if err := db.Ping(); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}

	if err := c.initRepositories(); err != nil {
		return fmt.Errorf("failed to initialize repositories: %w", err)
	}

	if err := c.initServices(); err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := c.initEvaluation(); err != nil {
		return fmt.Errorf("failed to initialize evaluation pipeline: %w", err)
	}

	log.Printf("Container initialized successfully with database connection")
	return nil
}

// initRepositories initializes data access repositories
func (c *Container) initRepositories() error {
	c.UserRepo = postgres.NewUserRepository(c.DB)
	c.ResetRepo = postgres.NewPasswordResetRepository(c.DB)
	c.AnalysisRepo = postgres.NewAnalysisRepository(c.DB)
	c.ChatRepo = postgres.NewChatRepository(c.DB)
	c.UsageRepo = postgres.NewLLMUsageRepository(c.DB)
	return nil
}

// initServices initializes auth, mail, and usage accounting
func (c *Container) initServices() error {
	c.UsageService = usage.NewService(c.UsageRepo)

	c.Mailer = mail.NewMailer(
		c.Config.SMTP.Host,
		c.Config.SMTP.Port,
		c.Config.SMTP.Username,
		c.Config.SMTP.Password,
		c.Config.SMTP.From,
	)

	signer := auth.NewTokenSigner(c.Config.Auth.JWTSecret, c.Config.Auth.TokenExpiry)
	c.AuthService = auth.NewService(
		c.UserRepo,
		c.ResetRepo,
		c.Mailer,
		signer,
		c.Config.Auth.ResetExpiry,
		c.Config.Auth.FrontendBaseURL,
	)

	log.Printf("Core services initialized: UsageService, Mailer, AuthService")
	return nil
}

// initEvaluation wires the LLM agents, search provider, and batch pipeline
func (c *Container) initEvaluation() error {
	aiConfig := c.aiConfig()

	c.LLMClient = llm.NewClient(aiConfig)
	c.Searcher = search.NewSearcher(
		c.Config.Search.TavilyKey,
		c.Config.Search.MaxResults,
		c.Config.Search.Timeout,
	)

	effortAgent := ai.NewEffortAgent(c.LLMClient, aiConfig, c.UsageService)
	valueAgent := ai.NewValueAgent(c.LLMClient, aiConfig, c.UsageService)
	summaryAgent := ai.NewSummaryAgent(c.LLMClient, aiConfig, c.UsageService)
	c.ChatAgent = ai.NewChatAgent(c.LLMClient, aiConfig, c.UsageService)

	controller, err := evaluation.NewController(evaluation.Evaluators{
		Context: c.Searcher,
		Effort:  effortAgent,
		Value:   valueAgent,
		Summary: summaryAgent,
	}, c.Config.Evaluation.IterationBudget)
	if err != nil {
		return fmt.Errorf("failed to create evaluation controller: %w", err)
	}
	c.Controller = controller

	c.SSEHub = api.NewSSEHub()

	orchestrator, err := evaluation.NewBatchOrchestrator(
		c.Controller,
		c.Config.Evaluation.Concurrency,
		api.NewSSEEventPublisher(c.SSEHub),
	)
	if err != nil {
		return fmt.Errorf("failed to create batch orchestrator: %w", err)
	}
	c.Orchestrator = orchestrator

	c.ResultStore = evaluation.NewResultStore(c.AnalysisRepo)
	c.Parser = ingest.NewParser()

	log.Printf("Evaluation pipeline initialized: budget=%d concurrency=%d",
		c.Config.Evaluation.IterationBudget, c.Config.Evaluation.Concurrency)
	return nil
}

// Weights returns the configured score blend for ranking
func (c *Container) Weights() models.Weights {
	return models.Weights{
		Value:  c.Config.Evaluation.ValueWeight,
		Effort: c.Config.Evaluation.EffortWeight,
	}
}

// aiConfig maps application configuration onto the shared agent config
func (c *Container) aiConfig() *models.AIConfig {
	aiConfig := models.DefaultAIConfig()
	aiConfig.OpenAIKey = c.Config.AI.OpenAIKey
	aiConfig.OpenAIModel = c.Config.AI.OpenAIModel
	aiConfig.SystemContext = c.Config.AI.SystemContext
	aiConfig.MaxTokens = c.Config.AI.MaxTokens
	aiConfig.Temperature = c.Config.AI.Temperature
	aiConfig.PromptsDir = c.Config.AI.PromptsDir
	return aiConfig
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
