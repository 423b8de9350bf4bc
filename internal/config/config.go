package config

import (
	"os"
	"strconv"
	"time"

	"thinkwise/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database   DatabaseConfig `validate:"required"`
	AI         AIConfig       `validate:"required"`
	Search     SearchConfig
	Server     ServerConfig `validate:"required"`
	Auth       AuthConfig   `validate:"required"`
	SMTP       SMTPConfig
	Evaluation EvaluationConfig
	Ops        OpsConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL     string `validate:"required"`
	SSLMode string
	Reset   bool // drop and recreate tables on boot
}

// AIConfig holds AI/LLM related settings
type AIConfig struct {
	OpenAIKey     string `validate:"required"`
	OpenAIModel   string `validate:"required"`
	SystemContext string
	MaxTokens     int
	Temperature   float64
	PromptsDir    string
}

// SearchConfig holds web search provider settings
type SearchConfig struct {
	TavilyKey  string
	MaxResults int
	Timeout    time.Duration
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port        string `validate:"required"`
	GinMode     string
	CORSOrigins string
}

// AuthConfig holds token and password-reset settings
type AuthConfig struct {
	JWTSecret       string `validate:"required"`
	TokenExpiry     time.Duration
	ResetExpiry     time.Duration
	FrontendBaseURL string
}

// SMTPConfig holds outbound mail settings
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// EvaluationConfig holds batch evaluation settings
type EvaluationConfig struct {
	IterationBudget int
	Concurrency     int
	ValueWeight     float64
	EffortWeight    float64
}

// OpsConfig holds the debug/profiling listener settings
type OpsConfig struct {
	Port    string
	Enabled bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{}

	// Load database configuration
	dbConfig, err := loadDatabaseConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load database configuration")
	}
	config.Database = *dbConfig

	// Load AI configuration
	aiConfig, err := loadAIConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load AI configuration")
	}
	config.AI = *aiConfig

	// Load search configuration
	config.Search = *loadSearchConfig()

	// Load server configuration
	config.Server = *loadServerConfig()

	// Load auth configuration
	authConfig, err := loadAuthConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load auth configuration")
	}
	config.Auth = *authConfig

	// Load SMTP configuration
	config.SMTP = *loadSMTPConfig()

	// Load evaluation configuration
	evalConfig, err := loadEvaluationConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load evaluation configuration")
	}
	config.Evaluation = *evalConfig

	// Load ops configuration
	config.Ops = *loadOpsConfig()

	// Validate required fields
	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadDatabaseConfig() (*DatabaseConfig, error) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}

	return &DatabaseConfig{
		URL:     url,
		SSLMode: getEnvOrDefault("SSL_MODE", "disable"),
		Reset:   getEnvBoolOrDefault("RESET_DATABASE", false),
	}, nil
}

func loadAIConfig() (*AIConfig, error) {
	openaiKey := os.Getenv("OPENAI_API_KEY")
	if openaiKey == "" {
		return nil, errors.ConfigInvalid("OPENAI_API_KEY is required")
	}

	promptsDir := os.Getenv("PROMPTS_DIR")
	if promptsDir == "" {
		promptsDir = "./prompts" // default
	}

	model := os.Getenv("LLM_MODEL")
	if model == "" {
		model = "gpt-4o-mini" // default
	}

	return &AIConfig{
		OpenAIKey:     openaiKey,
		OpenAIModel:   model,
		SystemContext: "You are a product analyst evaluating startup and product ideas",
		MaxTokens:     getEnvIntOrDefault("MAX_TOKENS", 2000),
		Temperature:   getEnvFloatOrDefault("TEMPERATURE", 0.1),
		PromptsDir:    promptsDir,
	}, nil
}

func loadSearchConfig() *SearchConfig {
	return &SearchConfig{
		TavilyKey:  getEnvOrDefault("TAVILY_API_KEY", ""),
		MaxResults: getEnvIntOrDefault("SEARCH_MAX_RESULTS", 5),
		Timeout:    getEnvDurationOrDefault("SEARCH_TIMEOUT", 30*time.Second),
	}
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:        getEnvOrDefault("PORT", "8080"),
		GinMode:     getEnvOrDefault("GIN_MODE", "debug"),
		CORSOrigins: getEnvOrDefault("CORS_ORIGINS", "*"),
	}
}

func loadAuthConfig() (*AuthConfig, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, errors.ConfigInvalid("JWT_SECRET is required")
	}

	return &AuthConfig{
		JWTSecret:       secret,
		TokenExpiry:     getEnvDurationOrDefault("JWT_EXPIRY", 24*time.Hour),
		ResetExpiry:     getEnvDurationOrDefault("RESET_TOKEN_EXPIRY", 30*time.Minute),
		FrontendBaseURL: getEnvOrDefault("FRONTEND_BASE_URL", "http://localhost:3000"),
	}, nil
}

func loadSMTPConfig() *SMTPConfig {
	return &SMTPConfig{
		Host:     getEnvOrDefault("SMTP_HOST", ""),
		Port:     getEnvIntOrDefault("SMTP_PORT", 587),
		Username: getEnvOrDefault("SMTP_USER", ""),
		Password: getEnvOrDefault("SMTP_PASSWORD", ""),
		From:     getEnvOrDefault("EMAILS_FROM", "no-reply@thinkwise.local"),
	}
}

func loadEvaluationConfig() (*EvaluationConfig, error) {
	cfg := &EvaluationConfig{
		IterationBudget: getEnvIntOrDefault("EVAL_ITERATION_BUDGET", 5),
		Concurrency:     getEnvIntOrDefault("EVAL_CONCURRENCY", 4),
		ValueWeight:     getEnvFloatOrDefault("WEIGHT_VALUE", 0.6),
		EffortWeight:    getEnvFloatOrDefault("WEIGHT_EFFORT", 0.4),
	}

	if cfg.IterationBudget < 0 {
		return nil, errors.ConfigInvalid("EVAL_ITERATION_BUDGET must be non-negative")
	}
	if cfg.Concurrency < 1 {
		return nil, errors.ConfigInvalid("EVAL_CONCURRENCY must be at least 1")
	}
	return cfg, nil
}

func loadOpsConfig() *OpsConfig {
	return &OpsConfig{
		Port:    getEnvOrDefault("PPROF_PORT", "6060"),
		Enabled: getEnvBoolOrDefault("PPROF_ENABLED", true),
	}
}

func validateConfig(config *Config) error {
	if config.Database.URL == "" {
		return errors.ConfigInvalid("database URL is required")
	}
	if config.AI.OpenAIKey == "" {
		return errors.ConfigInvalid("OpenAI API key is required")
	}
	if config.AI.PromptsDir == "" {
		return errors.ConfigInvalid("prompts directory is required")
	}
	if config.Auth.JWTSecret == "" {
		return errors.ConfigInvalid("JWT secret is required")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
