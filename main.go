package main

import (
	"context"
	"fmt"
	"log"

	"thinkwise/internal/config"
	"thinkwise/internal/container"
	"thinkwise/internal/errors"
	"thinkwise/internal/migration"
	"thinkwise/internal/ops"
	"thinkwise/ui"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// resetDatabase drops all tables so migrations rebuild the schema from
// scratch. Development convenience, gated on RESET_DATABASE.
func resetDatabase(db *sqlx.DB) error {
	log.Println("🔄 Resetting database - dropping all tables...")

	// Drop tables in reverse dependency order
	dropTables := []string{
		"llm_usage",
		"password_resets",
		"chat_messages",
		"idea_analyses",
		"users",
	}

	for _, table := range dropTables {
		_, err := db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table))
		if err != nil {
			log.Printf("Warning: failed to drop table %s: %v", table, err)
		}
	}

	log.Println("✅ Database reset complete")
	return nil
}

// initDatabase initializes the PostgreSQL database connection
func initDatabase(appConfig *config.Config) (*sqlx.DB, error) {
	if appConfig.Database.URL == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}

	db, err := sqlx.Connect("postgres", appConfig.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	if appConfig.Database.Reset {
		if err := resetDatabase(db); err != nil {
			return nil, errors.Wrap(err, "database reset failed")
		}
	}

	// Run migrations
	migrator := migration.NewRunner()
	if err := migrator.Run(context.Background(), db); err != nil {
		return nil, errors.Wrap(err, "database migration failed")
	}

	return db, nil
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load application configuration
	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	db, err := initDatabase(appConfig)
	if err != nil {
		log.Fatal("Failed to initialize database: ", err)
	}
	defer db.Close()

	// Create dependency injection container
	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer appContainer.Shutdown(context.Background())

	// Initialize container with database
	if err := appContainer.InitWithDatabase(db); err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	// Start the ops listener (healthz, readyz, pprof) on its own port
	if appConfig.Ops.Enabled {
		opsServer := ops.NewServer(db)
		go func() {
			if err := opsServer.Start(appConfig.Ops.Port); err != nil {
				log.Printf("❌ Ops listener failed: %v", err)
			}
		}()
	}

	// Assemble the API server from container components
	server := ui.NewServer(
		appConfig.Server.GinMode,
		appConfig.Server.CORSOrigins,
		appContainer.AuthService,
		appContainer.SSEHub,
		ui.NewAnalyzeHandler(appContainer.Parser, appContainer.Orchestrator, appContainer.ResultStore, appContainer.Weights()),
		ui.NewIdeaHandler(appContainer.AnalysisRepo),
		ui.NewChatHandler(appContainer.ChatAgent, appContainer.ChatRepo, appContainer.AnalysisRepo),
		ui.NewUsageHandler(appContainer.UsageService),
	)

	// Start the server
	log.Printf("🚀 Starting Thinkwise server on port %s", appConfig.Server.Port)
	log.Fatal(server.Start(appConfig.Server.Port))
}
