package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"thinkwise/adapters/llm"
	"thinkwise/adapters/search"
	"thinkwise/ai"
	"thinkwise/internal/config"
	"thinkwise/internal/container"
	"thinkwise/internal/evaluation"
	"thinkwise/internal/ingest"
	"thinkwise/internal/migration"
	"thinkwise/internal/ops"
	"thinkwise/models"
	"thinkwise/ui"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "thinkwise",
		Short: "Thinkwise CLI for evaluating idea files without the server",
	}

	rootCmd.AddCommand(newEvaluateCmd())
	rootCmd.AddCommand(newServeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newEvaluateCmd() *cobra.Command {
	var budget int
	var concurrency int
	var valueWeight float64
	var effortWeight float64
	var live bool
	var detailedOutput bool

	cmd := &cobra.Command{
		Use:   "evaluate [idea-file]",
		Short: "Evaluate and rank a local idea file (CSV, JSON, or XLSX)",
		Long: `Evaluate every idea in a local file and print the ranked results.

By default the command runs fully offline against the mock evaluators, so
it works without any credentials. Pass --live to call the configured
OpenAI and Tavily providers instead:
- OPENAI_API_KEY, LLM_MODEL (default: gpt-4o-mini)
- TAVILY_API_KEY (optional; without it context search stays mocked)

Example: thinkwise evaluate ideas.csv --w-value 0.7 --w-effort 0.3 --live`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			weights := models.Weights{Value: valueWeight, Effort: effortWeight}
			if err := weights.Validate(); err != nil {
				return err
			}
			return runEvaluate(cmd.Context(), args[0], budget, concurrency, weights, live, detailedOutput)
		},
	}

	cmd.Flags().IntVar(&budget, "budget", evaluation.DefaultIterationBudget, "Iteration budget per idea")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "Ideas evaluated in parallel")
	cmd.Flags().Float64Var(&valueWeight, "w-value", 0.6, "Weight of the value score")
	cmd.Flags().Float64Var(&effortWeight, "w-effort", 0.4, "Weight of the effort score")
	cmd.Flags().BoolVar(&live, "live", false, "Use the live LLM and search providers from the environment")
	cmd.Flags().BoolVar(&detailedOutput, "detailed", false, "Save the full ranking to a JSON file")

	return cmd
}

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Thinkwise API server",
		Long: `Start the full API server: PostgreSQL-backed analysis storage, JWT
authentication, SSE progress streaming, and the live evaluators.

Requires DATABASE_URL, OPENAI_API_KEY, and JWT_SECRET in the environment
or a .env file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "Listen port (overrides PORT)")

	return cmd
}

func runServe(port string) error {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if port != "" {
		appConfig.Server.Port = port
	}

	db, err := sqlx.Connect("postgres", appConfig.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := migration.NewRunner().Run(context.Background(), db); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}

	appContainer, err := container.New(appConfig)
	if err != nil {
		return fmt.Errorf("failed to create application container: %w", err)
	}
	defer appContainer.Shutdown(context.Background())

	if err := appContainer.InitWithDatabase(db); err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}

	if appConfig.Ops.Enabled {
		opsServer := ops.NewServer(db)
		go func() {
			if err := opsServer.Start(appConfig.Ops.Port); err != nil {
				log.Printf("❌ Ops listener failed: %v", err)
			}
		}()
	}

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

	log.Printf("🚀 Starting Thinkwise server on port %s", appConfig.Server.Port)
	return server.Start(appConfig.Server.Port)
}

// progressPrinter streams batch progress to stdout as ideas finish.
type progressPrinter struct{}

func (progressPrinter) PublishBatchEvent(event evaluation.BatchEvent) {
	switch event.EventType {
	case evaluation.EventIdeaCompleted:
		fmt.Printf("  ✅ idea %s evaluated (%d/%d)\n", event.IdeaID, event.Completed, event.Total)
	case evaluation.EventIdeaFailed:
		fmt.Printf("  ❌ idea %s failed: %s (%d/%d)\n", event.IdeaID, event.Detail, event.Completed, event.Total)
	case evaluation.EventIdeaSkipped:
		fmt.Printf("  ⚠️  idea %s skipped: %s\n", event.IdeaID, event.Detail)
	}
}

func runEvaluate(ctx context.Context, path string, budget, concurrency int, weights models.Weights, live, detailedOutput bool) error {
	if err := godotenv.Load(); err == nil {
		fmt.Println("Loaded environment from .env")
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open idea file: %w", err)
	}
	defer file.Close()

	filename := filepath.Base(path)
	ideas, err := ingest.NewParser().Parse(filename, file)
	if err != nil {
		return fmt.Errorf("failed to parse idea file: %w", err)
	}

	aiConfig := models.DefaultAIConfig()
	tavilyKey := os.Getenv("TAVILY_API_KEY")
	if !live {
		// Offline mode forces the mock providers regardless of environment
		aiConfig.OpenAIKey = ""
		tavilyKey = ""
	} else if aiConfig.OpenAIKey == "" {
		return fmt.Errorf("--live requires OPENAI_API_KEY")
	}

	mode := "offline (mock evaluators)"
	if live {
		mode = fmt.Sprintf("live (%s)", aiConfig.OpenAIModel)
	}
	fmt.Printf("🔬 Evaluating %d ideas from %s, %s...\n", len(ideas), filename, mode)

	llmClient := llm.NewClient(aiConfig)
	searcher := search.NewSearcher(tavilyKey, 5, 30*time.Second)

	recorder := ai.NopUsageRecorder{}
	controller, err := evaluation.NewController(evaluation.Evaluators{
		Context: searcher,
		Effort:  ai.NewEffortAgent(llmClient, aiConfig, recorder),
		Value:   ai.NewValueAgent(llmClient, aiConfig, recorder),
		Summary: ai.NewSummaryAgent(llmClient, aiConfig, recorder),
	}, budget)
	if err != nil {
		return fmt.Errorf("failed to create controller: %w", err)
	}

	orchestrator, err := evaluation.NewBatchOrchestrator(controller, concurrency, progressPrinter{})
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}

	startTime := time.Now()
	result := orchestrator.RunBatch(ctx, filename, ideas)
	ranking := evaluation.Rank(result, weights)
	elapsed := time.Since(startTime)

	printRanking(filename, ideas, ranking, weights, elapsed)

	if detailedOutput {
		output := map[string]interface{}{
			"filename":        filename,
			"weights":         weights,
			"processing_time": elapsed.String(),
			"ranking":         ranking,
		}
		jsonData, _ := json.MarshalIndent(output, "", "  ")
		outputFile := strings.TrimSuffix(filename, filepath.Ext(filename)) + "_analysis.json"
		if err := os.WriteFile(outputFile, jsonData, 0644); err == nil {
			fmt.Printf("\n💾 Detailed results saved to: %s\n", outputFile)
		}
	}

	return nil
}

func printRanking(filename string, ideas map[string]models.Idea, ranking models.RankingSummary, weights models.Weights, elapsed time.Duration) {
	fmt.Printf("\n📊 EVALUATION RESULTS\n")
	fmt.Printf("File: %s\n", filename)
	fmt.Printf("Processing Time: %v\n", elapsed)
	fmt.Printf("Ideas Evaluated: %d\n", len(ranking.AllIdeas))
	fmt.Printf("Weights: value %.2f / effort %.2f\n", weights.Value, weights.Effort)

	if len(ranking.Top3) > 0 {
		fmt.Printf("\n🏆 TOP IDEAS:\n")
		for i, idea := range ranking.Top3 {
			title := idea.Title
			if title == "" {
				title = "Idea " + idea.IdeaID
			}
			fmt.Printf("%d. %s (idea %s)\n", i+1, title, idea.IdeaID)
			fmt.Printf("   combined %.2f  (value %.2f, effort %.2f)\n",
				idea.CombinedScore, idea.ValueScore, idea.EffortScore)
			if idea.Summary != nil && idea.Summary.AggregatedReasoning != "" {
				fmt.Printf("   %s\n", idea.Summary.AggregatedReasoning)
			}
		}
	}

	// Ideas that never produced a final summary, with their markers
	var unranked []string
	for _, id := range evaluation.SortedIdeaIDs(ranking.AllIdeas) {
		if !ranking.AllIdeas[id].Rankable() {
			unranked = append(unranked, id)
		}
	}
	if len(unranked) > 0 {
		fmt.Printf("\n❌ NOT RANKED (%d):\n", len(unranked))
		for _, id := range unranked {
			res := ranking.AllIdeas[id]
			reason := res.Error
			if reason == "" && res.Evidence != nil && res.Evidence.Summary != nil {
				reason = res.Evidence.Summary.Error
			}
			if reason == "" {
				reason = "no final summary produced"
			}
			title := ideas[id].Title
			if title == "" {
				title = "Idea " + id
			}
			fmt.Printf("• %s (idea %s): %s\n", title, id, reason)
		}
	}
}
