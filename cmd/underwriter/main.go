// Underwriter server: conversational mortgage underwriting assistant.
// Serves the streaming chat API, routes turns through the tool registry,
// and maintains conversation summaries in the background.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/lendwise/underwriter/pkg/agent"
	"github.com/lendwise/underwriter/pkg/api"
	"github.com/lendwise/underwriter/pkg/config"
	"github.com/lendwise/underwriter/pkg/database"
	"github.com/lendwise/underwriter/pkg/llm"
	"github.com/lendwise/underwriter/pkg/queue"
	"github.com/lendwise/underwriter/pkg/retrieval"
	"github.com/lendwise/underwriter/pkg/services"
	"github.com/lendwise/underwriter/pkg/version"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("Could not load .env file, continuing with existing environment", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	slog.Info("Starting underwriter", "version", version.Full(), "http_port", cfg.HTTPPort, "model", cfg.GenAIModel)

	ctx := context.Background()

	// 1. Database
	dbConfig, err := database.LoadConfigFromEnv()
	if err != nil {
		slog.Error("Failed to load database config", "error", err)
		os.Exit(1)
	}
	dbClient, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbClient.Close()
	slog.Info("Connected to PostgreSQL database")

	// 2. Domain services
	conversationService := services.NewConversationService(dbClient)
	messageService := services.NewMessageService(dbClient)
	catalogService := services.NewCatalogService(dbClient)
	slog.Info("Services initialized")

	// 3. Inference and retrieval clients
	llmClient, err := llm.NewGenAIClient(ctx, cfg.GenAIAPIKey, cfg.GenAIModel)
	if err != nil {
		slog.Error("Failed to initialize LLM client", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := llmClient.Close(); err != nil {
			slog.Error("Error closing LLM client", "error", err)
		}
	}()

	embedder, err := retrieval.NewGenAIEmbedder(ctx, cfg.GenAIAPIKey, cfg.EmbeddingModel)
	if err != nil {
		slog.Error("Failed to initialize embedder", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := embedder.Close(); err != nil {
			slog.Error("Error closing embedder", "error", err)
		}
	}()
	documentStore := retrieval.NewDocumentStore(dbClient, embedder)
	slog.Info("Inference clients initialized", "model", cfg.GenAIModel, "embedding_model", cfg.EmbeddingModel)

	// 4. Agent pipeline
	resolver := agent.NewProgramResolver(catalogService, cfg.MatchThreshold)
	assistant := agent.NewSQLAssistant(llmClient, catalogService)
	registry, err := agent.NewToolset(catalogService, resolver, documentStore, assistant, cfg.RetrievalK)
	if err != nil {
		slog.Error("Failed to build tool registry", "error", err)
		os.Exit(1)
	}
	classifier := agent.NewClassifier(catalogService, resolver)
	compactor := agent.NewCompactor(llmClient, messageService, conversationService, cfg.SummaryWindow)

	tasks := queue.New(cfg.QueueWorkers, cfg.LLMTimeout+30*time.Second)
	orchestrator := agent.NewOrchestrator(
		registry, classifier,
		conversationService, messageService,
		compactor, tasks,
		llmClient, cfg.LLMTimeout,
	)
	slog.Info("Agent initialized", "tools", registry.Names(), "match_threshold", cfg.MatchThreshold)

	// 5. HTTP server
	server := api.NewServer(orchestrator, conversationService, messageService, dbClient, cfg.HTTPPort)
	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", cfg.HTTPPort)
		if err := server.Start(); err != nil {
			errCh <- err
		}
	}()

	// 6. Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	select {
	case sig := <-sigCh:
		slog.Info("Shutdown signal received", "signal", sig)
	case err := <-errCh:
		slog.Error("HTTP server error", "error", err)
	}

	// Stop accepting requests, finish in-flight turns, drain background work.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown failed", "error", err)
	}
	orchestrator.Stop()
	tasks.Stop()
	slog.Info("Shutdown complete")
}
