// Package config loads application settings from the environment.
//
// Every tunable has a default that works for local development; production
// deployments override through environment variables (or a .env file loaded
// by main before config is read).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application settings.
type Config struct {
	// HTTPPort is the port the API server listens on.
	HTTPPort int

	// GenAIAPIKey authenticates calls to the Gemini API. Required.
	GenAIAPIKey string

	// GenAIModel is the inference model used for synthesis, SQL generation
	// and summarization.
	GenAIModel string

	// EmbeddingModel is the embedding model used for document retrieval. It
	// must match the model used by the ingestion pipeline.
	EmbeddingModel string

	// MatchThreshold is the minimum fuzzy similarity score (0-100) for a
	// catalog name to be accepted as a match.
	MatchThreshold int

	// SummaryWindow is the number of messages per role fed to the
	// conversation summarizer.
	SummaryWindow int

	// RetrievalK is the number of document chunks returned per search.
	RetrievalK int

	// LLMTimeout bounds a single model call.
	LLMTimeout time.Duration

	// QueueWorkers is the number of background task workers.
	QueueWorkers int
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPPort:       getEnvInt("HTTP_PORT", 8080),
		GenAIAPIKey:    os.Getenv("GENAI_API_KEY"),
		GenAIModel:     getEnv("GENAI_MODEL", "gemini-2.0-flash"),
		EmbeddingModel: getEnv("GENAI_EMBEDDING_MODEL", "gemini-embedding-001"),
		MatchThreshold: getEnvInt("MATCH_THRESHOLD", 85),
		SummaryWindow:  getEnvInt("SUMMARY_WINDOW", 2),
		RetrievalK:     getEnvInt("RETRIEVAL_K", 5),
		LLMTimeout:     getEnvDuration("LLM_TIMEOUT", 60*time.Second),
		QueueWorkers:   getEnvInt("QUEUE_WORKERS", 2),
	}

	if cfg.GenAIAPIKey == "" {
		return nil, fmt.Errorf("GENAI_API_KEY is required")
	}
	if cfg.MatchThreshold < 0 || cfg.MatchThreshold > 100 {
		return nil, fmt.Errorf("MATCH_THRESHOLD must be between 0 and 100, got %d", cfg.MatchThreshold)
	}
	if cfg.SummaryWindow < 1 {
		return nil, fmt.Errorf("SUMMARY_WINDOW must be at least 1, got %d", cfg.SummaryWindow)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
