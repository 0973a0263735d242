// Package config provides application configuration loaded from environment variables.
package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/ugobe007/hotmatch/internal/matcherrors"
)

// Config holds all application configuration.
type Config struct {
	DatabaseURL string
	LogLevel    string

	// OpenAI API key for embedding generation; empty means the deterministic
	// mock embedder is used (local/dev runs).
	OpenAIAPIKey string

	// Optional external similarity service. When unset, candidate generation
	// uses the in-database pgvector path exclusively.
	SimilarityServiceURL string
	SimilarityAPIKey     string

	// Pipeline tuning.
	BatchSize        int     // match rows per upsert batch
	BatchesPerSecond float64 // inter-batch pacing
	CandidateLimit   int     // top-K candidates per startup
	MinSimilarity    float64 // vector similarity floor for candidates
	PersistFloor     int     // scores below this are never written
	PublishFloor     int     // scores at/above this are suggested, below pending
	TopMatchesKept   int     // matches retained per startup

	// Embedding backfill.
	EmbeddingModel      string
	EmbeddingJobRetries int
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat retrieves an environment variable as a float or returns a default value.
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// Load reads configuration from environment variables and returns a Config struct.
// It automatically loads .env file if it exists.
// DATABASE_URL is required and the function will return an error if it's not set.
func Load() (*Config, error) {
	// Load .env file if it exists. Skip logging when absent (e.g. env from secrets/parameter store).
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, matcherrors.NewConfigError("DATABASE_URL", "DATABASE_URL environment variable is required but not set")
	}

	batchSize := getEnvAsInt("MATCH_BATCH_SIZE", 500)
	if batchSize <= 0 {
		return nil, matcherrors.NewConfigError("MATCH_BATCH_SIZE", "MATCH_BATCH_SIZE must be a positive integer")
	}

	candidateLimit := getEnvAsInt("CANDIDATE_LIMIT", 25)
	if candidateLimit <= 0 {
		return nil, matcherrors.NewConfigError("CANDIDATE_LIMIT", "CANDIDATE_LIMIT must be a positive integer")
	}

	persistFloor := getEnvAsInt("PERSIST_FLOOR", 20)
	publishFloor := getEnvAsInt("PUBLISH_FLOOR", 35)
	if publishFloor < persistFloor {
		return nil, matcherrors.NewConfigError("PUBLISH_FLOOR", "PUBLISH_FLOOR must not be below PERSIST_FLOOR")
	}

	cfg := &Config{
		DatabaseURL: databaseURL,
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),

		SimilarityServiceURL: getEnv("SIMILARITY_SERVICE_URL", ""),
		SimilarityAPIKey:     getEnv("SIMILARITY_API_KEY", ""),

		BatchSize:        batchSize,
		BatchesPerSecond: getEnvAsFloat("BATCHES_PER_SECOND", 2),
		CandidateLimit:   candidateLimit,
		MinSimilarity:    getEnvAsFloat("MIN_SIMILARITY", 0.30),
		PersistFloor:     persistFloor,
		PublishFloor:     publishFloor,
		TopMatchesKept:   getEnvAsInt("TOP_MATCHES_KEPT", 10),

		EmbeddingModel:      getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingJobRetries: getEnvAsInt("EMBEDDING_JOB_RETRIES", 3),
	}

	return cfg, nil
}
