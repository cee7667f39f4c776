// Package config loads flat environment-variable configuration for the
// binaries. Library packages take their settings as arguments; only the
// entrypoints read the environment.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Extraction ExtractionConfig
	BigQuery   BigQueryConfig
	Mongo      MongoConfig
	Worker     WorkerConfig
}

// ExtractionConfig controls the AI document extraction call.
type ExtractionConfig struct {
	Model   string
	Timeout time.Duration
}

// BigQueryConfig locates the expense tables.
type BigQueryConfig struct {
	ProjectID string
	Dataset   string
}

// MongoConfig locates the alternative Mongo-backed store. Empty URI means
// the BigQuery store is used.
type MongoConfig struct {
	URI      string
	Database string
}

// WorkerConfig sizes the in-memory import job queue.
type WorkerConfig struct {
	QueueSize int
	Bucket    string
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Extraction: ExtractionConfig{
			Model:   getEnv("EXTRACTION_MODEL", "gemini-2.5-flash"),
			Timeout: getEnvAsDuration("EXTRACTION_TIMEOUT", 2*time.Minute),
		},
		BigQuery: BigQueryConfig{
			ProjectID: getEnv("BQ_PROJECT_ID", ""),
			Dataset:   getEnv("BQ_DATASET", "expenses"),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", ""),
			Database: getEnv("MONGO_DATABASE", "meucartao"),
		},
		Worker: WorkerConfig{
			QueueSize: getEnvAsInt("WORKER_QUEUE_SIZE", 100),
			Bucket:    getEnv("STATEMENT_BUCKET", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
