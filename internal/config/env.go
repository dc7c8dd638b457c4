package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Environment variables consulted by FromEnv
const (
	EnvDatabaseURL   = "DATABASE_URL"
	EnvRedisURL      = "REDIS_URL"
	EnvProvider      = "LLM_PROVIDER"
	EnvAPIKey        = "LLM_API_KEY"
	EnvGeminiAPIKey  = "GEMINI_API_KEY"
	EnvGroqAPIKey    = "GROQ_API_KEY"
	EnvOpenAIAPIKey  = "OPENAI_API_KEY"
	EnvBaseURL       = "LLM_BASE_URL"
	EnvBatchSize     = "BATCH_SIZE"
	EnvMaxConcurrent = "MAX_CONCURRENT"
	EnvMaxAttempts   = "MAX_ATTEMPTS"
	EnvJobsPerMinute = "JOBS_PER_MINUTE"
	EnvTitles        = "JOB_TITLES"
)

// FromEnv reads configuration from environment variables. Unset variables
// leave the corresponding field empty so the result can be merged.
func FromEnv() (Config, error) {
	cfg := Config{
		DatabaseURL: os.Getenv(EnvDatabaseURL),
		RedisURL:    os.Getenv(EnvRedisURL),
		Provider:    os.Getenv(EnvProvider),
		BaseURL:     os.Getenv(EnvBaseURL),
	}
	cfg.APIKey = APIKeyFromEnv(cfg.Provider)

	var err error
	if cfg.BatchSize, err = intFromEnv(EnvBatchSize); err != nil {
		return Config{}, err
	}
	if cfg.MaxConcurrent, err = intFromEnv(EnvMaxConcurrent); err != nil {
		return Config{}, err
	}
	if cfg.MaxAttempts, err = intFromEnv(EnvMaxAttempts); err != nil {
		return Config{}, err
	}
	if cfg.JobsPerMinute, err = intFromEnv(EnvJobsPerMinute); err != nil {
		return Config{}, err
	}

	if titles := os.Getenv(EnvTitles); titles != "" {
		for _, t := range strings.Split(titles, ",") {
			if t = strings.TrimSpace(t); t != "" {
				cfg.Titles = append(cfg.Titles, t)
			}
		}
	}
	return cfg, nil
}

// APIKeyFromEnv returns LLM_API_KEY, falling back to the provider's own variable
func APIKeyFromEnv(provider string) string {
	if key := os.Getenv(EnvAPIKey); key != "" {
		return key
	}
	if provider == "openai" {
		if key := os.Getenv(EnvGroqAPIKey); key != "" {
			return key
		}
		return os.Getenv(EnvOpenAIAPIKey)
	}
	return os.Getenv(EnvGeminiAPIKey)
}

func intFromEnv(name string) (int, error) {
	s := os.Getenv(name)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", name, err)
	}
	return n, nil
}
