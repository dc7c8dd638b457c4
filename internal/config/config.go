// Package config provides configuration loading and validation for the CLI.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jonathan/job-elevator/internal/batch"
	"github.com/jonathan/job-elevator/internal/llm"
	"github.com/jonathan/job-elevator/internal/scheduler"
	"github.com/jonathan/job-elevator/internal/workflow"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Connections
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL
	RedisURL    string `json:"redis_url,omitempty"`    // Outcome notifications; empty disables them
	RedisStream string `json:"redis_stream,omitempty"` // Stream name for outcome notifications

	// LLM
	Provider string            `json:"provider,omitempty"` // "gemini" or "openai"
	APIKey   string            `json:"api_key,omitempty"`  // Provider API key
	BaseURL  string            `json:"base_url,omitempty"` // OpenAI-compatible endpoint
	Models   map[string]string `json:"models,omitempty"`   // Tier ("lite", "standard", "advanced") to model name

	// Batch
	BatchSize     int      `json:"batch_size,omitempty"`
	MaxConcurrent int      `json:"max_concurrent,omitempty"`
	MaxAttempts   int      `json:"max_attempts,omitempty"`
	JobsPerMinute int      `json:"jobs_per_minute,omitempty"`
	Titles        []string `json:"titles,omitempty"`
	Schedule      string   `json:"schedule,omitempty"` // Cron spec for the schedule command

	// Threshold policy
	AcceptScore              float64 `json:"accept_score,omitempty"`
	BestEffortScore          float64 `json:"best_effort_score,omitempty"`
	AcceptBestEffort         bool    `json:"accept_best_effort,omitempty"`
	RequireImprovableSection bool    `json:"require_improvable_section,omitempty"`
	StepTimeout              string  `json:"step_timeout,omitempty"` // Go duration, e.g. "90s"

	Verbose bool `json:"verbose,omitempty"` // Print detailed debug information
}

// DefaultSchedule runs a batch every 30 minutes
const DefaultSchedule = "@every 30m"

// Defaults returns the built-in configuration
func Defaults() Config {
	policy := workflow.DefaultPolicy()
	opts := batch.DefaultOptions()
	return Config{
		Provider:        string(llm.ProviderGemini),
		BatchSize:       opts.BatchSize,
		MaxConcurrent:   opts.MaxConcurrent,
		MaxAttempts:     opts.MaxAttempts,
		Schedule:        DefaultSchedule,
		AcceptScore:     policy.AcceptScore,
		BestEffortScore: policy.BestEffortScore,
		StepTimeout:     policy.StepTimeout.String(),
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	switch llm.Provider(c.Provider) {
	case "", llm.ProviderGemini, llm.ProviderOpenAI:
	default:
		return fmt.Errorf("config error: unknown provider %q", c.Provider)
	}

	for tier := range c.Models {
		switch llm.ModelTier(tier) {
		case llm.TierLite, llm.TierStandard, llm.TierAdvanced:
		default:
			return fmt.Errorf("config error: unknown model tier %q", tier)
		}
	}

	// Validate numeric ranges
	if c.BatchSize < 0 {
		return fmt.Errorf("config error: 'batch_size' must be non-negative")
	}
	if c.MaxConcurrent < 0 {
		return fmt.Errorf("config error: 'max_concurrent' must be non-negative")
	}
	if c.MaxAttempts < 0 {
		return fmt.Errorf("config error: 'max_attempts' must be non-negative")
	}
	if c.JobsPerMinute < 0 {
		return fmt.Errorf("config error: 'jobs_per_minute' must be non-negative")
	}
	if c.AcceptScore < 0 || c.AcceptScore > 1 {
		return fmt.Errorf("config error: 'accept_score' must be between 0 and 1")
	}
	if c.BestEffortScore < 0 || c.BestEffortScore > 1 {
		return fmt.Errorf("config error: 'best_effort_score' must be between 0 and 1")
	}
	if c.AcceptScore > 0 && c.BestEffortScore > c.AcceptScore {
		return fmt.Errorf("config error: 'best_effort_score' cannot exceed 'accept_score'")
	}

	if c.StepTimeout != "" {
		d, err := time.ParseDuration(c.StepTimeout)
		if err != nil {
			return fmt.Errorf("config error: invalid 'step_timeout': %w", err)
		}
		if d < 0 {
			return fmt.Errorf("config error: 'step_timeout' must be non-negative")
		}
	}

	if c.Schedule != "" {
		noop := func(context.Context) error { return nil }
		if _, err := scheduler.New(c.Schedule, noop); err != nil {
			return fmt.Errorf("config error: %w", err)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.RedisURL == "" {
		result.RedisURL = defaults.RedisURL
	}
	if result.RedisStream == "" {
		result.RedisStream = defaults.RedisStream
	}
	if result.Provider == "" {
		result.Provider = defaults.Provider
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.BaseURL == "" {
		result.BaseURL = defaults.BaseURL
	}
	if result.Schedule == "" {
		result.Schedule = defaults.Schedule
	}
	if result.StepTimeout == "" {
		result.StepTimeout = defaults.StepTimeout
	}

	// Int fields: use default if zero
	if result.BatchSize == 0 {
		result.BatchSize = defaults.BatchSize
	}
	if result.MaxConcurrent == 0 {
		result.MaxConcurrent = defaults.MaxConcurrent
	}
	if result.MaxAttempts == 0 {
		result.MaxAttempts = defaults.MaxAttempts
	}
	if result.JobsPerMinute == 0 {
		result.JobsPerMinute = defaults.JobsPerMinute
	}

	// Float fields
	if result.AcceptScore == 0 {
		result.AcceptScore = defaults.AcceptScore
	}
	if result.BestEffortScore == 0 {
		result.BestEffortScore = defaults.BestEffortScore
	}

	// Collections: per-key for models, whole list for titles
	if len(defaults.Models) > 0 {
		models := make(map[string]string, len(defaults.Models)+len(result.Models))
		for k, v := range defaults.Models {
			models[k] = v
		}
		for k, v := range result.Models {
			models[k] = v
		}
		result.Models = models
	}
	if len(result.Titles) == 0 {
		result.Titles = defaults.Titles
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// LLMConfig builds the provider configuration
func (c *Config) LLMConfig() *llm.Config {
	cfg := llm.ConfigFor(c.Provider)
	if c.BaseURL != "" {
		cfg = cfg.WithBaseURL(c.BaseURL)
	}
	for tier, model := range c.Models {
		cfg = cfg.WithModel(llm.ModelTier(tier), model)
	}
	return cfg
}

// Policy builds the workflow threshold policy
func (c *Config) Policy() (workflow.Policy, error) {
	policy := workflow.DefaultPolicy()
	if c.AcceptScore > 0 {
		policy.AcceptScore = c.AcceptScore
	}
	if c.BestEffortScore > 0 {
		policy.BestEffortScore = c.BestEffortScore
	}
	policy.AcceptBestEffort = c.AcceptBestEffort
	policy.RequireImprovableSection = c.RequireImprovableSection
	if c.StepTimeout != "" {
		d, err := time.ParseDuration(c.StepTimeout)
		if err != nil {
			return workflow.Policy{}, fmt.Errorf("invalid step timeout: %w", err)
		}
		policy.StepTimeout = d
	}
	if err := policy.Validate(); err != nil {
		return workflow.Policy{}, err
	}
	return policy, nil
}

// BatchOptions builds the orchestrator options
func (c *Config) BatchOptions() batch.Options {
	opts := batch.DefaultOptions()
	if c.BatchSize > 0 {
		opts.BatchSize = c.BatchSize
	}
	if c.MaxConcurrent > 0 {
		opts.MaxConcurrent = c.MaxConcurrent
	}
	if c.MaxAttempts > 0 {
		opts.MaxAttempts = c.MaxAttempts
	}
	opts.JobsPerMinute = c.JobsPerMinute
	opts.Titles = c.Titles
	return opts
}
