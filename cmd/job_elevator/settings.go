package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/jonathan/job-elevator/internal/config"
	"github.com/spf13/cobra"
)

var (
	configPath  string
	databaseURL string
	apiKey      string
	provider    string
	verbose     bool
	logFormat   string
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	flags.StringVar(&databaseURL, "db-url", "", "PostgreSQL connection URL (defaults to DATABASE_URL env var)")
	flags.StringVar(&apiKey, "api-key", "", "LLM API key (defaults to LLM_API_KEY, then GEMINI_API_KEY or GROQ_API_KEY)")
	flags.StringVar(&provider, "provider", "", "LLM provider: gemini or openai")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Print detailed debug information")
	flags.StringVar(&logFormat, "log-format", "text", "Log format: text or json")
}

// setupLogging installs the default slog handler on stderr
func setupLogging(_ *cobra.Command, _ []string) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(logFormat) {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	case "text", "":
		handler = slog.NewTextHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", logFormat)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

// loadSettings resolves configuration from, in order of priority: explicitly
// set flags, the config file, environment variables and built-in defaults.
func loadSettings(cmd *cobra.Command) (config.Config, error) {
	// Step 1: Load config file if provided
	var cfg config.Config
	if configPath != "" {
		loadedCfg, err := config.LoadConfig(configPath)
		if err != nil {
			return config.Config{}, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loadedCfg
		slog.Debug("loaded config", "path", configPath)
	}

	// Step 2: Apply CLI overrides (command-line args take priority)
	// Only override if the flag was explicitly set
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = databaseURL
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = apiKey
	}
	if cmd.Flags().Changed("provider") {
		cfg.Provider = provider
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = verbose
	}

	// Step 3: Fill gaps from the environment, then from defaults
	env, err := config.FromEnv()
	if err != nil {
		return config.Config{}, err
	}
	if cfg.APIKey == "" {
		env.APIKey = config.APIKeyFromEnv(firstNonEmpty(cfg.Provider, env.Provider))
	}
	cfg = cfg.MergeWithDefaults(env)
	cfg = cfg.MergeWithDefaults(config.Defaults())

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func requireDatabaseURL(cfg config.Config) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("database URL is required (set DATABASE_URL environment variable, database_url in config, or use --db-url flag)")
	}
	return nil
}

func requireAPIKey(cfg config.Config) error {
	if cfg.APIKey == "" {
		return fmt.Errorf("API key is required (set LLM_API_KEY environment variable, api_key in config, or use --api-key flag)")
	}
	return nil
}
