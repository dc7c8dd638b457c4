// Package llm provides centralized LLM configuration and client abstractions.
// Model tiers let extraction and grading pick different models without knowing
// which provider serves them.
package llm

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for simple tasks: grading, classification
	TierLite ModelTier = "lite"
	// TierStandard is for moderate reasoning: structured output
	TierStandard ModelTier = "standard"
	// TierAdvanced is for complex reasoning: extraction with feedback
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

// Provider constants define supported LLM providers
const (
	// ProviderGemini is the Google Gemini provider
	ProviderGemini Provider = "gemini"
	// ProviderOpenAI is any OpenAI-compatible chat completions API (OpenAI, Groq, vLLM)
	ProviderOpenAI Provider = "openai"
)

// GroqBaseURL is the OpenAI-compatible endpoint used by DefaultOpenAIConfig
const GroqBaseURL = "https://api.groq.com/openai/v1"

// Config holds the model configuration for the application
type Config struct {
	Provider    Provider
	BaseURL     string // OpenAI-compatible providers only
	Models      map[ModelTier]string
	Temperature float64
	MaxRetries  int // retries inside a single call, before the failure surfaces
}

// DefaultConfig returns the default configuration (currently Gemini)
func DefaultConfig() *Config {
	return DefaultGeminiConfig()
}

// DefaultGeminiConfig returns the default Gemini configuration
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		Temperature: 0.1,
		MaxRetries:  2,
	}
}

// DefaultOpenAIConfig returns an OpenAI-compatible configuration pointed at Groq
func DefaultOpenAIConfig() *Config {
	return &Config{
		Provider: ProviderOpenAI,
		BaseURL:  GroqBaseURL,
		Models: map[ModelTier]string{
			TierLite:     "llama-3.1-8b-instant",
			TierStandard: "llama-3.3-70b-versatile",
			TierAdvanced: "llama-3.3-70b-versatile",
		},
		Temperature: 0.1,
		MaxRetries:  2,
	}
}

// ConfigFor returns the default configuration for a provider name.
// Unknown names fall back to DefaultConfig.
func ConfigFor(provider string) *Config {
	switch Provider(provider) {
	case ProviderOpenAI:
		return DefaultOpenAIConfig()
	default:
		return DefaultConfig()
	}
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	// Fallback chain: try standard, then lite
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return "" // No model configured
}

// WithModel returns a new Config with a specific model for a tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	newConfig := c.clone()
	newConfig.Models[tier] = model
	return newConfig
}

// WithBaseURL returns a new Config pointed at a different endpoint
func (c *Config) WithBaseURL(baseURL string) *Config {
	newConfig := c.clone()
	newConfig.BaseURL = baseURL
	return newConfig
}

func (c *Config) clone() *Config {
	newConfig := *c
	newConfig.Models = make(map[ModelTier]string, len(c.Models))
	for k, v := range c.Models {
		newConfig.Models[k] = v
	}
	return &newConfig
}
