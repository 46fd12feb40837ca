package config

import (
	"fmt"
	"os"
)

// Supported text-generation providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderMistral   = "mistral"
)

// Default upstream endpoints. Override via environment for premium RPC
// endpoints (include the API key in the URL) or for testing.
const (
	DefaultSolanaRPCURL  = "https://api.mainnet-beta.solana.com"
	DefaultMarketDataURL = "https://lite-api.jup.ag"
)

// Config holds all application configuration loaded from environment variables.
// All required fields are validated at startup to ensure fail-fast behavior.
type Config struct {
	// Server configuration
	ServerAddr string
	LogLevel   string

	// Solana configuration
	SolanaRPCURL string

	// Market data configuration
	MarketDataURL string

	// Text-generation provider configuration
	Provider        string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	GeminiAPIKey    string
	MistralAPIKey   string
	OpenAIModel     string
	AnthropicModel  string
	GeminiModel     string
	MistralModel    string

	// NATS configuration (optional; empty disables event publishing)
	NATSURL string

	// Metrics configuration
	MetricsEnabled bool
}

// Load reads configuration from environment variables and validates all required fields.
// Returns an error if any required configuration is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{}
	var errs []error

	// Server configuration
	cfg.ServerAddr = getEnvOrDefault("SERVER_ADDR", ":8080")
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	// Upstream endpoints
	cfg.SolanaRPCURL = getEnvOrDefault("SOLANA_RPC_URL", DefaultSolanaRPCURL)
	cfg.MarketDataURL = getEnvOrDefault("MARKET_DATA_URL", DefaultMarketDataURL)

	// Provider selection and credentials. The credential for the active
	// provider is checked per-request by the handler, so the server can start
	// before keys are provisioned; the selector itself must be valid now.
	cfg.Provider = getEnvOrDefault("LLM_PROVIDER", ProviderOpenAI)
	if !validProvider(cfg.Provider) {
		errs = append(errs, fmt.Errorf("LLM_PROVIDER must be one of openai, anthropic, gemini, mistral (got %q)", cfg.Provider))
	}

	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.MistralAPIKey = os.Getenv("MISTRAL_API_KEY")

	cfg.OpenAIModel = os.Getenv("OPENAI_MODEL")
	cfg.AnthropicModel = os.Getenv("ANTHROPIC_MODEL")
	cfg.GeminiModel = os.Getenv("GEMINI_MODEL")
	cfg.MistralModel = os.Getenv("MISTRAL_MODEL")

	// NATS configuration (optional)
	cfg.NATSURL = os.Getenv("NATS_URL")

	// Metrics configuration
	cfg.MetricsEnabled = getEnvOrDefault("METRICS_ENABLED", "true") == "true"

	// Return all validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %v", errs)
	}

	return cfg, nil
}

// MustLoad is like Load but panics if configuration is invalid.
// Useful for server initialization where misconfiguration should halt startup.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// Validate checks if the configuration is valid.
// This is useful for testing configuration without loading from env.
func (c *Config) Validate() error {
	var errs []error

	if c.SolanaRPCURL == "" {
		errs = append(errs, fmt.Errorf("SolanaRPCURL is required"))
	}

	if c.MarketDataURL == "" {
		errs = append(errs, fmt.Errorf("MarketDataURL is required"))
	}

	if !validProvider(c.Provider) {
		errs = append(errs, fmt.Errorf("Provider must be one of openai, anthropic, gemini, mistral"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errs)
	}

	return nil
}

// ProviderAPIKey returns the credential configured for the active provider.
// An empty string means the provider cannot be used.
func (c *Config) ProviderAPIKey() string {
	switch c.Provider {
	case ProviderOpenAI:
		return c.OpenAIAPIKey
	case ProviderAnthropic:
		return c.AnthropicAPIKey
	case ProviderGemini:
		return c.GeminiAPIKey
	case ProviderMistral:
		return c.MistralAPIKey
	default:
		return ""
	}
}

// ProviderModel returns the model override configured for the active provider,
// or empty for the provider default.
func (c *Config) ProviderModel() string {
	switch c.Provider {
	case ProviderOpenAI:
		return c.OpenAIModel
	case ProviderAnthropic:
		return c.AnthropicModel
	case ProviderGemini:
		return c.GeminiModel
	case ProviderMistral:
		return c.MistralModel
	default:
		return ""
	}
}

func validProvider(p string) bool {
	switch p {
	case ProviderOpenAI, ProviderAnthropic, ProviderGemini, ProviderMistral:
		return true
	}
	return false
}

// getEnvOrDefault returns the environment variable value or a default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
