package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, DefaultSolanaRPCURL, cfg.SolanaRPCURL)
	assert.Equal(t, DefaultMarketDataURL, cfg.MarketDataURL)
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.True(t, cfg.MetricsEnabled)
}

func TestLoad_ProviderSelection(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")
	t.Setenv("ANTHROPIC_MODEL", "claude-3-5-sonnet-latest")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ProviderAnthropic, cfg.Provider)
	assert.Equal(t, "sk-ant-test", cfg.ProviderAPIKey())
	assert.Equal(t, "claude-3-5-sonnet-latest", cfg.ProviderModel())
}

func TestLoad_InvalidProvider(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "llama-at-home")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM_PROVIDER")
}

func TestLoad_EndpointOverrides(t *testing.T) {
	t.Setenv("SOLANA_RPC_URL", "https://mainnet.helius-rpc.com/?api-key=abc")
	t.Setenv("MARKET_DATA_URL", "http://localhost:9999")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://mainnet.helius-rpc.com/?api-key=abc", cfg.SolanaRPCURL)
	assert.Equal(t, "http://localhost:9999", cfg.MarketDataURL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name: "valid",
			cfg: Config{
				SolanaRPCURL:  DefaultSolanaRPCURL,
				MarketDataURL: DefaultMarketDataURL,
				Provider:      ProviderGemini,
			},
		},
		{
			name: "missing rpc url",
			cfg: Config{
				MarketDataURL: DefaultMarketDataURL,
				Provider:      ProviderOpenAI,
			},
			wantErr: "SolanaRPCURL is required",
		},
		{
			name: "missing market data url",
			cfg: Config{
				SolanaRPCURL: DefaultSolanaRPCURL,
				Provider:     ProviderOpenAI,
			},
			wantErr: "MarketDataURL is required",
		},
		{
			name: "bad provider",
			cfg: Config{
				SolanaRPCURL:  DefaultSolanaRPCURL,
				MarketDataURL: DefaultMarketDataURL,
				Provider:      "bard",
			},
			wantErr: "Provider must be one of",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestProviderAPIKey_PerProvider(t *testing.T) {
	cfg := Config{
		OpenAIAPIKey:    "key-openai",
		AnthropicAPIKey: "key-anthropic",
		GeminiAPIKey:    "key-gemini",
		MistralAPIKey:   "key-mistral",
	}

	for provider, want := range map[string]string{
		ProviderOpenAI:    "key-openai",
		ProviderAnthropic: "key-anthropic",
		ProviderGemini:    "key-gemini",
		ProviderMistral:   "key-mistral",
	} {
		cfg.Provider = provider
		assert.Equal(t, want, cfg.ProviderAPIKey(), provider)
	}
}
