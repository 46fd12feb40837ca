// Package llm provides a uniform text-generation contract over several
// interchangeable hosted providers. The active provider is selected once per
// process from configuration; each implementation adapts the shared
// prompt/response shape to its own wire format.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/txplain/txplain/service/config"
	"github.com/txplain/txplain/service/metrics"
)

var (
	// ErrMissingCredential means no API key is configured for the provider.
	ErrMissingCredential = errors.New("missing provider credential")

	// ErrBadStatus means the provider returned a non-success HTTP status.
	ErrBadStatus = errors.New("provider returned non-success status")

	// ErrMalformedResponse means the provider response body could not be
	// parsed or contained no generated text.
	ErrMalformedResponse = errors.New("malformed provider response")
)

// Generation parameters shared by all providers.
const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 512

	maxResponseBodySize = 1 << 20 // 1MB
)

// Provider generates text from a single prompt.
// Callers are expected to substitute a static fallback on error rather than
// fail the whole request.
type Provider interface {
	// Name returns the provider identifier (e.g., "openai").
	Name() string

	// Generate sends the prompt and returns the generated text.
	Generate(ctx context.Context, prompt string) (string, error)
}

// FromConfig selects the active provider from configuration. A missing
// credential does not fail construction; Generate reports it per call so the
// request handler can map it to a configuration error.
func FromConfig(cfg *config.Config, httpClient *http.Client, m *metrics.Metrics, logger *slog.Logger) (Provider, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}

	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel, httpClient, m, logger), nil
	case config.ProviderAnthropic:
		return NewAnthropic(cfg.AnthropicAPIKey, cfg.AnthropicModel, httpClient, m, logger), nil
	case config.ProviderGemini:
		return NewGemini(cfg.GeminiAPIKey, cfg.GeminiModel, httpClient, m, logger), nil
	case config.ProviderMistral:
		return NewMistral(cfg.MistralAPIKey, cfg.MistralModel, httpClient, m, logger), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// postJSON sends a JSON POST to a provider endpoint and returns the raw
// response body. Non-2xx statuses are reported as ErrBadStatus with the
// status code and a body excerpt for debugging.
func postJSON(ctx context.Context, client *http.Client, m *metrics.Metrics, provider, url string, headers map[string]string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := client.Do(req)
	duration := time.Since(start).Seconds()

	status := "success"
	if err != nil {
		status = "error"
	} else if resp.StatusCode < 200 || resp.StatusCode > 299 {
		status = "error"
	}
	if m != nil {
		m.RecordGeneration(provider, status, duration)
	}

	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt := string(respBody)
		if len(excerpt) > 200 {
			excerpt = excerpt[:200]
		}
		return nil, fmt.Errorf("%w: %d: %s", ErrBadStatus, resp.StatusCode, excerpt)
	}

	return respBody, nil
}
