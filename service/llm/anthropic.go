package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/txplain/txplain/service/metrics"
)

const (
	anthropicBaseURL      = "https://api.anthropic.com"
	anthropicDefaultModel = "claude-3-5-haiku-latest"
	anthropicVersion      = "2023-06-01"
)

// Anthropic generates text via the Anthropic messages API.
type Anthropic struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewAnthropic creates an Anthropic provider. An empty model selects the default.
func NewAnthropic(apiKey, model string, httpClient *http.Client, m *metrics.Metrics, logger *slog.Logger) *Anthropic {
	if model == "" {
		model = anthropicDefaultModel
	}
	return &Anthropic{
		baseURL:    anthropicBaseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: httpClient,
		metrics:    m,
		logger:     logger,
	}
}

func (p *Anthropic) Name() string { return "anthropic" }

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (p *Anthropic) Generate(ctx context.Context, prompt string) (string, error) {
	if p.apiKey == "" {
		return "", ErrMissingCredential
	}

	payload := anthropicRequest{
		Model:       p.model,
		MaxTokens:   defaultMaxTokens,
		Temperature: defaultTemperature,
		Messages: []anthropicMessage{
			{Role: "user", Content: prompt},
		},
	}
	headers := map[string]string{
		"x-api-key":         p.apiKey,
		"anthropic-version": anthropicVersion,
	}

	body, err := postJSON(ctx, p.httpClient, p.metrics, p.Name(), p.baseURL+"/v1/messages", headers, payload)
	if err != nil {
		return "", err
	}

	var resp anthropicResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	for _, block := range resp.Content {
		if block.Type == "text" && strings.TrimSpace(block.Text) != "" {
			return strings.TrimSpace(block.Text), nil
		}
	}

	return "", fmt.Errorf("%w: no generated text", ErrMalformedResponse)
}
