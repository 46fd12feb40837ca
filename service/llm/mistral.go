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
	mistralBaseURL      = "https://api.mistral.ai"
	mistralDefaultModel = "mistral-small-latest"
)

// Mistral generates text via the Mistral chat completions API.
// The wire format mirrors OpenAI's but the two APIs drift independently, so
// it keeps its own request/response types.
type Mistral struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewMistral creates a Mistral provider. An empty model selects the default.
func NewMistral(apiKey, model string, httpClient *http.Client, m *metrics.Metrics, logger *slog.Logger) *Mistral {
	if model == "" {
		model = mistralDefaultModel
	}
	return &Mistral{
		baseURL:    mistralBaseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: httpClient,
		metrics:    m,
		logger:     logger,
	}
}

func (p *Mistral) Name() string { return "mistral" }

type mistralRequest struct {
	Model       string           `json:"model"`
	Messages    []mistralMessage `json:"messages"`
	Temperature float64          `json:"temperature"`
	MaxTokens   int              `json:"max_tokens"`
}

type mistralMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type mistralResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (p *Mistral) Generate(ctx context.Context, prompt string) (string, error) {
	if p.apiKey == "" {
		return "", ErrMissingCredential
	}

	payload := mistralRequest{
		Model: p.model,
		Messages: []mistralMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
	}
	headers := map[string]string{
		"Authorization": "Bearer " + p.apiKey,
	}

	body, err := postJSON(ctx, p.httpClient, p.metrics, p.Name(), p.baseURL+"/v1/chat/completions", headers, payload)
	if err != nil {
		return "", err
	}

	var resp mistralResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("%w: no generated text", ErrMalformedResponse)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
