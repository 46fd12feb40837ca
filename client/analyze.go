// Package client provides a Go client for the txplain HTTP API.
package client

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

	"github.com/txplain/txplain/service/explain"
)

// Sentinel errors mapped from API status codes. Wrapped errors carry the
// server's message; test with errors.Is.
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotFound       = errors.New("transaction not found")
	ErrServerError    = errors.New("server error")
)

// Analysis is a successful response from POST /api/v1/analyze.
type Analysis struct {
	RequestID string          `json:"request_id"`
	Timestamp time.Time       `json:"timestamp"`
	ElapsedMS int64           `json:"elapsed_ms"`
	Result    *explain.Result `json:"result"`
	Metadata  ServiceInfo     `json:"metadata"`
}

// ServiceInfo describes the service, returned by GET /api/v1/analyze and
// embedded in analysis responses.
type ServiceInfo struct {
	Service    string            `json:"service"`
	Version    string            `json:"version"`
	Provider   string            `json:"provider"`
	Parameters map[string]string `json:"parameters,omitempty"`
}

// Client is the HTTP client for the txplain service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a new txplain client.
func New(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Analyze requests a full explanation of the transaction with the given
// signature.
func (c *Client) Analyze(ctx context.Context, signature string) (*Analysis, error) {
	body, err := json.Marshal(map[string]string{"signature": signature})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/v1/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	var analysis Analysis
	if err := json.NewDecoder(resp.Body).Decode(&analysis); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Debug("transaction analyzed",
		"signature", signature,
		"classification", analysis.Result.Classification,
		"request_id", analysis.RequestID,
	)
	return &analysis, nil
}

// ServiceInfo retrieves the service's identification and parameter schema.
func (c *Client) ServiceInfo(ctx context.Context) (*ServiceInfo, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/v1/analyze", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	var info ServiceInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &info, nil
}

// Health reports whether the server's health endpoint responds OK.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed with status %d", resp.StatusCode)
	}
	return nil
}

// parseErrorResponse maps an error response to a sentinel error carrying
// the server's message.
func (c *Client) parseErrorResponse(resp *http.Response) error {
	sentinel := ErrServerError
	switch resp.StatusCode {
	case http.StatusBadRequest:
		sentinel = ErrInvalidRequest
	case http.StatusNotFound:
		sentinel = ErrNotFound
	}

	var errResp struct {
		Error string `json:"error"`
	}
	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
		return fmt.Errorf("%w: status %d: %s", sentinel, resp.StatusCode, string(body))
	}

	return fmt.Errorf("%w: %s", sentinel, errResp.Error)
}
