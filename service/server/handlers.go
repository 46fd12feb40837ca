package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/txplain/txplain/service/config"
	"github.com/txplain/txplain/service/explain"
	"github.com/txplain/txplain/service/nats"
	"github.com/txplain/txplain/service/solana"
)

const (
	// ServiceName and ServiceVersion identify the service in response metadata.
	ServiceName    = "txplain"
	ServiceVersion = "1.0.0"

	maxRequestBodySize = 1 << 20 // 1MB - plenty for a single signature

	// Base58 transaction signatures decode to 64 bytes, which encodes to
	// between 64 and 88 characters.
	minSignatureLength = 64
	maxSignatureLength = 88
)

var (
	// Valid base58 characters (no 0, O, I, l)
	validSignatureRegex = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]+$`)
)

// analyzeRequest is the body of POST /api/v1/analyze.
type analyzeRequest struct {
	Signature string `json:"signature"`
}

// analyzeResponse is the success envelope wrapping an explanation result.
type analyzeResponse struct {
	RequestID string          `json:"request_id"`
	Timestamp time.Time       `json:"timestamp"`
	ElapsedMS int64           `json:"elapsed_ms"`
	Result    *explain.Result `json:"result"`
	Metadata  serviceMetadata `json:"metadata"`
}

// serviceMetadata is static service identification attached to responses.
type serviceMetadata struct {
	Service  string `json:"service"`
	Version  string `json:"version"`
	Provider string `json:"provider"`
}

// serviceInfoResponse is the body of GET /api/v1/analyze.
type serviceInfoResponse struct {
	Service    string            `json:"service"`
	Version    string            `json:"version"`
	Provider   string            `json:"provider"`
	Parameters map[string]string `json:"parameters"`
}

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Error     string    `json:"error"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// handleAnalyze returns a handler that fetches, classifies, and explains a
// transaction. POST /api/v1/analyze
func handleAnalyze(cfg *config.Config, ledger Ledger, explainer Explainer, publisher nats.Publisher, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()

		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req analyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Debug("malformed analyze request", "request_id", requestID, "error", err)
			writeError(w, "invalid request body", requestID, http.StatusBadRequest)
			return
		}

		if err := validateSignature(req.Signature); err != nil {
			logger.Debug("invalid signature", "request_id", requestID, "error", err)
			writeError(w, err.Error(), requestID, http.StatusBadRequest)
			return
		}

		// The credential check happens per-request rather than at startup so
		// the server can come up before keys are provisioned.
		if cfg.ProviderAPIKey() == "" {
			logger.Error("no credential configured for active provider",
				"request_id", requestID, "provider", cfg.Provider)
			writeError(w, fmt.Sprintf("no API key configured for provider %q", cfg.Provider), requestID, http.StatusInternalServerError)
			return
		}

		sig, err := solanago.SignatureFromBase58(req.Signature)
		if err != nil {
			logger.Debug("undecodable signature", "request_id", requestID, "error", err)
			writeError(w, "signature is not valid base58", requestID, http.StatusBadRequest)
			return
		}

		record, err := ledger.GetTransaction(r.Context(), sig)
		if err != nil {
			if errors.Is(err, solana.ErrNotFound) {
				writeError(w, "transaction not found", requestID, http.StatusNotFound)
				return
			}
			logger.Error("failed to fetch transaction",
				"request_id", requestID, "signature", req.Signature, "error", err)
			writeError(w, fmt.Sprintf("failed to fetch transaction: %v", err), requestID, http.StatusInternalServerError)
			return
		}

		result := explainer.Explain(r.Context(), record)

		// Event publishing is best-effort; a broker outage never fails the
		// request.
		if publisher != nil {
			if err := publisher.PublishAnalysis(r.Context(), nats.FromResult(result, requestID)); err != nil {
				logger.Warn("failed to publish analysis event",
					"request_id", requestID, "signature", result.Signature, "error", err)
			}
		}

		logger.Info("analysis served",
			"request_id", requestID,
			"signature", result.Signature,
			"classification", result.Classification,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)

		writeJSON(w, analyzeResponse{
			RequestID: requestID,
			Timestamp: time.Now().UTC(),
			ElapsedMS: time.Since(start).Milliseconds(),
			Result:    result,
			Metadata: serviceMetadata{
				Service:  ServiceName,
				Version:  ServiceVersion,
				Provider: cfg.Provider,
			},
		}, http.StatusOK)
	})
}

// handleServiceInfo returns a handler that describes the service and its
// parameters. GET /api/v1/analyze
func handleServiceInfo(cfg *config.Config) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, serviceInfoResponse{
			Service:  ServiceName,
			Version:  ServiceVersion,
			Provider: cfg.Provider,
			Parameters: map[string]string{
				"signature": "base58-encoded transaction signature (required)",
			},
		}, http.StatusOK)
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message, requestID string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(errorResponse{
		Error:     message,
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
	})
}

// validateSignature validates a transaction signature for format and length
// before any network call is made.
func validateSignature(signature string) error {
	if signature == "" {
		return errorf("signature is required")
	}

	if len(signature) < minSignatureLength || len(signature) > maxSignatureLength {
		return errorf("signature length must be between %d and %d characters", minSignatureLength, maxSignatureLength)
	}

	// Check for null bytes and control characters
	for _, r := range signature {
		if r == 0 || unicode.IsControl(r) {
			return errorf("invalid characters in signature: control characters not allowed")
		}
	}

	if !validSignatureRegex.MatchString(signature) {
		return errorf("signature must contain only base58 characters")
	}

	return nil
}

func errorf(format string, args ...interface{}) error {
	return &validationError{msg: strings.TrimSpace(fmt.Sprintf(format, args...))}
}

type validationError struct {
	msg string
}

func (e *validationError) Error() string {
	return e.msg
}
