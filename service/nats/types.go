package nats

import (
	"time"

	"github.com/txplain/txplain/service/explain"
)

// AnalysisEvent is published to JetStream after each completed analysis.
// It carries the summary of the result, not the full explanation payload;
// consumers that need the full payload call the HTTP API.
type AnalysisEvent struct {
	Signature      string `json:"signature"`
	Classification string `json:"classification"`
	Status         string `json:"status"`

	FeeUSD        string `json:"fee_usd"`
	TransferCount int    `json:"transfer_count"`

	// RequestID correlates the event with the HTTP response envelope.
	RequestID string `json:"request_id"`

	PublishedAt time.Time `json:"published_at"`
}

// FromResult builds an AnalysisEvent from a completed analysis result.
func FromResult(result *explain.Result, requestID string) *AnalysisEvent {
	return &AnalysisEvent{
		Signature:      result.Signature,
		Classification: result.Classification,
		Status:         result.Status,
		FeeUSD:         result.Fee.USD,
		TransferCount:  len(result.Transfers),
		RequestID:      requestID,
		PublishedAt:    time.Now().UTC(),
	}
}
