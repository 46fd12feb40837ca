package solana

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/txplain/txplain/service/metrics"
)

var (
	// ErrNotFound means the transaction does not exist or is not yet confirmed.
	ErrNotFound = errors.New("transaction not found")

	// ErrUnavailable means the RPC endpoint could not serve the request.
	ErrUnavailable = errors.New("ledger unavailable")
)

// RPCClient is an interface for the Solana RPC operations we need.
// This allows us to mock the RPC layer in tests without hitting real Solana nodes.
type RPCClient interface {
	GetParsedTransaction(
		ctx context.Context,
		signature solana.Signature,
		opts *rpc.GetParsedTransactionOpts,
	) (*rpc.GetParsedTransactionResult, error)
}

// Client fetches confirmed transactions from a Solana RPC endpoint.
// It wraps the RPC client with domain-specific conversion.
type Client struct {
	rpc      RPCClient
	logger   *slog.Logger
	metrics  *metrics.Metrics
	endpoint string // RPC endpoint identifier for metrics (e.g., "mainnet", rpc host)
}

// NewClient creates a new Solana client.
// The endpoint parameter is used for metrics labeling (e.g., "mainnet" or the RPC hostname).
// If metrics is nil, no metrics will be recorded.
func NewClient(rpcClient RPCClient, endpoint string, m *metrics.Metrics, logger *slog.Logger) *Client {
	return &Client{
		rpc:      rpcClient,
		logger:   logger,
		metrics:  m,
		endpoint: endpoint,
	}
}

// GetTransaction fetches a confirmed transaction by signature and converts it
// to our domain record. It requests the fully parsed form at confirmed
// commitment with versioned transaction support (max version 0).
//
// No retries are performed; failures propagate immediately so the caller can
// map them to a response. A missing transaction is ErrNotFound, every other
// RPC failure is wrapped in ErrUnavailable.
func (c *Client) GetTransaction(ctx context.Context, signature solana.Signature) (*TransactionRecord, error) {
	maxVersion := uint64(0)
	opts := &rpc.GetParsedTransactionOpts{
		Commitment:                     rpc.CommitmentConfirmed,
		MaxSupportedTransactionVersion: &maxVersion,
	}

	c.logger.DebugContext(ctx, "calling GetParsedTransaction",
		"signature", signature.String(),
	)

	start := time.Now()
	result, err := c.rpc.GetParsedTransaction(ctx, signature, opts)
	duration := time.Since(start).Seconds()

	status := "success"
	if err != nil {
		status = "error"
	}
	if c.metrics != nil {
		c.metrics.RecordRPCCall("GetParsedTransaction", status, c.endpoint, duration)
	}

	if err != nil {
		// The RPC client reports a null result as a not-found error.
		if errors.Is(err, rpc.ErrNotFound) {
			c.logger.DebugContext(ctx, "transaction not found",
				"signature", signature.String(),
			)
			return nil, ErrNotFound
		}
		c.logger.ErrorContext(ctx, "failed to get transaction",
			"signature", signature.String(),
			"error", err,
		)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if result == nil || result.Transaction == nil {
		return nil, ErrNotFound
	}

	record, err := recordFromResult(signature, result)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to convert transaction",
			"signature", signature.String(),
			"error", err,
		)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	c.logger.InfoContext(ctx, "fetched transaction",
		"signature", signature.String(),
		"slot", record.Slot,
		"succeeded", record.Succeeded,
		"accounts", len(record.Accounts),
		"instructions", len(record.Programs),
	)

	return record, nil
}

// recordFromResult converts a parsed RPC result to our domain record.
func recordFromResult(signature solana.Signature, result *rpc.GetParsedTransactionResult) (*TransactionRecord, error) {
	msg := result.Transaction.Message
	if len(msg.AccountKeys) == 0 {
		return nil, fmt.Errorf("parsed transaction has no account keys")
	}

	record := &TransactionRecord{
		Signature: signature.String(),
		Slot:      result.Slot,
		Succeeded: true,
	}

	if result.BlockTime != nil {
		bt := result.BlockTime.Time()
		record.BlockTime = &bt
	}

	record.Accounts = make([]string, len(msg.AccountKeys))
	for i, key := range msg.AccountKeys {
		record.Accounts[i] = key.PublicKey.String()
	}

	record.Programs = make([]string, 0, len(msg.Instructions))
	for _, inst := range msg.Instructions {
		if inst == nil {
			continue
		}
		record.Programs = append(record.Programs, inst.ProgramId.String())
	}

	if result.Meta != nil {
		record.Fee = result.Meta.Fee
		record.Succeeded = result.Meta.Err == nil
		record.PreTokenBalances = tokenBalancesFromMeta(result.Meta.PreTokenBalances)
		record.PostTokenBalances = tokenBalancesFromMeta(result.Meta.PostTokenBalances)
	}

	return record, nil
}

// tokenBalancesFromMeta converts RPC token balance entries to domain entries.
// Entries with no reported amount are dropped; they cannot contribute a delta.
func tokenBalancesFromMeta(balances []rpc.TokenBalance) []TokenBalance {
	out := make([]TokenBalance, 0, len(balances))
	for _, b := range balances {
		if b.UiTokenAmount == nil {
			continue
		}
		tb := TokenBalance{
			AccountIndex: b.AccountIndex,
			Mint:         b.Mint.String(),
			Amount:       b.UiTokenAmount.Amount,
			Decimals:     b.UiTokenAmount.Decimals,
		}
		if b.Owner != nil {
			tb.Owner = b.Owner.String()
		}
		out = append(out, tb)
	}
	return out
}
