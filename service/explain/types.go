package explain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/txplain/txplain/service/market"
)

// MarketData is the slice of the market client the transformer needs.
// All methods degrade instead of failing.
type MarketData interface {
	GetAssetInfo(ctx context.Context, mint string) market.AssetInfo
	GetPrices(ctx context.Context, mints []string) map[string]market.PriceEntry
	GetReferencePrice(ctx context.Context) decimal.Decimal
}

// Generator produces text from a prompt. Errors are absorbed by the
// transformer, which substitutes static fallbacks.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Result is the structured explanation of one transaction.
// It is constructed once per request and never persisted.
type Result struct {
	Signature      string          `json:"signature"`
	Status         string          `json:"status"` // "Confirmed" or "Failed"
	Classification string          `json:"classification"`
	BlockTime      *time.Time      `json:"block_time,omitempty"`
	Fee            Fee             `json:"fee"`
	Transfers      []Transfer      `json:"transfers"`
	AccountChanges []AccountChange `json:"account_changes"`
	Programs       []ProgramInfo   `json:"programs"`
	Steps          []Step          `json:"steps"`
	Explanations   Explanations    `json:"explanations"`
	FeeComparison  FeeComparison   `json:"fee_comparison"`
}

// Fee is the transaction fee in native and USD units.
type Fee struct {
	Lamports uint64 `json:"lamports"`
	SOL      string `json:"sol"` // 9 decimal places
	USD      string `json:"usd"` // "$" prefix, 4 decimal places
}

// Transfer is one token balance movement derived from pre/post balances.
type Transfer struct {
	Mint      string `json:"mint"`
	Symbol    string `json:"symbol"`
	Name      string `json:"name"`
	Icon      string `json:"icon,omitempty"`
	Amount    string `json:"amount"`    // signed, 6 decimal places
	USDValue  string `json:"usd_value"` // "$" prefix, 2 decimal places
	Direction string `json:"direction"` // "received" or "sent"
	From      string `json:"from"`
	To        string `json:"to"`
	Tag       string `json:"tag"` // "credit" or "debit"
}

// AccountChange is one account-level balance change, including the
// mandatory fee debit.
type AccountChange struct {
	Address string `json:"address"`
	Label   string `json:"label"` // "Transaction Fee", "Swap In", "Swap Out"
	Amount  string `json:"amount"`
	Symbol  string `json:"symbol"`
	Tag     string `json:"tag"` // "credit" or "debit"
}

// ProgramInfo describes one program the transaction invoked.
type ProgramInfo struct {
	Address     string `json:"address"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Step is one named step in the transaction walk-through.
type Step struct {
	Position    int    `json:"position"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Explanations holds the two audience-differentiated texts.
type Explanations struct {
	Beginner  string `json:"beginner"`
	Developer string `json:"developer"`
}

// FeeComparison contrasts the paid fee against a reference network.
type FeeComparison struct {
	NetworkFeeUSD    string `json:"network_fee_usd"`
	ReferenceNetwork string `json:"reference_network"`
	ReferenceFeeUSD  string `json:"reference_fee_usd"`
	ReferenceRange   string `json:"reference_range"`
	SavingsPercent   string `json:"savings_percent"`
}
