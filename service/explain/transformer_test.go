package explain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/txplain/txplain/service/market"
	"github.com/txplain/txplain/service/solana"
)

const (
	payerAddr = "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"
	ownerAddr = "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T"
	usdcMint  = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	bonkMint  = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"
)

// mockMarket implements MarketData with canned values.
type mockMarket struct {
	assets   map[string]market.AssetInfo
	prices   map[string]market.PriceEntry
	refPrice decimal.Decimal
}

func (m *mockMarket) GetAssetInfo(ctx context.Context, mint string) market.AssetInfo {
	if info, ok := m.assets[mint]; ok {
		return info
	}
	// Same degradation the real client applies when metadata is unavailable.
	return market.AssetInfo{Mint: mint, Symbol: mint, Name: "Unknown Token", Decimals: 9}
}

func (m *mockMarket) GetPrices(ctx context.Context, mints []string) map[string]market.PriceEntry {
	out := make(map[string]market.PriceEntry)
	for _, mint := range mints {
		if entry, ok := m.prices[mint]; ok {
			out[mint] = entry
		}
	}
	return out
}

func (m *mockMarket) GetReferencePrice(ctx context.Context) decimal.Decimal {
	return m.refPrice
}

// mockGenerator implements Generator deterministically.
type mockGenerator struct {
	err error
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return "generated text", nil
}

func defaultMarket() *mockMarket {
	return &mockMarket{
		assets: map[string]market.AssetInfo{
			usdcMint: {Mint: usdcMint, Symbol: "USDC", Name: "USD Coin", Decimals: 6},
			bonkMint: {Mint: bonkMint, Symbol: "Bonk", Name: "Bonk", Decimals: 5},
		},
		prices: map[string]market.PriceEntry{
			usdcMint: {PriceUSD: decimal.NewFromInt(1)},
			bonkMint: {PriceUSD: decimal.RequireFromString("0.00002")},
		},
		refPrice: decimal.NewFromInt(200),
	}
}

func newTransformer(m MarketData, g Generator) *Transformer {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(m, g, nil, logger)
}

// swapRecord models a USDC -> BONK swap through the aggregator.
func swapRecord() *solana.TransactionRecord {
	return &solana.TransactionRecord{
		Signature: "5j7s6NiJS3JAkvgkoc18WVAsiSaci2pxB2A6ueCJP4tprA2TFg9wSyTLeYouxPBJEMzJinENTkpA52YStRW5Dia7",
		Slot:      322000000,
		Fee:       5000,
		Succeeded: true,
		Accounts:  []string{payerAddr, ownerAddr},
		Programs:  []string{ComputeBudgetProgram, JupiterAggregatorProgram, TokenProgram},
		PreTokenBalances: []solana.TokenBalance{
			{AccountIndex: 1, Mint: usdcMint, Owner: ownerAddr, Amount: "5000000", Decimals: 6},
			{AccountIndex: 2, Mint: bonkMint, Owner: ownerAddr, Amount: "0", Decimals: 5},
		},
		PostTokenBalances: []solana.TokenBalance{
			{AccountIndex: 1, Mint: usdcMint, Owner: ownerAddr, Amount: "4000000", Decimals: 6},
			{AccountIndex: 2, Mint: bonkMint, Owner: ownerAddr, Amount: "5000000000", Decimals: 5},
		},
	}
}

func TestExplain_FeeConversion(t *testing.T) {
	// 5000 lamports at $200/SOL: 0.000005000 SOL, $0.0010.
	tr := newTransformer(defaultMarket(), &mockGenerator{})

	result := tr.Explain(context.Background(), swapRecord())

	assert.Equal(t, uint64(5000), result.Fee.Lamports)
	assert.Equal(t, "0.000005000", result.Fee.SOL)
	assert.Equal(t, "$0.0010", result.Fee.USD)
}

func TestExplain_FeeComparison(t *testing.T) {
	tr := newTransformer(defaultMarket(), &mockGenerator{})

	result := tr.Explain(context.Background(), swapRecord())

	assert.Equal(t, "$0.0010", result.FeeComparison.NetworkFeeUSD)
	assert.Equal(t, "Ethereum", result.FeeComparison.ReferenceNetwork)
	assert.Equal(t, "$7.50", result.FeeComparison.ReferenceFeeUSD)
	assert.Equal(t, "$5-50", result.FeeComparison.ReferenceRange)
	assert.Equal(t, "99.99%", result.FeeComparison.SavingsPercent)
}

func TestExplain_Transfers(t *testing.T) {
	tr := newTransformer(defaultMarket(), &mockGenerator{})

	result := tr.Explain(context.Background(), swapRecord())

	require.Len(t, result.Transfers, 2)

	sent := result.Transfers[0]
	assert.Equal(t, "USDC", sent.Symbol)
	assert.Equal(t, "-1.000000", sent.Amount)
	assert.Equal(t, "$1.00", sent.USDValue)
	assert.Equal(t, "sent", sent.Direction)
	assert.Equal(t, "debit", sent.Tag)
	assert.Equal(t, ownerAddr, sent.From)
	assert.Equal(t, "Liquidity Pool", sent.To)

	received := result.Transfers[1]
	assert.Equal(t, "Bonk", received.Symbol)
	assert.Equal(t, "+50000.000000", received.Amount)
	assert.Equal(t, "$1.00", received.USDValue)
	assert.Equal(t, "received", received.Direction)
	assert.Equal(t, "credit", received.Tag)
	assert.Equal(t, "Liquidity Pool", received.From)
	assert.Equal(t, ownerAddr, received.To)
}

func TestExplain_AccountChanges(t *testing.T) {
	tr := newTransformer(defaultMarket(), &mockGenerator{})

	result := tr.Explain(context.Background(), swapRecord())

	require.GreaterOrEqual(t, len(result.AccountChanges), 1)

	fee := result.AccountChanges[0]
	assert.Equal(t, payerAddr, fee.Address)
	assert.Equal(t, "Transaction Fee", fee.Label)
	assert.Equal(t, "-0.000005000", fee.Amount)
	assert.Equal(t, "SOL", fee.Symbol)
	assert.Equal(t, "debit", fee.Tag)

	require.Len(t, result.AccountChanges, 3)
	assert.Equal(t, "Swap Out", result.AccountChanges[1].Label)
	assert.Equal(t, "Swap In", result.AccountChanges[2].Label)
}

func TestExplain_FeeDebitAlwaysNegative(t *testing.T) {
	record := swapRecord()
	record.Fee = 0

	tr := newTransformer(defaultMarket(), &mockGenerator{})
	result := tr.Explain(context.Background(), record)

	assert.Equal(t, "-0.000000000", result.AccountChanges[0].Amount)
}

func TestExplain_Classification(t *testing.T) {
	tr := newTransformer(defaultMarket(), &mockGenerator{})

	result := tr.Explain(context.Background(), swapRecord())
	assert.Equal(t, ClassTokenSwap, result.Classification)

	record := swapRecord()
	record.Programs = []string{TokenProgram}
	assert.Equal(t, ClassTokenTransfer, tr.Explain(context.Background(), record).Classification)
}

func TestExplain_StepsAndPrograms(t *testing.T) {
	tr := newTransformer(defaultMarket(), &mockGenerator{})

	result := tr.Explain(context.Background(), swapRecord())

	require.Len(t, result.Steps, 4)
	for i, step := range result.Steps {
		assert.Equal(t, i+1, step.Position)
		assert.NotEmpty(t, step.Title)
		assert.Equal(t, "generated text", step.Description)
	}

	require.Len(t, result.Programs, 3)
	assert.Equal(t, "Compute Budget Program", result.Programs[0].Name)
	assert.Equal(t, "Jupiter Aggregator v6", result.Programs[1].Name)
	assert.Equal(t, "SPL Token Program", result.Programs[2].Name)
	for _, p := range result.Programs {
		assert.Equal(t, "generated text", p.Description)
	}
}

func TestExplain_GenerationFailureUsesFallbacks(t *testing.T) {
	tr := newTransformer(defaultMarket(), &mockGenerator{err: errors.New("provider down")})

	result := tr.Explain(context.Background(), swapRecord())

	canned := fallbackExplanations[ClassTokenSwap]
	assert.Equal(t, canned.Beginner, result.Explanations.Beginner)
	assert.Equal(t, canned.Developer, result.Explanations.Developer)

	assert.Equal(t, "Approve Token Access - Step 1", result.Steps[0].Description)
	assert.Equal(t, "Confirm Transaction - Step 4", result.Steps[3].Description)

	assert.Equal(t, "Compute Budget Program - involved in this transaction", result.Programs[0].Description)
}

func TestExplain_MetadataFailureDegrades(t *testing.T) {
	// No metadata and no prices for any mint: transfers still appear with
	// the raw mint as symbol and a zero USD value.
	m := &mockMarket{refPrice: decimal.NewFromInt(200)}
	tr := newTransformer(m, &mockGenerator{})

	result := tr.Explain(context.Background(), swapRecord())

	require.Len(t, result.Transfers, 2)
	assert.Equal(t, usdcMint, result.Transfers[0].Symbol)
	assert.Equal(t, "$0.00", result.Transfers[0].USDValue)
	assert.Equal(t, bonkMint, result.Transfers[1].Symbol)
	assert.Equal(t, "$0.00", result.Transfers[1].USDValue)
}

func TestExplain_Idempotent(t *testing.T) {
	tr := newTransformer(defaultMarket(), &mockGenerator{})
	record := swapRecord()

	first := tr.Explain(context.Background(), record)
	second := tr.Explain(context.Background(), record)

	assert.Equal(t, first, second)
}

func TestExplain_FailedTransaction(t *testing.T) {
	record := swapRecord()
	record.Succeeded = false

	tr := newTransformer(defaultMarket(), &mockGenerator{})
	result := tr.Explain(context.Background(), record)

	assert.Equal(t, "Failed", result.Status)
}

func TestExtractDeltas_NewAccountSkipped(t *testing.T) {
	record := swapRecord()
	// A post balance with no matching pre entry: a freshly created token
	// account. Not reported as a transfer.
	record.PostTokenBalances = append(record.PostTokenBalances, solana.TokenBalance{
		AccountIndex: 7, Mint: usdcMint, Owner: ownerAddr, Amount: "123", Decimals: 6,
	})

	tr := newTransformer(defaultMarket(), &mockGenerator{})
	deltas := tr.extractDeltas(record)

	require.Len(t, deltas, 2)
	for _, d := range deltas {
		assert.NotEqual(t, uint16(7), d.accountIndex)
	}
}

func TestExtractDeltas_ZeroDeltaSkipped(t *testing.T) {
	record := &solana.TransactionRecord{
		Accounts: []string{payerAddr},
		PreTokenBalances: []solana.TokenBalance{
			{AccountIndex: 1, Mint: usdcMint, Owner: ownerAddr, Amount: "5000000", Decimals: 6},
		},
		PostTokenBalances: []solana.TokenBalance{
			{AccountIndex: 1, Mint: usdcMint, Owner: ownerAddr, Amount: "5000000", Decimals: 6},
		},
	}

	tr := newTransformer(defaultMarket(), &mockGenerator{})
	assert.Empty(t, tr.extractDeltas(record))
}

func TestExtractDeltas_SignMatchesDirection(t *testing.T) {
	tr := newTransformer(defaultMarket(), &mockGenerator{})
	deltas := tr.extractDeltas(swapRecord())

	require.Len(t, deltas, 2)
	assert.Negative(t, deltas[0].amount.Sign())
	assert.Positive(t, deltas[1].amount.Sign())
}

func TestSignedFixed(t *testing.T) {
	assert.Equal(t, "+1.500000", signedFixed(decimal.RequireFromString("1.5"), 6))
	assert.Equal(t, "-0.250000", signedFixed(decimal.RequireFromString("-0.25"), 6))
	assert.Equal(t, "+0.000000", signedFixed(decimal.Zero, 6))
}
