package explain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/txplain/txplain/service/metrics"
	"github.com/txplain/txplain/service/solana"
)

const (
	// solDecimals is the lamports-per-SOL exponent.
	solDecimals = 9

	transferAmountPlaces = 6
	usdValuePlaces       = 2
	feeUSDPlaces         = 4

	// poolLabel stands in for the unresolved counterparty of a transfer.
	// The true counterparty is not resolved; for swap-style transactions
	// the other side is usually a pool-owned token account.
	poolLabel = "Liquidity Pool"

	referenceNetwork = "Ethereum"
	referenceRange   = "$5-50"
)

// referenceFeeUSD is the fixed comparison constant for the fee savings
// figure. Display-only, never fetched.
var referenceFeeUSD = decimal.RequireFromString("7.5")

// Transformer turns a raw ledger record plus market data into a structured
// explanation, delegating prose to the text-generation provider.
// Every external dependency degrades: prices fall back to zero, generated
// text falls back to canned strings. Explain never fails.
type Transformer struct {
	market    MarketData
	generator Generator
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// New creates a Transformer. If m is nil, no metrics will be recorded.
func New(marketData MarketData, generator Generator, m *metrics.Metrics, logger *slog.Logger) *Transformer {
	return &Transformer{
		market:    marketData,
		generator: generator,
		metrics:   m,
		logger:    logger,
	}
}

// balanceDelta is one (account, mint) pair whose token balance changed.
type balanceDelta struct {
	accountIndex uint16
	mint         string
	owner        string
	amount       decimal.Decimal // signed, display units
}

type deltaKey struct {
	accountIndex uint16
	mint         string
}

// Explain builds the full explanation for a transaction record.
// Independent text-generation calls (one per step, one per program, the two
// audience explanations) run concurrently and are joined before assembly.
// The result is deterministic for a given record and price snapshot, modulo
// generated prose.
func (t *Transformer) Explain(ctx context.Context, record *solana.TransactionRecord) *Result {
	start := time.Now()

	classification := Classify(record.Programs)

	// Fee conversion.
	refPrice := t.market.GetReferencePrice(ctx)
	feeSOL := decimal.New(int64(record.Fee), -solDecimals)
	feeUSD := feeSOL.Mul(refPrice)

	// Balance deltas, with one bulk price fetch for all distinct mints.
	deltas := t.extractDeltas(record)
	prices := t.market.GetPrices(ctx, distinctMints(deltas))

	feePayer := ""
	if len(record.Accounts) > 0 {
		feePayer = record.Accounts[0]
	}

	transfers := make([]Transfer, 0, len(deltas))
	// The fee debit is always present and always negative, even for a
	// zero fee.
	accountChanges := []AccountChange{{
		Address: feePayer,
		Label:   "Transaction Fee",
		Amount:  "-" + feeSOL.StringFixed(solDecimals),
		Symbol:  "SOL",
		Tag:     "debit",
	}}

	for _, d := range deltas {
		info := t.market.GetAssetInfo(ctx, d.mint)
		usd := d.amount.Abs().Mul(prices[d.mint].PriceUSD)

		counterparty := d.owner
		if counterparty == "" && int(d.accountIndex) < len(record.Accounts) {
			counterparty = record.Accounts[d.accountIndex]
		}

		transfer := Transfer{
			Mint:     d.mint,
			Symbol:   info.Symbol,
			Name:     info.Name,
			Icon:     info.Icon,
			Amount:   signedFixed(d.amount, transferAmountPlaces),
			USDValue: "$" + usd.StringFixed(usdValuePlaces),
		}
		change := AccountChange{
			Address: counterparty,
			Amount:  signedFixed(d.amount, transferAmountPlaces),
			Symbol:  info.Symbol,
		}

		if d.amount.Sign() > 0 {
			transfer.Direction = "received"
			transfer.Tag = "credit"
			transfer.From = poolLabel
			transfer.To = counterparty
			change.Label = "Swap In"
			change.Tag = "credit"
		} else {
			transfer.Direction = "sent"
			transfer.Tag = "debit"
			transfer.From = counterparty
			transfer.To = poolLabel
			change.Label = "Swap Out"
			change.Tag = "debit"
		}

		transfers = append(transfers, transfer)
		accountChanges = append(accountChanges, change)
	}

	// Generated prose. Each call is independent; run them all concurrently
	// and join before assembly.
	titles := stepTitles(classification)
	steps := make([]Step, len(titles))
	programAddrs := distinctStrings(record.Programs)
	programs := make([]ProgramInfo, len(programAddrs))
	canned := fallbackExplanation(classification)
	var explanations Explanations

	var wg sync.WaitGroup
	for i, title := range titles {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fallback := fmt.Sprintf("%s - Step %d", title, i+1)
			steps[i] = Step{
				Position:    i + 1,
				Title:       title,
				Description: t.generateOrFallback(ctx, stepPrompt(classification, title, i+1, len(titles)), fallback),
			}
		}()
	}
	for i, addr := range programAddrs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := ProgramName(addr)
			fallback := fmt.Sprintf("%s - involved in this transaction", name)
			programs[i] = ProgramInfo{
				Address:     addr,
				Name:        name,
				Description: t.generateOrFallback(ctx, programPrompt(name, classification), fallback),
			}
		}()
	}
	wg.Add(2)
	go func() {
		defer wg.Done()
		prompt := explanationPrompt("a complete beginner", classification, transfers, programAddrs, feeSOL)
		explanations.Beginner = t.generateOrFallback(ctx, prompt, canned.Beginner)
	}()
	go func() {
		defer wg.Done()
		prompt := explanationPrompt("an experienced blockchain developer", classification, transfers, programAddrs, feeSOL)
		explanations.Developer = t.generateOrFallback(ctx, prompt, canned.Developer)
	}()
	wg.Wait()

	// Fee comparison against the fixed reference constant.
	savings := decimal.NewFromInt(1).
		Sub(feeUSD.Div(referenceFeeUSD)).
		Mul(decimal.NewFromInt(100))

	status := "Confirmed"
	if !record.Succeeded {
		status = "Failed"
	}

	result := &Result{
		Signature:      record.Signature,
		Status:         status,
		Classification: classification,
		BlockTime:      record.BlockTime,
		Fee: Fee{
			Lamports: record.Fee,
			SOL:      feeSOL.StringFixed(solDecimals),
			USD:      "$" + feeUSD.StringFixed(feeUSDPlaces),
		},
		Transfers:      transfers,
		AccountChanges: accountChanges,
		Programs:       programs,
		Steps:          steps,
		Explanations:   explanations,
		FeeComparison: FeeComparison{
			NetworkFeeUSD:    "$" + feeUSD.StringFixed(feeUSDPlaces),
			ReferenceNetwork: referenceNetwork,
			ReferenceFeeUSD:  "$" + referenceFeeUSD.StringFixed(2),
			ReferenceRange:   referenceRange,
			SavingsPercent:   savings.StringFixed(2) + "%",
		},
	}

	if t.metrics != nil {
		t.metrics.RecordAnalysis(classification, status, time.Since(start).Seconds())
	}
	t.logger.InfoContext(ctx, "transaction explained",
		"signature", record.Signature,
		"classification", classification,
		"status", status,
		"transfers", len(transfers),
		"programs", len(programs),
	)

	return result
}

// extractDeltas computes signed balance deltas from the record's pre/post
// token balances. Post entries with no matching pre entry (newly created
// token accounts) are skipped, as are zero deltas.
func (t *Transformer) extractDeltas(record *solana.TransactionRecord) []balanceDelta {
	pre := make(map[deltaKey]solana.TokenBalance, len(record.PreTokenBalances))
	for _, b := range record.PreTokenBalances {
		pre[deltaKey{b.AccountIndex, b.Mint}] = b
	}

	deltas := make([]balanceDelta, 0, len(record.PostTokenBalances))
	for _, post := range record.PostTokenBalances {
		preBalance, ok := pre[deltaKey{post.AccountIndex, post.Mint}]
		if !ok {
			// Newly created token account. First-time recipients are not
			// reported as transfers.
			continue
		}

		preAmount, err := decimal.NewFromString(preBalance.Amount)
		if err != nil {
			t.logger.Warn("unparseable pre balance, skipping",
				"mint", post.Mint, "amount", preBalance.Amount)
			continue
		}
		postAmount, err := decimal.NewFromString(post.Amount)
		if err != nil {
			t.logger.Warn("unparseable post balance, skipping",
				"mint", post.Mint, "amount", post.Amount)
			continue
		}

		delta := postAmount.Sub(preAmount).Shift(-int32(post.Decimals))
		if delta.IsZero() {
			continue
		}

		deltas = append(deltas, balanceDelta{
			accountIndex: post.AccountIndex,
			mint:         post.Mint,
			owner:        post.Owner,
			amount:       delta,
		})
	}
	return deltas
}

// generateOrFallback runs one text-generation call, substituting the static
// fallback on any failure.
func (t *Transformer) generateOrFallback(ctx context.Context, prompt, fallback string) string {
	text, err := t.generator.Generate(ctx, prompt)
	if err != nil {
		t.logger.DebugContext(ctx, "text generation failed, using fallback", "error", err)
		return fallback
	}
	return text
}

// signedFixed renders a decimal with an explicit sign.
func signedFixed(d decimal.Decimal, places int32) string {
	if d.Sign() >= 0 {
		return "+" + d.StringFixed(places)
	}
	return d.StringFixed(places)
}

// distinctMints returns the distinct mints across deltas, in first-seen order.
func distinctMints(deltas []balanceDelta) []string {
	mints := make([]string, 0, len(deltas))
	seen := make(map[string]struct{}, len(deltas))
	for _, d := range deltas {
		if _, ok := seen[d.mint]; ok {
			continue
		}
		seen[d.mint] = struct{}{}
		mints = append(mints, d.mint)
	}
	return mints
}

// distinctStrings deduplicates while preserving first-seen order.
func distinctStrings(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func stepPrompt(classification, title string, position, total int) string {
	return fmt.Sprintf(
		"You are explaining a Solana %s transaction. Write one short sentence describing step %d of %d, titled %q. Plain language, no markdown.",
		classification, position, total, title,
	)
}

func programPrompt(name, classification string) string {
	return fmt.Sprintf(
		"Write one sentence describing what the %s does in the context of a Solana %s transaction. Plain language, no markdown.",
		name, classification,
	)
}

func explanationPrompt(audience, classification string, transfers []Transfer, programAddrs []string, feeSOL decimal.Decimal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Explain this Solana transaction to %s in 2-3 sentences. Plain language, no markdown.\n", audience)
	fmt.Fprintf(&b, "Type: %s\n", classification)
	fmt.Fprintf(&b, "Fee: %s SOL\n", feeSOL.StringFixed(solDecimals))
	if len(transfers) > 0 {
		b.WriteString("Transfers:\n")
		for _, tr := range transfers {
			fmt.Fprintf(&b, "- %s %s (%s)\n", tr.Amount, tr.Symbol, tr.Direction)
		}
	}
	if len(programAddrs) > 0 {
		b.WriteString("Programs:\n")
		for _, addr := range programAddrs {
			fmt.Fprintf(&b, "- %s\n", ProgramName(addr))
		}
	}
	return b.String()
}
