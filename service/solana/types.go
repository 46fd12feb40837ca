package solana

import (
	"time"
)

// TransactionRecord is the decoded form of a confirmed transaction.
// This is our domain model, independent of the RPC response format.
// It is immutable once fetched and owned by the caller for one request.
type TransactionRecord struct {
	Signature string
	Slot      uint64
	Fee       uint64     // lamports
	BlockTime *time.Time // nil when the node did not report a block time
	Succeeded bool

	// Accounts is the ordered account address list from the transaction
	// message. Index 0 is the fee payer.
	Accounts []string

	// Programs is the invoking program address of each outer instruction,
	// in instruction order. Duplicates are preserved.
	Programs []string

	// Token balances before and after execution, keyed by
	// (account index, mint) pairs.
	PreTokenBalances  []TokenBalance
	PostTokenBalances []TokenBalance
}

// TokenBalance is one account's balance of one token mint at a point in time.
type TokenBalance struct {
	AccountIndex uint16
	Mint         string
	Owner        string // owning wallet, empty if the node did not report it
	Amount       string // raw integer amount in minor units
	Decimals     uint8
}
