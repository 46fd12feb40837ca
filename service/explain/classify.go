package explain

// Classification labels.
const (
	ClassTokenSwap     = "Token Swap"
	ClassTokenTransfer = "Token Transfer"
	ClassStake         = "Stake"
	ClassVote          = "Vote"
	ClassSOLTransfer   = "SOL Transfer"
	ClassUnknown       = "Unknown"
)

// Well-known Solana program addresses.
const (
	JupiterAggregatorProgram = "JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4"
	TokenProgram             = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	Token2022Program         = "TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb"
	StakeProgram             = "Stake11111111111111111111111111111111111111"
	VoteProgram              = "Vote111111111111111111111111111111111111111"
	SystemProgram            = "11111111111111111111111111111111"
	ComputeBudgetProgram     = "ComputeBudget111111111111111111111111111111"
	AssociatedTokenProgram   = "ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL"
	MemoProgram              = "MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr"
	RaydiumAMMProgram        = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"
	OrcaWhirlpoolProgram     = "whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc"
)

// classificationRules is the priority-ordered classification table.
// A transaction can invoke several of these at once (a swap routes through
// the token program, a transfer bumps the compute budget), so the first
// match wins and order matters.
var classificationRules = []struct {
	label     string
	addresses []string
}{
	{ClassTokenSwap, []string{JupiterAggregatorProgram}},
	{ClassTokenTransfer, []string{TokenProgram, Token2022Program}},
	{ClassStake, []string{StakeProgram}},
	{ClassVote, []string{VoteProgram}},
	{ClassSOLTransfer, []string{SystemProgram}},
}

// Classify derives the coarse transaction type from the set of invoked
// program addresses.
func Classify(programs []string) string {
	invoked := make(map[string]struct{}, len(programs))
	for _, p := range programs {
		invoked[p] = struct{}{}
	}

	for _, rule := range classificationRules {
		for _, addr := range rule.addresses {
			if _, ok := invoked[addr]; ok {
				return rule.label
			}
		}
	}
	return ClassUnknown
}

// programNames maps program addresses to human-readable names.
var programNames = map[string]string{
	JupiterAggregatorProgram: "Jupiter Aggregator v6",
	TokenProgram:             "SPL Token Program",
	Token2022Program:         "Token-2022 Program",
	StakeProgram:             "Stake Program",
	VoteProgram:              "Vote Program",
	SystemProgram:            "System Program",
	ComputeBudgetProgram:     "Compute Budget Program",
	AssociatedTokenProgram:   "Associated Token Account Program",
	MemoProgram:              "Memo Program",
	RaydiumAMMProgram:        "Raydium AMM",
	OrcaWhirlpoolProgram:     "Orca Whirlpool",
}

// ProgramName resolves a program address to a display name.
func ProgramName(address string) string {
	if name, ok := programNames[address]; ok {
		return name
	}
	return "Unknown Program"
}

// stepTitles returns the fixed ordered step list for a classification.
func stepTitles(classification string) []string {
	switch classification {
	case ClassTokenSwap:
		return []string{
			"Approve Token Access",
			"Route Through Liquidity Pools",
			"Receive Swapped Tokens",
			"Confirm Transaction",
		}
	case ClassTokenTransfer, ClassSOLTransfer:
		return []string{
			"Initiate Transfer",
			"Move Funds",
			"Confirm Transaction",
		}
	default:
		return []string{
			"Submit Transaction",
			"Execute Instructions",
			"Confirm Transaction",
		}
	}
}
