package explain

// Canned explanation texts substituted when text generation fails.
// One bucket per classification plus a generic one, each with a beginner
// and a developer variant, so a flaky provider degrades output quality
// instead of failing the request.
var fallbackExplanations = map[string]Explanations{
	ClassTokenSwap: {
		Beginner:  "This transaction swapped one token for another using a decentralized exchange. Think of it like exchanging dollars for euros at a currency exchange, except it happened automatically on the blockchain.",
		Developer: "This transaction routed a token swap through a DEX aggregator. Token accounts were debited and credited atomically, with the aggregator program selecting the route across liquidity pools.",
	},
	ClassTokenTransfer: {
		Beginner:  "This transaction sent tokens from one wallet to another, like transferring money between bank accounts.",
		Developer: "This transaction invoked the SPL Token program to move tokens between token accounts, debiting the source and crediting the destination under the owner's authority.",
	},
	ClassStake: {
		Beginner:  "This transaction staked SOL to help secure the network. Staked SOL earns rewards over time, similar to interest on a savings account.",
		Developer: "This transaction interacted with the Stake program to delegate, activate, or withdraw stake with a validator's vote account.",
	},
	ClassVote: {
		Beginner:  "This transaction is a validator vote, part of how the network agrees on which transactions are valid.",
		Developer: "This transaction submitted a vote via the Vote program, attesting to a fork choice as part of consensus.",
	},
	ClassSOLTransfer: {
		Beginner:  "This transaction sent SOL, the network's native currency, from one wallet to another.",
		Developer: "This transaction invoked the System program to transfer lamports between accounts.",
	},
	ClassUnknown: {
		Beginner:  "This transaction interacted with programs on the Solana blockchain. The exact purpose could not be determined automatically.",
		Developer: "This transaction invoked one or more programs that do not match a known classification. Inspect the instruction list and account inputs for details.",
	},
}

// fallbackExplanation returns the canned texts for a classification,
// defaulting to the Unknown bucket.
func fallbackExplanation(classification string) Explanations {
	if e, ok := fallbackExplanations[classification]; ok {
		return e
	}
	return fallbackExplanations[ClassUnknown]
}
