// Package chain is the custodial wallet's only outward-facing Solana RPC
// collaborator. Per spec.md's Non-goals, exact chain semantics are out
// of scope here — only the request/response shape the deposit credit
// logic consumes matters: "did this signature land, and how many
// lamports moved to this address."
package chain

import "context"

// TransactionInfo is the shape internal/credit's deposit-crediting path
// needs from a landed transaction: enough to credit the right user the
// right amount exactly once.
type TransactionInfo struct {
	Signature    string
	Slot         uint64
	Confirmed    bool
	LamportsMoved uint64
}

// Verifier confirms a transaction signature landed and reports the
// lamports moved to the expected recipient, so a deposit can be
// credited without trusting the client's claimed amount.
type Verifier interface {
	VerifyTransaction(ctx context.Context, signature, expectedRecipient string) (*TransactionInfo, error)
	GetBalance(ctx context.Context, pubkey string) (uint64, error)
}
