package chain

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// SolanaClient is the production Verifier, backed by a JSON-RPC endpoint.
type SolanaClient struct {
	rpc *rpc.Client
}

func NewSolanaClient(endpoint string) *SolanaClient {
	return &SolanaClient{rpc: rpc.New(endpoint)}
}

func (c *SolanaClient) GetBalance(ctx context.Context, pubkey string) (uint64, error) {
	pk, err := solana.PublicKeyFromBase58(pubkey)
	if err != nil {
		return 0, fmt.Errorf("parse pubkey: %w", err)
	}
	out, err := c.rpc.GetBalance(ctx, pk, rpc.CommitmentFinalized)
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return out.Value, nil
}

// VerifyTransaction fetches a finalized transaction by signature and
// reports the recipient's balance delta across it. A transaction with
// more than one account touched still resolves correctly: it looks up
// expectedRecipient's own index in the account list rather than
// assuming position 1.
func (c *SolanaClient) VerifyTransaction(ctx context.Context, signature, expectedRecipient string) (*TransactionInfo, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return nil, fmt.Errorf("parse signature: %w", err)
	}
	recipient, err := solana.PublicKeyFromBase58(expectedRecipient)
	if err != nil {
		return nil, fmt.Errorf("parse recipient: %w", err)
	}

	maxVersion := uint64(0)
	out, err := c.rpc.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     rpc.CommitmentFinalized,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	if out == nil || out.Meta == nil {
		return &TransactionInfo{Signature: signature, Confirmed: false}, nil
	}
	if out.Meta.Err != nil {
		return &TransactionInfo{Signature: signature, Slot: out.Slot, Confirmed: false}, nil
	}

	tx, err := out.Transaction.GetTransaction()
	if err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}

	var moved uint64
	for i, key := range tx.Message.AccountKeys {
		if !key.Equals(recipient) {
			continue
		}
		if i < len(out.Meta.PreBalances) && i < len(out.Meta.PostBalances) && out.Meta.PostBalances[i] > out.Meta.PreBalances[i] {
			moved = out.Meta.PostBalances[i] - out.Meta.PreBalances[i]
		}
		break
	}

	return &TransactionInfo{
		Signature: signature, Slot: out.Slot, Confirmed: true, LamportsMoved: moved,
	}, nil
}
