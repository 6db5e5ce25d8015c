package chain

import "context"

// MockVerifier is a test double: each signature maps to a fixed
// TransactionInfo, so deposit-crediting logic can be tested without a
// live RPC endpoint.
type MockVerifier struct {
	Transactions map[string]*TransactionInfo
	Balances     map[string]uint64
}

func NewMockVerifier() *MockVerifier {
	return &MockVerifier{Transactions: map[string]*TransactionInfo{}, Balances: map[string]uint64{}}
}

func (m *MockVerifier) VerifyTransaction(_ context.Context, signature, _ string) (*TransactionInfo, error) {
	if tx, ok := m.Transactions[signature]; ok {
		return tx, nil
	}
	return &TransactionInfo{Signature: signature, Confirmed: false}, nil
}

func (m *MockVerifier) GetBalance(_ context.Context, pubkey string) (uint64, error) {
	return m.Balances[pubkey], nil
}
