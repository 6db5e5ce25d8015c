package credit

import (
	"context"

	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/cedros/core/internal/store"
	"github.com/cedros/core/internal/svc"
	"github.com/cedros/core/internal/types"
)

type DepositFromChainLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewDepositFromChainLogic(ctx context.Context, svcCtx *svc.ServiceContext) *DepositFromChainLogic {
	return &DepositFromChainLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *DepositFromChainLogic) DepositFromChain(userID uuid.UUID, req *types.DepositFromChainRequest) (*types.CreditTransactionResponse, error) {
	tx, err := l.svcCtx.Credit.DepositFromChain(l.ctx, userID, req.Signature, req.CustodyPubkey, req.Currency)
	if err != nil {
		return nil, err
	}
	return txToResponse(tx), nil
}

type SpendLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewSpendLogic(ctx context.Context, svcCtx *svc.ServiceContext) *SpendLogic {
	return &SpendLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *SpendLogic) Spend(userID uuid.UUID, req *types.SpendRequest) (*types.CreditTransactionResponse, error) {
	tx, err := l.svcCtx.Credit.Spend(l.ctx, userID, req.Amount, req.Currency, req.IdempotencyKey, &req.ReferenceType, req.ReferenceID, req.Metadata)
	if err != nil {
		return nil, err
	}
	return txToResponse(tx), nil
}

type BalanceLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewBalanceLogic(ctx context.Context, svcCtx *svc.ServiceContext) *BalanceLogic {
	return &BalanceLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *BalanceLogic) Balance(userID uuid.UUID, currency string) (*types.BalanceResponse, error) {
	bal, err := l.svcCtx.Credit.Balance(l.ctx, userID, currency)
	if err != nil {
		return nil, err
	}
	avail, err := l.svcCtx.Credit.AvailableBalance(l.ctx, userID, currency)
	if err != nil {
		return nil, err
	}
	return &types.BalanceResponse{Currency: currency, Balance: bal, AvailableBalance: avail}, nil
}

type HistoryLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewHistoryLogic(ctx context.Context, svcCtx *svc.ServiceContext) *HistoryLogic {
	return &HistoryLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *HistoryLogic) History(userID uuid.UUID, offset, limit int) (*types.HistoryResponse, error) {
	txs, err := l.svcCtx.Credit.History(l.ctx, userID, offset, limit)
	if err != nil {
		return nil, err
	}
	out := make([]types.CreditTransactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, *txToResponse(tx))
	}
	return &types.HistoryResponse{Transactions: out}, nil
}

func txToResponse(tx *store.CreditTransaction) *types.CreditTransactionResponse {
	return &types.CreditTransactionResponse{
		ID: tx.ID.String(), Amount: tx.Amount, Currency: tx.Currency,
		TxType: string(tx.TxType), CreatedAt: tx.CreatedAt,
	}
}
