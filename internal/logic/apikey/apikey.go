package apikey

import (
	"context"

	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/cedros/core/internal/svc"
	"github.com/cedros/core/internal/types"
)

type GetLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewGetLogic(ctx context.Context, svcCtx *svc.ServiceContext) *GetLogic {
	return &GetLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *GetLogic) Get(userID uuid.UUID) (*types.APIKeyResponse, error) {
	info, err := l.svcCtx.APIKeys.Get(l.ctx, userID)
	if err != nil {
		return nil, err
	}
	return &types.APIKeyResponse{KeyPrefix: info.KeyPrefix, CreatedAt: info.CreatedAt}, nil
}

type RegenerateLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewRegenerateLogic(ctx context.Context, svcCtx *svc.ServiceContext) *RegenerateLogic {
	return &RegenerateLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *RegenerateLogic) Regenerate(userID uuid.UUID, req *types.RegenerateAPIKeyRequest) (*types.APIKeyResponse, error) {
	rawKey, info, err := l.svcCtx.APIKeys.Regenerate(l.ctx, userID, req.Label)
	if err != nil {
		return nil, err
	}
	return &types.APIKeyResponse{RawKey: rawKey, KeyPrefix: info.KeyPrefix, CreatedAt: info.CreatedAt}, nil
}
