package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/cedros/core/internal/apperr"
	"github.com/cedros/core/internal/authpipeline"
	"github.com/cedros/core/internal/svc"
	"github.com/cedros/core/internal/types"
)

type RefreshLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewRefreshLogic(ctx context.Context, svcCtx *svc.ServiceContext) *RefreshLogic {
	return &RefreshLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *RefreshLogic) Refresh(req *types.RefreshRequest, dc authpipeline.DeviceContext) (*types.AuthResponse, error) {
	result, err := l.svcCtx.Auth.Refresh(l.ctx, req.RefreshToken, dc)
	if err != nil {
		return nil, err
	}
	return loginResultToResponse(result), nil
}

type LogoutLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewLogoutLogic(ctx context.Context, svcCtx *svc.ServiceContext) *LogoutLogic {
	return &LogoutLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *LogoutLogic) Logout(userID uuid.UUID, req *types.LogoutRequest, dc authpipeline.DeviceContext) (*types.OKResponse, error) {
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		return nil, apperr.New(apperr.Validation, "invalid session_id")
	}
	if err := l.svcCtx.Auth.Logout(l.ctx, sessionID, userID, dc); err != nil {
		return nil, err
	}
	return &types.OKResponse{OK: true}, nil
}

type LogoutAllLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewLogoutAllLogic(ctx context.Context, svcCtx *svc.ServiceContext) *LogoutAllLogic {
	return &LogoutAllLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *LogoutAllLogic) LogoutAll(userID uuid.UUID, dc authpipeline.DeviceContext) (*types.OKResponse, error) {
	if err := l.svcCtx.Auth.LogoutAll(l.ctx, userID, dc); err != nil {
		return nil, err
	}
	return &types.OKResponse{OK: true}, nil
}
