package auth

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/cedros/core/internal/authpipeline"
	"github.com/cedros/core/internal/svc"
	"github.com/cedros/core/internal/types"
)

type RequestPasswordResetLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewRequestPasswordResetLogic(ctx context.Context, svcCtx *svc.ServiceContext) *RequestPasswordResetLogic {
	return &RequestPasswordResetLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

// RequestPasswordReset always returns OK, even for an unknown email or a
// passwordless account (spec §7 SEC-003 enumeration resistance).
func (l *RequestPasswordResetLogic) RequestPasswordReset(req *types.RequestPasswordResetRequest) (*types.OKResponse, error) {
	if err := l.svcCtx.Auth.RequestPasswordReset(l.ctx, req.Email); err != nil {
		return nil, err
	}
	return &types.OKResponse{OK: true}, nil
}

type CompletePasswordResetLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewCompletePasswordResetLogic(ctx context.Context, svcCtx *svc.ServiceContext) *CompletePasswordResetLogic {
	return &CompletePasswordResetLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *CompletePasswordResetLogic) CompletePasswordReset(req *types.CompletePasswordResetRequest, dc authpipeline.DeviceContext) (*types.OKResponse, error) {
	if err := l.svcCtx.Auth.CompletePasswordReset(l.ctx, req.Token, req.NewPassword, dc); err != nil {
		return nil, err
	}
	return &types.OKResponse{OK: true}, nil
}

type VerifyEmailLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewVerifyEmailLogic(ctx context.Context, svcCtx *svc.ServiceContext) *VerifyEmailLogic {
	return &VerifyEmailLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *VerifyEmailLogic) VerifyEmail(req *types.VerifyEmailRequest) (*types.OKResponse, error) {
	if err := l.svcCtx.Auth.CompleteEmailVerification(l.ctx, req.Token); err != nil {
		return nil, err
	}
	return &types.OKResponse{OK: true}, nil
}

type RequestInstantLinkLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewRequestInstantLinkLogic(ctx context.Context, svcCtx *svc.ServiceContext) *RequestInstantLinkLogic {
	return &RequestInstantLinkLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *RequestInstantLinkLogic) RequestInstantLink(req *types.RequestInstantLinkRequest, dc authpipeline.DeviceContext) (*types.OKResponse, error) {
	if err := l.svcCtx.Auth.RequestInstantLink(l.ctx, req.Email, dc); err != nil {
		return nil, err
	}
	return &types.OKResponse{OK: true}, nil
}

type CompleteInstantLinkLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewCompleteInstantLinkLogic(ctx context.Context, svcCtx *svc.ServiceContext) *CompleteInstantLinkLogic {
	return &CompleteInstantLinkLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *CompleteInstantLinkLogic) CompleteInstantLink(req *types.CompleteInstantLinkRequest, dc authpipeline.DeviceContext) (*types.AuthResponse, *types.MFAPendingResponse, error) {
	result, pending, err := l.svcCtx.Auth.CompleteInstantLink(l.ctx, req.Token, dc)
	if err != nil {
		return nil, nil, err
	}
	if pending != nil {
		return nil, &types.MFAPendingResponse{MFAToken: pending.MFAToken, UserID: pending.UserID.String()}, nil
	}
	return loginResultToResponse(result), nil, nil
}
