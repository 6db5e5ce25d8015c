package auth

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/cedros/core/internal/authpipeline"
	"github.com/cedros/core/internal/svc"
	"github.com/cedros/core/internal/types"
)

type RegisterLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewRegisterLogic(ctx context.Context, svcCtx *svc.ServiceContext) *RegisterLogic {
	return &RegisterLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *RegisterLogic) Register(req *types.RegisterRequest, dc authpipeline.DeviceContext) (*types.AuthResponse, error) {
	result, err := l.svcCtx.Auth.Register(l.ctx, authpipeline.RegisterRequest{
		Email: req.Email, Password: req.Password, Name: req.Name,
	}, dc)
	if err != nil {
		return nil, err
	}
	return loginResultToResponse(result), nil
}

type LoginLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewLoginLogic(ctx context.Context, svcCtx *svc.ServiceContext) *LoginLogic {
	return &LoginLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

// Login returns either a completed AuthResponse or, when the account has
// MFA enabled, an MFAPendingResponse that the caller must complete via
// CompleteMFALoginLogic.
func (l *LoginLogic) Login(req *types.LoginRequest, dc authpipeline.DeviceContext) (*types.AuthResponse, *types.MFAPendingResponse, error) {
	result, pending, err := l.svcCtx.Auth.Login(l.ctx, authpipeline.LoginRequest{
		Email: req.Email, Password: req.Password,
	}, dc)
	if err != nil {
		return nil, nil, err
	}
	if pending != nil {
		return nil, &types.MFAPendingResponse{MFAToken: pending.MFAToken, UserID: pending.UserID.String()}, nil
	}
	return loginResultToResponse(result), nil, nil
}

type CompleteMFALoginLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewCompleteMFALoginLogic(ctx context.Context, svcCtx *svc.ServiceContext) *CompleteMFALoginLogic {
	return &CompleteMFALoginLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *CompleteMFALoginLogic) CompleteMFALogin(req *types.CompleteMFALoginRequest, dc authpipeline.DeviceContext) (*types.AuthResponse, error) {
	result, err := l.svcCtx.Auth.CompleteMFALogin(l.ctx, req.MFAToken, req.Code, dc)
	if err != nil {
		return nil, err
	}
	return loginResultToResponse(result), nil
}

func loginResultToResponse(result *authpipeline.LoginResult) *types.AuthResponse {
	return &types.AuthResponse{
		UserID: result.User.ID.String(), SessionID: result.Session.ID.String(),
		AccessToken: result.Tokens.AccessToken, AccessExpiresAt: result.Tokens.AccessExpiresAt,
		RefreshToken: result.Tokens.RefreshToken, EmailVerified: result.User.EmailVerified,
		IsNewUser: result.IsNew,
	}
}
