package wallet

import (
	"context"
	"encoding/base64"

	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/cedros/core/internal/apperr"
	"github.com/cedros/core/internal/crypto"
	"github.com/cedros/core/internal/store"
	"github.com/cedros/core/internal/svc"
	"github.com/cedros/core/internal/types"
	"github.com/cedros/core/internal/wallet"
)

type EnrollLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewEnrollLogic(ctx context.Context, svcCtx *svc.ServiceContext) *EnrollLogic {
	return &EnrollLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *EnrollLogic) Enroll(userID uuid.UUID, req *types.EnrollWalletRequest) (*types.WalletResponse, error) {
	user, err := l.svcCtx.Store.Users.GetByID(l.ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "load user", err)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(req.ShareACiphertextB64)
	if err != nil {
		return nil, apperr.New(apperr.Validation, "invalid share_a_ciphertext_b64")
	}
	nonce, err := base64.StdEncoding.DecodeString(req.ShareANonceB64)
	if err != nil {
		return nil, apperr.New(apperr.Validation, "invalid share_a_nonce_b64")
	}
	shareB, err := base64.StdEncoding.DecodeString(req.ShareBB64)
	if err != nil {
		return nil, apperr.New(apperr.Validation, "invalid share_b_b64")
	}
	var kdfSalt, prfSalt []byte
	if req.KDFSaltB64 != "" {
		if kdfSalt, err = base64.StdEncoding.DecodeString(req.KDFSaltB64); err != nil {
			return nil, apperr.New(apperr.Validation, "invalid kdf_salt_b64")
		}
	}
	if req.PRFSaltB64 != "" {
		if prfSalt, err = base64.StdEncoding.DecodeString(req.PRFSaltB64); err != nil {
			return nil, apperr.New(apperr.Validation, "invalid prf_salt_b64")
		}
	}

	material, err := l.svcCtx.Wallet.Enroll(l.ctx, wallet.EnrollRequest{
		UserID: userID, SolanaPubkey: req.SolanaPubkey, AuthMethod: store.ShareAAuthMethod(req.AuthMethod),
		ShareACiphertext: ciphertext, ShareANonce: nonce, ShareB: shareB,
		KDFSalt: kdfSalt, KDFParams: crypto.DefaultArgon2Params, PRFSalt: prfSalt, PIN: req.PIN,
	}, user.WalletAddress != nil)
	if err != nil {
		return nil, err
	}
	return &types.WalletResponse{PublicKey: material.SolanaPubkey}, nil
}

type UnlockLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewUnlockLogic(ctx context.Context, svcCtx *svc.ServiceContext) *UnlockLogic {
	return &UnlockLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *UnlockLogic) Unlock(sessionID, userID uuid.UUID, req *types.UnlockWalletRequest) (*types.OKResponse, error) {
	var prfOutput []byte
	if req.PRFOutputB64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(req.PRFOutputB64)
		if err != nil {
			return nil, apperr.New(apperr.Validation, "invalid prf_output_b64")
		}
		prfOutput = decoded
	}
	cred := wallet.UnlockCredential{Password: req.Password, PIN: req.PIN, PRFOutput: prfOutput}
	if err := l.svcCtx.Wallet.Unlock(l.ctx, sessionID, userID, cred); err != nil {
		return nil, err
	}
	return &types.OKResponse{OK: true}, nil
}

type SignLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewSignLogic(ctx context.Context, svcCtx *svc.ServiceContext) *SignLogic {
	return &SignLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *SignLogic) Sign(sessionID, userID uuid.UUID, req *types.SignRequest) (*types.SignResponse, error) {
	msg, err := base64.StdEncoding.DecodeString(req.MessageBase64)
	if err != nil {
		return nil, apperr.New(apperr.Validation, "invalid message_base64")
	}
	sig, err := l.svcCtx.Wallet.Sign(l.ctx, sessionID, userID, msg)
	if err != nil {
		return nil, err
	}
	return &types.SignResponse{SignatureBase64: base64.StdEncoding.EncodeToString(sig)}, nil
}

type CreateDerivedWalletLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewCreateDerivedWalletLogic(ctx context.Context, svcCtx *svc.ServiceContext) *CreateDerivedWalletLogic {
	return &CreateDerivedWalletLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *CreateDerivedWalletLogic) CreateDerivedWallet(sessionID, userID uuid.UUID, req *types.CreateDerivedWalletRequest) (*types.DerivedWalletResponse, error) {
	dw, err := l.svcCtx.Wallet.CreateDerivedWallet(l.ctx, sessionID, userID, req.Label)
	if err != nil {
		return nil, err
	}
	return &types.DerivedWalletResponse{ID: dw.ID.String(), Label: dw.Label, PublicKey: dw.SolanaPubkey}, nil
}
