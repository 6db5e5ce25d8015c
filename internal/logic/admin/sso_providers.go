package admin

import (
	"context"

	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/cedros/core/internal/admin"
	"github.com/cedros/core/internal/apperr"
	"github.com/cedros/core/internal/store"
	"github.com/cedros/core/internal/svc"
	"github.com/cedros/core/internal/types"
)

func providerToResponse(p *store.SSOProvider) *types.SSOProviderResponse {
	return &types.SSOProviderResponse{
		ID: p.ID.String(), OrgID: p.OrgID.String(), Name: p.Name, IssuerURL: p.IssuerURL,
		ClientID: p.ClientID, Scopes: p.AllowedScopes, Enabled: p.Enabled,
		AllowRegistration: p.AllowRegistration, EmailDomain: p.EmailDomain,
	}
}

type ListSSOProvidersLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewListSSOProvidersLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ListSSOProvidersLogic {
	return &ListSSOProvidersLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *ListSSOProvidersLogic) List(userID, orgID uuid.UUID) (*types.ListSSOProvidersResponse, error) {
	providers, err := l.svcCtx.SSOAdmin.List(l.ctx, userID, orgID)
	if err != nil {
		return nil, err
	}
	out := make([]types.SSOProviderResponse, 0, len(providers))
	for _, p := range providers {
		out = append(out, *providerToResponse(p))
	}
	return &types.ListSSOProvidersResponse{Providers: out}, nil
}

type GetSSOProviderLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewGetSSOProviderLogic(ctx context.Context, svcCtx *svc.ServiceContext) *GetSSOProviderLogic {
	return &GetSSOProviderLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *GetSSOProviderLogic) Get(userID, providerID uuid.UUID) (*types.SSOProviderResponse, error) {
	p, err := l.svcCtx.SSOAdmin.Get(l.ctx, userID, providerID)
	if err != nil {
		return nil, err
	}
	return providerToResponse(p), nil
}

type CreateSSOProviderLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewCreateSSOProviderLogic(ctx context.Context, svcCtx *svc.ServiceContext) *CreateSSOProviderLogic {
	return &CreateSSOProviderLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *CreateSSOProviderLogic) Create(userID uuid.UUID, req *types.CreateSSOProviderRequest) (*types.SSOProviderResponse, error) {
	orgID, err := uuid.Parse(req.OrgID)
	if err != nil {
		return nil, apperr.New(apperr.Validation, "invalid org_id")
	}
	p, err := l.svcCtx.SSOAdmin.Create(l.ctx, userID, admin.CreateRequest{
		OrgID: orgID, Name: req.Name, IssuerURL: req.IssuerURL, ClientID: req.ClientID,
		ClientSecret: req.ClientSecret, Scopes: req.Scopes, Enabled: req.Enabled,
		AllowRegistration: req.AllowRegistration, EmailDomain: req.EmailDomain,
	})
	if err != nil {
		return nil, err
	}
	return providerToResponse(p), nil
}

type UpdateSSOProviderLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewUpdateSSOProviderLogic(ctx context.Context, svcCtx *svc.ServiceContext) *UpdateSSOProviderLogic {
	return &UpdateSSOProviderLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *UpdateSSOProviderLogic) Update(userID, providerID uuid.UUID, req *types.UpdateSSOProviderRequest) (*types.SSOProviderResponse, error) {
	p, err := l.svcCtx.SSOAdmin.Update(l.ctx, userID, providerID, admin.UpdateRequest{
		Name: req.Name, IssuerURL: req.IssuerURL, ClientID: req.ClientID, ClientSecret: req.ClientSecret,
		Scopes: req.Scopes, Enabled: req.Enabled, AllowRegistration: req.AllowRegistration,
		EmailDomain: req.EmailDomain, EmailDomainSet: req.EmailDomainSet,
	})
	if err != nil {
		return nil, err
	}
	return providerToResponse(p), nil
}

type DeleteSSOProviderLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewDeleteSSOProviderLogic(ctx context.Context, svcCtx *svc.ServiceContext) *DeleteSSOProviderLogic {
	return &DeleteSSOProviderLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *DeleteSSOProviderLogic) Delete(userID, providerID uuid.UUID) (*types.DeleteResponse, error) {
	if err := l.svcCtx.SSOAdmin.Delete(l.ctx, userID, providerID); err != nil {
		return nil, err
	}
	return &types.DeleteResponse{Success: true}, nil
}
