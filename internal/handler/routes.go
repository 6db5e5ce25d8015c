// Code scaffolded in the teacher's goctl style. Safe to edit.
package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest"

	adminHandler "github.com/cedros/core/internal/handler/admin"
	apikeyHandler "github.com/cedros/core/internal/handler/apikey"
	authHandler "github.com/cedros/core/internal/handler/auth"
	creditHandler "github.com/cedros/core/internal/handler/credit"
	walletHandler "github.com/cedros/core/internal/handler/wallet"
	"github.com/cedros/core/internal/svc"
)

// RegisterHandlers wires every HTTP-facing operation onto the server,
// applying RequiredAuthMiddleware to every route that needs an
// authenticated session and leaving public routes (registration, login,
// password reset, instant link) unguarded.
func RegisterHandlers(server *rest.Server, svcCtx *svc.ServiceContext) {
	server.AddRoutes([]rest.Route{
		{Method: http.MethodPost, Path: "/v1/auth/register", Handler: authHandler.RegisterHandler(svcCtx)},
		{Method: http.MethodPost, Path: "/v1/auth/login", Handler: authHandler.LoginHandler(svcCtx)},
		{Method: http.MethodPost, Path: "/v1/auth/mfa/complete", Handler: authHandler.CompleteMFALoginHandler(svcCtx)},
		{Method: http.MethodPost, Path: "/v1/auth/refresh", Handler: authHandler.RefreshHandler(svcCtx)},
		{Method: http.MethodPost, Path: "/v1/auth/password-reset/request", Handler: authHandler.RequestPasswordResetHandler(svcCtx)},
		{Method: http.MethodPost, Path: "/v1/auth/password-reset/complete", Handler: authHandler.CompletePasswordResetHandler(svcCtx)},
		{Method: http.MethodPost, Path: "/v1/auth/email/verify", Handler: authHandler.VerifyEmailHandler(svcCtx)},
		{Method: http.MethodPost, Path: "/v1/auth/instant-link/request", Handler: authHandler.RequestInstantLinkHandler(svcCtx)},
		{Method: http.MethodPost, Path: "/v1/auth/instant-link/complete", Handler: authHandler.CompleteInstantLinkHandler(svcCtx)},
	})

	server.AddRoutes(rest.WithMiddlewares(
		[]rest.Middleware{svcCtx.RequiredAuthMiddleware},
		[]rest.Route{
			{Method: http.MethodPost, Path: "/v1/auth/logout", Handler: authHandler.LogoutHandler(svcCtx)},
			{Method: http.MethodPost, Path: "/v1/auth/logout-all", Handler: authHandler.LogoutAllHandler(svcCtx)},

			{Method: http.MethodPost, Path: "/v1/wallet/enroll", Handler: walletHandler.EnrollHandler(svcCtx)},
			{Method: http.MethodPost, Path: "/v1/wallet/unlock", Handler: walletHandler.UnlockHandler(svcCtx)},
			{Method: http.MethodPost, Path: "/v1/wallet/sign", Handler: walletHandler.SignHandler(svcCtx)},
			{Method: http.MethodPost, Path: "/v1/wallet/derived", Handler: walletHandler.CreateDerivedWalletHandler(svcCtx)},

			{Method: http.MethodPost, Path: "/v1/credit/deposit-from-chain", Handler: creditHandler.DepositFromChainHandler(svcCtx)},
			{Method: http.MethodPost, Path: "/v1/credit/spend", Handler: creditHandler.SpendHandler(svcCtx)},
			{Method: http.MethodGet, Path: "/v1/credit/balance", Handler: creditHandler.BalanceHandler(svcCtx)},
			{Method: http.MethodGet, Path: "/v1/credit/history", Handler: creditHandler.HistoryHandler(svcCtx)},

			{Method: http.MethodGet, Path: "/v1/api-key", Handler: apikeyHandler.GetHandler(svcCtx)},
			{Method: http.MethodPost, Path: "/v1/api-key/regenerate", Handler: apikeyHandler.RegenerateHandler(svcCtx)},

			{Method: http.MethodGet, Path: "/v1/admin/sso-providers", Handler: adminHandler.ListSSOProvidersHandler(svcCtx)},
			{Method: http.MethodGet, Path: "/v1/admin/sso-providers/:id", Handler: adminHandler.GetSSOProviderHandler(svcCtx)},
			{Method: http.MethodPost, Path: "/v1/admin/sso-providers", Handler: adminHandler.CreateSSOProviderHandler(svcCtx)},
			{Method: http.MethodPut, Path: "/v1/admin/sso-providers/:id", Handler: adminHandler.UpdateSSOProviderHandler(svcCtx)},
			{Method: http.MethodDelete, Path: "/v1/admin/sso-providers/:id", Handler: adminHandler.DeleteSSOProviderHandler(svcCtx)},
		}...,
	))
}
