// Code scaffolded in the teacher's goctl style. Safe to edit.
package auth

import (
	"net/http"
	"time"

	"github.com/zeromicro/go-zero/rest/httpx"

	"github.com/cedros/core/internal/cookies"
	"github.com/cedros/core/internal/handler"
	logic "github.com/cedros/core/internal/logic/auth"
	"github.com/cedros/core/internal/svc"
	"github.com/cedros/core/internal/types"
)

// refreshCookieLifetime mirrors authpipeline's session lifetime
// (refreshLifetimeOverAccess); it isn't exported, so the cookie's
// Max-Age is a deployment-wide constant here rather than read per-session.
const refreshCookieLifetime = 30 * 24 * time.Hour

func RegisterHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.RegisterRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		resp, err := logic.NewRegisterLogic(r.Context(), svcCtx).Register(&req, handler.DeviceContext(r))
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		attachTokenCookies(svcCtx.Cookies, w, resp)
		httpx.OkJsonCtx(r.Context(), w, resp)
	}
}

func LoginHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.LoginRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		resp, pending, err := logic.NewLoginLogic(r.Context(), svcCtx).Login(&req, handler.DeviceContext(r))
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		if pending != nil {
			httpx.OkJsonCtx(r.Context(), w, pending)
			return
		}
		attachTokenCookies(svcCtx.Cookies, w, resp)
		httpx.OkJsonCtx(r.Context(), w, resp)
	}
}

func CompleteMFALoginHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.CompleteMFALoginRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		resp, err := logic.NewCompleteMFALoginLogic(r.Context(), svcCtx).CompleteMFALogin(&req, handler.DeviceContext(r))
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		attachTokenCookies(svcCtx.Cookies, w, resp)
		httpx.OkJsonCtx(r.Context(), w, resp)
	}
}

// attachTokenCookies mirrors the freshly issued token pair into cookies
// when cookie mode is enabled (spec §6); bearer-header clients simply
// ignore the Set-Cookie headers.
func attachTokenCookies(cfg cookies.Config, w http.ResponseWriter, resp *types.AuthResponse) {
	cfg.Attach(w, cookies.TokenPair{
		AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken,
		AccessExpiresIn: time.Until(resp.AccessExpiresAt), RefreshExpiresIn: refreshCookieLifetime,
	})
}
