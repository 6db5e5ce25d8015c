// Code scaffolded in the teacher's goctl style. Safe to edit.
package auth

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"github.com/cedros/core/internal/handler"
	logic "github.com/cedros/core/internal/logic/auth"
	"github.com/cedros/core/internal/svc"
	"github.com/cedros/core/internal/types"
)

func RequestPasswordResetHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.RequestPasswordResetRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		resp, err := logic.NewRequestPasswordResetLogic(r.Context(), svcCtx).RequestPasswordReset(&req)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		httpx.OkJsonCtx(r.Context(), w, resp)
	}
}

func CompletePasswordResetHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.CompletePasswordResetRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		resp, err := logic.NewCompletePasswordResetLogic(r.Context(), svcCtx).CompletePasswordReset(&req, handler.DeviceContext(r))
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		httpx.OkJsonCtx(r.Context(), w, resp)
	}
}

func VerifyEmailHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.VerifyEmailRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		resp, err := logic.NewVerifyEmailLogic(r.Context(), svcCtx).VerifyEmail(&req)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		httpx.OkJsonCtx(r.Context(), w, resp)
	}
}

func RequestInstantLinkHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.RequestInstantLinkRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		resp, err := logic.NewRequestInstantLinkLogic(r.Context(), svcCtx).RequestInstantLink(&req, handler.DeviceContext(r))
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		httpx.OkJsonCtx(r.Context(), w, resp)
	}
}

func CompleteInstantLinkHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.CompleteInstantLinkRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		resp, pending, err := logic.NewCompleteInstantLinkLogic(r.Context(), svcCtx).CompleteInstantLink(&req, handler.DeviceContext(r))
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
