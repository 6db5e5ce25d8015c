// Code scaffolded in the teacher's goctl style. Safe to edit.
package auth

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/rest/httpx"

	"github.com/cedros/core/internal/apperr"
	"github.com/cedros/core/internal/handler"
	logic "github.com/cedros/core/internal/logic/auth"
	"github.com/cedros/core/internal/svc"
	"github.com/cedros/core/internal/types"
)

func RefreshHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.RefreshRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		resp, err := logic.NewRefreshLogic(r.Context(), svcCtx).Refresh(&req, handler.DeviceContext(r))
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		attachTokenCookies(svcCtx.Cookies, w, resp)
		httpx.OkJsonCtx(r.Context(), w, resp)
	}
}

func LogoutHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := handler.RequireClaims(r)
		if !ok {
			httpx.ErrorCtx(r.Context(), w, apperr.New(apperr.Unauthorized, "unauthorized"))
			return
		}
		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, apperr.New(apperr.Unauthorized, "unauthorized"))
			return
		}
		var req types.LogoutRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		resp, err := logic.NewLogoutLogic(r.Context(), svcCtx).Logout(userID, &req, handler.DeviceContext(r))
		// Once the caller is authenticated, cookies are cleared even when
		// Logout returns an error; the early returns above (no claims, bad
		// subject, unparsable body) leave cookies untouched.
		svcCtx.Cookies.AttachLogout(w)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		httpx.OkJsonCtx(r.Context(), w, resp)
	}
}

func LogoutAllHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := handler.RequireClaims(r)
		if !ok {
			httpx.ErrorCtx(r.Context(), w, apperr.New(apperr.Unauthorized, "unauthorized"))
			return
		}
		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, apperr.New(apperr.Unauthorized, "unauthorized"))
			return
		}
		resp, err := logic.NewLogoutAllLogic(r.Context(), svcCtx).LogoutAll(userID, handler.DeviceContext(r))
		svcCtx.Cookies.AttachLogout(w)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		httpx.OkJsonCtx(r.Context(), w, resp)
	}
}
