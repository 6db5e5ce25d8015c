// Code scaffolded in the teacher's goctl style. Safe to edit.
package apikey

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"github.com/cedros/core/internal/handler"
	logic "github.com/cedros/core/internal/logic/apikey"
	"github.com/cedros/core/internal/svc"
	"github.com/cedros/core/internal/types"
)

func GetHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := handler.RequireUserID(r)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		resp, err := logic.NewGetLogic(r.Context(), svcCtx).Get(userID)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		httpx.OkJsonCtx(r.Context(), w, resp)
	}
}

func RegenerateHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := handler.RequireUserID(r)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		var req types.RegenerateAPIKeyRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		resp, err := logic.NewRegenerateLogic(r.Context(), svcCtx).Regenerate(userID, &req)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		httpx.OkJsonCtx(r.Context(), w, resp)
	}
}
