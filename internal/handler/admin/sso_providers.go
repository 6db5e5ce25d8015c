// Code scaffolded in the teacher's goctl style. Safe to edit.
package admin

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/rest/httpx"

	"github.com/cedros/core/internal/apperr"
	"github.com/cedros/core/internal/handler"
	logic "github.com/cedros/core/internal/logic/admin"
	"github.com/cedros/core/internal/svc"
	"github.com/cedros/core/internal/types"
)

func ListSSOProvidersHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := handler.RequireUserID(r)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		var req types.ListSSOProvidersRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		orgID, err := uuid.Parse(req.OrgID)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, apperr.New(apperr.Validation, "invalid org_id"))
			return
		}
		resp, err := logic.NewListSSOProvidersLogic(r.Context(), svcCtx).List(userID, orgID)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		httpx.OkJsonCtx(r.Context(), w, resp)
	}
}

func GetSSOProviderHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := handler.RequireUserID(r)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		var req types.SSOProviderIDRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		providerID, err := uuid.Parse(req.ID)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, apperr.New(apperr.Validation, "invalid id"))
			return
		}
		resp, err := logic.NewGetSSOProviderLogic(r.Context(), svcCtx).Get(userID, providerID)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		httpx.OkJsonCtx(r.Context(), w, resp)
	}
}

func CreateSSOProviderHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := handler.RequireUserID(r)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		var req types.CreateSSOProviderRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		resp, err := logic.NewCreateSSOProviderLogic(r.Context(), svcCtx).Create(userID, &req)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		httpx.OkJsonCtx(r.Context(), w, resp)
	}
}

func UpdateSSOProviderHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := handler.RequireUserID(r)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		var req types.UpdateSSOProviderRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		providerID, err := uuid.Parse(req.ID)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, apperr.New(apperr.Validation, "invalid id"))
			return
		}
		resp, err := logic.NewUpdateSSOProviderLogic(r.Context(), svcCtx).Update(userID, providerID, &req)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		httpx.OkJsonCtx(r.Context(), w, resp)
	}
}

func DeleteSSOProviderHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := handler.RequireUserID(r)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		var req types.SSOProviderIDRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		providerID, err := uuid.Parse(req.ID)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, apperr.New(apperr.Validation, "invalid id"))
			return
		}
		resp, err := logic.NewDeleteSSOProviderLogic(r.Context(), svcCtx).Delete(userID, providerID)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		httpx.OkJsonCtx(r.Context(), w, resp)
	}
}
