package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"finsight-api/internal/logic"
	"finsight-api/internal/svc"
	"finsight-api/internal/types"
)

func AnalyzeHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.AnalyzeReq
		if err := httpx.Parse(r, &req); err != nil {
			httpx.WriteJsonCtx(r.Context(), w, http.StatusBadRequest, types.ErrorResp{Error: err.Error()})
			return
		}

		l := logic.NewAnalyzeLogic(r.Context(), svcCtx)
		resp, err := l.Analyze(&req)
		if err != nil {
			httpx.WriteJsonCtx(r.Context(), w, http.StatusBadRequest, types.ErrorResp{Error: err.Error()})
			return
		}
		httpx.OkJsonCtx(r.Context(), w, resp)
	}
}
