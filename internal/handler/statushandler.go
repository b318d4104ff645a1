package handler

import (
	"errors"
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"finsight-api/internal/jobs"
	"finsight-api/internal/logic"
	"finsight-api/internal/svc"
	"finsight-api/internal/types"
)

func StatusHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.StatusReq
		if err := httpx.Parse(r, &req); err != nil {
			httpx.WriteJsonCtx(r.Context(), w, http.StatusBadRequest, types.ErrorResp{Error: err.Error()})
			return
		}

		l := logic.NewStatusLogic(r.Context(), svcCtx)
		resp, err := l.Status(&req)
		if err != nil {
			code := http.StatusInternalServerError
			if errors.Is(err, jobs.ErrNotFound) {
				code = http.StatusNotFound
			}
			httpx.WriteJsonCtx(r.Context(), w, code, types.ErrorResp{Error: err.Error()})
			return
		}
		httpx.OkJsonCtx(r.Context(), w, resp)
	}
}
