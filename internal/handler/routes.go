package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest"

	"finsight-api/internal/svc"
)

func RegisterHandlers(server *rest.Server, serverCtx *svc.ServiceContext) {
	server.AddRoutes(
		[]rest.Route{
			{
				Method:  http.MethodPost,
				Path:    "/analyze",
				Handler: AnalyzeHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/status/:task_id",
				Handler: StatusHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/health",
				Handler: HealthHandler(serverCtx),
			},
		},
	)
}
