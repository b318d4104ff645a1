package logic

import (
	"context"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"finsight-api/internal/svc"
	"finsight-api/internal/types"
)

type StatusLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewStatusLogic(ctx context.Context, svcCtx *svc.ServiceContext) *StatusLogic {
	return &StatusLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// Status returns a snapshot of one job. jobs.ErrNotFound passes through for
// the handler to map onto a 404.
func (l *StatusLogic) Status(req *types.StatusReq) (*types.StatusResp, error) {
	job, err := l.svcCtx.Orchestrator.Status(req.TaskID)
	if err != nil {
		return nil, err
	}
	return &types.StatusResp{
		TaskID:      job.ID,
		Symbol:      job.Symbol,
		Status:      job.Status,
		SubmittedAt: job.SubmittedAt.Format(time.RFC3339),
		Result:      job.Result,
		Error:       job.Error,
		ReportPath:  job.ReportPath,
	}, nil
}
