package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"finsight-api/internal/jobs"
	"finsight-api/internal/svc"
	"finsight-api/internal/types"
)

type AnalyzeLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewAnalyzeLogic(ctx context.Context, svcCtx *svc.ServiceContext) *AnalyzeLogic {
	return &AnalyzeLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// Analyze submits an asynchronous analysis job and acknowledges immediately.
func (l *AnalyzeLogic) Analyze(req *types.AnalyzeReq) (*types.AnalyzeResp, error) {
	id, err := l.svcCtx.Orchestrator.Submit(req.Symbol)
	if err != nil {
		return nil, err
	}
	l.Infof("submitted analysis job %s for symbol %s", id, req.Symbol)
	return &types.AnalyzeResp{
		TaskID: id,
		Status: jobs.StatusPending,
	}, nil
}
