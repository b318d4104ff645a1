package jobs

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/core/logx"

	"finsight-api/pkg/analysis"
)

// Pipeline runs the full analysis for one symbol.
type Pipeline interface {
	Run(ctx context.Context, symbol string) (*analysis.RunResult, error)
}

// ReportWriter persists a finished report and returns the artifact path.
type ReportWriter interface {
	Write(symbol, report string, at time.Time) (string, error)
}

// Orchestrator accepts analysis requests and runs each one on its own
// goroutine. Jobs are fire-and-forget: there is no cancellation and no bound
// on in-flight jobs.
type Orchestrator struct {
	registry *Registry
	pipeline Pipeline
	writer   ReportWriter
	now      func() time.Time
}

// NewOrchestrator wires the orchestrator. writer may be nil, in which case no
// report artifact is produced.
func NewOrchestrator(registry *Registry, pipeline Pipeline, writer ReportWriter) (*Orchestrator, error) {
	if registry == nil {
		return nil, errors.New("jobs: registry is required")
	}
	if pipeline == nil {
		return nil, errors.New("jobs: pipeline is required")
	}
	return &Orchestrator{
		registry: registry,
		pipeline: pipeline,
		writer:   writer,
		now:      time.Now,
	}, nil
}

// Submit validates the symbol, records a pending job and returns its ID
// immediately. The analysis runs in the background.
func (o *Orchestrator) Submit(symbol string) (string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return "", errors.New("jobs: symbol is required")
	}

	id := uuid.NewString()
	o.registry.Create(id, symbol, o.now())
	go o.run(id, symbol)
	return id, nil
}

// Status returns a snapshot of the job, or ErrNotFound.
func (o *Orchestrator) Status(id string) (Job, error) {
	return o.registry.Get(id)
}

func (o *Orchestrator) run(id, symbol string) {
	ctx := context.Background()
	logger := logx.WithContext(ctx)

	o.registry.MarkRunning(id)
	logger.Infof("jobs: %s running analysis for %s", id, symbol)

	result, err := o.pipeline.Run(ctx, symbol)
	if err != nil {
		o.registry.MarkFailed(id, err.Error())
		logger.Errorf("jobs: %s failed for %s: %v", id, symbol, err)
		return
	}

	var reportPath string
	if o.writer != nil {
		reportPath, err = o.writer.Write(symbol, result.Report, result.CompletedAt)
		if err != nil {
			o.registry.MarkFailed(id, err.Error())
			logger.Errorf("jobs: %s report persist failed for %s: %v", id, symbol, err)
			return
		}
	}

	o.registry.MarkCompleted(id, result.Report, reportPath)
	logger.Infof("jobs: %s completed for %s", id, symbol)
}
