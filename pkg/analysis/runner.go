package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
)

const formatReportTool = "format_report"

// ErrBudgetExhausted reports a stage that ran out of iterations before
// producing a conclusion.
var ErrBudgetExhausted = errors.New("analysis: stage iteration budget exhausted")

// Runner executes the four stages in order for one symbol. Stages never run
// concurrently; context accumulates from stage to stage.
type Runner struct {
	stages []Stage
	tools  *Toolset
	collab Collaborator
}

// NewRunner builds a runner from configuration. Stage prompts are loaded
// eagerly so a missing template fails at startup, not mid-job.
func NewRunner(cfg *Config, data MarketData, collab Collaborator) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("analysis: config is required")
	}
	if data == nil {
		return nil, errors.New("analysis: market data is required")
	}
	if collab == nil {
		return nil, errors.New("analysis: collaborator is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	stages, err := buildStages(cfg)
	if err != nil {
		return nil, err
	}
	return &Runner{
		stages: stages,
		tools:  NewToolset(data, cfg.HistoryDays),
		collab: collab,
	}, nil
}

// newRunnerWithStages is the test seam: stages supplied directly.
func newRunnerWithStages(stages []Stage, tools *Toolset, collab Collaborator) *Runner {
	return &Runner{stages: stages, tools: tools, collab: collab}
}

// Run executes the pipeline. On any stage failure the whole run fails and
// partial stage results are discarded.
func (r *Runner) Run(ctx context.Context, symbol string) (*RunResult, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, errors.New("analysis: symbol is required")
	}

	logger := logx.WithContext(ctx)
	logger.Infof("analysis: starting pipeline for %s", symbol)

	var (
		results     []StageResult
		accumulated strings.Builder
		report      string
	)

	for _, stage := range r.stages {
		result, stageReport, err := r.runStage(ctx, stage, symbol, accumulated.String())
		if err != nil {
			logger.Errorf("analysis: stage %s failed for %s: %v", stage.Name, symbol, err)
			return nil, fmt.Errorf("stage %s: %w", stage.Name, err)
		}
		results = append(results, result)
		fmt.Fprintf(&accumulated, "## %s findings\n%s\n\n", stage.Name, result.Output)
		if stage.Name == StageSynthesis {
			report = stageReport
		}
		logger.Infof("analysis: stage %s completed for %s in %d iterations",
			stage.Name, symbol, result.Iterations)
	}

	if report == "" {
		return nil, errors.New("analysis: synthesis produced no report")
	}

	return &RunResult{
		Symbol:      symbol,
		Report:      report,
		Stages:      results,
		CompletedAt: time.Now(),
	}, nil
}

// runStage drives one stage conversation. For the synthesis stage the report
// string is the format_report tool output exactly as produced; other stages
// return an empty report.
func (r *Runner) runStage(ctx context.Context, stage Stage, symbol, priorContext string) (StageResult, string, error) {
	prompt, err := stage.Template.Render(map[string]string{"Symbol": symbol})
	if err != nil {
		return StageResult{}, "", err
	}

	exchange := &Exchange{
		Stage:        stage.Name,
		Symbol:       symbol,
		Prompt:       prompt,
		Context:      priorContext,
		Capabilities: stage.Capabilities,
	}

	for iteration := 1; iteration <= stage.Budget; iteration++ {
		directive, err := r.collab.Next(ctx, exchange)
		if err != nil {
			return StageResult{}, "", err
		}

		switch directive.Action {
		case ActionFinish:
			if stage.Name == StageSynthesis {
				// Synthesis may only conclude through format_report.
				return StageResult{}, "", errors.New("synthesis ended without format_report")
			}
			if strings.TrimSpace(directive.Text) == "" {
				return StageResult{}, "", errors.New("finish directive carried no text")
			}
			return StageResult{
				Stage:      stage.Name,
				Output:     directive.Text,
				Iterations: iteration,
			}, "", nil

		case ActionTool:
			result := r.dispatch(ctx, stage, directive)
			exchange.Transcript = append(exchange.Transcript, Step{
				Tool:   directive.Tool,
				Args:   directive.Args,
				Result: result,
			})
			if stage.Name == StageSynthesis && directive.Tool == formatReportTool && stage.allows(formatReportTool) {
				return StageResult{
					Stage:      stage.Name,
					Output:     result,
					Iterations: iteration,
				}, result, nil
			}

		default:
			exchange.Transcript = append(exchange.Transcript, Step{
				Tool:   directive.Tool,
				Args:   directive.Args,
				Result: fmt.Sprintf("unrecognized action %q; reply with tool or finish", directive.Action),
			})
		}
	}

	return StageResult{}, "", ErrBudgetExhausted
}

// dispatch enforces the stage capability set before invoking. Rejections are
// in-band text so the collaborator can correct course within its budget.
func (r *Runner) dispatch(ctx context.Context, stage Stage, directive *Directive) string {
	if !stage.allows(directive.Tool) {
		return fmt.Sprintf("tool %q is not available in the %s stage; available tools: %s",
			directive.Tool, stage.Name, strings.Join(stage.Capabilities, ", "))
	}
	return r.tools.Invoke(ctx, directive.Tool, directive.Args)
}
