package analysis

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// scriptedCollaborator replays a fixed directive sequence and records every
// exchange it was shown.
type scriptedCollaborator struct {
	directives []*Directive
	exchanges  []*Exchange
	err        error
}

func (s *scriptedCollaborator) Next(ctx context.Context, exchange *Exchange) (*Directive, error) {
	if s.err != nil {
		return nil, s.err
	}
	snapshot := *exchange
	snapshot.Transcript = append([]Step(nil), exchange.Transcript...)
	s.exchanges = append(s.exchanges, &snapshot)

	if len(s.directives) == 0 {
		return nil, errors.New("script exhausted")
	}
	next := s.directives[0]
	s.directives = s.directives[1:]
	return next, nil
}

func writePrompts(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, stage := range []string{StageResearch, StageTechnical, StageFundamental, StageSynthesis} {
		content := "You are running the " + stage + " stage for {{.Symbol}}."
		require.NoError(t, os.WriteFile(filepath.Join(dir, stage+".tmpl"), []byte(content), 0o644))
	}
	return dir
}

func pipelineConfig(t *testing.T) *Config {
	cfg := DefaultConfig()
	cfg.PromptDir = writePrompts(t)
	return cfg
}

func finish(text string) *Directive {
	return &Directive{Action: ActionFinish, Text: text}
}

func toolCall(name string, args map[string]string) *Directive {
	return &Directive{Action: ActionTool, Tool: name, Args: args}
}

func TestRunnerHappyPath(t *testing.T) {
	reportArgs := map[string]string{
		"symbol":         "AAPL",
		"recommendation": "BUY",
		"price_target":   "200",
		"confidence":     "high",
		"current_price":  "180.5",
		"rsi":            "61.2",
		"pe_ratio":       "28.4",
	}
	collab := &scriptedCollaborator{directives: []*Directive{
		toolCall("fetch_stock_price", map[string]string{"symbol": "AAPL"}),
		finish("research conclusion"),
		finish("technical conclusion"),
		finish("fundamental conclusion"),
		toolCall("format_report", reportArgs),
	}}

	runner, err := NewRunner(pipelineConfig(t), healthyStub(), collab)
	require.NoError(t, err)

	result, err := runner.Run(context.Background(), "aapl")
	require.NoError(t, err)

	require.Equal(t, "AAPL", result.Symbol)
	require.Len(t, result.Stages, 4)
	require.Equal(t, StageResearch, result.Stages[0].Stage)
	require.Equal(t, StageSynthesis, result.Stages[3].Stage)
	require.Equal(t, 2, result.Stages[0].Iterations)

	// The run report is exactly the formatter output for the same arguments.
	want := NewToolset(healthyStub(), 365).Invoke(context.Background(), "format_report", reportArgs)
	require.Equal(t, want, result.Report)
	require.Equal(t, result.Report, result.Stages[3].Output)
}

func TestRunnerAccumulatesContextAcrossStages(t *testing.T) {
	collab := &scriptedCollaborator{directives: []*Directive{
		finish("research conclusion"),
		finish("technical conclusion"),
		finish("fundamental conclusion"),
		toolCall("format_report", map[string]string{"symbol": "AAPL"}),
	}}

	runner, err := NewRunner(pipelineConfig(t), healthyStub(), collab)
	require.NoError(t, err)

	_, err = runner.Run(context.Background(), "AAPL")
	require.NoError(t, err)

	require.Len(t, collab.exchanges, 4)
	require.Empty(t, collab.exchanges[0].Context)

	synthesis := collab.exchanges[3]
	require.Equal(t, StageSynthesis, synthesis.Stage)
	require.Contains(t, synthesis.Context, "research conclusion")
	require.Contains(t, synthesis.Context, "technical conclusion")
	require.Contains(t, synthesis.Context, "fundamental conclusion")
}

func TestRunnerRejectsOutOfSetTool(t *testing.T) {
	collab := &scriptedCollaborator{directives: []*Directive{
		toolCall("format_report", map[string]string{"symbol": "AAPL"}), // not a research tool
		finish("research conclusion"),
		finish("technical conclusion"),
		finish("fundamental conclusion"),
		toolCall("format_report", map[string]string{"symbol": "AAPL"}),
	}}

	runner, err := NewRunner(pipelineConfig(t), healthyStub(), collab)
	require.NoError(t, err)

	result, err := runner.Run(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Equal(t, 2, result.Stages[0].Iterations)

	// The second research exchange saw the in-band rejection.
	second := collab.exchanges[1]
	require.Len(t, second.Transcript, 1)
	require.Contains(t, second.Transcript[0].Result, "not available in the research stage")
}

func TestRunnerBudgetExhaustionFailsRun(t *testing.T) {
	cfg := pipelineConfig(t)
	cfg.Budgets.Research = 2

	collab := &scriptedCollaborator{directives: []*Directive{
		toolCall("fetch_stock_price", map[string]string{"symbol": "AAPL"}),
		toolCall("fetch_stock_price", map[string]string{"symbol": "AAPL"}),
	}}

	runner, err := NewRunner(cfg, healthyStub(), collab)
	require.NoError(t, err)

	result, err := runner.Run(context.Background(), "AAPL")
	require.ErrorIs(t, err, ErrBudgetExhausted)
	require.Nil(t, result)
}

func TestRunnerSynthesisMustUseFormatReport(t *testing.T) {
	collab := &scriptedCollaborator{directives: []*Directive{
		finish("research conclusion"),
		finish("technical conclusion"),
		finish("fundamental conclusion"),
		finish("here is my report as plain text"),
	}}

	runner, err := NewRunner(pipelineConfig(t), healthyStub(), collab)
	require.NoError(t, err)

	result, err := runner.Run(context.Background(), "AAPL")
	require.Error(t, err)
	require.Nil(t, result)
	require.Contains(t, err.Error(), "format_report")
}

func TestRunnerRejectsEmptySymbol(t *testing.T) {
	runner, err := NewRunner(pipelineConfig(t), healthyStub(), &scriptedCollaborator{})
	require.NoError(t, err)

	_, err = runner.Run(context.Background(), "   ")
	require.Error(t, err)
}

func TestRunnerCollaboratorErrorFailsRun(t *testing.T) {
	collab := &scriptedCollaborator{err: errors.New("backend down")}

	runner, err := NewRunner(pipelineConfig(t), healthyStub(), collab)
	require.NoError(t, err)

	result, err := runner.Run(context.Background(), "AAPL")
	require.Error(t, err)
	require.Nil(t, result)
}

func TestNewRunnerMissingPrompt(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PromptDir = t.TempDir() // no templates inside

	_, err := NewRunner(cfg, healthyStub(), &scriptedCollaborator{})
	require.Error(t, err)
}
