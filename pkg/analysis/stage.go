package analysis

import (
	"fmt"
	"path/filepath"

	"finsight-api/pkg/llm"
)

// Stage binds a prompt, an iteration budget and a closed capability set.
type Stage struct {
	Name         string
	Budget       int
	Capabilities []string
	Template     *llm.PromptTemplate
}

func (s Stage) allows(tool string) bool {
	for _, name := range s.Capabilities {
		if name == tool {
			return true
		}
	}
	return false
}

// stageCapabilities fixes which tools each stage may call. The table is not
// configurable: a stage reaching outside its set is rejected in-band.
var stageCapabilities = map[string][]string{
	StageResearch: {
		"fetch_stock_price",
		"fetch_stock_history",
		"get_company_info",
		"fetch_latest_news",
		"fetch_market_summary",
		"compare_stocks",
	},
	StageTechnical: {
		"fetch_stock_history",
		"calculate_moving_averages",
		"calculate_rsi",
		"calculate_support_resistance",
	},
	StageFundamental: {
		"fetch_stock_price",
		"fetch_fundamentals",
		"calculate_valuation_metrics",
		"assess_financial_health",
	},
	StageSynthesis: {
		"generate_analysis_summary",
		"format_report",
	},
}

// buildStages loads the four stage definitions in execution order, reading
// one prompt template per stage from cfg.PromptDir.
func buildStages(cfg *Config) ([]Stage, error) {
	ordered := []struct {
		name   string
		budget int
	}{
		{StageResearch, cfg.Budgets.Research},
		{StageTechnical, cfg.Budgets.Technical},
		{StageFundamental, cfg.Budgets.Fundamental},
		{StageSynthesis, cfg.Budgets.Synthesis},
	}

	stages := make([]Stage, 0, len(ordered))
	for _, def := range ordered {
		tmpl, err := llm.NewPromptTemplate(filepath.Join(cfg.PromptDir, def.name+".tmpl"))
		if err != nil {
			return nil, fmt.Errorf("load %s stage prompt: %w", def.name, err)
		}
		stages = append(stages, Stage{
			Name:         def.name,
			Budget:       def.budget,
			Capabilities: stageCapabilities[def.name],
			Template:     tmpl,
		})
	}
	return stages, nil
}
