package svc

import (
	"log"

	"finsight-api/internal/cache"
	"finsight-api/internal/config"
	"finsight-api/internal/jobs"
	"finsight-api/internal/report"
	"finsight-api/pkg/analysis"
	"finsight-api/pkg/confkit"
	llmpkg "finsight-api/pkg/llm"
	marketpkg "finsight-api/pkg/market"
	"finsight-api/pkg/market/alphavantage"
	"finsight-api/pkg/market/finnhub"
)

type ServiceContext struct {
	Config config.Config

	Cache        *cache.Store
	Market       *marketpkg.Provider
	LLM          llmpkg.LLMClient
	Runner       *analysis.Runner
	Orchestrator *jobs.Orchestrator
}

func NewServiceContext(c config.Config) *ServiceContext {
	svc := &ServiceContext{Config: c}

	// Market data layer. A failed cache open degrades to uncached fetches.
	marketCfg := c.Providers.Value
	if marketCfg == nil {
		marketCfg = marketpkg.DefaultConfig()
	}
	svc.Cache = cache.MustOpen(c.CacheDir())
	svc.Market = marketpkg.NewProvider(
		finnhub.NewClient(marketCfg.FinnhubAPIKey, finnhub.WithTimeout(marketCfg.RequestTimeout)),
		alphavantage.NewClient(marketCfg.AlphaVantageAPIKey, alphavantage.WithTimeout(marketCfg.RequestTimeout)),
		svc.Cache,
		marketCfg,
	)

	// LLM client and collaborator.
	if c.LLM.Value == nil {
		log.Fatalf("config: llm section is required")
	}
	llmClient, err := llmpkg.NewClient(c.LLM.Value)
	if err != nil {
		log.Fatalf("failed to init llm client: %v", err)
	}
	svc.LLM = llmClient

	pipelineCfg := c.Pipeline.Value
	if pipelineCfg == nil {
		pipelineCfg = analysis.DefaultConfig()
		pipelineCfg.PromptDir = confkit.ResolvePath(c.BaseDir(), pipelineCfg.PromptDir)
	}

	collaborator, err := analysis.NewLLMCollaborator(llmClient, pipelineCfg.Model)
	if err != nil {
		log.Fatalf("failed to init collaborator: %v", err)
	}
	runner, err := analysis.NewRunner(pipelineCfg, svc.Market, collaborator)
	if err != nil {
		log.Fatalf("failed to init analysis runner: %v", err)
	}
	svc.Runner = runner

	writer, err := report.NewWriter(c.ReportsDir())
	if err != nil {
		log.Fatalf("failed to init report writer: %v", err)
	}
	orchestrator, err := jobs.NewOrchestrator(jobs.NewRegistry(), runner, writer)
	if err != nil {
		log.Fatalf("failed to init orchestrator: %v", err)
	}
	svc.Orchestrator = orchestrator

	return svc
}
