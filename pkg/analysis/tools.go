package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"finsight-api/pkg/market"
	"finsight-api/pkg/market/indicators"
)

// MarketData is the slice of the market provider the capability layer needs.
type MarketData interface {
	Quote(ctx context.Context, symbol string) (*market.Quote, error)
	History(ctx context.Context, symbol string, days int) (market.Series, error)
	Fundamentals(ctx context.Context, symbol string) (market.Fundamentals, error)
	News(ctx context.Context, symbol string) ([]market.NewsItem, error)
}

// Tool is one named capability exposed to the collaborator. Run never returns
// an error to the caller; upstream failures become in-band text so a missing
// data point degrades narrative quality instead of aborting the stage.
type Tool struct {
	Name        string
	Description string
	Run         func(ctx context.Context, args map[string]string) string
}

// Toolset is the dispatch table over the market data layer.
type Toolset struct {
	data        MarketData
	historyDays int
	tools       map[string]Tool
}

// NewToolset builds the full capability table.
func NewToolset(data MarketData, historyDays int) *Toolset {
	if historyDays <= 0 {
		historyDays = defaultHistoryDays
	}
	ts := &Toolset{data: data, historyDays: historyDays}
	ts.register()
	return ts
}

// Names returns the sorted capability names.
func (ts *Toolset) Names() []string {
	names := make([]string, 0, len(ts.tools))
	for name := range ts.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether a capability is registered.
func (ts *Toolset) Has(name string) bool {
	_, ok := ts.tools[name]
	return ok
}

// Describe returns the one-line description for a capability.
func (ts *Toolset) Describe(name string) string {
	tool, ok := ts.tools[name]
	if !ok {
		return ""
	}
	return tool.Description
}

// Invoke runs a capability by name. Unknown names yield in-band text; the
// runner handles capability-set enforcement before calling Invoke.
func (ts *Toolset) Invoke(ctx context.Context, name string, args map[string]string) string {
	tool, ok := ts.tools[name]
	if !ok {
		return fmt.Sprintf("unknown tool %q", name)
	}
	return tool.Run(ctx, args)
}

func (ts *Toolset) register() {
	ts.tools = map[string]Tool{}
	for _, tool := range []Tool{
		{"fetch_stock_price", "Current quote with day range and market cap", ts.fetchStockPrice},
		{"fetch_stock_history", "Daily price history summary", ts.fetchStockHistory},
		{"fetch_fundamentals", "Company fundamentals and key ratios", ts.fetchFundamentals},
		{"get_company_info", "Company name, sector, industry and profile", ts.getCompanyInfo},
		{"fetch_latest_news", "Recent company headlines", ts.fetchLatestNews},
		{"fetch_market_summary", "Quote, profile and headlines in one call", ts.fetchMarketSummary},
		{"compare_stocks", "Side-by-side quote and P/E for multiple symbols", ts.compareStocks},
		{"calculate_moving_averages", "20, 50 and 200 day moving averages", ts.calculateMovingAverages},
		{"calculate_rsi", "Relative Strength Index", ts.calculateRSI},
		{"calculate_support_resistance", "Support and resistance bands", ts.calculateSupportResistance},
		{"calculate_valuation_metrics", "Valuation ratios versus price", ts.calculateValuationMetrics},
		{"assess_financial_health", "Margin, return and leverage assessment", ts.assessFinancialHealth},
		{"generate_analysis_summary", "Assemble stage findings into a summary", ts.generateAnalysisSummary},
		{"format_report", "Produce the final report payload", ts.formatReport},
	} {
		ts.tools[tool.Name] = tool
	}
}

func argOr(args map[string]string, key, fallback string) string {
	if v, ok := args[key]; ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func intArgOr(args map[string]string, key string, fallback int) int {
	raw, ok := args[key]
	if !ok {
		return fallback
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func unavailableText(what, symbol string) string {
	return fmt.Sprintf("%s for %s is currently unavailable", what, symbol)
}

func (ts *Toolset) fetchStockPrice(ctx context.Context, args map[string]string) string {
	symbol := argOr(args, "symbol", "")
	if symbol == "" {
		return "fetch_stock_price requires a symbol argument"
	}

	quote, err := ts.data.Quote(ctx, symbol)
	if err != nil {
		return unavailableText("quote data", symbol)
	}

	marketCap := market.NotAvailable
	if f, err := ts.data.Fundamentals(ctx, symbol); err == nil {
		marketCap = market.FormatMarketCap(f.Field("MarketCapitalization"))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s quote:\n", symbol)
	fmt.Fprintf(&b, "  current price: %.2f\n", quote.Current)
	fmt.Fprintf(&b, "  change: %.2f (%.2f%%)\n", quote.Change, quote.ChangePercent)
	fmt.Fprintf(&b, "  day range: %.2f - %.2f\n", quote.Low, quote.High)
	fmt.Fprintf(&b, "  open: %.2f previous close: %.2f\n", quote.Open, quote.PreviousClose)
	fmt.Fprintf(&b, "  market cap: %s", marketCap)
	return b.String()
}

func (ts *Toolset) fetchStockHistory(ctx context.Context, args map[string]string) string {
	symbol := argOr(args, "symbol", "")
	if symbol == "" {
		return "fetch_stock_history requires a symbol argument"
	}
	days := intArgOr(args, "days", ts.historyDays)

	series, err := ts.data.History(ctx, symbol, days)
	if err != nil || series.Empty() {
		return unavailableText("price history", symbol)
	}

	first := series.Bars[0]
	last := series.Bars[len(series.Bars)-1]
	low, high := first.Low, first.High
	for _, bar := range series.Bars {
		if bar.Low < low {
			low = bar.Low
		}
		if bar.High > high {
			high = bar.High
		}
	}
	change := 0.0
	if first.Close != 0 {
		change = (last.Close - first.Close) / first.Close * 100
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s daily history, %d bars (%s to %s):\n",
		symbol, series.Len(),
		first.Date.Format("2006-01-02"), last.Date.Format("2006-01-02"))
	fmt.Fprintf(&b, "  first close: %.2f latest close: %.2f (%+.2f%%)\n", first.Close, last.Close, change)
	fmt.Fprintf(&b, "  period range: %.2f - %.2f", low, high)
	return b.String()
}

var fundamentalsLines = []struct {
	label string
	field string
}{
	{"name", "Name"},
	{"sector", "Sector"},
	{"industry", "Industry"},
	{"market cap", "MarketCapitalization"},
	{"P/E ratio", "PERatio"},
	{"price to book", "PriceToBookRatio"},
	{"dividend yield", "DividendYield"},
	{"EPS", "EPS"},
	{"revenue TTM", "RevenueTTM"},
	{"profit margin", "ProfitMargin"},
	{"return on equity TTM", "ReturnOnEquityTTM"},
	{"debt to equity", "DebtToEquity"},
	{"52 week high", "52WeekHigh"},
	{"52 week low", "52WeekLow"},
	{"analyst target price", "AnalystTargetPrice"},
}

func (ts *Toolset) fetchFundamentals(ctx context.Context, args map[string]string) string {
	symbol := argOr(args, "symbol", "")
	if symbol == "" {
		return "fetch_fundamentals requires a symbol argument"
	}

	f, err := ts.data.Fundamentals(ctx, symbol)
	if err != nil {
		return unavailableText("fundamentals", symbol)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s fundamentals:\n", symbol)
	for _, line := range fundamentalsLines {
		value := f.Field(line.field)
		if line.field == "MarketCapitalization" {
			value = market.FormatMarketCap(value)
		}
		fmt.Fprintf(&b, "  %s: %s\n", line.label, value)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (ts *Toolset) getCompanyInfo(ctx context.Context, args map[string]string) string {
	symbol := argOr(args, "symbol", "")
	if symbol == "" {
		return "get_company_info requires a symbol argument"
	}

	f, err := ts.data.Fundamentals(ctx, symbol)
	if err != nil {
		return unavailableText("company profile", symbol)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s company profile:\n", symbol)
	fmt.Fprintf(&b, "  name: %s\n", f.Field("Name"))
	fmt.Fprintf(&b, "  sector: %s\n", f.Field("Sector"))
	fmt.Fprintf(&b, "  industry: %s\n", f.Field("Industry"))
	fmt.Fprintf(&b, "  description: %s", f.Field("Description"))
	return b.String()
}

func (ts *Toolset) fetchLatestNews(ctx context.Context, args map[string]string) string {
	symbol := argOr(args, "symbol", "")
	if symbol == "" {
		return "fetch_latest_news requires a symbol argument"
	}

	items, err := ts.data.News(ctx, symbol)
	if err != nil || len(items) == 0 {
		return unavailableText("recent news", symbol)
	}
	if len(items) > 10 {
		items = items[:10]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "recent headlines for %s:\n", symbol)
	for _, item := range items {
		fmt.Fprintf(&b, "  [%s] %s (%s)\n", item.Time.Format("2006-01-02"), item.Headline, item.Source)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (ts *Toolset) fetchMarketSummary(ctx context.Context, args map[string]string) string {
	sections := []string{
		ts.fetchStockPrice(ctx, args),
		ts.getCompanyInfo(ctx, args),
		ts.fetchLatestNews(ctx, args),
	}
	return strings.Join(sections, "\n\n")
}

func (ts *Toolset) compareStocks(ctx context.Context, args map[string]string) string {
	raw := argOr(args, "symbols", argOr(args, "symbol", ""))
	if raw == "" {
		return "compare_stocks requires a symbols argument (comma separated)"
	}

	var symbols []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			symbols = append(symbols, s)
		}
	}
	if len(symbols) < 2 {
		return "compare_stocks requires at least two symbols"
	}

	rows := make([]string, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	for i, symbol := range symbols {
		g.Go(func() error {
			rows[i] = ts.compareRow(gctx, symbol)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "comparison failed: " + err.Error()
	}

	var b strings.Builder
	b.WriteString("comparison:\n")
	for _, row := range rows {
		b.WriteString("  " + row + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (ts *Toolset) compareRow(ctx context.Context, symbol string) string {
	quote, err := ts.data.Quote(ctx, symbol)
	if err != nil {
		return fmt.Sprintf("%s: quote unavailable", symbol)
	}
	pe := market.NotAvailable
	if f, ferr := ts.data.Fundamentals(ctx, symbol); ferr == nil {
		pe = f.Field("PERatio")
	}
	return fmt.Sprintf("%s: price %.2f change %+.2f%% P/E %s", symbol, quote.Current, quote.ChangePercent, pe)
}

func (ts *Toolset) calculateMovingAverages(ctx context.Context, args map[string]string) string {
	symbol := argOr(args, "symbol", "")
	if symbol == "" {
		return "calculate_moving_averages requires a symbol argument"
	}

	series, err := ts.data.History(ctx, symbol, ts.historyDays)
	if err != nil || series.Empty() {
		return unavailableText("price history", symbol)
	}
	closes := series.Closes()

	var b strings.Builder
	fmt.Fprintf(&b, "%s moving averages (%d closes):\n", symbol, len(closes))
	for _, window := range []int{20, 50, 200} {
		if ma, ok := indicators.MovingAverage(closes, window); ok {
			fmt.Fprintf(&b, "  MA%d: %.2f\n", window, ma)
		} else {
			fmt.Fprintf(&b, "  MA%d: insufficient data\n", window)
		}
	}
	if last, ok := series.Latest(); ok {
		fmt.Fprintf(&b, "  latest close: %.2f", last.Close)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (ts *Toolset) calculateRSI(ctx context.Context, args map[string]string) string {
	symbol := argOr(args, "symbol", "")
	if symbol == "" {
		return "calculate_rsi requires a symbol argument"
	}
	period := intArgOr(args, "period", indicators.DefaultRSIPeriod)

	series, err := ts.data.History(ctx, symbol, ts.historyDays)
	if err != nil || series.Empty() {
		return unavailableText("price history", symbol)
	}

	value, ok := indicators.RSI(series.Closes(), period)
	if !ok {
		return fmt.Sprintf("insufficient history for %s to compute RSI(%d)", symbol, period)
	}

	zone := "neutral"
	switch {
	case value >= 70:
		zone = "overbought"
	case value <= 30:
		zone = "oversold"
	}
	return fmt.Sprintf("%s RSI(%d): %.2f (%s)", symbol, period, value, zone)
}

func (ts *Toolset) calculateSupportResistance(ctx context.Context, args map[string]string) string {
	symbol := argOr(args, "symbol", "")
	if symbol == "" {
		return "calculate_support_resistance requires a symbol argument"
	}
	window := intArgOr(args, "window", indicators.DefaultSupportResistanceWindow)

	series, err := ts.data.History(ctx, symbol, ts.historyDays)
	if err != nil || series.Empty() {
		return unavailableText("price history", symbol)
	}

	bands, ok := indicators.SupportResistance(series, window)
	if !ok {
		return fmt.Sprintf("insufficient history for %s to compute support/resistance", symbol)
	}
	return fmt.Sprintf("%s over last %d bars: support %.2f resistance %.2f latest close %.2f",
		symbol, window, bands.Support, bands.Resistance, bands.LastClose)
}

func (ts *Toolset) calculateValuationMetrics(ctx context.Context, args map[string]string) string {
	symbol := argOr(args, "symbol", "")
	if symbol == "" {
		return "calculate_valuation_metrics requires a symbol argument"
	}

	f, err := ts.data.Fundamentals(ctx, symbol)
	if err != nil {
		return unavailableText("fundamentals", symbol)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s valuation:\n", symbol)
	fmt.Fprintf(&b, "  P/E ratio: %s\n", f.Field("PERatio"))
	fmt.Fprintf(&b, "  price to book: %s\n", f.Field("PriceToBookRatio"))
	fmt.Fprintf(&b, "  dividend yield: %s\n", f.Field("DividendYield"))
	fmt.Fprintf(&b, "  EPS: %s\n", f.Field("EPS"))
	fmt.Fprintf(&b, "  analyst target price: %s", f.Field("AnalystTargetPrice"))

	if quote, qerr := ts.data.Quote(ctx, symbol); qerr == nil {
		if target, perr := strconv.ParseFloat(f.Field("AnalystTargetPrice"), 64); perr == nil && quote.Current != 0 {
			upside := (target - quote.Current) / quote.Current * 100
			fmt.Fprintf(&b, "\n  implied upside vs current %.2f: %+.2f%%", quote.Current, upside)
		}
	}
	return b.String()
}

func (ts *Toolset) assessFinancialHealth(ctx context.Context, args map[string]string) string {
	symbol := argOr(args, "symbol", "")
	if symbol == "" {
		return "assess_financial_health requires a symbol argument"
	}

	f, err := ts.data.Fundamentals(ctx, symbol)
	if err != nil {
		return unavailableText("fundamentals", symbol)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s financial health:\n", symbol)
	fmt.Fprintf(&b, "  profit margin: %s%s\n", f.Field("ProfitMargin"), qualify(f.Field("ProfitMargin"), 0.15, 0.05))
	fmt.Fprintf(&b, "  return on equity TTM: %s%s\n", f.Field("ReturnOnEquityTTM"), qualify(f.Field("ReturnOnEquityTTM"), 0.20, 0.10))
	fmt.Fprintf(&b, "  debt to equity: %s%s", f.Field("DebtToEquity"), qualifyInverse(f.Field("DebtToEquity"), 1.0, 2.0))
	return b.String()
}

// qualify labels a higher-is-better ratio; thresholds split strong/adequate/weak.
func qualify(raw string, strong, adequate float64) string {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return ""
	}
	switch {
	case v >= strong:
		return " (strong)"
	case v >= adequate:
		return " (adequate)"
	default:
		return " (weak)"
	}
}

// qualifyInverse labels a lower-is-better ratio.
func qualifyInverse(raw string, low, high float64) string {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return ""
	}
	switch {
	case v <= low:
		return " (conservative)"
	case v <= high:
		return " (moderate)"
	default:
		return " (elevated)"
	}
}

func (ts *Toolset) generateAnalysisSummary(ctx context.Context, args map[string]string) string {
	symbol := argOr(args, "symbol", "")
	notes := argOr(args, "notes", "")
	if symbol == "" {
		return "generate_analysis_summary requires a symbol argument"
	}
	if notes == "" {
		return fmt.Sprintf("analysis summary for %s: no findings supplied", symbol)
	}
	return fmt.Sprintf("analysis summary for %s:\n%s", symbol, notes)
}

// reportPayload fixes the field order of the final report output. The JSON
// rendering of this struct is the run result byte-for-byte.
type reportPayload struct {
	Symbol         string `json:"symbol"`
	Recommendation string `json:"recommendation"`
	PriceTarget    string `json:"price_target"`
	Confidence     string `json:"confidence"`
	CurrentPrice   string `json:"current_price"`
	RSI            string `json:"rsi"`
	PERatio        string `json:"pe_ratio"`
}

func (ts *Toolset) formatReport(_ context.Context, args map[string]string) string {
	payload := reportPayload{
		Symbol:         argOr(args, "symbol", market.NotAvailable),
		Recommendation: argOr(args, "recommendation", market.NotAvailable),
		PriceTarget:    argOr(args, "price_target", market.NotAvailable),
		Confidence:     argOr(args, "confidence", market.NotAvailable),
		CurrentPrice:   argOr(args, "current_price", market.NotAvailable),
		RSI:            argOr(args, "rsi", market.NotAvailable),
		PERatio:        argOr(args, "pe_ratio", market.NotAvailable),
	}
	out, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Sprintf("format_report failed: %v", err)
	}
	return string(out)
}
