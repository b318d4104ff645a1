package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"finsight-api/pkg/market"
)

type stubData struct {
	quote        *market.Quote
	quoteErr     error
	series       market.Series
	historyErr   error
	fundamentals market.Fundamentals
	fundErr      error
	news         []market.NewsItem
	newsErr      error

	historyCalls int
}

func (s *stubData) Quote(ctx context.Context, symbol string) (*market.Quote, error) {
	if s.quoteErr != nil {
		return nil, s.quoteErr
	}
	return s.quote, nil
}

func (s *stubData) History(ctx context.Context, symbol string, days int) (market.Series, error) {
	s.historyCalls++
	if s.historyErr != nil {
		return market.Series{}, s.historyErr
	}
	return s.series, nil
}

func (s *stubData) Fundamentals(ctx context.Context, symbol string) (market.Fundamentals, error) {
	if s.fundErr != nil {
		return market.Fundamentals{}, s.fundErr
	}
	return s.fundamentals, nil
}

func (s *stubData) News(ctx context.Context, symbol string) ([]market.NewsItem, error) {
	if s.newsErr != nil {
		return nil, s.newsErr
	}
	return s.news, nil
}

func seriesOfCloses(closes ...float64) market.Series {
	start := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]market.Bar, len(closes))
	for i, c := range closes {
		bars[i] = market.Bar{
			Date:  start.AddDate(0, 0, i),
			Open:  c,
			High:  c + 1,
			Low:   c - 1,
			Close: c,
		}
	}
	return market.Series{Bars: bars}
}

func healthyStub() *stubData {
	return &stubData{
		quote: &market.Quote{
			Current:       180.5,
			PreviousClose: 178,
			Open:          179,
			High:          182,
			Low:           177.5,
			Change:        2.5,
			ChangePercent: 1.4,
		},
		series: seriesOfCloses(100, 102, 101, 103, 105),
		fundamentals: market.Fundamentals{Fields: map[string]string{
			"Symbol":               "AAPL",
			"Name":                 "Apple Inc",
			"Sector":               "Technology",
			"Industry":             "Consumer Electronics",
			"MarketCapitalization": "2750000000000",
			"PERatio":              "28.4",
			"ProfitMargin":         "0.25",
			"ReturnOnEquityTTM":    "1.45",
			"DebtToEquity":         "1.76",
			"AnalystTargetPrice":   "200.00",
		}},
		news: []market.NewsItem{
			{Headline: "Apple ships new device", Source: "wire", Time: time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)},
		},
	}
}

func TestToolsetNames(t *testing.T) {
	ts := NewToolset(healthyStub(), 365)
	names := ts.Names()
	require.Contains(t, names, "fetch_stock_price")
	require.Contains(t, names, "format_report")
	require.Len(t, names, 14)
	require.True(t, ts.Has("calculate_rsi"))
	require.False(t, ts.Has("place_order"))
}

func TestFetchStockPriceIncludesMarketCap(t *testing.T) {
	ts := NewToolset(healthyStub(), 365)
	out := ts.Invoke(context.Background(), "fetch_stock_price", map[string]string{"symbol": "AAPL"})
	require.Contains(t, out, "current price: 180.50")
	require.Contains(t, out, "market cap: $2,750,000,000,000")
}

func TestFetchStockPriceUnavailable(t *testing.T) {
	stub := healthyStub()
	stub.quoteErr = market.ErrUnavailable
	ts := NewToolset(stub, 365)
	out := ts.Invoke(context.Background(), "fetch_stock_price", map[string]string{"symbol": "AAPL"})
	require.Contains(t, out, "unavailable")
}

func TestFetchStockPriceMissingSymbol(t *testing.T) {
	ts := NewToolset(healthyStub(), 365)
	out := ts.Invoke(context.Background(), "fetch_stock_price", nil)
	require.Contains(t, out, "requires a symbol")
}

func TestFetchFundamentalsMissingFieldsReadNA(t *testing.T) {
	ts := NewToolset(healthyStub(), 365)
	out := ts.Invoke(context.Background(), "fetch_fundamentals", map[string]string{"symbol": "AAPL"})
	require.Contains(t, out, "P/E ratio: 28.4")
	require.Contains(t, out, "dividend yield: N/A")
	require.Contains(t, out, "market cap: $2,750,000,000,000")
}

func TestFetchLatestNews(t *testing.T) {
	ts := NewToolset(healthyStub(), 365)
	out := ts.Invoke(context.Background(), "fetch_latest_news", map[string]string{"symbol": "AAPL"})
	require.Contains(t, out, "Apple ships new device")
	require.Contains(t, out, "2026-08-20")
}

func TestCompareStocksRequiresTwoSymbols(t *testing.T) {
	ts := NewToolset(healthyStub(), 365)
	out := ts.Invoke(context.Background(), "compare_stocks", map[string]string{"symbols": "AAPL"})
	require.Contains(t, out, "at least two symbols")
}

func TestCompareStocks(t *testing.T) {
	ts := NewToolset(healthyStub(), 365)
	out := ts.Invoke(context.Background(), "compare_stocks", map[string]string{"symbols": "aapl, msft"})
	require.Contains(t, out, "AAPL: price 180.50")
	require.Contains(t, out, "MSFT: price 180.50")
	require.Contains(t, out, "P/E 28.4")
}

func TestCalculateMovingAveragesDegradesOnShortHistory(t *testing.T) {
	ts := NewToolset(healthyStub(), 365)
	out := ts.Invoke(context.Background(), "calculate_moving_averages", map[string]string{"symbol": "AAPL"})
	require.Contains(t, out, "MA20: insufficient data")
	require.Contains(t, out, "MA200: insufficient data")
	require.Contains(t, out, "latest close: 105.00")
}

func TestCalculateRSIMonotonicGains(t *testing.T) {
	stub := healthyStub()
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	stub.series = seriesOfCloses(closes...)

	ts := NewToolset(stub, 365)
	out := ts.Invoke(context.Background(), "calculate_rsi", map[string]string{"symbol": "AAPL"})
	require.Contains(t, out, "RSI(14): 100.00")
	require.Contains(t, out, "overbought")
}

func TestCalculateSupportResistance(t *testing.T) {
	ts := NewToolset(healthyStub(), 365)
	out := ts.Invoke(context.Background(), "calculate_support_resistance", map[string]string{"symbol": "AAPL"})
	require.Contains(t, out, "support 99.00")
	require.Contains(t, out, "resistance 106.00")
}

func TestCalculateValuationMetricsUpside(t *testing.T) {
	ts := NewToolset(healthyStub(), 365)
	out := ts.Invoke(context.Background(), "calculate_valuation_metrics", map[string]string{"symbol": "AAPL"})
	require.Contains(t, out, "analyst target price: 200.00")
	require.Contains(t, out, "implied upside")
}

func TestAssessFinancialHealthLabels(t *testing.T) {
	ts := NewToolset(healthyStub(), 365)
	out := ts.Invoke(context.Background(), "assess_financial_health", map[string]string{"symbol": "AAPL"})
	require.Contains(t, out, "profit margin: 0.25 (strong)")
	require.Contains(t, out, "return on equity TTM: 1.45 (strong)")
	require.Contains(t, out, "debt to equity: 1.76 (moderate)")
}

func TestFormatReportDeterministic(t *testing.T) {
	ts := NewToolset(healthyStub(), 365)
	args := map[string]string{
		"symbol":         "AAPL",
		"recommendation": "BUY",
		"price_target":   "200",
		"confidence":     "high",
		"current_price":  "180.5",
		"rsi":            "61.2",
		"pe_ratio":       "28.4",
	}

	first := ts.Invoke(context.Background(), "format_report", args)
	second := ts.Invoke(context.Background(), "format_report", args)
	require.Equal(t, first, second)

	require.Contains(t, first, `"symbol": "AAPL"`)
	require.Contains(t, first, `"recommendation": "BUY"`)
	require.Contains(t, first, `"pe_ratio": "28.4"`)
}

func TestFormatReportDefaultsMissingFields(t *testing.T) {
	ts := NewToolset(healthyStub(), 365)
	out := ts.Invoke(context.Background(), "format_report", map[string]string{"symbol": "AAPL"})
	require.Contains(t, out, `"price_target": "N/A"`)
	require.Contains(t, out, `"rsi": "N/A"`)
}

func TestInvokeUnknownTool(t *testing.T) {
	ts := NewToolset(healthyStub(), 365)
	out := ts.Invoke(context.Background(), "no_such_tool", nil)
	require.Contains(t, out, "unknown tool")
}
