package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"finsight-api/pkg/market"
)

const (
	defaultBaseURL        = "https://www.alphavantage.co"
	defaultRequestTimeout = 10 * time.Second

	maxAttempts      = 3
	rateLimitBackoff = 2 * time.Second
	transientBackoff = 1 * time.Second

	dateLayout = "2006-01-02"
)

// overviewFields are the fundamentals fields surfaced to callers. Fields the
// upstream omits are filled with market.NotAvailable so downstream formatting
// stays uniform.
var overviewFields = []string{
	"Symbol", "Name", "Description", "Sector", "Industry",
	"MarketCapitalization", "PERatio", "PriceToBookRatio", "DividendYield",
	"EPS", "RevenueTTM", "ProfitMargin", "ReturnOnEquityTTM",
	"DebtToEquity", "52WeekHigh", "52WeekLow", "AnalystTargetPrice",
}

// Client talks to the Alpha Vantage REST API, the secondary fundamentals and
// daily-history source. Like the primary client, a missing API key degrades
// every call to market.ErrUnavailable with zero network attempts.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client

	rateLimitWait time.Duration
	transientWait time.Duration
}

// Option customises the client.
type Option func(*Client)

// WithBaseURL points the client at an alternate endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout caps each HTTP request at d, overriding the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// NewClient constructs an Alpha Vantage client. apiKey may be empty.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:        apiKey,
		baseURL:       defaultBaseURL,
		httpClient:    &http.Client{Timeout: defaultRequestTimeout},
		rateLimitWait: rateLimitBackoff,
		transientWait: transientBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Overview fetches the company-overview fundamentals for symbol. A payload
// without a Symbol field is the upstream's way of reporting "nothing here"
// (it answers 200 with an empty object or a rate-limit note).
func (c *Client) Overview(ctx context.Context, symbol string) (market.Fundamentals, error) {
	if c.apiKey == "" {
		return market.Fundamentals{}, market.ErrUnavailable
	}

	params := url.Values{
		"function": {"OVERVIEW"},
		"symbol":   {symbol},
		"apikey":   {c.apiKey},
	}
	var raw map[string]string
	if err := c.getWithRetry(ctx, params, &raw); err != nil {
		return market.Fundamentals{}, err
	}
	if raw["Symbol"] == "" {
		return market.Fundamentals{}, market.ErrUnavailable
	}

	fields := make(map[string]string, len(overviewFields))
	for _, name := range overviewFields {
		if v, ok := raw[name]; ok && v != "" && v != "None" && v != "-" {
			fields[name] = v
		} else {
			fields[name] = market.NotAvailable
		}
	}
	return market.Fundamentals{Fields: fields}, nil
}

// DailySeries fetches the daily OHLCV history for symbol and normalizes it
// into an ascending market.Series.
func (c *Client) DailySeries(ctx context.Context, symbol string) (market.Series, error) {
	if c.apiKey == "" {
		return market.Series{}, market.ErrUnavailable
	}

	params := url.Values{
		"function":   {"TIME_SERIES_DAILY"},
		"symbol":     {symbol},
		"outputsize": {"full"},
		"apikey":     {c.apiKey},
	}
	var resp dailyResponse
	if err := c.getWithRetry(ctx, params, &resp); err != nil {
		return market.Series{}, err
	}
	if len(resp.Series) == 0 {
		return market.Series{}, market.ErrUnavailable
	}
	return normalizeDaily(resp.Series), nil
}

// getWithRetry mirrors the primary source's retry policy: three attempts,
// 2s after a rate limit, 1s after other transient failures, then
// market.ErrUnavailable.
func (c *Client) getWithRetry(ctx context.Context, params url.Values, out interface{}) error {
	endpoint := c.baseURL + "/query?" + params.Encode()

	for attempt := 0; attempt < maxAttempts; attempt++ {
		wait, err := c.getOnce(ctx, endpoint, out)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return market.ErrUnavailable
		}
		logx.WithContext(ctx).Infof("alphavantage: attempt %d failed: %v", attempt+1, err)
		if attempt == maxAttempts-1 {
			break
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return market.ErrUnavailable
		}
	}
	return market.ErrUnavailable
}

func (c *Client) getOnce(ctx context.Context, endpoint string, out interface{}) (time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return c.transientWait, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.transientWait, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return c.rateLimitWait, fmt.Errorf("alphavantage: rate limited")
	}
	if resp.StatusCode != http.StatusOK {
		return c.transientWait, fmt.Errorf("alphavantage: http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.transientWait, err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return c.transientWait, fmt.Errorf("alphavantage: decode response: %w", err)
	}
	return 0, nil
}

// dailyResponse holds the TIME_SERIES_DAILY payload.
type dailyResponse struct {
	Series map[string]dailyBar `json:"Time Series (Daily)"`
}

type dailyBar struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}

// normalizeDaily converts the date-keyed payload into ascending bars,
// skipping rows that fail to parse.
func normalizeDaily(raw map[string]dailyBar) market.Series {
	bars := make([]market.Bar, 0, len(raw))
	for dateStr, row := range raw {
		date, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			continue
		}
		open, err1 := strconv.ParseFloat(row.Open, 64)
		high, err2 := strconv.ParseFloat(row.High, 64)
		low, err3 := strconv.ParseFloat(row.Low, 64)
		clos, err4 := strconv.ParseFloat(row.Close, 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			continue
		}
		volume, _ := strconv.ParseFloat(row.Volume, 64)
		bars = append(bars, market.Bar{
			Date:   date,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  clos,
			Volume: volume,
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return market.Series{Bars: bars}
}
