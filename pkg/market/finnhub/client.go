package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"finsight-api/pkg/market"
)

const (
	defaultBaseURL        = "https://finnhub.io/api/v1"
	defaultRequestTimeout = 10 * time.Second

	maxAttempts      = 3
	rateLimitBackoff = 2 * time.Second
	transientBackoff = 1 * time.Second

	secondsPerDay = 86400
)

// Client talks to the Finnhub REST API, the primary quote and candle source.
// A client without an API key is valid: every fetch degrades to
// market.ErrUnavailable without touching the network.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client

	// Retry pacing, overridable in tests.
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

// NewClient constructs a Finnhub client. apiKey may be empty.
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

// Quote fetches the live quote for symbol. A payload where both the current
// and previous-close prices read zero is the upstream's sentinel for an
// unknown symbol and maps to market.ErrUnavailable.
func (c *Client) Quote(ctx context.Context, symbol string) (*market.Quote, error) {
	if c.apiKey == "" {
		return nil, market.ErrUnavailable
	}

	params := url.Values{"symbol": {symbol}, "token": {c.apiKey}}
	var resp quoteResponse
	if err := c.getWithRetry(ctx, "/quote", params, &resp); err != nil {
		return nil, err
	}
	if resp.Current == 0 && resp.PreviousClose == 0 {
		return nil, market.ErrUnavailable
	}
	return &market.Quote{
		Current:       resp.Current,
		PreviousClose: resp.PreviousClose,
		Open:          resp.Open,
		High:          resp.High,
		Low:           resp.Low,
		Change:        resp.Change,
		ChangePercent: resp.ChangePercent,
	}, nil
}

// Candles fetches count bars at the given resolution ("D" or "W") and
// normalizes them into an ascending market.Series.
func (c *Client) Candles(ctx context.Context, symbol, resolution string, count int) (market.Series, error) {
	if c.apiKey == "" {
		return market.Series{}, market.ErrUnavailable
	}
	if count <= 0 {
		return market.Series{}, market.ErrUnavailable
	}

	daysPerBar := 1
	if resolution == "W" {
		daysPerBar = 7
	}
	end := time.Now().Unix()
	start := end - int64(count*secondsPerDay*daysPerBar)

	params := url.Values{
		"symbol":     {symbol},
		"resolution": {resolution},
		"from":       {strconv.FormatInt(start, 10)},
		"to":         {strconv.FormatInt(end, 10)},
		"token":      {c.apiKey},
	}
	var resp candleResponse
	if err := c.getWithRetry(ctx, "/stock/candle", params, &resp); err != nil {
		return market.Series{}, err
	}
	if resp.Status != "ok" || len(resp.Close) == 0 {
		return market.Series{}, market.ErrUnavailable
	}
	return normalizeCandles(resp), nil
}

// CompanyNews fetches headlines for symbol over the trailing week.
func (c *Client) CompanyNews(ctx context.Context, symbol string) ([]market.NewsItem, error) {
	if c.apiKey == "" {
		return nil, market.ErrUnavailable
	}

	now := time.Now()
	params := url.Values{
		"symbol": {symbol},
		"from":   {now.AddDate(0, 0, -7).Format("2006-01-02")},
		"to":     {now.Format("2006-01-02")},
		"token":  {c.apiKey},
	}
	var items []newsItem
	if err := c.getWithRetry(ctx, "/company-news", params, &items); err != nil {
		return nil, err
	}
	out := make([]market.NewsItem, 0, len(items))
	for _, it := range items {
		out = append(out, market.NewsItem{
			Headline: it.Headline,
			Source:   it.Source,
			Time:     time.Unix(it.Datetime, 0),
			URL:      it.URL,
		})
	}
	return out, nil
}

// getWithRetry performs a GET with the fixed upstream retry policy: up to
// three attempts, 2s pause after a rate-limit response, 1s after any other
// transient failure. Exhaustion surfaces as market.ErrUnavailable.
func (c *Client) getWithRetry(ctx context.Context, path string, params url.Values, out interface{}) error {
	endpoint := c.baseURL + path + "?" + params.Encode()

	for attempt := 0; attempt < maxAttempts; attempt++ {
		wait, err := c.getOnce(ctx, endpoint, out)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return market.ErrUnavailable
		}
		logx.WithContext(ctx).Infof("finnhub: attempt %d failed: %v", attempt+1, err)
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

// getOnce issues a single request, returning the backoff to apply before the
// next attempt on failure.
func (c *Client) getOnce(ctx context.Context, endpoint string, out interface{}) (time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return c.transientWait, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.transientWait, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return c.rateLimitWait, fmt.Errorf("finnhub: rate limited")
	}
	if resp.StatusCode != http.StatusOK {
		return c.transientWait, fmt.Errorf("finnhub: http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.transientWait, err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return c.transientWait, fmt.Errorf("finnhub: decode response: %w", err)
	}
	return 0, nil
}

// normalizeCandles converts the columnar candle payload into ascending bars,
// dropping duplicate dates.
func normalizeCandles(resp candleResponse) market.Series {
	n := len(resp.Close)
	bars := make([]market.Bar, 0, n)
	var lastDate time.Time
	for i := 0; i < n; i++ {
		if i >= len(resp.Timestamps) || i >= len(resp.Open) || i >= len(resp.High) || i >= len(resp.Low) {
			break
		}
		date := time.Unix(resp.Timestamps[i], 0)
		if !lastDate.IsZero() && !date.After(lastDate) {
			continue
		}
		lastDate = date
		var volume float64
		if i < len(resp.Volume) {
			volume = resp.Volume[i]
		}
		bars = append(bars, market.Bar{
			Date:   date,
			Open:   resp.Open[i],
			High:   resp.High[i],
			Low:    resp.Low[i],
			Close:  resp.Close[i],
			Volume: volume,
		})
	}
	return market.Series{Bars: bars}
}
