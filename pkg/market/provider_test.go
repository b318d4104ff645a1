package market

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeQuoteSource struct {
	quote      *Quote
	quoteErr   error
	series     Series
	seriesErr  error
	news       []NewsItem
	newsErr    error
	quoteCalls int
	candleCall int
}

func (f *fakeQuoteSource) Quote(ctx context.Context, symbol string) (*Quote, error) {
	f.quoteCalls++
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	return f.quote, nil
}

func (f *fakeQuoteSource) Candles(ctx context.Context, symbol, resolution string, count int) (Series, error) {
	f.candleCall++
	if f.seriesErr != nil {
		return Series{}, f.seriesErr
	}
	return f.series, nil
}

func (f *fakeQuoteSource) CompanyNews(ctx context.Context, symbol string) ([]NewsItem, error) {
	if f.newsErr != nil {
		return nil, f.newsErr
	}
	return f.news, nil
}

type fakeFundamentalsSource struct {
	fundamentals Fundamentals
	fundErr      error
	daily        Series
	dailyErr     error
	overviewCall int
	dailyCall    int
}

func (f *fakeFundamentalsSource) Overview(ctx context.Context, symbol string) (Fundamentals, error) {
	f.overviewCall++
	if f.fundErr != nil {
		return Fundamentals{}, f.fundErr
	}
	return f.fundamentals, nil
}

func (f *fakeFundamentalsSource) DailySeries(ctx context.Context, symbol string) (Series, error) {
	f.dailyCall++
	if f.dailyErr != nil {
		return Series{}, f.dailyErr
	}
	return f.daily, nil
}

// mapCache is an always-fresh in-memory Cache.
type mapCache struct {
	entries map[string][]byte
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string][]byte)}
}

func (m *mapCache) Get(key string, ttl time.Duration) ([]byte, bool) {
	payload, ok := m.entries[key]
	return payload, ok
}

func (m *mapCache) Put(key string, payload []byte) {
	m.entries[key] = payload
}

func testSeries(n int) Series {
	start := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]Bar, n)
	for i := range bars {
		c := 100 + float64(i)
		bars[i] = Bar{Date: start.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c}
	}
	return Series{Bars: bars}
}

func TestProviderQuotePassthroughUncached(t *testing.T) {
	primary := &fakeQuoteSource{quote: &Quote{Current: 100, PreviousClose: 99}}
	cache := newMapCache()
	p := NewProvider(primary, &fakeFundamentalsSource{}, cache, nil)

	for i := 0; i < 3; i++ {
		quote, err := p.Quote(context.Background(), "AAPL")
		require.NoError(t, err)
		require.InDelta(t, 100, quote.Current, 1e-9)
	}
	require.Equal(t, 3, primary.quoteCalls)
	require.Empty(t, cache.entries)
}

func TestProviderHistoryCachesPrimary(t *testing.T) {
	primary := &fakeQuoteSource{series: testSeries(5)}
	cache := newMapCache()
	p := NewProvider(primary, &fakeFundamentalsSource{}, cache, nil)

	first, err := p.History(context.Background(), "AAPL", 5)
	require.NoError(t, err)
	require.Equal(t, 5, first.Len())
	require.Contains(t, cache.entries, HistoryKey("finnhub", "D", 5, "AAPL"))

	second, err := p.History(context.Background(), "AAPL", 5)
	require.NoError(t, err)
	require.Equal(t, first.Len(), second.Len())
	require.Equal(t, 1, primary.candleCall)
}

func TestProviderHistoryFallbackCachesUnderSecondaryKey(t *testing.T) {
	primary := &fakeQuoteSource{seriesErr: ErrUnavailable}
	secondary := &fakeFundamentalsSource{daily: testSeries(400)}
	cache := newMapCache()
	p := NewProvider(primary, secondary, cache, nil)

	series, err := p.History(context.Background(), "AAPL", 30)
	require.NoError(t, err)
	require.Equal(t, 30, series.Len())

	// The substituted series caches under its own key; the primary key stays unset.
	require.Contains(t, cache.entries, HistoryKey("alphavantage", "D", 30, "AAPL"))
	require.NotContains(t, cache.entries, HistoryKey("finnhub", "D", 30, "AAPL"))

	// The trailing rows were kept.
	last, ok := series.Latest()
	require.True(t, ok)
	require.InDelta(t, 100+399, last.Close, 1e-9)
}

func TestProviderHistoryFallbackCacheHit(t *testing.T) {
	primary := &fakeQuoteSource{seriesErr: ErrUnavailable}
	secondary := &fakeFundamentalsSource{daily: testSeries(60)}
	cache := newMapCache()
	p := NewProvider(primary, secondary, cache, nil)

	_, err := p.History(context.Background(), "AAPL", 30)
	require.NoError(t, err)
	_, err = p.History(context.Background(), "AAPL", 30)
	require.NoError(t, err)
	require.Equal(t, 1, secondary.dailyCall)
}

func TestProviderHistoryBothSourcesDown(t *testing.T) {
	primary := &fakeQuoteSource{seriesErr: ErrUnavailable}
	secondary := &fakeFundamentalsSource{dailyErr: ErrUnavailable}
	p := NewProvider(primary, secondary, newMapCache(), nil)

	_, err := p.History(context.Background(), "AAPL", 30)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestProviderHistoryHardErrorPropagates(t *testing.T) {
	hard := errors.New("tls handshake failed")
	primary := &fakeQuoteSource{seriesErr: hard}
	secondary := &fakeFundamentalsSource{daily: testSeries(60)}
	p := NewProvider(primary, secondary, newMapCache(), nil)

	_, err := p.History(context.Background(), "AAPL", 30)
	require.ErrorIs(t, err, hard)
	require.Equal(t, 0, secondary.dailyCall)
}

func TestProviderFundamentalsCached(t *testing.T) {
	secondary := &fakeFundamentalsSource{
		fundamentals: Fundamentals{Fields: map[string]string{"Symbol": "AAPL", "PERatio": "28.4"}},
	}
	cache := newMapCache()
	p := NewProvider(&fakeQuoteSource{}, secondary, cache, nil)

	first, err := p.Fundamentals(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Equal(t, "28.4", first.Field("PERatio"))
	require.Contains(t, cache.entries, FundamentalsKey("AAPL"))

	second, err := p.Fundamentals(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Equal(t, "28.4", second.Field("PERatio"))
	require.Equal(t, 1, secondary.overviewCall)
}

func TestProviderWorksWithoutCache(t *testing.T) {
	primary := &fakeQuoteSource{series: testSeries(5)}
	p := NewProvider(primary, &fakeFundamentalsSource{}, nil, nil)

	series, err := p.History(context.Background(), "AAPL", 5)
	require.NoError(t, err)
	require.Equal(t, 5, series.Len())
}

func TestProviderNilSources(t *testing.T) {
	p := NewProvider(nil, nil, nil, nil)

	_, err := p.Quote(context.Background(), "AAPL")
	require.ErrorIs(t, err, ErrUnavailable)
	_, err = p.History(context.Background(), "AAPL", 30)
	require.ErrorIs(t, err, ErrUnavailable)
	_, err = p.Fundamentals(context.Background(), "AAPL")
	require.ErrorIs(t, err, ErrUnavailable)
	_, err = p.News(context.Background(), "AAPL")
	require.ErrorIs(t, err, ErrUnavailable)
}
