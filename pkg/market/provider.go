package market

import (
	"context"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeromicro/go-zero/core/logx"
)

// Cache is the narrow view of the key/value store the provider needs. TTL is
// supplied per read because different data kinds share the store but differ
// in freshness requirements. A nil Cache is valid and always misses.
type Cache interface {
	Get(key string, ttl time.Duration) ([]byte, bool)
	Put(key string, payload []byte)
}

// QuoteSource is the primary upstream: live quotes plus daily candles and
// company news.
type QuoteSource interface {
	Quote(ctx context.Context, symbol string) (*Quote, error)
	Candles(ctx context.Context, symbol, resolution string, count int) (Series, error)
	CompanyNews(ctx context.Context, symbol string) ([]NewsItem, error)
}

// FundamentalsSource is the secondary upstream: slow-changing company
// fundamentals plus a full daily history used as the candle fallback.
type FundamentalsSource interface {
	Overview(ctx context.Context, symbol string) (Fundamentals, error)
	DailySeries(ctx context.Context, symbol string) (Series, error)
}

// Provider combines the two upstream sources behind one fetch surface with
// caching and wholesale fallback. Data from the two sources is never mixed
// inside one series; the fallback substitutes the entire result.
type Provider struct {
	primary         QuoteSource
	secondary       FundamentalsSource
	cache           Cache
	historyTTL      time.Duration
	fundamentalsTTL time.Duration
}

// Source names used in cache key scoping.
const (
	sourcePrimary   = "finnhub"
	sourceSecondary = "alphavantage"
)

// NewProvider wires the hybrid provider. cache may be nil.
func NewProvider(primary QuoteSource, secondary FundamentalsSource, cache Cache, cfg *Config) *Provider {
	historyTTL := HistoryTTL
	fundamentalsTTL := FundamentalsTTL
	if cfg != nil {
		if cfg.HistoryTTL > 0 {
			historyTTL = cfg.HistoryTTL
		}
		if cfg.FundamentalsTTL > 0 {
			fundamentalsTTL = cfg.FundamentalsTTL
		}
	}
	return &Provider{
		primary:         primary,
		secondary:       secondary,
		cache:           cache,
		historyTTL:      historyTTL,
		fundamentalsTTL: fundamentalsTTL,
	}
}

// Quote returns the live quote from the primary source. Quotes are not
// cached: a stale price defeats the point of a live snapshot, and the retry
// policy inside the source already bounds the latency.
func (p *Provider) Quote(ctx context.Context, symbol string) (*Quote, error) {
	if p.primary == nil {
		return nil, ErrUnavailable
	}
	return p.primary.Quote(ctx, symbol)
}

// History returns days daily bars for symbol. The primary source is
// consulted first (cache, then network); when it yields nothing the
// secondary source's daily history is substituted wholesale, trimmed to the
// most recent days rows and cached under its own independent key.
func (p *Provider) History(ctx context.Context, symbol string, days int) (Series, error) {
	primaryKey := HistoryKey(sourcePrimary, "D", days, symbol)
	if series, ok := p.cachedSeries(primaryKey); ok {
		return series, nil
	}

	if p.primary != nil {
		series, err := p.primary.Candles(ctx, symbol, "D", days)
		if err == nil && !series.Empty() {
			p.storeSeries(primaryKey, series)
			return series, nil
		}
		if err != nil && !Unavailable(err) {
			return Series{}, err
		}
	}

	// Primary had no usable data: substitute the secondary series wholesale.
	secondaryKey := HistoryKey(sourceSecondary, "D", days, symbol)
	if series, ok := p.cachedSeries(secondaryKey); ok {
		return series, nil
	}
	if p.secondary == nil {
		return Series{}, ErrUnavailable
	}
	full, err := p.secondary.DailySeries(ctx, symbol)
	if err != nil {
		return Series{}, err
	}
	trimmed := full.Tail(days)
	if trimmed.Empty() {
		return Series{}, ErrUnavailable
	}
	p.storeSeries(secondaryKey, trimmed)
	logx.WithContext(ctx).Infof("market: history for %s served by fallback source", symbol)
	return trimmed, nil
}

// Fundamentals returns the company overview from the secondary source,
// cached for the long fundamentals TTL.
func (p *Provider) Fundamentals(ctx context.Context, symbol string) (Fundamentals, error) {
	key := FundamentalsKey(symbol)
	if p.cache != nil {
		if payload, ok := p.cache.Get(key, p.fundamentalsTTL); ok {
			var f Fundamentals
			if err := msgpack.Unmarshal(payload, &f); err == nil && f.Fields != nil {
				return f, nil
			}
		}
	}
	if p.secondary == nil {
		return Fundamentals{}, ErrUnavailable
	}
	f, err := p.secondary.Overview(ctx, symbol)
	if err != nil {
		return Fundamentals{}, err
	}
	if p.cache != nil {
		if payload, err := msgpack.Marshal(f); err == nil {
			p.cache.Put(key, payload)
		}
	}
	return f, nil
}

// News returns recent headlines from the primary source.
func (p *Provider) News(ctx context.Context, symbol string) ([]NewsItem, error) {
	if p.primary == nil {
		return nil, ErrUnavailable
	}
	return p.primary.CompanyNews(ctx, symbol)
}

func (p *Provider) cachedSeries(key string) (Series, bool) {
	if p.cache == nil {
		return Series{}, false
	}
	payload, ok := p.cache.Get(key, p.historyTTL)
	if !ok {
		return Series{}, false
	}
	var series Series
	if err := msgpack.Unmarshal(payload, &series); err != nil || series.Empty() {
		return Series{}, false
	}
	return series, true
}

func (p *Provider) storeSeries(key string, series Series) {
	if p.cache == nil {
		return
	}
	payload, err := msgpack.Marshal(series)
	if err != nil {
		return
	}
	p.cache.Put(key, payload)
}
