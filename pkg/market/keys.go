package market

import (
	"strconv"
	"strings"
	"time"
)

// Namespace is the cache key prefix for market data entries.
const Namespace = "finsight"

// Freshness windows per data kind. Candle history goes stale within a day;
// fundamentals change slowly and are kept a full week.
const (
	HistoryTTL      = 24 * time.Hour
	FundamentalsTTL = 7 * 24 * time.Hour
)

func formatKey(parts ...string) string {
	values := make([]string, 0, len(parts)+1)
	values = append(values, Namespace)
	for _, part := range parts {
		clean := strings.TrimSpace(part)
		if clean == "" {
			continue
		}
		values = append(values, clean)
	}
	return strings.Join(values, ":")
}

// HistoryKey scopes a cached candle series to (source, resolution, count,
// symbol). Requests for different window sizes cache independently.
func HistoryKey(source, resolution string, count int, symbol string) string {
	return formatKey("history", source, resolution, strconv.Itoa(count), strings.ToUpper(symbol))
}

// FundamentalsKey scopes a cached company overview to its symbol.
func FundamentalsKey(symbol string) string {
	return formatKey("fundamentals", strings.ToUpper(symbol))
}
