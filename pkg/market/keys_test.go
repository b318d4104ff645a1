package market

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHistoryKey(t *testing.T) {
	require.Equal(t, "finsight:history:finnhub:D:30:AAPL", HistoryKey("finnhub", "D", 30, "aapl"))

	// Different window sizes cache independently.
	require.NotEqual(t, HistoryKey("finnhub", "D", 30, "AAPL"), HistoryKey("finnhub", "D", 90, "AAPL"))
	// So do different sources for the same request.
	require.NotEqual(t, HistoryKey("finnhub", "D", 30, "AAPL"), HistoryKey("alphavantage", "D", 30, "AAPL"))
}

func TestFundamentalsKey(t *testing.T) {
	require.Equal(t, "finsight:fundamentals:MSFT", FundamentalsKey("msft"))
}

func TestFormatKeySkipsEmptyParts(t *testing.T) {
	require.Equal(t, "finsight:history:AAPL", formatKey("history", " ", "AAPL"))
}
