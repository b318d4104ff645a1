package market

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromReaderDefaults(t *testing.T) {
	cfg, err := LoadConfigFromReader(strings.NewReader(""))
	require.NoError(t, err)

	require.Equal(t, 10*time.Second, cfg.RequestTimeout)
	require.Equal(t, HistoryTTL, cfg.HistoryTTL)
	require.Equal(t, FundamentalsTTL, cfg.FundamentalsTTL)
}

func TestLoadConfigFromReaderValues(t *testing.T) {
	yaml := `
finnhub_api_key: fh-key
alpha_vantage_api_key: av-key
request_timeout: 5s
history_ttl: 12h
fundamentals_ttl: 72h
`
	cfg, err := LoadConfigFromReader(strings.NewReader(yaml))
	require.NoError(t, err)

	require.Equal(t, "fh-key", cfg.FinnhubAPIKey)
	require.Equal(t, "av-key", cfg.AlphaVantageAPIKey)
	require.Equal(t, 5*time.Second, cfg.RequestTimeout)
	require.Equal(t, 12*time.Hour, cfg.HistoryTTL)
	require.Equal(t, 72*time.Hour, cfg.FundamentalsTTL)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("FINNHUB_API_KEY", "env-fh")
	t.Setenv("ALPHA_VANTAGE_API_KEY", "env-av")

	cfg, err := LoadConfigFromReader(strings.NewReader("finnhub_api_key: file-fh\n"))
	require.NoError(t, err)

	require.Equal(t, "env-fh", cfg.FinnhubAPIKey)
	require.Equal(t, "env-av", cfg.AlphaVantageAPIKey)
}

func TestLoadConfigEnvExpansion(t *testing.T) {
	t.Setenv("TEST_FH_SECRET", "expanded-fh")

	cfg, err := LoadConfigFromReader(strings.NewReader("finnhub_api_key: ${TEST_FH_SECRET}\n"))
	require.NoError(t, err)
	require.Equal(t, "expanded-fh", cfg.FinnhubAPIKey)
}

func TestLoadConfigInvalidDuration(t *testing.T) {
	_, err := LoadConfigFromReader(strings.NewReader("history_ttl: often\n"))
	require.Error(t, err)
}

func TestFundamentalsField(t *testing.T) {
	f := Fundamentals{Fields: map[string]string{
		"PERatio":       "28.4",
		"DividendYield": "None",
		"EPS":           "-",
	}}

	require.Equal(t, "28.4", f.Field("PERatio"))
	require.Equal(t, NotAvailable, f.Field("DividendYield"))
	require.Equal(t, NotAvailable, f.Field("EPS"))
	require.Equal(t, NotAvailable, f.Field("Missing"))
	require.Equal(t, NotAvailable, Fundamentals{}.Field("PERatio"))
}
