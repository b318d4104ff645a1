package market

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"finsight-api/pkg/confkit"
)

const (
	envFinnhubKey      = "FINNHUB_API_KEY"
	envAlphaVantageKey = "ALPHA_VANTAGE_API_KEY"
)

// Config holds upstream provider settings. API keys usually arrive through
// the environment; a missing key is not an error, it degrades that
// provider's fetches to ErrUnavailable instead of crashing.
type Config struct {
	FinnhubAPIKey      string        `yaml:"finnhub_api_key"`
	AlphaVantageAPIKey string        `yaml:"alpha_vantage_api_key"`
	RequestTimeout     time.Duration `yaml:"-"`
	HistoryTTL         time.Duration `yaml:"-"`
	FundamentalsTTL    time.Duration `yaml:"-"`

	requestTimeoutRaw  string
	historyTTLRaw      string
	fundamentalsTTLRaw string
}

// LoadConfig reads provider configuration from disk.
func LoadConfig(path string) (*Config, error) {
	confkit.LoadDotenvOnce()
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open market config: %w", err)
	}
	defer file.Close()
	return LoadConfigFromReader(file)
}

// MustLoad reads provider configuration from the default project location
// and panics on error.
func MustLoad() *Config {
	path := confkit.MustProjectPath("etc/providers.yaml")
	cfg, err := LoadConfig(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadConfigFromReader constructs a Config from a reader.
func LoadConfigFromReader(r io.Reader) (*Config, error) {
	confkit.LoadDotenvOnce()

	var raw struct {
		FinnhubAPIKey      string `yaml:"finnhub_api_key"`
		AlphaVantageAPIKey string `yaml:"alpha_vantage_api_key"`
		RequestTimeout     string `yaml:"request_timeout"`
		HistoryTTL         string `yaml:"history_ttl"`
		FundamentalsTTL    string `yaml:"fundamentals_ttl"`
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read market config: %w", err)
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal market config: %w", err)
	}

	cfg := &Config{
		FinnhubAPIKey:      raw.FinnhubAPIKey,
		AlphaVantageAPIKey: raw.AlphaVantageAPIKey,
		requestTimeoutRaw:  raw.RequestTimeout,
		historyTTLRaw:      raw.HistoryTTL,
		fundamentalsTTLRaw: raw.FundamentalsTTL,
	}
	cfg.applyEnvOverrides()
	if err := cfg.parseDurations(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfig returns a config sourced from the environment only.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyEnvOverrides()
	_ = cfg.parseDurations()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	c.FinnhubAPIKey = expandAndOverride(c.FinnhubAPIKey, envFinnhubKey)
	c.AlphaVantageAPIKey = expandAndOverride(c.AlphaVantageAPIKey, envAlphaVantageKey)
}

func (c *Config) parseDurations() error {
	var err error
	if c.RequestTimeout, err = parseDurationOr(c.requestTimeoutRaw, 10*time.Second); err != nil {
		return fmt.Errorf("market config: invalid request_timeout: %w", err)
	}
	if c.HistoryTTL, err = parseDurationOr(c.historyTTLRaw, HistoryTTL); err != nil {
		return fmt.Errorf("market config: invalid history_ttl: %w", err)
	}
	if c.FundamentalsTTL, err = parseDurationOr(c.fundamentalsTTLRaw, FundamentalsTTL); err != nil {
		return fmt.Errorf("market config: invalid fundamentals_ttl: %w", err)
	}
	return nil
}

func parseDurationOr(raw string, fallback time.Duration) (time.Duration, error) {
	if strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %s", d)
	}
	return d, nil
}

func expandAndOverride(current, envKey string) string {
	current = os.ExpandEnv(current)
	if envVal := os.Getenv(envKey); envVal != "" {
		return envVal
	}
	return current
}
