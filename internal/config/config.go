package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/rest"

	"finsight-api/pkg/analysis"
	"finsight-api/pkg/confkit"
	llmpkg "finsight-api/pkg/llm"
	marketpkg "finsight-api/pkg/market"
)

type Config struct {
	rest.RestConf
	// Env indicates the running environment: test | dev | prod.
	Env string `json:",default=dev"`
	// DataDir holds the reports/ and cache/ subdirectories.
	DataDir string `json:",default=data"`

	LLM       confkit.Section[llmpkg.Config]    `json:",optional"`
	Providers confkit.Section[marketpkg.Config] `json:",optional"`
	Pipeline  confkit.Section[analysis.Config]  `json:",optional"`

	mainPath string
	baseDir  string
}

func (c *Config) IsTestEnv() bool {
	return c.Env == "test"
}

func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

func Load(path string) (*Config, error) {
	confkit.LoadDotenvOnce()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path %s: %w", path, err)
	}

	var cfg Config
	if err := conf.Load(absPath, &cfg, conf.UseEnv()); err != nil {
		return nil, fmt.Errorf("load config %s: %w", absPath, err)
	}

	cfg.mainPath = absPath
	cfg.baseDir = filepath.Dir(absPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.hydrateSections(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Env)) {
	case "", "test", "dev", "prod":
		if strings.TrimSpace(c.Env) == "" {
			c.Env = "dev"
		}
	default:
		return errors.New("config: env must be one of test|dev|prod")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return errors.New("config: dataDir is required")
	}
	return nil
}

func (c *Config) hydrateSections() error {
	base := c.baseDir

	if err := c.LLM.Hydrate(base, llmpkg.LoadConfig); err != nil {
		return fmt.Errorf("load llm config: %w", err)
	}
	if err := c.Providers.Hydrate(base, marketpkg.LoadConfig); err != nil {
		return fmt.Errorf("load providers config: %w", err)
	}
	if err := c.Pipeline.Hydrate(base, analysis.LoadConfig); err != nil {
		return fmt.Errorf("load pipeline config: %w", err)
	}
	return nil
}

// ReportsDir is where finished report artifacts land.
func (c *Config) ReportsDir() string {
	return filepath.Join(c.resolvedDataDir(), "reports")
}

// CacheDir is where the on-disk market cache lives.
func (c *Config) CacheDir() string {
	return filepath.Join(c.resolvedDataDir(), "cache")
}

func (c *Config) resolvedDataDir() string {
	if filepath.IsAbs(c.DataDir) {
		return c.DataDir
	}
	if c.baseDir == "" {
		return c.DataDir
	}
	return filepath.Join(filepath.Dir(c.baseDir), c.DataDir)
}

func (c *Config) MainPath() string {
	return c.mainPath
}

func (c *Config) BaseDir() string {
	return c.baseDir
}
