package analysis

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"finsight-api/pkg/confkit"
)

const (
	defaultResearchBudget    = 5
	defaultTechnicalBudget   = 5
	defaultFundamentalBudget = 5
	defaultSynthesisBudget   = 8

	defaultHistoryDays = 365
	defaultPromptDir   = "prompts"
)

// Config controls runtime behaviour for the analysis pipeline.
type Config struct {
	Model       string  `yaml:"model"`
	PromptDir   string  `yaml:"prompt_dir"`
	HistoryDays int     `yaml:"history_days"`
	Budgets     Budgets `yaml:"budgets"`
}

// Budgets caps the collaborator iterations per stage.
type Budgets struct {
	Research    int `yaml:"research"`
	Technical   int `yaml:"technical"`
	Fundamental int `yaml:"fundamental"`
	Synthesis   int `yaml:"synthesis"`
}

// LoadConfig reads configuration from disk. A relative prompt_dir resolves
// against the config file's own directory.
func LoadConfig(path string) (*Config, error) {
	confkit.LoadDotenvOnce()
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pipeline config: %w", err)
	}
	defer file.Close()

	cfg, err := LoadConfigFromReader(file)
	if err != nil {
		return nil, err
	}
	if !filepath.IsAbs(cfg.PromptDir) {
		cfg.PromptDir = filepath.Join(filepath.Dir(path), cfg.PromptDir)
	}
	return cfg, nil
}

// MustLoad reads pipeline configuration from the default project location and
// panics on error.
func MustLoad() *Config {
	path := confkit.MustProjectPath("etc/pipeline.yaml")
	cfg, err := LoadConfig(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadConfigFromReader constructs a Config from a reader.
func LoadConfigFromReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pipeline config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal pipeline config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.PromptDir) == "" {
		c.PromptDir = defaultPromptDir
	}
	if c.HistoryDays <= 0 {
		c.HistoryDays = defaultHistoryDays
	}
	if c.Budgets.Research <= 0 {
		c.Budgets.Research = defaultResearchBudget
	}
	if c.Budgets.Technical <= 0 {
		c.Budgets.Technical = defaultTechnicalBudget
	}
	if c.Budgets.Fundamental <= 0 {
		c.Budgets.Fundamental = defaultFundamentalBudget
	}
	if c.Budgets.Synthesis <= 0 {
		c.Budgets.Synthesis = defaultSynthesisBudget
	}
}

// Validate ensures configuration sanity.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.PromptDir) == "" {
		return errors.New("pipeline config: prompt_dir is required")
	}
	if c.HistoryDays <= 0 {
		return errors.New("pipeline config: history_days must be positive")
	}
	for _, b := range []struct {
		name  string
		value int
	}{
		{"research", c.Budgets.Research},
		{"technical", c.Budgets.Technical},
		{"fundamental", c.Budgets.Fundamental},
		{"synthesis", c.Budgets.Synthesis},
	} {
		if b.value <= 0 {
			return fmt.Errorf("pipeline config: %s budget must be positive", b.name)
		}
	}
	return nil
}
