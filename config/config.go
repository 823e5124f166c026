package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/anrusu/fueldist/infra/csvdata"
	"github.com/anrusu/fueldist/infra/metrics"
	"github.com/anrusu/fueldist/infra/roundapi"
)

// Config is the root configuration.
type Config struct {
	Data    csvdata.Config  `json:"data"`
	API     roundapi.Config `json:"api"`
	Policy  PolicyConfig    `json:"policy"`
	Journal JournalConfig   `json:"journal"`
	Metrics metrics.Config  `json:"metrics"`
}

// PolicyConfig selects the allocation policy and backlog behaviour.
type PolicyConfig struct {
	// Kind selects the allocator: "greedy" or "lp".
	Kind string `json:"kind"`
	// Expiry decides what happens to requests past their window:
	// "keep", "report" or "drop".
	Expiry string `json:"expiry"`
	// PaceMillis is the cooperative delay between rounds.
	PaceMillis int `json:"pace_millis"`
}

// SetDefaults applies sane defaults.
func (c *PolicyConfig) SetDefaults() {
	if c.Kind == "" {
		c.Kind = "greedy"
	}
	if c.Expiry == "" {
		c.Expiry = "report"
	}
	if c.PaceMillis <= 0 {
		c.PaceMillis = 1000
	}
}

// Validate checks the policy selection.
func (c PolicyConfig) Validate() error {
	if c.Kind != "greedy" && c.Kind != "lp" {
		return fmt.Errorf("unknown policy kind %q", c.Kind)
	}
	switch c.Expiry {
	case "keep", "report", "drop":
		return nil
	}
	return fmt.Errorf("unknown expiry policy %q", c.Expiry)
}

// JournalConfig controls the per-round JSONL journal.
type JournalConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// SetDefaults applies sane defaults.
func (c *JournalConfig) SetDefaults() {
	if c.Path == "" {
		c.Path = "rounds.jsonl"
	}
}

// Load reads the configuration file (yaml or json) and applies FD_
// environment overrides.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("FD_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "fd_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Data.SetDefaults()
	cfg.API.SetDefaults()
	cfg.Policy.SetDefaults()
	cfg.Journal.SetDefaults()
	cfg.Metrics.SetDefaults()
	if err := cfg.API.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Policy.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
