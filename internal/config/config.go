package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/edvin/mirrord/internal/model"
	"github.com/edvin/mirrord/internal/platform"
)

// Config is the daemon configuration loaded from mirrord.yaml.
type Config struct {
	Pairs []model.BackupPair `yaml:"pairs"`
	Copy  model.CopyOptions  `yaml:"copy"`

	// IntervalSeconds is the daemon scheduling interval.
	IntervalSeconds int64 `yaml:"interval_seconds" validate:"min=1,max=99999999"`

	// ToolPath is the external copy tool binary. Overridable so dev and
	// test environments can substitute a stand-in.
	ToolPath string `yaml:"tool_path"`

	HTTPListenAddr string `yaml:"listen_addr"`
	LogLevel       string `yaml:"log_level"`

	// Legacy single-pair fields, migrated into Pairs on load.
	Source      string `yaml:"source,omitempty"`
	Destination string `yaml:"destination,omitempty"`
}

// Default returns the configuration used when no file exists yet.
func Default() *Config {
	return &Config{
		Copy:            model.DefaultCopyOptions(),
		IntervalSeconds: 3600,
		ToolPath:        "robocopy",
		HTTPListenAddr:  ":8390",
		LogLevel:        "info",
	}
}

// Interval returns the scheduling interval as a duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// Load reads and parses the configuration file. A missing file yields the
// default configuration rather than an error so a fresh install starts clean.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses configuration from raw bytes, applies defaults for omitted
// fields, migrates legacy single-pair configs, and assigns IDs to new pairs.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.migrateLegacy()

	if cfg.ToolPath == "" {
		cfg.ToolPath = "robocopy"
	}
	if cfg.HTTPListenAddr == "" {
		cfg.HTTPListenAddr = ":8390"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	for i := range cfg.Pairs {
		if cfg.Pairs[i].ID == "" {
			cfg.Pairs[i].ID = platform.NewID()
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration back to disk.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// migrateLegacy converts the old single source/destination fields into a
// one-element pair list. The legacy fields are cleared afterwards.
func (c *Config) migrateLegacy() {
	if len(c.Pairs) == 0 && c.Source != "" && c.Destination != "" {
		c.Pairs = append(c.Pairs, model.BackupPair{
			ID:          platform.NewID(),
			Source:      c.Source,
			Destination: c.Destination,
			Enabled:     true,
		})
	}
	c.Source = ""
	c.Destination = ""
}
