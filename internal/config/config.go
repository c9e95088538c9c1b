// Package config loads generator run configuration from YAML.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the full configuration of one generator run.
type Config struct {
	RulesPath string `yaml:"rules"`
	DBPath    string `yaml:"db"`
	RunName   string `yaml:"run_name"`

	Seed   int64 `yaml:"seed"`
	Radius int   `yaml:"radius"`

	// Genesis terrain shaping.
	SeaLevel int `yaml:"sea_level"`
	SnowLine int `yaml:"snow_line"`

	// Engine limits. Zero scans means unlimited; zero parallelism
	// means sequential evaluation.
	MaxScansPerRule int `yaml:"max_scans_per_rule"`
	Parallelism     int `yaml:"parallelism"`

	// HTTP API port; zero disables serving.
	Port int `yaml:"port"`
}

// Load reads a YAML config over defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Defaults() Config {
	return Config{
		DBPath:   "data/harmony.db",
		RunName:  "run",
		Seed:     1,
		Radius:   24,
		SeaLevel: 0,
		SnowLine: 9,
	}
}

func (c *Config) Normalize() {
	if c.RunName == "" {
		c.RunName = "run"
	}
	if c.MaxScansPerRule < 0 {
		c.MaxScansPerRule = 0
	}
	if c.Parallelism < 0 {
		c.Parallelism = 0
	}
}

func (c *Config) Validate() error {
	if c.RulesPath == "" {
		return fmt.Errorf("rules path is required")
	}
	if c.Radius < 1 {
		return fmt.Errorf("radius %d: must be at least 1", c.Radius)
	}
	if c.SnowLine <= c.SeaLevel {
		return fmt.Errorf("snow_line %d must be above sea_level %d", c.SnowLine, c.SeaLevel)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	return nil
}
