// Package config loads and validates the node configuration from a YAML
// file, with environment overrides for the node identity.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration parsed from its YAML string form ("5s").
type Duration time.Duration

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the standard library duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// NodeConfig identifies this process in the ensemble.
type NodeConfig struct {
	Name string `yaml:"name"`
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// EnsembleConfig describes the federation this node participates in.
type EnsembleConfig struct {
	DiscoveryInterval Duration          `yaml:"discovery_interval"`
	Clusters          []string          `yaml:"clusters"`
	Seeds             map[string]string `yaml:"seeds"`
}

// Config is the full node configuration.
type Config struct {
	Node       NodeConfig     `yaml:"node"`
	Cluster    string         `yaml:"cluster"`
	Ensemble   EnsembleConfig `yaml:"ensemble"`
	WorkerPool int            `yaml:"worker_pool"`
}

// Load reads the configuration file, applies environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes a configuration document without validating it.
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for completeness.
func (c *Config) Validate() error {
	if c.Node.Name == "" {
		return fmt.Errorf("node name is required")
	}
	if c.Node.Host == "" {
		return fmt.Errorf("node host is required")
	}
	if c.Node.Port <= 0 {
		return fmt.Errorf("node port is required")
	}
	if c.Cluster == "" {
		return fmt.Errorf("local cluster name is required")
	}
	local := false
	for _, name := range c.Ensemble.Clusters {
		if name == c.Cluster {
			local = true
			continue
		}
		if _, ok := c.Ensemble.Seeds[name]; !ok {
			return fmt.Errorf("remote cluster %s has no seed", name)
		}
	}
	if !local {
		return fmt.Errorf("local cluster %s must appear in ensemble clusters", c.Cluster)
	}
	if len(c.Ensemble.Seeds) > 0 && c.Ensemble.DiscoveryInterval.Std() <= 0 {
		return fmt.Errorf("discovery interval must be positive")
	}
	if c.WorkerPool == 0 {
		c.WorkerPool = 16
	}
	if c.WorkerPool < 0 {
		return fmt.Errorf("worker pool size must be positive")
	}
	return nil
}

// applyEnv overrides the node identity from the environment.
func (c *Config) applyEnv() {
	if v := os.Getenv("TERRASTORE_NODE_NAME"); v != "" {
		c.Node.Name = v
	}
	if v := os.Getenv("TERRASTORE_NODE_HOST"); v != "" {
		c.Node.Host = v
	}
}
