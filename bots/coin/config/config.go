package config

import (
	"fmt"
	"strings"

	coreconfig "github.com/m3rciful/coinbot/core/config"
	coredatabase "github.com/m3rciful/coinbot/core/database"
)

const (
	// StateMemory keeps conversations in process memory.
	StateMemory = "memory"
	// StateBolt persists conversations in a bbolt file.
	StateBolt = "bolt"
)

// StateConfig selects the conversation state backend.
type StateConfig struct {
	Backend string `yaml:"backend" envconfig:"STATE_BACKEND"`
	Path    string `yaml:"path" envconfig:"STATE_PATH"`
}

// MetricsConfig enables the /health and /metrics listener when Addr is set.
type MetricsConfig struct {
	Addr string `yaml:"addr" envconfig:"METRICS_ADDR"`
}

// DefaultSenderRetries applies when max_retries is not set.
const DefaultSenderRetries = 2

// SenderConfig tunes the asynchronous outbound dispatcher. MaxRetries is a
// pointer so an explicit 0 disables retries.
type SenderConfig struct {
	Workers    int  `yaml:"workers" envconfig:"SENDER_WORKERS"`
	QueueSize  int  `yaml:"queue_size" envconfig:"SENDER_QUEUE_SIZE"`
	MaxRetries *int `yaml:"max_retries" envconfig:"SENDER_MAX_RETRIES"`
}

// Retries returns the configured retry count or the default.
func (s SenderConfig) Retries() int {
	if s.MaxRetries == nil {
		return DefaultSenderRetries
	}
	return *s.MaxRetries
}

// Config is the full coinbot configuration.
type Config struct {
	Core     coreconfig.Config   `yaml:",inline"`
	Database coredatabase.Config `yaml:"database"`
	State    StateConfig         `yaml:"state"`
	Metrics  MetricsConfig       `yaml:"metrics"`
	Sender   SenderConfig        `yaml:"sender"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Core
}

// Load reads the YAML file at path (optional) and the environment, then validates.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.LoadInto(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates every section and fills defaults.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Core); err != nil {
		return err
	}
	if err := c.Database.Normalize(); err != nil {
		return err
	}

	switch b := strings.ToLower(strings.TrimSpace(c.State.Backend)); b {
	case "", StateMemory:
		c.State.Backend = StateMemory
	case StateBolt:
		c.State.Backend = StateBolt
		if strings.TrimSpace(c.State.Path) == "" {
			c.State.Path = "data/coinbot-state.db"
		}
	default:
		return fmt.Errorf("invalid state.backend %q; allowed: memory, bolt", c.State.Backend)
	}

	c.Metrics.Addr = strings.TrimSpace(c.Metrics.Addr)

	if c.Sender.Workers < 0 || c.Sender.QueueSize < 0 || c.Sender.Retries() < 0 {
		return fmt.Errorf("sender settings must be >= 0")
	}
	if c.Sender.MaxRetries == nil {
		retries := DefaultSenderRetries
		c.Sender.MaxRetries = &retries
	}
	return nil
}
