// Package halconfig loads the session's static configuration options.
package halconfig

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the recognized session options from spec.md §6. PinSource
// is supplied programmatically by the host, not loaded from YAML.
type Config struct {
	CommandURI        string `yaml:"commandUri"`
	UpdateURI         string `yaml:"updateUri"`
	Name              string `yaml:"name"`
	HeartbeatPeriodMs int    `yaml:"heartbeatPeriod"`
	Ready             bool   `yaml:"ready"`
}

func defaultConfig() *Config {
	return &Config{
		Name:              "default",
		HeartbeatPeriodMs: 3000,
		Ready:             false,
	}
}

// HeartbeatPeriod converts HeartbeatPeriodMs to a time.Duration for
// halheartbeat.New. Zero means disabled, matching spec.md §6.
func (c *Config) HeartbeatPeriod() time.Duration {
	return time.Duration(c.HeartbeatPeriodMs) * time.Millisecond
}

// Load reads a YAML config file, filling unset fields with spec.md §6's
// defaults before unmarshaling, mirroring the teacher's Load (defaults
// struct populated first, then overwritten by whatever the file sets).
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// Validate normalizes the loaded config, falling back to spec.md §6's
// defaults for anything left at its YAML zero value, and rejects a
// negative heartbeat period (0 is meaningful: disabled).
func (c *Config) Validate() error {
	if c.Name == "" {
		c.Name = "default"
	}
	if c.HeartbeatPeriodMs < 0 {
		return fmt.Errorf("halconfig: heartbeatPeriod must be >= 0, got %d", c.HeartbeatPeriodMs)
	}
	return nil
}
