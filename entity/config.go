package entity

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tailored-agentic-units/statekit/machine"
	"github.com/tailored-agentic-units/statekit/memento"
	"github.com/tailored-agentic-units/statekit/subject"
)

// Config holds initialization parameters for all entity parts. Each section
// is handed to that package's config-driven constructor.
type Config struct {
	Name    string         `json:"name,omitempty" yaml:"name,omitempty"`
	Machine machine.Config `json:"machine" yaml:"machine"`
	Subject subject.Config `json:"subject" yaml:"subject"`
	History memento.Config `json:"history" yaml:"history"`
}

// DefaultConfig returns a Config with defaults for every part.
func DefaultConfig() Config {
	return Config{
		Name:    "entity",
		Machine: machine.DefaultConfig(),
		Subject: subject.DefaultConfig(),
		History: memento.DefaultConfig(),
	}
}

// Merge applies non-zero values from source into c, delegating to each
// part's Merge method.
func (c *Config) Merge(source *Config) {
	if source.Name != "" {
		c.Name = source.Name
	}
	c.Machine.Merge(&source.Machine)
	c.Subject.Merge(&source.Subject)
	c.History.Merge(&source.History)
}

// LoadConfig reads a JSON or YAML (.yaml, .yml) config file, merges it with
// defaults, and returns the resulting Config.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &loaded)
	default:
		err = json.Unmarshal(data, &loaded)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}
