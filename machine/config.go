package machine

// Config holds Machine initialization parameters.
type Config struct {
	// Observer names the observability.Observer to resolve from the registry.
	Observer string `json:"observer,omitempty" yaml:"observer,omitempty"`
}

// DefaultConfig returns the default machine configuration (no telemetry).
func DefaultConfig() Config {
	return Config{Observer: "noop"}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Observer != "" {
		c.Observer = source.Observer
	}
}
