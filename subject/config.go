package subject

// Config holds Subject initialization parameters.
type Config struct {
	// Name labels the subject in events.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Observer names the observability.Observer to resolve from the registry.
	Observer string `json:"observer,omitempty" yaml:"observer,omitempty"`
}

// DefaultConfig returns the default subject configuration.
func DefaultConfig() Config {
	return Config{
		Name:     "subject",
		Observer: "noop",
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Name != "" {
		c.Name = source.Name
	}
	if source.Observer != "" {
		c.Observer = source.Observer
	}
}
