package memento

// Config holds History and capture parameters.
type Config struct {
	// Observer names the observability.Observer to resolve from the registry.
	Observer string `json:"observer,omitempty" yaml:"observer,omitempty"`

	// Limit caps the number of retained snapshots (0 = unbounded). The
	// oldest entries are evicted first.
	Limit int `json:"limit,omitempty" yaml:"limit,omitempty"`

	// LabelLength is how many runes of the state a snapshot label keeps.
	LabelLength int `json:"label_length,omitempty" yaml:"label_length,omitempty"`
}

// DefaultConfig returns an unbounded history with nine-rune labels.
func DefaultConfig() Config {
	return Config{
		Observer:    "noop",
		Limit:       0,
		LabelLength: DefaultLabelLength,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Observer != "" {
		c.Observer = source.Observer
	}
	if source.Limit > 0 {
		c.Limit = source.Limit
	}
	if source.LabelLength > 0 {
		c.LabelLength = source.LabelLength
	}
}
