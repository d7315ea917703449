package action

import "fmt"

// Config is process-wide, read-only state for the Action layer, loaded once
// at startup and never mutated. Spec §9: "Global configuration."
type Config struct {
	// IndexFetchCount bounds how many keys are fetched from the KV index per
	// window during delete-multi's fetch_objects_info step. Spec §4.4.1.
	IndexFetchCount int `yaml:"index_fetch_count"`

	// MaxDeleteKeys is the batch size cap above which delete-multi is
	// rejected with MaxMessageLengthExceeded. Spec §4.4.1/§8: "1000."
	MaxDeleteKeys int `yaml:"max_delete_keys"`
}

// DefaultConfig returns the spec-mandated defaults (window size is an
// implementation choice; the 1000-key cap is spec-fixed).
func DefaultConfig() *Config {
	return &Config{
		IndexFetchCount: 100,
		MaxDeleteKeys:   1000,
	}
}

// Validate checks the configuration is self-consistent.
func (c Config) Validate() error {
	if c.IndexFetchCount <= 0 {
		return fmt.Errorf("index_fetch_count must be positive")
	}
	if c.MaxDeleteKeys <= 0 {
		return fmt.Errorf("max_delete_keys must be positive")
	}
	return nil
}
