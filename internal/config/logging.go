package config

// LoggingConfig configures logging. Categories not listed are enabled.
type LoggingConfig struct {
	Level      string          `yaml:"level" json:"level,omitempty"`           // debug, info, warn, error
	Format     string          `yaml:"format" json:"format,omitempty"`         // json, console
	File       string          `yaml:"file" json:"file,omitempty"`             // optional extra output path
	Categories map[string]bool `yaml:"categories" json:"categories,omitempty"` // Per-category toggles
}

