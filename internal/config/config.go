package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file looked up in the project root.
const DefaultFileName = ".sfperms.yaml"

// Config holds all sfperms configuration.
type Config struct {
	// Project layout
	Project ProjectConfig `yaml:"project"`

	// Retrieval through the sf CLI
	Retrieve RetrieveConfig `yaml:"retrieve"`

	// Matrix row labelling
	Matrix MatrixConfig `yaml:"matrix"`

	// Report rendering
	Render RenderConfig `yaml:"render"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// ProjectConfig locates the inputs and outputs inside an SFDX project.
// Relative paths are resolved against Root.
type ProjectConfig struct {
	Root              string `yaml:"root"`
	Manifest          string `yaml:"manifest"`
	PermissionSetsDir string `yaml:"permission_sets_dir"`
	ProfilesDir       string `yaml:"profiles_dir"`
	DescribeDir       string `yaml:"describe_dir"`
	DesignRoot        string `yaml:"design_root"`
}

// RetrieveConfig configures the external sf command.
type RetrieveConfig struct {
	Binary      string `yaml:"binary"`
	TargetOrg   string `yaml:"target_org"`
	WaitMinutes int    `yaml:"wait_minutes"`
	Timeout     string `yaml:"timeout"`
	// APIVersion is used for synthesized manifests when the source manifest has none.
	APIVersion string `yaml:"api_version"`
}

// MatrixConfig configures how rows are labelled.
type MatrixConfig struct {
	// CustomSuffixes are stripped from identifiers when no describe label exists.
	CustomSuffixes []string `yaml:"custom_suffixes"`
}

// RenderConfig configures the markdown and image renderers.
type RenderConfig struct {
	Image          bool    `yaml:"image"`
	FontSize       float64 `yaml:"font_size"`
	CellPadding    int     `yaml:"cell_padding"`
	RowHeight      int     `yaml:"row_height"`
	MinColumnWidth int     `yaml:"min_column_width"`
	MaxColumnWidth int     `yaml:"max_column_width"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Project: ProjectConfig{
			Root:              ".",
			Manifest:          "manifest/package.xml",
			PermissionSetsDir: "force-app/main/default/permissionsets",
			ProfilesDir:       "force-app/main/default/profiles",
			DescribeDir:       ".sfperms/describe",
			DesignRoot:        "docs/design",
		},

		Retrieve: RetrieveConfig{
			Binary:      "sf",
			WaitMinutes: 10,
			Timeout:     "15m",
			APIVersion:  "61.0",
		},

		Matrix: MatrixConfig{
			CustomSuffixes: []string{"__c"},
		},

		Render: RenderConfig{
			Image:          true,
			FontSize:       13,
			CellPadding:    8,
			RowHeight:      24,
			MinColumnWidth: 40,
			MaxColumnWidth: 320,
		},

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Defaults still honor the environment
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if org := os.Getenv("SFPERMS_TARGET_ORG"); org != "" {
		c.Retrieve.TargetOrg = org
	}
	if root := os.Getenv("SFPERMS_DESIGN_ROOT"); root != "" {
		c.Project.DesignRoot = root
	}
	if bin := os.Getenv("SFPERMS_SF_BIN"); bin != "" {
		c.Retrieve.Binary = bin
	}
}

// Resolve returns p joined to the project root unless p is absolute.
func (c *Config) Resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Project.Root, p)
}

// ManifestPath returns the resolved manifest path.
func (c *Config) ManifestPath() string { return c.Resolve(c.Project.Manifest) }

// PermissionSetsPath returns the resolved permission-set metadata directory.
func (c *Config) PermissionSetsPath() string { return c.Resolve(c.Project.PermissionSetsDir) }

// ProfilesPath returns the resolved profile metadata directory.
func (c *Config) ProfilesPath() string { return c.Resolve(c.Project.ProfilesDir) }

// DescribePath returns the resolved describe snapshot directory.
func (c *Config) DescribePath() string { return c.Resolve(c.Project.DescribeDir) }

// DesignRootPath returns the resolved report output root.
func (c *Config) DesignRootPath() string { return c.Resolve(c.Project.DesignRoot) }

// GetRetrieveTimeout returns the retrieval timeout as a duration.
func (c *Config) GetRetrieveTimeout() time.Duration {
	d, err := time.ParseDuration(c.Retrieve.Timeout)
	if err != nil {
		return 15 * time.Minute
	}
	return d
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Project.Manifest == "" {
		return fmt.Errorf("project.manifest is required")
	}
	if c.Project.DesignRoot == "" {
		return fmt.Errorf("project.design_root is required")
	}
	if c.Retrieve.Binary == "" {
		return fmt.Errorf("retrieve.binary is required")
	}
	if c.Retrieve.WaitMinutes < 0 {
		return fmt.Errorf("retrieve.wait_minutes must not be negative, got %d", c.Retrieve.WaitMinutes)
	}
	if c.Render.FontSize <= 0 {
		return fmt.Errorf("render.font_size must be positive, got %v", c.Render.FontSize)
	}
	if c.Render.MinColumnWidth <= 0 || c.Render.MaxColumnWidth < c.Render.MinColumnWidth {
		return fmt.Errorf("invalid render column widths: min=%d max=%d",
			c.Render.MinColumnWidth, c.Render.MaxColumnWidth)
	}
	return nil
}
