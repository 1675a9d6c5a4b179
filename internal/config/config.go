package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is looked up in the workspace when no path is given.
const DefaultConfigFile = ".fparams.yaml"

// Config holds all fparams configuration.
type Config struct {
	// Directory that receives <design>.json files
	OutputDir string `yaml:"output_dir"`

	// Unit for numbers written without one when the block has no units: line
	DefaultUnit string `yaml:"default_unit"`

	// Fence info string that marks a parameter block in Markdown
	BlockLanguage string `yaml:"block_language"`

	Display   DisplayConfig   `yaml:"display"`
	Tolerance ToleranceConfig `yaml:"tolerance"`
	Watch     WatchConfig     `yaml:"watch"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DisplayConfig controls table output only; it never changes write-back order.
type DisplayConfig struct {
	SortByName bool `yaml:"sort_by_name"`
}

// ToleranceConfig is the record-scope tolerance used for display values.
type ToleranceConfig struct {
	Value          float64 `yaml:"value"`
	Unit           string  `yaml:"unit"`            // mm, in
	RoundingDigits int     `yaml:"rounding_digits"` // 0..10
	Mode           string  `yaml:"mode"`            // equation, result
}

// WatchConfig configures the document watcher.
type WatchConfig struct {
	Debounce   string   `yaml:"debounce"`
	Extensions []string `yaml:"extensions"`
}

// LedgerConfig configures the SQLite export history.
type LedgerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		OutputDir:     "params",
		DefaultUnit:   "mm",
		BlockLanguage: "fusion-params",

		Tolerance: ToleranceConfig{
			Value:          0,
			Unit:           "mm",
			RoundingDigits: 3,
			Mode:           "equation",
		},

		Watch: WatchConfig{
			Debounce:   "500ms",
			Extensions: []string{".md"},
		},

		Ledger: LedgerConfig{
			Enabled: false,
			Path:    ".fparams/ledger.db",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
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
	if dir := os.Getenv("FPARAMS_OUTPUT_DIR"); dir != "" {
		c.OutputDir = dir
	}
	if unit := os.Getenv("FPARAMS_DEFAULT_UNIT"); unit != "" {
		c.DefaultUnit = unit
	}
	if path := os.Getenv("FPARAMS_LEDGER"); path != "" {
		c.Ledger.Enabled = true
		c.Ledger.Path = path
	}
}

// Resolve makes relative paths absolute against the workspace directory.
func (c *Config) Resolve(workspace string) {
	if workspace == "" {
		return
	}
	if !filepath.IsAbs(c.OutputDir) {
		c.OutputDir = filepath.Join(workspace, c.OutputDir)
	}
	if c.Ledger.Path != "" && !filepath.IsAbs(c.Ledger.Path) {
		c.Ledger.Path = filepath.Join(workspace, c.Ledger.Path)
	}
}

// GetDebounce returns the watch debounce as a duration.
func (c *Config) GetDebounce() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}

// ValidToleranceUnits lists the supported tolerance units.
var ValidToleranceUnits = []string{"mm", "in"}

// ValidDisplayModes lists the supported tolerance display modes.
var ValidDisplayModes = []string{"equation", "result"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir must not be empty")
	}
	if !contains(ValidToleranceUnits, c.Tolerance.Unit) {
		return fmt.Errorf("invalid tolerance unit: %s (valid: %v)", c.Tolerance.Unit, ValidToleranceUnits)
	}
	if c.Tolerance.RoundingDigits < 0 || c.Tolerance.RoundingDigits > 10 {
		return fmt.Errorf("tolerance rounding_digits must be within 0..10, got %d", c.Tolerance.RoundingDigits)
	}
	if !contains(ValidDisplayModes, c.Tolerance.Mode) {
		return fmt.Errorf("invalid tolerance mode: %s (valid: %v)", c.Tolerance.Mode, ValidDisplayModes)
	}
	if c.Ledger.Enabled && c.Ledger.Path == "" {
		return fmt.Errorf("ledger is enabled but ledger.path is empty")
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
