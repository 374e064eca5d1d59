package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/brettbedarf/treenav/internal/util"
	"gopkg.in/yaml.v3"
)

// Bytes per KB
const KB = 1024

// Default configuration constants. See [Config] and [MountOptions] for field descriptions.
const (
	// DefaultRoot is the mount point of the removable card
	DefaultRoot = "/sdcard"

	// DefaultMaxPathLen bounds the rendered directory path during descent (0 disables)
	DefaultMaxPathLen = 1024

	// DefaultLogLvl is the internal log level used when no verbosity is given
	DefaultLogLvl = util.InfoLevel

	// DefaultWalkSteps is how many next/previous steps the walk command takes
	DefaultWalkSteps = 3

	// DefaultMountType expects the card to be mounted already
	DefaultMountType = "none"

	DefaultFsName = "treenav"
	DefaultName   = "treenav"

	// DefaultReadOnly mounts the medium read-only since navigation never writes
	DefaultReadOnly = true

	// DefaultFormatIfMountFailed never formats the medium on a failed mount
	DefaultFormatIfMountFailed = false

	// DefaultMaxFiles is the maximum number of simultaneously open handles
	DefaultMaxFiles = 5

	// DefaultAllocationUnitSize is the cluster size used when formatting
	DefaultAllocationUnitSize = 16 * KB
)

// CLI verbosity levels. Higher is chattier; see [VerbosityToLogLevel].
const (
	ErrorVerbose = iota + 1
	WarnVerbose
	InfoVerbose
	DebugVerbose
	TraceVerbose
)

// Config contains runtime configuration values for a navigation session.
type Config struct {
	MountOptions

	Root       string        // Absolute path of the directory tree to navigate (Default /sdcard)
	LogLvl     util.LogLevel // Internal log level, set from a 1..5 verbosity in overrides (Default info)
	MaxPathLen int           // Longest directory path accepted while descending, 0 for unbounded (Default 1024)
	Include    []string      // Glob patterns a file name must match to be ranked, empty ranks every file
	WalkSteps  int           // Steps forward then back taken by the walk command (Default 3)
}

// ConfigOverride uses pointer fields to distinguish between unset and zero values
// when loading partial configuration. See [Config] for field descriptions.
type ConfigOverride struct {
	Root       *string  `yaml:"root,omitempty" json:"root,omitempty"`
	LogLvl     *int     `yaml:"verbose,omitempty" json:"verbose,omitempty"`
	MaxPathLen *int     `yaml:"max_path_len,omitempty" json:"max_path_len,omitempty"`
	Include    []string `yaml:"include,omitempty" json:"include,omitempty"`
	WalkSteps  *int     `yaml:"walk_steps,omitempty" json:"walk_steps,omitempty"`

	MountType           *string `yaml:"mount_type,omitempty" json:"mount_type,omitempty"`
	Source              *string `yaml:"source,omitempty" json:"source,omitempty"`
	Debug               *bool   `yaml:"debug,omitempty" json:"debug,omitempty"`
	FsName              *string `yaml:"fs_name,omitempty" json:"fs_name,omitempty"`
	Name                *string `yaml:"name,omitempty" json:"name,omitempty"`
	AllowOther          *bool   `yaml:"allow_other,omitempty" json:"allow_other,omitempty"`
	ReadOnly            *bool   `yaml:"read_only,omitempty" json:"read_only,omitempty"`
	FormatIfMountFailed *bool   `yaml:"format_if_mount_failed,omitempty" json:"format_if_mount_failed,omitempty"`
	MaxFiles            *int    `yaml:"max_files,omitempty" json:"max_files,omitempty"`
	AllocationUnitSize  *int    `yaml:"allocation_unit_size,omitempty" json:"allocation_unit_size,omitempty"`
}

// NewDefaultConfig creates a new Config with all default values.
func NewDefaultConfig() *Config {
	return &Config{
		MountOptions: MountOptions{
			Type:                DefaultMountType,
			FsName:              DefaultFsName,
			Name:                DefaultName,
			ReadOnly:            DefaultReadOnly,
			FormatIfMountFailed: DefaultFormatIfMountFailed,
			MaxFiles:            DefaultMaxFiles,
			AllocationUnitSize:  DefaultAllocationUnitSize,
		},
		Root:       DefaultRoot,
		LogLvl:     DefaultLogLvl,
		MaxPathLen: DefaultMaxPathLen,
		WalkSteps:  DefaultWalkSteps,
	}
}

// NewConfig creates a Config from defaults with override applied. A nil
// override yields the defaults.
func NewConfig(override *ConfigOverride) *Config {
	cfg := NewDefaultConfig()
	if override != nil {
		cfg.Merge(override)
	}
	return cfg
}

// VerbosityToLogLevel maps a CLI verbosity between 1 (error) and 5 (trace)
// to a [util.LogLevel]. Out of range values are clamped.
func VerbosityToLogLevel(verbose int) util.LogLevel {
	verbose = max(ErrorVerbose, min(TraceVerbose, verbose))
	logLvls := [5]util.LogLevel{util.ErrorLevel, util.WarnLevel, util.InfoLevel, util.DebugLevel, util.TraceLevel}
	return logLvls[verbose-1]
}

// Merge applies non-nil values from override onto this Config.
// This allows partial configuration updates while preserving existing values.
func (c *Config) Merge(override *ConfigOverride) {
	if override.Root != nil {
		c.Root = *override.Root
	}
	if override.LogLvl != nil {
		c.LogLvl = VerbosityToLogLevel(*override.LogLvl)
	}
	if override.MaxPathLen != nil {
		c.MaxPathLen = *override.MaxPathLen
	}
	if override.Include != nil {
		c.Include = append([]string(nil), override.Include...)
	}
	if override.WalkSteps != nil {
		c.WalkSteps = *override.WalkSteps
	}
	c.MountOptions.merge(override)
}

// Validate reports every setting that cannot drive a session.
func (c *Config) Validate() error {
	var errs []error
	if c.Root == "" || !path.IsAbs(filepath.ToSlash(c.Root)) {
		errs = append(errs, fmt.Errorf("root must be an absolute path: %q", c.Root))
	}
	if c.MaxPathLen < 0 {
		errs = append(errs, fmt.Errorf("max_path_len must not be negative: %d", c.MaxPathLen))
	}
	if c.WalkSteps < 0 {
		errs = append(errs, fmt.Errorf("walk_steps must not be negative: %d", c.WalkSteps))
	}
	if err := c.MountOptions.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// LoadConfigOverrideFile loads configuration overrides from a file without merging.
// Supports both YAML (.yaml, .yml) and JSON (.json) formats.
func LoadConfigOverrideFile(path string) (*ConfigOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var override ConfigOverride

	// Determine format by file extension
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown config file extension: %s", path)
	}

	return &override, nil
}

// NewConfigFromFile creates a new Config by merging file overrides with defaults.
// This is a convenience function that combines NewDefaultConfig, LoadConfigOverrideFile, and Merge.
func NewConfigFromFile(path string) (*Config, error) {
	override, err := LoadConfigOverrideFile(path)
	if err != nil {
		return nil, err
	}
	return NewConfig(override), nil
}
