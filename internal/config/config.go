// Package config holds the lowering configuration read from qirlower.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/funvibe/qirlower/internal/rir"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// LoweringConfig represents the top-level qirlower.yaml configuration.
type LoweringConfig struct {
	// Entry is the name of the callable lowered as the program entry point.
	// Empty selects the entry declared by the program, then Main.
	Entry string `yaml:"entry,omitempty"`

	// Profile selects the capability set recorded in the lowered program:
	// base, adaptive or adaptive_rif.
	Profile string `yaml:"profile,omitempty"`

	// Format is the default output format of the CLI.
	Format string `yaml:"format,omitempty"`

	Limits Limits    `yaml:"limits"`
	Log    LogConfig `yaml:"log"`
	Cache  Cache     `yaml:"cache"`
}

// Limits bound compile-time evaluation.
type Limits struct {
	// MaxLoopIterations caps the iterations of any single loop.
	MaxLoopIterations int `yaml:"max_loop_iterations,omitempty"`

	// MaxCallDepth caps nested inlining.
	MaxCallDepth int `yaml:"max_call_depth,omitempty"`
}

type LogConfig struct {
	Level string `yaml:"level,omitempty"`
}

// Cache configures the artifact cache. An empty Path keeps the cache in
// memory only.
type Cache struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Path    string `yaml:"path,omitempty"`
	Size    int    `yaml:"size,omitempty"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *LoweringConfig {
	cfg := &LoweringConfig{}
	cfg.setDefaults()
	return cfg
}

// LoadConfig reads and parses a qirlower.yaml file.
func LoadConfig(path string) (*LoweringConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseConfig(data, path)
}

// ParseConfig parses qirlower.yaml content from bytes.
// The path argument is used only for error messages.
func ParseConfig(data []byte, path string) (*LoweringConfig, error) {
	var cfg LoweringConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	return &cfg, nil
}

// FindConfig searches for qirlower.yaml starting from dir and walking up
// to parent directories. It returns "" when no file is found.
func FindConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}
	for {
		for _, name := range ConfigFileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// validate checks the configuration for semantic errors.
func (c *LoweringConfig) validate(path string) error {
	if c.Profile != "" {
		if _, ok := ParseProfile(c.Profile); !ok {
			return fmt.Errorf("%s: unknown profile %q (want %s)", path, c.Profile,
				strings.Join([]string{ProfileBase, ProfileAdaptive, ProfileAdaptiveRIF}, ", "))
		}
	}
	switch c.Format {
	case "", FormatText, FormatYAML, FormatResources:
	default:
		return fmt.Errorf("%s: unknown format %q", path, c.Format)
	}
	if c.Limits.MaxLoopIterations < 0 {
		return fmt.Errorf("%s: limits.max_loop_iterations must not be negative", path)
	}
	if c.Limits.MaxCallDepth < 0 {
		return fmt.Errorf("%s: limits.max_call_depth must not be negative", path)
	}
	if c.Log.Level != "" {
		if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
			return fmt.Errorf("%s: log.level: %w", path, err)
		}
	}
	if c.Cache.Size < 0 {
		return fmt.Errorf("%s: cache.size must not be negative", path)
	}
	return nil
}

// setDefaults fills in default values for optional fields.
func (c *LoweringConfig) setDefaults() {
	if c.Profile == "" {
		c.Profile = DefaultProfile
	}
	if c.Format == "" {
		c.Format = DefaultFormat
	}
	if c.Limits.MaxLoopIterations == 0 {
		c.Limits.MaxLoopIterations = DefaultMaxLoopIterations
	}
	if c.Limits.MaxCallDepth == 0 {
		c.Limits.MaxCallDepth = DefaultMaxCallDepth
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Cache.Size == 0 {
		c.Cache.Size = DefaultCacheSize
	}
}

// Capabilities returns the capability set of the configured profile.
func (c *LoweringConfig) Capabilities() rir.Capabilities {
	caps, _ := ParseProfile(c.Profile)
	return caps
}

// LogLevel returns the configured zap level, falling back to info.
func (c *LoweringConfig) LogLevel() zapcore.Level {
	lvl, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// ParseProfile maps a profile name to its capability set.
func ParseProfile(name string) (rir.Capabilities, bool) {
	switch name {
	case ProfileBase:
		return 0, true
	case ProfileAdaptive:
		return rir.ForwardBranching, true
	case ProfileAdaptiveRIF:
		return rir.ForwardBranching | rir.IntegerComputations | rir.FloatingPointComputations, true
	}
	return 0, false
}
