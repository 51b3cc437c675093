// Package config loads CLI configuration from YAML files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigParse    = errors.New("failed to parse config")
	ErrInvalidFormat  = errors.New("invalid output format")
	ErrInvalidBackend = errors.New("invalid diagram backend")
)

// maxConfigSize limits config input to prevent memory exhaustion.
const maxConfigSize = 1 << 20

// Config holds all configuration for the export CLI.
type Config struct {
	Output  OutputConfig  `yaml:"output"`
	Diagram DiagramConfig `yaml:"diagram"`
	Code    CodeConfig    `yaml:"code"`
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	Dir    string `yaml:"dir"`    // Default output directory (empty = same as source)
	Format string `yaml:"format"` // "docx", "markdown", or "text"
}

// DiagramConfig defines diagram rendering options.
type DiagramConfig struct {
	Backend      string `yaml:"backend"`      // "browser" (default) or "ink"
	Theme        string `yaml:"theme"`        // mermaid theme name
	MaxRasterDim int    `yaml:"maxRasterDim"` // single-axis pixel ceiling (0 = default)
	InkBaseURL   string `yaml:"inkBaseURL"`   // override for the ink service endpoint
}

// CodeConfig defines code-block rendering options.
type CodeConfig struct {
	Style string `yaml:"style"` // chroma style name for code coloring
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	return &Config{
		Output:  OutputConfig{Format: "docx"},
		Diagram: DiagramConfig{Backend: "browser", Theme: "default"},
		Code:    CodeConfig{Style: "github"},
	}
}

// Load reads a config file and merges it over the defaults. An empty
// path returns the defaults; a missing file is an error (no silent
// fallback once a path was asked for).
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if len(data) > maxConfigSize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrConfigParse, path, maxConfigSize)
	}

	if err := yaml.UnmarshalWithOptions(data, cfg, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enum-like fields.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Output.Format) {
	case "", "docx", "markdown", "text":
	default:
		return fmt.Errorf("%w: %q (must be docx, markdown, or text)", ErrInvalidFormat, c.Output.Format)
	}

	switch strings.ToLower(c.Diagram.Backend) {
	case "", "browser", "ink":
	default:
		return fmt.Errorf("%w: %q (must be browser or ink)", ErrInvalidBackend, c.Diagram.Backend)
	}
	return nil
}

// OutputPath resolves the destination for an input file: the configured
// output directory when set, otherwise alongside the input.
func (c *Config) OutputPath(inputPath, filename string) string {
	dir := c.Output.Dir
	if dir == "" {
		dir = filepath.Dir(inputPath)
	}
	return filepath.Join(dir, filename)
}
