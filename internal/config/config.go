// Package config loads the optional trimneck run configuration.
//
// The configuration file is a small convenience layer: it lets a site pin
// tool locations (a full path to c3d, a renamed trim_neck script), change
// the default padding, or route tool execution through a container image.
// Everything in it can also be expressed, or overridden, on the command
// line; running with no configuration file at all is the common case.
//
// Two formats are accepted, chosen by file extension: YAML (.yaml/.yml)
// and JSON with comments (.json/.jsonc). JSONC support uses
// github.com/tidwall/jsonc to strip comments and trailing commas before
// parsing with the standard encoding/json library, so hand-maintained
// config files can carry annotations.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// DefaultPadMM is the padding applied to each face of the trimmed volume
// when neither the config file nor the --pad-mm flag says otherwise.
const DefaultPadMM = 10

// Config holds the run configuration for the trimneck pipeline.
// Zero values mean "use the default"; Normalize fills them in.
type Config struct {
	// C3D is the command used for the reorientation and padding steps.
	// Usually just "c3d" resolved via PATH, but may be an absolute path.
	C3D string `yaml:"c3d" json:"c3d"`

	// TrimNeck is the command used for the neck-trim step.
	TrimNeck string `yaml:"trimNeck" json:"trimNeck"`

	// PadMM is the default padding in millimeters per volume face.
	PadMM int `yaml:"padMM" json:"padMM"`

	// Docker configures the containerized execution backend. When
	// Docker.Image is empty, tools run directly on the host PATH.
	Docker DockerConfig `yaml:"docker" json:"docker"`
}

// DockerConfig selects containerized tool execution. Running the tools
// from a pinned image gives byte-reproducible preprocessing across hosts
// that may carry different c3d builds.
type DockerConfig struct {
	// Image is the container image holding both c3d and trim_neck.sh.
	// Empty disables the container backend.
	Image string `yaml:"image" json:"image"`
}

// Default returns a configuration with all defaults filled in: tools
// resolved by bare name through PATH, standard padding, host execution.
func Default() *Config {
	return &Config{
		C3D:      "c3d",
		TrimNeck: "trim_neck.sh",
		PadMM:    DefaultPadMM,
	}
}

// Load reads a configuration file and returns the parsed Config with
// defaults applied for any field the file leaves unset. The format is
// chosen from the file extension.
//
// A missing or unreadable file is an error: Load is only called when the
// user explicitly passed --config, and silently ignoring a typoed path
// would run the pipeline with settings the user did not ask for.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := &Config{}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config %s: %w", path, err)
		}

	case ".json", ".jsonc":
		// jsonc.ToJSON strips comments and trailing commas, producing
		// plain JSON the standard library can parse.
		if err := json.Unmarshal(jsonc.ToJSON(data), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config %s: %w", path, err)
		}

	default:
		return nil, fmt.Errorf("unsupported config format %q (expected .yaml, .yml, .json, or .jsonc)", filepath.Ext(path))
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Normalize fills defaults into unset fields so callers never have to
// distinguish "not configured" from "configured to the default".
func (c *Config) Normalize() {
	if c.C3D == "" {
		c.C3D = "c3d"
	}
	if c.TrimNeck == "" {
		c.TrimNeck = "trim_neck.sh"
	}
	if c.PadMM == 0 {
		c.PadMM = DefaultPadMM
	}
}

// Validate rejects configurations that could not produce a meaningful run.
func (c *Config) Validate() error {
	if c.PadMM < 0 {
		return fmt.Errorf("padMM must not be negative, got %d", c.PadMM)
	}
	return nil
}
