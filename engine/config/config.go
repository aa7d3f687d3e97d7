// Package config loads engine settings from TOML.
package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/Carmen-Shannon/oxy-cls/common"
	"github.com/Carmen-Shannon/oxy-cls/engine/cluster"
	"github.com/Carmen-Shannon/oxy-cls/engine/clusterviz"
	"github.com/pelletier/go-toml/v2"
)

// DefaultProfilingInterval is how often profiler statistics are logged when the file does not say.
const DefaultProfilingInterval = time.Second

// DefaultMaxRenderTargets bounds the number of render targets clustered per frame.
const DefaultMaxRenderTargets = 4

// Duration is a time.Duration written as a Go duration string ("250ms", "2s").
type Duration time.Duration

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	*d = Duration(v)
	return nil
}

// Profiling is the [profiling] table.
type Profiling struct {
	Enabled  bool     `toml:"enabled"`
	Interval Duration `toml:"interval"`
}

// Device is the [device] table.
type Device struct {
	// Workers is the number of goroutines the software device runs workgroups on. Zero runs inline.
	Workers int `toml:"workers"`

	// Validate runs WGSL validation before programs reach the wgpu driver.
	Validate bool `toml:"validate"`

	// MaxRenderTargets is the number of render targets that can be clustered in one frame.
	MaxRenderTargets int `toml:"max_render_targets"`
}

// Debug is the [debug] table driving the cluster visualiser.
type Debug struct {
	Enabled       bool                     `toml:"enabled"`
	Visualisation clusterviz.Visualisation `toml:"visualisation"`
	VisibleOnly   bool                     `toml:"visible_only"`
}

// Config is the whole engine configuration file.
type Config struct {
	Cluster   cluster.Configuration `toml:"cluster"`
	Profiling Profiling             `toml:"profiling"`
	Device    Device                `toml:"device"`
	Debug     Debug                 `toml:"debug"`
}

// Default returns the configuration used when no file is given.
//
// Returns:
//   - Config: the default configuration
func Default() Config {
	return Config{
		Cluster: cluster.DefaultConfiguration(),
		Profiling: Profiling{
			Interval: Duration(DefaultProfilingInterval),
		},
		Device: Device{
			MaxRenderTargets: DefaultMaxRenderTargets,
		},
		Debug: Debug{
			Visualisation: clusterviz.VisualisationClusterIndices,
		},
	}
}

// Parse decodes a TOML document over the defaults. Keys that are absent keep their default and
// zero capacities fall back to the defaults as well. Unknown keys and unknown enum names are errors.
//
// Parameters:
//   - data: the TOML document
//
// Returns:
//   - Config: the decoded configuration
//   - error: error if the document is malformed or names an unknown key or value
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg.normalize(), nil
}

// Load reads and parses the file at path.
//
// Parameters:
//   - path: the TOML file to read
//
// Returns:
//   - Config: the decoded configuration
//   - error: error if the file cannot be read or parsed
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	common.Logger().Debug("configuration loaded", "path", path, "projection", cfg.Cluster.Projection)
	return cfg, nil
}

// Marshal encodes cfg as TOML.
//
// Parameters:
//   - cfg: the configuration to encode
//
// Returns:
//   - []byte: the TOML document
//   - error: error if encoding fails
func Marshal(cfg Config) ([]byte, error) {
	return toml.Marshal(cfg)
}

func (c Config) normalize() Config {
	def := Default()
	c.Cluster.MaxClusters = common.Coalesce(c.Cluster.MaxClusters, def.Cluster.MaxClusters)
	c.Cluster.MaxActiveClusters = common.Coalesce(c.Cluster.MaxActiveClusters, def.Cluster.MaxActiveClusters)
	c.Cluster.MaxLightIndices = common.Coalesce(c.Cluster.MaxLightIndices, def.Cluster.MaxLightIndices)
	c.Cluster.OrthographicSides = common.Coalesce(c.Cluster.OrthographicSides, def.Cluster.OrthographicSides)
	c.Profiling.Interval = common.Coalesce(c.Profiling.Interval, def.Profiling.Interval)
	c.Device.MaxRenderTargets = common.Coalesce(c.Device.MaxRenderTargets, def.Device.MaxRenderTargets)
	if c.Device.Workers < 0 {
		c.Device.Workers = 0
	}
	return c
}
