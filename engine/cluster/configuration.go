package cluster

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Default capacities used when a Configuration field is left zero.
const (
	DefaultMaxClusters       = 1 << 20
	DefaultMaxActiveClusters = 1 << 17
	DefaultMaxLightIndices   = 1 << 21
)

// DefaultOrthographicSides is the default orthographic cell size in head-space units.
var DefaultOrthographicSides = [3]float64{4, 4, 4}

// Configuration holds the tunables of the cluster grid. It is loaded from the [cluster]
// table of the engine configuration file.
type Configuration struct {
	Projection        Projection `toml:"projection"`
	MaxClusters       uint32     `toml:"max_clusters"`
	MaxActiveClusters uint32     `toml:"max_active_clusters"`
	MaxLightIndices   uint32     `toml:"max_light_indices"`
	OrthographicSides [3]float64 `toml:"orthographic_sides"`
}

// DefaultConfiguration returns a perspective configuration with the default capacities.
//
// Returns:
//   - Configuration: the default configuration
func DefaultConfiguration() Configuration {
	return Configuration{
		Projection:        ProjectionPerspective,
		MaxClusters:       DefaultMaxClusters,
		MaxActiveClusters: DefaultMaxActiveClusters,
		MaxLightIndices:   DefaultMaxLightIndices,
		OrthographicSides: DefaultOrthographicSides,
	}
}

// Parameters is everything a render target supplies to size its cluster grid:
// the configuration and the head pose shared by its cameras.
type Parameters struct {
	Configuration

	WldToHmd mgl64.Mat4
	HmdToWld mgl64.Mat4
}

// NewParameters pairs a configuration with a head pose, deriving the inverse transform.
//
// Parameters:
//   - cfg: the cluster configuration
//   - wldToHmd: the world-to-head transform
//
// Returns:
//   - Parameters: the complete cluster parameters
func NewParameters(cfg Configuration, wldToHmd mgl64.Mat4) Parameters {
	return Parameters{
		Configuration: cfg,
		WldToHmd:      wldToHmd,
		HmdToWld:      wldToHmd.Inv(),
	}
}
