package cluster

import (
	"fmt"
)

// Projection selects how the cluster grid is laid out in cluster-camera space.
type Projection uint32

const (
	// ProjectionPerspective fits an enclosing perspective frustum with exponential depth slices.
	ProjectionPerspective Projection = iota

	// ProjectionOrthographic fits an axis-aligned box with fixed-size cells.
	ProjectionOrthographic
)

var projectionNames = map[Projection]string{
	ProjectionPerspective:  "perspective",
	ProjectionOrthographic: "orthographic",
}

// String implements fmt.Stringer.
func (p Projection) String() string {
	if name, ok := projectionNames[p]; ok {
		return name
	}
	return fmt.Sprintf("projection(%d)", uint32(p))
}

// MarshalText implements encoding.TextMarshaler.
func (p Projection) MarshalText() ([]byte, error) {
	name, ok := projectionNames[p]
	if !ok {
		return nil, fmt.Errorf("cluster: unknown projection %d", uint32(p))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Projection) UnmarshalText(text []byte) error {
	for value, name := range projectionNames {
		if name == string(text) {
			*p = value
			return nil
		}
	}
	return fmt.Errorf("cluster: unknown projection %q", text)
}
