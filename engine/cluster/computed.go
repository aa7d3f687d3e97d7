package cluster

import (
	"github.com/Carmen-Shannon/oxy-cls/common"
	"github.com/go-gl/mathgl/mgl64"
)

// Computed is the fitted cluster grid: cell counts per axis, the cluster-camera frustum
// and the transforms between world and cluster-camera space.
type Computed struct {
	Dimensions [3]uint32
	Frustum    common.Frustum
	WldToCCam  mgl64.Mat4
	CCamToWld  mgl64.Mat4
}

// DefaultComputed returns the grid used before the first recompute: no cells, a zero
// frustum and identity transforms.
func DefaultComputed() Computed {
	return Computed{
		WldToCCam: mgl64.Ident4(),
		CCamToWld: mgl64.Ident4(),
	}
}

// ClusterCount returns the total number of cells in the grid.
func (c Computed) ClusterCount() uint32 {
	return c.Dimensions[0] * c.Dimensions[1] * c.Dimensions[2]
}

// ClusterIndex linearises cell coordinates, x fastest.
func (c Computed) ClusterIndex(x, y, z uint32) uint32 {
	return x + c.Dimensions[0]*(y+c.Dimensions[1]*z)
}
