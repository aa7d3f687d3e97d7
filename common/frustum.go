package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Frustum describes an axis-aligned view volume in camera space.
//
// For perspective volumes X0, X1, Y0 and Y1 are the left, right, bottom and top
// extents on the plane at unit distance in front of the camera (tangents, x/-z and y/-z).
// For orthographic volumes produced by FrustumFromRange they are plain camera-space coordinates.
//
// Z0 and Z1 are camera-space depths. The camera looks down -z, so Z0 = -far and Z1 = -near
// and Z0 <= Z1 always holds.
type Frustum struct {
	X0, X1 float64
	Y0, Y1 float64
	Z0, Z1 float64
}

// DX returns the horizontal extent of the frustum.
func (f Frustum) DX() float64 { return f.X1 - f.X0 }

// DY returns the vertical extent of the frustum.
func (f Frustum) DY() float64 { return f.Y1 - f.Y0 }

// DZ returns the depth extent of the frustum.
func (f Frustum) DZ() float64 { return f.Z1 - f.Z0 }

// Near returns the positive distance from the camera to the near plane.
func (f Frustum) Near() float64 { return -f.Z1 }

// Far returns the positive distance from the camera to the far plane.
func (f Frustum) Far() float64 { return -f.Z0 }

// PerspectiveFrustum builds a symmetric perspective frustum from a vertical field of view.
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: positive near plane distance
//   - far: positive far plane distance (must be > near)
//
// Returns:
//   - Frustum: the camera-space frustum with tangent x/y extents
func PerspectiveFrustum(fovY, aspect, near, far float64) Frustum {
	ty := math.Tan(fovY / 2)
	tx := ty * aspect
	return Frustum{
		X0: -tx, X1: tx,
		Y0: -ty, Y1: ty,
		Z0: -far, Z1: -near,
	}
}

// FrustumFromRange converts an axis-aligned box into an orthographic frustum.
func FrustumFromRange(r Range3) Frustum {
	return Frustum{
		X0: r.Min[0], X1: r.Max[0],
		Y0: r.Min[1], Y1: r.Max[1],
		Z0: r.Min[2], Z1: r.Max[2],
	}
}

// Range3 is an axis-aligned bounding box.
type Range3 struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// RangeFromPoints computes the bounding box of a point set.
//
// Parameters:
//   - points: the points to enclose
//
// Returns:
//   - Range3: the tightest box enclosing every point
//   - bool: false if points is empty
func RangeFromPoints(points []mgl64.Vec3) (Range3, bool) {
	if len(points) == 0 {
		return Range3{}, false
	}
	r := Range3{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		for i := 0; i < 3; i++ {
			r.Min[i] = min(r.Min[i], p[i])
			r.Max[i] = max(r.Max[i], p[i])
		}
	}
	return r, true
}

// Delta returns the size of the box along each axis.
func (r Range3) Delta() mgl64.Vec3 {
	return r.Max.Sub(r.Min)
}

// DepthRange is the clip-space depth value of the near and far planes.
type DepthRange struct {
	Near float64
	Far  float64
}

// ClipDepthRange is the depth convention used by every projection in this module:
// WebGPU's [0, 1] clip depth, reversed so the near plane maps to 1 and the far plane to 0.
// Depth tests against it use a GREATER comparison.
var ClipDepthRange = DepthRange{Near: 1, Far: 0}

// NearClipCorners returns the four clip-space corners of the near plane.
func NearClipCorners(d DepthRange) [4]mgl64.Vec3 {
	return [4]mgl64.Vec3{
		{-1, -1, d.Near},
		{-1, 1, d.Near},
		{1, -1, d.Near},
		{1, 1, d.Near},
	}
}

// FarClipCorners returns the four clip-space corners of the far plane.
func FarClipCorners(d DepthRange) [4]mgl64.Vec3 {
	return [4]mgl64.Vec3{
		{-1, -1, d.Far},
		{-1, 1, d.Far},
		{1, -1, d.Far},
		{1, 1, d.Far},
	}
}

// ClipCorners returns all eight clip-space corners, near plane first.
func ClipCorners(d DepthRange) [8]mgl64.Vec3 {
	var out [8]mgl64.Vec3
	n, f := NearClipCorners(d), FarClipCorners(d)
	copy(out[:4], n[:])
	copy(out[4:], f[:])
	return out
}
