package common

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// ProjectionFromFrustum creates a perspective projection matrix for the given frustum.
// The matrix maps camera space to clip space using ClipDepthRange (reversed [0, 1] depth).
// All matrices are column-major.
//
// Parameters:
//   - f: perspective frustum with tangent x/y extents and Z0 < Z1 < 0
//
// Returns:
//   - mgl64.Mat4: the camera-to-clip transform
func ProjectionFromFrustum(f Frustum) mgl64.Mat4 {
	dx, dy := f.DX(), f.DY()
	n, far := f.Near(), f.Far()

	// d_clip = a*z + b, w_clip = -z; maps z=-near to 1 and z=-far to 0.
	a := n / (far - n)
	b := n * far / (far - n)

	return mgl64.Mat4{
		2 / dx, 0, 0, 0,
		0, 2 / dy, 0, 0,
		(f.X0 + f.X1) / dx, (f.Y0 + f.Y1) / dy, a, -1,
		0, 0, b, 0,
	}
}

// TransformPoint applies m to p and performs the homogeneous divide.
func TransformPoint(m mgl64.Mat4, p mgl64.Vec3) mgl64.Vec3 {
	return mgl64.TransformCoordinate(p, m)
}

// Mat4ToF32 narrows a double precision matrix for GPU upload.
func Mat4ToF32(m mgl64.Mat4) mgl32.Mat4 {
	var out mgl32.Mat4
	for i, v := range m {
		out[i] = float32(v)
	}
	return out
}

// Cross2 returns the z component of the cross product of two 2D vectors (a.x*b.y - a.y*b.x).
// Positive when b lies counter-clockwise from a.
func Cross2(ax, ay, bx, by float64) float64 {
	return ax*by - ay*bx
}
