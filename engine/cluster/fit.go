package cluster

import (
	"errors"
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-cls/common"
	"github.com/Carmen-Shannon/oxy-cls/engine/camera"
	"github.com/go-gl/mathgl/mgl64"
)

// TileSize is the edge length in pixels of the screen tile covered by one cluster column.
const TileSize = 64

// MaxDimension bounds the cell count along each axis.
const MaxDimension = 1000

var (
	// ErrTooManyCameras is raised when perspective clustering is asked to enclose
	// a camera count other than one or two.
	ErrTooManyCameras = errors.New("cluster: too many cameras for enclosed perspective clustering")

	// ErrPitchMismatch is raised when a monocular camera's pixels are not square in tangent space.
	ErrPitchMismatch = errors.New("cluster: horizontal and vertical cluster pitch differ")

	// ErrNoCameras is raised when a grid is fitted without any camera.
	ErrNoCameras = errors.New("cluster: no cameras to fit")
)

// Fit computes the cluster grid enclosing the given cameras. It is a pure function of
// its inputs. Unsupported camera setups are programming errors and panic with one of
// the sentinel errors above.
//
// Parameters:
//   - params: the cluster parameters (projection and head pose)
//   - cameras: the posed cameras of the render target
//
// Returns:
//   - Computed: the fitted grid with every dimension clamped into [1, MaxDimension]
func Fit(params Parameters, cameras []camera.Parameters) Computed {
	var dims [3]float64
	var c Computed

	switch params.Projection {
	case ProjectionOrthographic:
		dims, c = fitOrthographic(params, cameras)
	default:
		switch len(cameras) {
		case 1:
			dims, c = fitMonocular(cameras[0])
		case 2:
			dims, c = fitStereo(params, cameras)
		default:
			panic(fmt.Errorf("%w (%d)", ErrTooManyCameras, len(cameras)))
		}
	}

	for i := range dims {
		c.Dimensions[i] = clampDimension(dims[i])
	}
	return c
}

// clampDimension converts a raw cell count, mapping NaN and anything below one to one.
func clampDimension(v float64) uint32 {
	if !(v >= 1) {
		return 1
	}
	if v > MaxDimension {
		return MaxDimension
	}
	return uint32(v)
}

func fitOrthographic(params Parameters, cameras []camera.Parameters) ([3]float64, Computed) {
	if len(cameras) == 0 {
		panic(ErrNoCameras)
	}
	points := make([]mgl64.Vec3, 0, 8*len(cameras))
	for _, cam := range cameras {
		clpToHmd := params.WldToHmd.Mul4(cam.CamToWld).Mul4(cam.ClpToCam)
		for _, p := range common.ClipCorners(common.ClipDepthRange) {
			points = append(points, common.TransformPoint(clpToHmd, p))
		}
	}
	box, _ := common.RangeFromPoints(points)
	delta := box.Delta()

	var dims [3]float64
	for i := range dims {
		dims[i] = math.Ceil(delta[i] / params.OrthographicSides[i])
	}
	return dims, Computed{
		Frustum:   common.FrustumFromRange(box),
		WldToCCam: params.WldToHmd,
		CCamToWld: params.HmdToWld,
	}
}

func fitMonocular(cam camera.Parameters) ([3]float64, Computed) {
	f := cam.Frustum
	w, h := float64(cam.FrameDims[0]), float64(cam.FrameDims[1])

	xPer := f.DX() * TileSize / w
	yPer := f.DY() * TileSize / h
	if math.Abs(xPer-yPer) > epsilon {
		panic(fmt.Errorf("%w: %g != %g", ErrPitchMismatch, xPer, yPer))
	}

	nx := float64(common.CeilDiv(cam.FrameDims[0], TileSize))
	ny := float64(common.CeilDiv(cam.FrameDims[1], TileSize))
	nz := depthSlices(f, xPer)

	return [3]float64{nx, ny, nz}, Computed{
		Frustum:   snap(f, nx, ny, nz, xPer, yPer),
		WldToCCam: cam.WldToCam,
		CCamToWld: cam.CamToWld,
	}
}

func fitStereo(params Parameters, cameras []camera.Parameters) ([3]float64, Computed) {
	var near, far []mgl64.Vec3
	for _, cam := range cameras {
		clpToHmd := params.WldToHmd.Mul4(cam.CamToWld).Mul4(cam.ClpToCam)
		for _, p := range common.NearClipCorners(common.ClipDepthRange) {
			near = append(near, common.TransformPoint(clpToHmd, p))
		}
		for _, p := range common.FarClipCorners(common.ClipDepthRange) {
			far = append(far, common.TransformPoint(clpToHmd, p))
		}
	}
	all := append(append(make([]mgl64.Vec3, 0, len(far)+len(near)), far...), near...)

	apexZ := enclosingApex(near, far, all)
	apex := mgl64.Vec3{0, 0, apexZ}

	rel := make([]mgl64.Vec3, len(all))
	for i, p := range all {
		rel[i] = p.Sub(apex)
	}
	f := enclosingSlopes(rel)

	pitch := math.Inf(1)
	for _, cam := range cameras {
		xPer := cam.Frustum.DX() * TileSize / float64(cam.FrameDims[0])
		yPer := cam.Frustum.DY() * TileSize / float64(cam.FrameDims[1])
		pitch = min(pitch, xPer, yPer)
	}

	nx := math.Ceil(f.DX() / pitch)
	ny := math.Ceil(f.DY() / pitch)
	nz := depthSlices(f, pitch)

	return [3]float64{nx, ny, nz}, Computed{
		Frustum:   snap(f, nx, ny, nz, pitch, pitch),
		WldToCCam: mgl64.Translate3D(0, 0, -apexZ).Mul4(params.WldToHmd),
		CCamToWld: params.HmdToWld.Mul4(mgl64.Translate3D(0, 0, apexZ)),
	}
}

// epsilon is the float64 machine epsilon.
const epsilon = 2.220446049250313e-16

// depthSlices returns the number of exponential slices from Z1 to Z0 whose thickness
// grows with distance at the given tangent pitch.
func depthSlices(f common.Frustum, pitch float64) float64 {
	return math.Ceil(math.Log(f.Z0/f.Z1) / math.Log(1-f.Z1*pitch))
}

// snap extends the far and positive sides of f so whole cells tile it exactly.
func snap(f common.Frustum, nx, ny, nz, xPer, yPer float64) common.Frustum {
	return common.Frustum{
		X0: f.X0,
		X1: f.X0 + nx*xPer,
		Y0: f.Y0,
		Y1: f.Y0 + ny*yPer,
		Z0: f.Z1 * math.Pow(1-f.Z1*xPer, nz),
		Z1: f.Z1,
	}
}

// enclosingApex finds the z of the point on the head z axis from which a single perspective
// frustum encloses every far and near corner. Each far/near corner pair spans a candidate
// side plane in the x-z and y-z projections; a pair qualifies when every point lies on one
// side of it, and the apex is the furthest forward of the qualifying planes' axis intercepts.
func enclosingApex(near, far, all []mgl64.Vec3) float64 {
	type candidate struct {
		z  float64
		ok bool
	}
	keep := func(c *candidate, z float64) {
		if !c.ok || z > c.z {
			*c = candidate{z: z, ok: true}
		}
	}

	var sides [4]candidate
	for axis := 0; axis < 2; axis++ {
		neg, pos := &sides[2*axis], &sides[2*axis+1]
		for _, fp := range far {
			for _, np := range near {
				d := np[axis] - fp[axis]
				if math.Abs(d) < epsilon {
					continue
				}
				z := (fp[2]*np[axis] - fp[axis]*np[2]) / d
				if z < np[2] {
					continue
				}

				allPos, allNeg := true, true
				ex, ez := np[axis]-fp[axis], np[2]-fp[2]
				for _, p := range all {
					s := common.Cross2(ex, ez, p[axis]-fp[axis], p[2]-fp[2])
					if s < 0 {
						allPos = false
					}
					if s > 0 {
						allNeg = false
					}
				}
				if allPos {
					keep(neg, z)
				}
				if allNeg {
					keep(pos, z)
				}
			}
		}
	}

	apex := math.Inf(-1)
	for _, s := range sides {
		if !s.ok {
			// degenerate layout; fall back to the frontmost point
			apex = math.Inf(-1)
			for _, p := range all {
				apex = max(apex, p[2])
			}
			return apex
		}
		apex = max(apex, s.z)
	}
	return apex
}

// enclosingSlopes computes tangent extents and depth bounds of apex-relative points.
// A point is the minimum slope on an axis when every other point lies counter-clockwise
// of it in that axis' projection, and the maximum when every point lies clockwise.
func enclosingSlopes(rel []mgl64.Vec3) common.Frustum {
	var (
		lo, hi     [2]float64
		loOK, hiOK [2]bool
	)
	z0, z1 := math.Inf(1), math.Inf(-1)

	for _, p := range rel {
		z0 = min(z0, p[2])
		z1 = max(z1, p[2])

		for axis := 0; axis < 2; axis++ {
			allPos, allNeg := true, true
			for _, q := range rel {
				s := common.Cross2(p[axis], p[2], q[axis], q[2])
				if s < 0 {
					allPos = false
				}
				if s > 0 {
					allNeg = false
				}
			}
			slope := p[axis] / -p[2]
			if allPos {
				lo[axis], loOK[axis] = slope, true
			}
			if allNeg {
				hi[axis], hiOK[axis] = slope, true
			}
		}
	}

	for axis := 0; axis < 2; axis++ {
		if loOK[axis] && hiOK[axis] {
			continue
		}
		lo[axis], hi[axis] = math.Inf(1), math.Inf(-1)
		for _, p := range rel {
			s := p[axis] / -p[2]
			lo[axis] = min(lo[axis], s)
			hi[axis] = max(hi[axis], s)
		}
	}

	return common.Frustum{
		X0: lo[0], X1: hi[0],
		Y0: lo[1], Y1: hi[1],
		Z0: z0, Z1: z1,
	}
}
