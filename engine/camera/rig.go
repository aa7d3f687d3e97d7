package camera

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// rigImpl is the single implementation of Rig.
// The head position is derived from the target and spherical coordinates; panning
// shifts target and position together so the orbit relationship is preserved.
type rigImpl struct {
	mu *sync.Mutex

	position mgl64.Vec3
	target   mgl64.Vec3
	up       mgl64.Vec3

	radius    float64
	azimuth   float64 // around the world Y axis
	elevation float64 // from the horizontal plane

	minRadius    float64
	maxRadius    float64
	minElevation float64
	maxElevation float64

	orbitSpeed float64
	zoomSpeed  float64
	panSpeed   float64
}

// Rig is an orbiting head pose. It owns the world<->head transforms shared by every
// eye camera attached to it. Safe for concurrent use.
type Rig interface {
	// Position returns the world-space head position.
	Position() mgl64.Vec3

	// Target returns the world-space look-at point.
	Target() mgl64.Vec3

	// SetTarget moves the pivot and recomputes the position from the spherical coordinates.
	SetTarget(target mgl64.Vec3)

	// Radius returns the distance from the target.
	Radius() float64

	// SetRadius sets the orbit radius, clamped to the configured bounds.
	SetRadius(radius float64)

	// Azimuth returns the horizontal angle in radians.
	Azimuth() float64

	// SetAzimuth sets the horizontal angle in radians.
	SetAzimuth(azimuth float64)

	// Elevation returns the vertical angle in radians.
	Elevation() float64

	// SetElevation sets the vertical angle, clamped to the configured bounds.
	SetElevation(elevation float64)

	// Orbit rotates the head around the target by a number of orbit speed steps.
	//
	// Parameters:
	//   - azimuthSteps: horizontal steps (positive orbits right)
	//   - elevationSteps: vertical steps (positive orbits up)
	Orbit(azimuthSteps, elevationSteps float64)

	// Zoom moves toward the target by delta zoom speed steps.
	Zoom(delta float64)

	// Pan translates head and target along the local right, up and forward axes.
	//
	// Parameters:
	//   - right, up, forward: pan amounts scaled by the pan speed
	Pan(right, up, forward float64)

	// WldToHmd returns the world-to-head transform (a look-at view matrix).
	WldToHmd() mgl64.Mat4

	// HmdToWld returns the head-to-world transform.
	HmdToWld() mgl64.Mat4
}

var _ Rig = &rigImpl{}

// NewRig creates a Rig with sensible defaults and any provided options applied.
//
// Parameters:
//   - options: functional options to configure the rig
//
// Returns:
//   - Rig: the newly created rig
func NewRig(options ...RigBuilderOption) Rig {
	r := &rigImpl{
		mu: &sync.Mutex{},
		up: mgl64.Vec3{0, 1, 0},

		radius:    10,
		azimuth:   0,
		elevation: 0,

		minRadius:    0.1,
		maxRadius:    2000,
		minElevation: -math.Pi/2 + 0.1,
		maxElevation: math.Pi/2 - 0.1,

		orbitSpeed: 0.03,
		zoomSpeed:  1,
		panSpeed:   1,
	}
	for _, opt := range options {
		opt(r)
	}
	r.radius = clamp(r.radius, r.minRadius, r.maxRadius)
	r.elevation = clamp(r.elevation, r.minElevation, r.maxElevation)
	r.updatePosition()
	return r
}

// updatePosition recomputes the head position from spherical coordinates. Caller holds the mutex.
func (r *rigImpl) updatePosition() {
	cosElev, sinElev := math.Cos(r.elevation), math.Sin(r.elevation)
	cosAzim, sinAzim := math.Cos(r.azimuth), math.Sin(r.azimuth)
	r.position = r.target.Add(mgl64.Vec3{
		r.radius * cosElev * sinAzim,
		r.radius * sinElev,
		r.radius * cosElev * cosAzim,
	})
}

// localAxes returns right, up and forward consistent with WldToHmd. Caller holds the mutex.
func (r *rigImpl) localAxes() (right, up, forward mgl64.Vec3) {
	back := r.position.Sub(r.target)
	if back.Len() < 1e-12 {
		return
	}
	back = back.Normalize()
	right = r.up.Cross(back)
	if right.Len() < 1e-12 {
		return mgl64.Vec3{}, mgl64.Vec3{}, mgl64.Vec3{}
	}
	right = right.Normalize()
	up = back.Cross(right)
	forward = back.Mul(-1)
	return
}

func (r *rigImpl) Position() mgl64.Vec3 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.position
}

func (r *rigImpl) Target() mgl64.Vec3 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.target
}

func (r *rigImpl) SetTarget(target mgl64.Vec3) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.target = target
	r.updatePosition()
}

func (r *rigImpl) Radius() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.radius
}

func (r *rigImpl) SetRadius(radius float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.radius = clamp(radius, r.minRadius, r.maxRadius)
	r.updatePosition()
}

func (r *rigImpl) Azimuth() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.azimuth
}

func (r *rigImpl) SetAzimuth(azimuth float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.azimuth = azimuth
	r.updatePosition()
}

func (r *rigImpl) Elevation() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.elevation
}

func (r *rigImpl) SetElevation(elevation float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.elevation = clamp(elevation, r.minElevation, r.maxElevation)
	r.updatePosition()
}

func (r *rigImpl) Orbit(azimuthSteps, elevationSteps float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.azimuth += azimuthSteps * r.orbitSpeed
	r.elevation = clamp(r.elevation+elevationSteps*r.orbitSpeed, r.minElevation, r.maxElevation)
	r.updatePosition()
}

func (r *rigImpl) Zoom(delta float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.radius = clamp(r.radius-delta*r.zoomSpeed, r.minRadius, r.maxRadius)
	r.updatePosition()
}

func (r *rigImpl) Pan(right, up, forward float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rx, ux, fx := r.localAxes()
	offset := rx.Mul(right * r.panSpeed).
		Add(ux.Mul(up * r.panSpeed)).
		Add(fx.Mul(forward * r.panSpeed))
	r.target = r.target.Add(offset)
	r.position = r.position.Add(offset)
}

func (r *rigImpl) WldToHmd() mgl64.Mat4 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return mgl64.LookAtV(r.position, r.target, r.up)
}

func (r *rigImpl) HmdToWld() mgl64.Mat4 {
	return r.WldToHmd().Inv()
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
