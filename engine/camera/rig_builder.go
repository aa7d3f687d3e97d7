package camera

import "github.com/go-gl/mathgl/mgl64"

// RigBuilderOption is a functional option for configuring a Rig.
type RigBuilderOption func(*rigImpl)

// WithRadius sets the initial orbit radius.
//
// Parameters:
//   - radius: distance from the target
//
// Returns:
//   - RigBuilderOption: functional option to set the radius
func WithRadius(radius float64) RigBuilderOption {
	return func(r *rigImpl) {
		r.radius = radius
	}
}

// WithAzimuth sets the initial horizontal angle.
//
// Parameters:
//   - azimuth: angle around the Y axis in radians
//
// Returns:
//   - RigBuilderOption: functional option to set the azimuth
func WithAzimuth(azimuth float64) RigBuilderOption {
	return func(r *rigImpl) {
		r.azimuth = azimuth
	}
}

// WithElevation sets the initial vertical angle.
//
// Parameters:
//   - elevation: angle from the horizontal plane in radians
//
// Returns:
//   - RigBuilderOption: functional option to set the elevation
func WithElevation(elevation float64) RigBuilderOption {
	return func(r *rigImpl) {
		r.elevation = elevation
	}
}

// WithTarget sets the initial look-at point.
//
// Parameters:
//   - target: world-space pivot
//
// Returns:
//   - RigBuilderOption: functional option to set the target
func WithTarget(target mgl64.Vec3) RigBuilderOption {
	return func(r *rigImpl) {
		r.target = target
	}
}

// WithUp sets the world up vector used to orient the head.
//
// Parameters:
//   - up: world-space up direction
//
// Returns:
//   - RigBuilderOption: functional option to set the up vector
func WithUp(up mgl64.Vec3) RigBuilderOption {
	return func(r *rigImpl) {
		r.up = up
	}
}

// WithRadiusBounds sets the minimum and maximum orbit radius.
//
// Parameters:
//   - lo: minimum distance
//   - hi: maximum distance
//
// Returns:
//   - RigBuilderOption: functional option to set radius bounds
func WithRadiusBounds(lo, hi float64) RigBuilderOption {
	return func(r *rigImpl) {
		r.minRadius = lo
		r.maxRadius = hi
	}
}

// WithElevationBounds sets the minimum and maximum elevation angles.
//
// Parameters:
//   - lo: minimum vertical angle in radians
//   - hi: maximum vertical angle in radians
//
// Returns:
//   - RigBuilderOption: functional option to set elevation bounds
func WithElevationBounds(lo, hi float64) RigBuilderOption {
	return func(r *rigImpl) {
		r.minElevation = lo
		r.maxElevation = hi
	}
}

// WithSpeeds sets the orbit, zoom and pan step sizes.
//
// Parameters:
//   - orbit: radians per orbit step
//   - zoom: distance per zoom step
//   - pan: distance per pan step
//
// Returns:
//   - RigBuilderOption: functional option to set the speeds
func WithSpeeds(orbit, zoom, pan float64) RigBuilderOption {
	return func(r *rigImpl) {
		r.orbitSpeed = orbit
		r.zoomSpeed = zoom
		r.panSpeed = pan
	}
}
