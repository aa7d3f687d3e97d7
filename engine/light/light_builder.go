package light

// LightBuilderOption is a function that configures a Light instance during construction.
type LightBuilderOption func(*lightImpl)

// WithPosition sets the world-space position of the light.
//
// Parameters:
//   - x, y, z: the position
//
// Returns:
//   - LightBuilderOption: option function to apply
func WithPosition(x, y, z float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.SetPosition(x, y, z)
	}
}

// WithDirection sets the light direction. Zero vectors are kept as zero.
//
// Parameters:
//   - x, y, z: the direction, normalized on store
//
// Returns:
//   - LightBuilderOption: option function to apply
func WithDirection(x, y, z float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.SetDirection(x, y, z)
	}
}

// WithRange sets how far a point or spot light reaches.
//
// Parameters:
//   - r: the range
//
// Returns:
//   - LightBuilderOption: option function to apply
func WithRange(r float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.SetRange(r)
	}
}

// WithSpotCone sets the outer half-angle of a spot light.
//
// Parameters:
//   - outerDeg: the half-angle in degrees
//
// Returns:
//   - LightBuilderOption: option function to apply
func WithSpotCone(outerDeg float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.SetSpotCone(outerDeg)
	}
}

// WithEnabled includes or excludes the light from assignment. Lights start enabled.
//
// Parameters:
//   - enabled: whether the light is assigned
//
// Returns:
//   - LightBuilderOption: option function to apply
func WithEnabled(enabled bool) LightBuilderOption {
	return func(l *lightImpl) {
		l.enabled = enabled
	}
}
