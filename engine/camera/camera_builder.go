package camera

type CameraBuilderOption func(*cameraImpl)

// WithFov sets the camera's vertical field of view in radians.
//
// Parameters:
//   - fov: field of view in radians
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's field of view
func WithFov(fov float64) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.fov = fov
	}
}

// WithNear sets the near clipping plane distance.
//
// Parameters:
//   - near: near plane distance
//
// Returns:
//   - CameraBuilderOption: a function that sets the near plane
func WithNear(near float64) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.near = near
	}
}

// WithFar sets the far clipping plane distance.
//
// Parameters:
//   - far: far plane distance
//
// Returns:
//   - CameraBuilderOption: functional option to set the far plane
func WithFar(far float64) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.far = far
	}
}

// WithFrameDims sets the render target size, which also fixes the aspect ratio.
//
// Parameters:
//   - width: frame width in pixels
//   - height: frame height in pixels
//
// Returns:
//   - CameraBuilderOption: functional option to set the frame size
func WithFrameDims(width, height int) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.frameDims = [2]int{width, height}
	}
}

// WithEyeOffset shifts the eye along the head's x axis. Use -ipd/2 and +ipd/2 for a stereo pair.
//
// Parameters:
//   - offset: head-space x offset
//
// Returns:
//   - CameraBuilderOption: functional option to set the eye offset
func WithEyeOffset(offset float64) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.eyeOffset = offset
	}
}

// WithRig attaches the rig that supplies the head transform.
//
// Parameters:
//   - rig: the rig to attach
//
// Returns:
//   - CameraBuilderOption: functional option to set the rig
func WithRig(rig Rig) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.rig = rig
	}
}
