package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-cls/common"
	"github.com/go-gl/mathgl/mgl64"
)

// Parameters is the per-frame pose of one camera as consumed by cluster fitting.
// All matrices are column-major. ClpToCam maps clip space (using common.ClipDepthRange)
// back into camera space.
type Parameters struct {
	CamToWld mgl64.Mat4
	WldToCam mgl64.Mat4
	ClpToCam mgl64.Mat4
	CamToClp mgl64.Mat4

	Frustum   common.Frustum
	FrameDims [2]int
}

// NewParameters derives a complete pose from a view transform and a perspective frustum.
//
// Parameters:
//   - wldToCam: the world-to-camera transform
//   - f: the camera-space perspective frustum
//   - frameDims: render target width and height in pixels
//
// Returns:
//   - Parameters: the pose with inverse and projection matrices filled in
func NewParameters(wldToCam mgl64.Mat4, f common.Frustum, frameDims [2]int) Parameters {
	camToClp := common.ProjectionFromFrustum(f)
	return Parameters{
		CamToWld:  wldToCam.Inv(),
		WldToCam:  wldToCam,
		ClpToCam:  camToClp.Inv(),
		CamToClp:  camToClp,
		Frustum:   f,
		FrameDims: frameDims,
	}
}

type cameraImpl struct {
	mu *sync.Mutex

	fov       float64
	near      float64
	far       float64
	frameDims [2]int
	eyeOffset float64

	rig Rig
}

// Camera is a perspective eye. Its view transform is the attached Rig's head transform
// followed by a horizontal eye offset, so two cameras sharing a rig form a stereo pair.
type Camera interface {
	// Fov returns the vertical field of view in radians.
	//
	// Returns:
	//   - float64: field of view in radians
	Fov() float64

	// Near returns the near clipping plane distance.
	//
	// Returns:
	//   - float64: near plane distance
	Near() float64

	// Far returns the far clipping plane distance.
	//
	// Returns:
	//   - float64: far plane distance
	Far() float64

	// Aspect returns the aspect ratio derived from the frame dimensions.
	//
	// Returns:
	//   - float64: width / height
	Aspect() float64

	// FrameDims returns the render target size in pixels.
	//
	// Returns:
	//   - [2]int: width and height
	FrameDims() [2]int

	// EyeOffset returns the head-space x offset of the eye.
	EyeOffset() float64

	// Rig returns the attached rig, or nil when the camera sits at the world origin.
	Rig() Rig

	// SetFov sets the vertical field of view in radians.
	SetFov(fov float64)

	// SetNear sets the near clipping plane distance.
	SetNear(near float64)

	// SetFar sets the far clipping plane distance.
	SetFar(far float64)

	// SetFrameDims sets the render target size in pixels.
	//
	// Parameters:
	//   - width: frame width in pixels
	//   - height: frame height in pixels
	SetFrameDims(width, height int)

	// SetEyeOffset sets the head-space x offset of the eye.
	SetEyeOffset(offset float64)

	// SetRig attaches a rig.
	SetRig(rig Rig)

	// Parameters snapshots the current pose for cluster fitting.
	//
	// Returns:
	//   - Parameters: transforms, frustum and frame size for this frame
	Parameters() Parameters
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera with default perspective settings.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:        &sync.Mutex{},
		fov:       90.0 * (math.Pi / 180.0),
		near:      0.1,
		far:       100.0,
		frameDims: [2]int{1920, 1080},
	}
	for _, option := range options {
		option(c)
	}
	return c
}

func (c *cameraImpl) Fov() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Near() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) Aspect() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect()
}

func (c *cameraImpl) FrameDims() [2]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frameDims
}

func (c *cameraImpl) EyeOffset() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eyeOffset
}

func (c *cameraImpl) Rig() Rig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rig
}

func (c *cameraImpl) SetFov(fov float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = fov
}

func (c *cameraImpl) SetNear(near float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.near = near
}

func (c *cameraImpl) SetFar(far float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.far = far
}

func (c *cameraImpl) SetFrameDims(width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frameDims = [2]int{width, height}
}

func (c *cameraImpl) SetEyeOffset(offset float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.eyeOffset = offset
}

func (c *cameraImpl) SetRig(rig Rig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rig = rig
}

func (c *cameraImpl) Parameters() Parameters {
	c.mu.Lock()
	defer c.mu.Unlock()

	wldToHmd := mgl64.Ident4()
	if c.rig != nil {
		wldToHmd = c.rig.WldToHmd()
	}
	wldToCam := mgl64.Translate3D(-c.eyeOffset, 0, 0).Mul4(wldToHmd)
	f := common.PerspectiveFrustum(c.fov, c.aspect(), c.near, c.far)
	return NewParameters(wldToCam, f, c.frameDims)
}

// aspect returns width/height, or 1 for a degenerate frame. Caller must hold the mutex.
func (c *cameraImpl) aspect() float64 {
	if c.frameDims[1] == 0 {
		return 1
	}
	return float64(c.frameDims[0]) / float64(c.frameDims[1])
}
