// Package renderstate diffs desired fixed-function state against a cached copy of the
// device's current state and issues only the calls needed to get from one to the other.
package renderstate

// CompareFunc is a depth comparison function.
type CompareFunc int

const (
	CompareNever CompareFunc = iota
	CompareLess
	CompareEqual
	CompareLessEqual
	CompareGreater
	CompareNotEqual
	CompareGreaterEqual
	CompareAlways
)

// BlendFactor is a blend equation operand.
type BlendFactor int

const (
	BlendZero BlendFactor = iota
	BlendOne
	BlendSrcAlpha
	BlendOneMinusSrcAlpha
)

// Face selects polygon faces for culling.
type Face int

const (
	FaceBack Face = iota
	FaceFront
	FaceFrontAndBack
)

// FrontFace selects the winding considered front-facing.
type FrontFace int

const (
	FrontFaceCCW FrontFace = iota
	FrontFaceCW
)

// Device is the set of fixed-function toggles the engine drives.
type Device interface {
	SetDepthTest(enabled bool)
	SetDepthFunc(fn CompareFunc)
	SetDepthMask(mask bool)
	SetColorMask(mask [4]bool)
	SetBlend(enabled bool)
	SetBlendFunc(src, dst BlendFactor)
	SetCull(enabled bool)
	SetCullFace(face Face)
	SetFrontFace(front FrontFace)
}

// DepthState is the depth test configuration.
type DepthState struct {
	Enabled bool
	Func    CompareFunc
	Mask    bool
}

// Apply issues every depth call unconditionally.
func (s DepthState) Apply(dev Device) {
	dev.SetDepthTest(s.Enabled)
	dev.SetDepthFunc(s.Func)
	dev.SetDepthMask(s.Mask)
}

// Reconcile issues the calls that differ between s and desired and returns desired.
func (s DepthState) Reconcile(dev Device, desired DepthState) DepthState {
	if s.Enabled != desired.Enabled {
		dev.SetDepthTest(desired.Enabled)
	}
	if s.Func != desired.Func {
		dev.SetDepthFunc(desired.Func)
	}
	if s.Mask != desired.Mask {
		dev.SetDepthMask(desired.Mask)
	}
	return desired
}

// ColorState is the color write mask.
type ColorState struct {
	Mask [4]bool
}

// Apply issues the color mask unconditionally.
func (s ColorState) Apply(dev Device) {
	dev.SetColorMask(s.Mask)
}

// Reconcile issues the color mask if it differs and returns desired.
func (s ColorState) Reconcile(dev Device, desired ColorState) ColorState {
	if s.Mask != desired.Mask {
		dev.SetColorMask(desired.Mask)
	}
	return desired
}

// BlendState is the blend enable and blend function.
type BlendState struct {
	Enabled bool
	Src     BlendFactor
	Dst     BlendFactor
}

// Apply issues every blend call unconditionally.
func (s BlendState) Apply(dev Device) {
	dev.SetBlend(s.Enabled)
	dev.SetBlendFunc(s.Src, s.Dst)
}

// Reconcile issues the blend calls that differ and returns desired.
func (s BlendState) Reconcile(dev Device, desired BlendState) BlendState {
	if s.Enabled != desired.Enabled {
		dev.SetBlend(desired.Enabled)
	}
	if s.Src != desired.Src || s.Dst != desired.Dst {
		dev.SetBlendFunc(desired.Src, desired.Dst)
	}
	return desired
}

// CullState is the face culling configuration.
type CullState struct {
	Enabled bool
	Face    Face
	Front   FrontFace
}

// Apply issues every cull call unconditionally.
func (s CullState) Apply(dev Device) {
	dev.SetCull(s.Enabled)
	dev.SetCullFace(s.Face)
	dev.SetFrontFace(s.Front)
}

// Reconcile issues the cull calls that differ and returns desired.
func (s CullState) Reconcile(dev Device, desired CullState) CullState {
	if s.Enabled != desired.Enabled {
		dev.SetCull(desired.Enabled)
	}
	if s.Face != desired.Face {
		dev.SetCullFace(desired.Face)
	}
	if s.Front != desired.Front {
		dev.SetFrontFace(desired.Front)
	}
	return desired
}

// RenderState groups every fixed-function state the engine manages.
type RenderState struct {
	Depth DepthState
	Color ColorState
	Blend BlendState
	Cull  CullState
}

// Default is the engine's baseline state: reversed-depth testing with writes,
// all color channels, no blending and back-face culling.
func Default() RenderState {
	return RenderState{
		Depth: DepthState{Enabled: true, Func: CompareGreater, Mask: true},
		Color: ColorState{Mask: [4]bool{true, true, true, true}},
		Blend: BlendState{Enabled: false, Src: BlendOne, Dst: BlendZero},
		Cull:  CullState{Enabled: true, Face: FaceBack, Front: FrontFaceCCW},
	}
}

// Apply issues every call unconditionally.
func (s RenderState) Apply(dev Device) {
	s.Depth.Apply(dev)
	s.Color.Apply(dev)
	s.Blend.Apply(dev)
	s.Cull.Apply(dev)
}

// Reconcile issues only the calls that differ and returns desired.
func (s RenderState) Reconcile(dev Device, desired RenderState) RenderState {
	return RenderState{
		Depth: s.Depth.Reconcile(dev, desired.Depth),
		Color: s.Color.Reconcile(dev, desired.Color),
		Blend: s.Blend.Reconcile(dev, desired.Blend),
		Cull:  s.Cull.Reconcile(dev, desired.Cull),
	}
}

// Cache tracks the state last sent to a device.
// The first Reconcile applies everything since the device state is unknown.
type Cache struct {
	current RenderState
	valid   bool
}

// Current returns the cached state and whether it is known.
func (c *Cache) Current() (RenderState, bool) {
	return c.current, c.valid
}

// Reconcile brings dev to desired, issuing only the required calls once the cache is warm.
func (c *Cache) Reconcile(dev Device, desired RenderState) {
	if !c.valid {
		desired.Apply(dev)
		c.current, c.valid = desired, true
		return
	}
	c.current = c.current.Reconcile(dev, desired)
}

// Invalidate forgets the cached state, forcing the next Reconcile to apply everything.
func (c *Cache) Invalidate() {
	c.valid = false
}

// Apply issues every call of desired regardless of the cached state and records it.
func (c *Cache) Apply(dev Device, desired RenderState) {
	desired.Apply(dev)
	c.current, c.valid = desired, true
}
