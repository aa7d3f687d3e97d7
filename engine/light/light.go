// Package light describes the light sources fed to cluster assignment. Only the volume a light
// can reach matters here, so every positional light is reduced to a bounding sphere.
package light

import "math"

// LightType identifies the kind of light source.
type LightType int

const (
	// LightTypeDirectional has a direction but no position or reach. It lights every cluster
	// and is never assigned.
	LightTypeDirectional LightType = iota

	// LightTypePoint reaches a sphere of radius Range around its position.
	LightTypePoint

	// LightTypeSpot reaches a cone of height Range along Direction.
	LightTypeSpot
)

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	lightType LightType
	position  [3]float32
	direction [3]float32
	reach     float32
	cosOuter  float32
	enabled   bool
}

// Light is a light source as seen by the clusterer.
//
// Lights are kept in world space. They are packed into the xyzr upload list each frame
// (see MarshalLightXYZR), where disabled and directional lights are left out.
type Light interface {
	// Type returns the kind of light source.
	//
	// Returns:
	//   - LightType: directional, point or spot
	Type() LightType

	// Position returns the world-space position. Unused for directional lights.
	//
	// Returns:
	//   - [3]float32: the position
	Position() [3]float32

	// Direction returns the unit axis of a spot cone or the direction of a directional light.
	//
	// Returns:
	//   - [3]float32: the normalized direction
	Direction() [3]float32

	// Range returns the distance beyond which the light contributes nothing.
	//
	// Returns:
	//   - float32: the range
	Range() float32

	// OuterCone returns the cosine of a spot light's outer half-angle.
	//
	// Returns:
	//   - float32: cos(outer half-angle)
	OuterCone() float32

	// Enabled reports whether the light takes part in assignment.
	//
	// Returns:
	//   - bool: true if enabled
	Enabled() bool

	// BoundingSphere returns the smallest world-space sphere around the light's reach.
	// Point lights use their range. Spot lights use the tightest sphere around a cone of height
	// Range and half-angle acos(OuterCone).
	//
	// Returns:
	//   - center: sphere center
	//   - radius: sphere radius
	//   - ok: false for directional lights
	BoundingSphere() (center [3]float32, radius float32, ok bool)

	// SetPosition moves the light.
	SetPosition(x, y, z float32)

	// SetDirection points the light, normalizing the direction.
	SetDirection(x, y, z float32)

	// SetRange changes the reach of the light.
	SetRange(r float32)

	// SetSpotCone sets the outer half-angle of a spot light in degrees.
	SetSpotCone(outerDeg float32)

	// SetEnabled includes or excludes the light from assignment.
	SetEnabled(enabled bool)
}

var _ Light = &lightImpl{}

// NewLight creates a light with a range of 10, pointing down -y, with a 35 degree spot cone.
//
// Parameters:
//   - lightType: the kind of light
//   - opts: functional options for the light
//
// Returns:
//   - Light: the new light
func NewLight(lightType LightType, opts ...LightBuilderOption) Light {
	l := &lightImpl{
		lightType: lightType,
		direction: [3]float32{0, -1, 0},
		reach:     10,
		cosOuter:  cosDeg(35),
		enabled:   true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *lightImpl) Type() LightType       { return l.lightType }
func (l *lightImpl) Position() [3]float32  { return l.position }
func (l *lightImpl) Direction() [3]float32 { return l.direction }
func (l *lightImpl) Range() float32        { return l.reach }
func (l *lightImpl) OuterCone() float32    { return l.cosOuter }
func (l *lightImpl) Enabled() bool         { return l.enabled }

func (l *lightImpl) SetPosition(x, y, z float32) {
	l.position = [3]float32{x, y, z}
}

func (l *lightImpl) SetDirection(x, y, z float32) {
	l.direction = normalize3(x, y, z)
}

func (l *lightImpl) SetRange(r float32) {
	l.reach = r
}

func (l *lightImpl) SetSpotCone(outerDeg float32) {
	l.cosOuter = cosDeg(outerDeg)
}

func (l *lightImpl) SetEnabled(enabled bool) {
	l.enabled = enabled
}

func (l *lightImpl) BoundingSphere() ([3]float32, float32, bool) {
	switch l.lightType {
	case LightTypePoint:
		return l.position, l.reach, true
	case LightTypeSpot:
		dist, radius := coneSphere(float64(l.reach), float64(l.cosOuter))
		c := l.position
		for i := range c {
			c[i] += l.direction[i] * float32(dist)
		}
		return c, float32(radius), true
	default:
		return [3]float32{}, 0, false
	}
}

// coneSphere returns the distance along the axis to the center of the smallest sphere around
// a cone of height h and half-angle acos(cosT), and its radius.
func coneSphere(h, cosT float64) (dist, radius float64) {
	if cosT < math.Sqrt2/2 {
		// past 45 degrees the cap circle is the widest part
		return h * cosT, h * math.Sqrt(1-cosT*cosT)
	}
	// apex and cap rim both lie on the sphere
	dist = h / (2 * cosT)
	return dist, dist
}

func normalize3(x, y, z float32) [3]float32 {
	n := float32(math.Sqrt(float64(x*x + y*y + z*z)))
	if n == 0 {
		return [3]float32{}
	}
	return [3]float32{x / n, y / n, z / n}
}

func cosDeg(deg float32) float32 {
	return float32(math.Cos(float64(deg) * math.Pi / 180))
}
