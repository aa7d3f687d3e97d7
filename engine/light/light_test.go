package light

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointLightSphereIsRange(t *testing.T) {
	l := NewLight(LightTypePoint, WithPosition(1, 2, 3), WithRange(4))
	center, radius, ok := l.BoundingSphere()
	require.True(t, ok)
	assert.Equal(t, [3]float32{1, 2, 3}, center)
	assert.Equal(t, float32(4), radius)
}

func TestDirectionalLightHasNoSphere(t *testing.T) {
	_, _, ok := NewLight(LightTypeDirectional).BoundingSphere()
	assert.False(t, ok)
}

func TestSpotLightSphereEnclosesCone(t *testing.T) {
	for _, outer := range []float32{10, 30, 45, 60, 80} {
		l := NewLight(LightTypeSpot,
			WithDirection(0, 0, -1),
			WithRange(10),
			WithSpotCone(outer),
		)
		center, radius, ok := l.BoundingSphere()
		require.True(t, ok)

		theta := float64(outer) * math.Pi / 180
		rim := 10 * math.Sin(theta)
		capZ := -10 * math.Cos(theta)
		// apex and a point on the cap rim must both lie inside the sphere
		apexDist := math.Abs(float64(center[2]))
		rimDist := math.Hypot(rim, capZ-float64(center[2]))
		assert.LessOrEqual(t, apexDist, float64(radius)+1e-4, "apex outside at %v", outer)
		assert.LessOrEqual(t, rimDist, float64(radius)+1e-4, "rim outside at %v", outer)
		// and the sphere is no bigger than the naive range sphere
		assert.LessOrEqual(t, float64(radius), 10.0+1e-4)
	}
}

func TestMarshalLightXYZRSkipsUnboundedAndDisabled(t *testing.T) {
	lights := []Light{
		NewLight(LightTypePoint, WithPosition(1, 0, 0), WithRange(2)),
		NewLight(LightTypeDirectional),
		NewLight(LightTypePoint, WithEnabled(false)),
		NewLight(LightTypePoint, WithPosition(0, 5, 0), WithRange(3)),
	}
	buf, n := MarshalLightXYZR(lights)
	require.Equal(t, 2, n)
	require.Len(t, buf, 2*GPULightXYZRSize)

	assert.Equal(t, GPULightXYZR{Position: [3]float32{1, 0, 0}, Radius: 2}, UnmarshalLightXYZR(buf, 0))
	assert.Equal(t, GPULightXYZR{Position: [3]float32{0, 5, 0}, Radius: 3}, UnmarshalLightXYZR(buf, 1))

	g := GPULightXYZR{}
	assert.Equal(t, GPULightXYZRSize, g.Size())
}

func TestSettersMatchOptions(t *testing.T) {
	a := NewLight(LightTypeSpot, WithPosition(1, 2, 3), WithDirection(0, 0, 2), WithRange(5), WithSpotCone(20))
	b := NewLight(LightTypeSpot)
	b.SetPosition(1, 2, 3)
	b.SetDirection(0, 0, 2)
	b.SetRange(5)
	b.SetSpotCone(20)

	assert.Equal(t, a, b)
	assert.Equal(t, [3]float32{0, 0, 1}, b.Direction())

	b.SetEnabled(false)
	_, ok := ToGPULightXYZR(b)
	assert.False(t, ok)
	assert.Equal(t, [3]float32{}, NewLight(LightTypeSpot, WithDirection(0, 0, 0)).Direction())
}
