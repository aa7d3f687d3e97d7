package cluster

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-cls/engine/camera"
	"github.com/Carmen-Shannon/oxy-cls/engine/gpu"
	"github.com/Carmen-Shannon/oxy-cls/engine/gpu/soft"
	"github.com/Carmen-Shannon/oxy-cls/engine/pool"
	"github.com/Carmen-Shannon/oxy-cls/engine/profiler"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallParameters() Parameters {
	cfg := DefaultConfiguration()
	cfg.MaxClusters = 1000
	cfg.MaxActiveClusters = 100
	cfg.MaxLightIndices = 500
	return NewParameters(cfg, mgl64.Ident4())
}

// smallCamera yields a 2x2xN grid.
func smallCamera() camera.Parameters {
	return camera.NewCamera(camera.WithFrameDims(100, 100)).Parameters()
}

func TestNewResourcesPreSizesBuffers(t *testing.T) {
	dev := soft.NewDevice()
	r := NewResources(dev, profiler.NewContext(), smallParameters())

	assert.Equal(t, map[string]int{
		RoleClusterSpace:       GPUClusterSpaceSize,
		RoleFragmentCounts:     4032,
		RoleMaybeActiveIndices: 4000,
		RoleActiveIndices:      400,
		RoleLightCounts:        400,
		RoleLightOffsets:       400,
		RoleLightXYZR:          0,
		RoleLightIndices:       2000,
		RoleTotals:             GPUTotalsSize,
		RoleComputeCommands:    48,
		RoleDrawCommands:       32,
		RoleProfiling:          GPUProfilingSize,
	}, r.Capacities())

	draw, ok := r.Buffer(RoleDrawCommands)
	require.True(t, ok)
	assert.Equal(t, gpu.DrawCommand{Count: 36}, gpu.UnmarshalDrawCommand(dev.Bytes(draw)))

	commands, _ := r.Buffer(RoleComputeCommands)
	for i := 0; i < 3; i++ {
		c := gpu.UnmarshalComputeCommand(dev.Bytes(commands)[i*gpu.ComputeCommandSize:])
		assert.Equal(t, gpu.ComputeCommand{WorkGroupX: 0, WorkGroupY: 1, WorkGroupZ: 1}, c)
	}

	assert.Equal(t, DefaultComputed(), r.Computed())
	assert.Empty(t, r.Cameras())
}

func TestNewResourcesRegistersStageSamples(t *testing.T) {
	prof := profiler.NewContext()
	r := NewResources(soft.NewDevice(), prof, smallParameters())

	assert.Equal(t, StageCount, prof.Len())
	for _, s := range Stages {
		assert.Equal(t, s.Title(), prof.Title(r.Sample(s)))
	}
}

func TestNewResourcesFillsDefaults(t *testing.T) {
	r := NewResources(soft.NewDevice(), profiler.NewContext(), Parameters{})
	cfg := r.Parameters().Configuration

	assert.Equal(t, uint32(DefaultMaxClusters), cfg.MaxClusters)
	assert.Equal(t, uint32(DefaultMaxActiveClusters), cfg.MaxActiveClusters)
	assert.Equal(t, uint32(DefaultMaxLightIndices), cfg.MaxLightIndices)
	assert.Equal(t, DefaultOrthographicSides, cfg.OrthographicSides)
}

func TestBuffersUnknownRole(t *testing.T) {
	r := NewResources(soft.NewDevice(), profiler.NewContext(), smallParameters())
	for role := range RoleSlots {
		_, ok := r.Buffer(role)
		assert.True(t, ok, role)
	}
	_, ok := r.Buffer("nope")
	assert.False(t, ok)
}

func TestAddCameraLimit(t *testing.T) {
	r := NewResources(soft.NewDevice(), profiler.NewContext(), smallParameters())
	for i := 0; i < MaxCameras; i++ {
		_, err := r.AddCamera(smallCamera())
		require.NoError(t, err)
	}
	_, err := r.AddCamera(smallCamera())
	assert.ErrorIs(t, err, pool.ErrPoolExhausted)
	assert.Len(t, r.Cameras(), MaxCameras)
}

func TestRecomputeAndBeginFrame(t *testing.T) {
	dev := soft.NewDevice()
	r := NewResources(dev, profiler.NewContext(), smallParameters())

	cam := smallCamera()
	_, err := r.AddCamera(cam)
	require.NoError(t, err)
	r.Recompute()

	c := r.Computed()
	assert.Equal(t, Fit(r.Parameters(), []camera.Parameters{cam}), c)
	n := int(c.ClusterCount())
	require.Greater(t, n, 0)

	// dirty the buffers BeginFrame is expected to restore
	frag, _ := r.Buffer(RoleFragmentCounts)
	draw, _ := r.Buffer(RoleDrawCommands)
	dev.WriteBuffer(draw, 4, []byte{9, 0, 0, 0})

	r.BeginFrame()

	space := UnmarshalGPUClusterSpace(dev.Bytes(mustBuffer(t, r, RoleClusterSpace)))
	assert.Equal(t, c.Dimensions, space.Dimensions)
	assert.Equal(t, uint32(n), space.ClusterCount)
	assert.Equal(t, uint32(100), space.MaxActiveClusters)
	assert.Equal(t, uint32(500), space.MaxLightIndices)
	assert.Equal(t, float32(c.Frustum.Z1), space.FrustumZ[1])

	// fragment storage shrinks to the grid and is renamed
	assert.NotEqual(t, frag, mustBuffer(t, r, RoleFragmentCounts))
	assert.False(t, dev.Live(frag))
	assert.Equal(t, gpu.StorageBufferAlignment*((4*n+63)/64), r.Capacities()[RoleFragmentCounts])
	for i, w := range dev.U32s(mustBuffer(t, r, RoleFragmentCounts))[:n] {
		require.Zero(t, w, "fragment count %d", i)
	}

	assert.Equal(t, gpu.DrawCommand{Count: 36}, gpu.UnmarshalDrawCommand(dev.Bytes(draw)))
}

func TestBufferCapacitiesAreMonotonic(t *testing.T) {
	dev := soft.NewDevice()
	params := smallParameters()
	params.MaxClusters = 10
	r := NewResources(dev, profiler.NewContext(), params)

	prev := r.Capacities()
	for _, dims := range [][2]int{{100, 100}, {640, 480}, {64, 64}, {1280, 720}, {100, 100}} {
		r.Reset(params)
		_, err := r.AddCamera(camera.NewCamera(camera.WithFrameDims(dims[0], dims[1])).Parameters())
		require.NoError(t, err)
		r.Recompute()
		r.BeginFrame()

		n := int(r.Computed().ClusterCount())
		caps := r.Capacities()
		for role, c := range caps {
			if role == RoleFragmentCounts {
				continue
			}
			assert.GreaterOrEqual(t, c, prev[role], "%s shrank at %v", role, dims)
		}
		assert.GreaterOrEqual(t, caps[RoleMaybeActiveIndices], 4*n)
		assert.GreaterOrEqual(t, caps[RoleFragmentCounts], 4*n)
		assert.Len(t, dev.Bytes(mustBuffer(t, r, RoleMaybeActiveIndices)), caps[RoleMaybeActiveIndices])
		prev = caps
	}
}

func TestResetKeepsBuffers(t *testing.T) {
	dev := soft.NewDevice()
	r := NewResources(dev, profiler.NewContext(), smallParameters())
	_, err := r.AddCamera(smallCamera())
	require.NoError(t, err)
	r.Recompute()
	before := r.Capacities()
	count := dev.BufferCount()

	next := smallParameters()
	next.Projection = ProjectionOrthographic
	r.Reset(next)

	assert.Empty(t, r.Cameras())
	assert.Equal(t, ProjectionOrthographic, r.Parameters().Projection)
	assert.Equal(t, before, r.Capacities())
	assert.Equal(t, count, dev.BufferCount())
}

func TestReleaseDeletesBuffers(t *testing.T) {
	dev := soft.NewDevice()
	r := NewResources(dev, profiler.NewContext(), smallParameters())
	require.Equal(t, len(RoleSlots), dev.BufferCount())

	r.Release()
	assert.Zero(t, dev.BufferCount())
}

func TestResourcesPoolReusesSlots(t *testing.T) {
	dev := soft.NewDevice()
	p := NewResourcesPool(dev, profiler.NewContext(), 2)

	a, err := p.Acquire(smallParameters())
	require.NoError(t, err)
	first := p.Get(a)
	_, err = first.AddCamera(smallCamera())
	require.NoError(t, err)

	_, err = p.Acquire(smallParameters())
	require.NoError(t, err)
	_, err = p.Acquire(smallParameters())
	assert.ErrorIs(t, err, pool.ErrPoolExhausted)
	assert.Equal(t, 2, p.Len())
	count := dev.BufferCount()

	p.Reset()
	assert.Zero(t, p.Len())
	_, ok := p.Lookup(a)
	assert.False(t, ok)

	next := smallParameters()
	next.Projection = ProjectionOrthographic
	b, err := p.Acquire(next)
	require.NoError(t, err)

	reused := p.Get(b)
	assert.Same(t, first, reused)
	assert.Empty(t, reused.Cameras())
	assert.Equal(t, ProjectionOrthographic, reused.Parameters().Projection)
	assert.Equal(t, count, dev.BufferCount())
	assert.Equal(t, []*Resources{reused}, p.Used())

	p.Release()
	assert.Zero(t, dev.BufferCount())
}

func mustBuffer(t *testing.T, r *Resources, role string) gpu.BufferName {
	t.Helper()
	name, ok := r.Buffer(role)
	require.True(t, ok, role)
	return name
}

func TestResourcesPoolFreeReturnsSlot(t *testing.T) {
	dev := soft.NewDevice()
	p := NewResourcesPool(dev, profiler.NewContext(), 1)

	a, err := p.Acquire(smallParameters())
	require.NoError(t, err)
	first := p.Get(a)
	count := dev.BufferCount()

	p.Free(a)
	assert.Zero(t, p.Len())
	_, ok := p.Lookup(a)
	assert.False(t, ok)
	p.Free(a)

	b, err := p.Acquire(smallParameters())
	require.NoError(t, err)
	assert.Same(t, first, p.Get(b))
	assert.Equal(t, count, dev.BufferCount())
}
