package cluster_test

import (
	"math"
	"slices"
	"testing"

	"github.com/Carmen-Shannon/oxy-cls/engine/camera"
	"github.com/Carmen-Shannon/oxy-cls/engine/cluster"
	"github.com/Carmen-Shannon/oxy-cls/engine/cluster/clustersoft"
	"github.com/Carmen-Shannon/oxy-cls/engine/gpu"
	"github.com/Carmen-Shannon/oxy-cls/engine/gpu/soft"
	"github.com/Carmen-Shannon/oxy-cls/engine/light"
	"github.com/Carmen-Shannon/oxy-cls/engine/profiler"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frame struct {
	dev  *soft.Device
	prof *profiler.Context
	pipe *cluster.Pipeline
	res  *cluster.Resources
}

// newFrame fits a 4x4xN grid for a 256x256 camera at the origin and begins a frame.
func newFrame(t *testing.T, workers int, cfg cluster.Configuration) *frame {
	t.Helper()
	dev := soft.NewDevice(soft.WithWorkers(workers))
	clustersoft.Register(dev)
	pipe, err := cluster.NewPipeline(dev)
	require.NoError(t, err)

	prof := profiler.NewContext()
	res := cluster.NewResources(dev, prof, cluster.NewParameters(cfg, mgl64.Ident4()))
	_, err = res.AddCamera(camera.NewCamera(camera.WithFrameDims(256, 256)).Parameters())
	require.NoError(t, err)
	res.Recompute()
	res.BeginFrame()
	return &frame{dev: dev, prof: prof, pipe: pipe, res: res}
}

func (f *frame) buffer(t *testing.T, role string) gpu.BufferName {
	t.Helper()
	name, ok := f.res.Buffer(role)
	require.True(t, ok, role)
	return name
}

func (f *frame) u32s(t *testing.T, role string) []uint32 {
	return f.dev.U32s(f.buffer(t, role))
}

// cellOf returns the index of the cell holding a cluster-camera space point.
func cellOf(c cluster.Computed, p mgl64.Vec3) uint32 {
	fr, d := c.Frustum, c.Dimensions
	sx, sy := p.X()/-p.Z(), p.Y()/-p.Z()
	x := uint32((sx - fr.X0) / fr.DX() * float64(d[0]))
	y := uint32((sy - fr.Y0) / fr.DY() * float64(d[1]))
	z := uint32(math.Log(p.Z()/fr.Z1) / math.Log(fr.Z0/fr.Z1) * float64(d[2]))
	return c.ClusterIndex(x, y, z)
}

func TestExecuteAssignsLights(t *testing.T) {
	for _, workers := range []int{0, 4} {
		f := newFrame(t, workers, cluster.DefaultConfiguration())
		c := f.res.Computed()
		n := int(c.ClusterCount())
		require.Equal(t, [2]uint32{4, 4}, [2]uint32{c.Dimensions[0], c.Dimensions[1]})

		center := mgl64.Vec3{0.3, -0.2, -5}
		target := cellOf(c, center)

		counts := make([]uint32, n)
		var active []uint32
		var fragments uint32
		for i := range counts {
			if i%5 == 0 || uint32(i) == target {
				counts[i] = uint32(i%7 + 1)
				active = append(active, uint32(i))
				fragments += counts[i]
			}
		}
		f.dev.WriteBuffer(f.buffer(t, cluster.RoleFragmentCounts), 0, gpu.MarshalU32s(counts))

		lights := []light.Light{
			light.NewLight(light.LightTypePoint, light.WithPosition(0.3, -0.2, -5), light.WithRange(1)),
			light.NewLight(light.LightTypeDirectional),
			light.NewLight(light.LightTypePoint, light.WithPosition(0, 0, -5), light.WithRange(50), light.WithEnabled(false)),
			light.NewLight(light.LightTypePoint, light.WithPosition(0, 0, 50), light.WithRange(1)),
		}
		require.NoError(t, f.pipe.Execute(f.res, lights))
		assert.Equal(t, 2, f.res.LightCount())

		// compaction
		totals := cluster.UnmarshalGPUTotals(f.dev.Bytes(f.buffer(t, cluster.RoleTotals)))
		require.Equal(t, uint32(len(active)), totals.ActiveClusters)
		assert.Equal(t, active, f.u32s(t, cluster.RoleActiveIndices)[:len(active)])

		maybe := f.u32s(t, cluster.RoleMaybeActiveIndices)
		for i := 0; i < n; i++ {
			pos, found := slices.BinarySearch(active, uint32(i))
			if found {
				assert.Equal(t, uint32(pos), maybe[i], "cell %d", i)
			} else {
				assert.Equal(t, uint32(cluster.InactiveCluster), maybe[i], "cell %d", i)
			}
		}

		groups := uint32((len(active) + cluster.WorkgroupSize - 1) / cluster.WorkgroupSize)
		commands := f.dev.Bytes(f.buffer(t, cluster.RoleComputeCommands))
		assert.Equal(t, groups, gpu.UnmarshalComputeCommand(commands[cluster.CountLightsCommandOffset:]).WorkGroupX)
		assert.Equal(t, uint32(1), gpu.UnmarshalComputeCommand(commands[cluster.LightOffsetsCommandOffset:]).WorkGroupX)
		assert.Equal(t, groups, gpu.UnmarshalComputeCommand(commands[cluster.AssignLightsCommandOffset:]).WorkGroupX)

		draw := gpu.UnmarshalDrawCommand(f.dev.Bytes(f.buffer(t, cluster.RoleDrawCommands)))
		assert.Equal(t, gpu.DrawCommand{Count: 36, PrimCount: uint32(len(active))}, draw)

		// counting and offsets
		space := cluster.UnmarshalGPUClusterSpace(f.dev.Bytes(f.buffer(t, cluster.RoleClusterSpace)))
		assert.Equal(t, uint32(2), space.LightCount)

		lightCounts := f.u32s(t, cluster.RoleLightCounts)
		offsets := f.u32s(t, cluster.RoleLightOffsets)
		var running uint32
		for i, cell := range active {
			lo, hi := clustersoft.CellBounds(space, cell)
			var want uint32
			if clustersoft.SphereOverlaps(lo, hi, mgl32.Vec3{0.3, -0.2, -5}, 1) {
				want = 1
			}
			assert.Equal(t, want, lightCounts[i], "active cluster %d (cell %d)", i, cell)
			assert.Equal(t, running, offsets[i], "active cluster %d", i)
			running += lightCounts[i]
		}
		assert.Equal(t, running, totals.LightIndices)
		assert.Greater(t, running, uint32(0))

		// assignment
		indices := f.u32s(t, cluster.RoleLightIndices)
		for i := range active {
			for j := offsets[i]; j < offsets[i]+lightCounts[i]; j++ {
				assert.Equal(t, uint32(0), indices[j], "active cluster %d", i)
			}
		}
		at, found := slices.BinarySearch(active, target)
		require.True(t, found)
		assert.Equal(t, uint32(1), lightCounts[at])

		prof := cluster.UnmarshalGPUProfiling(f.dev.Bytes(f.buffer(t, cluster.RoleProfiling)))
		assert.Equal(t, cluster.GPUProfiling{
			Fragments:      fragments,
			ActiveClusters: uint32(len(active)),
			LightIndices:   running,
		}, prof)
	}
}

func TestExecuteClampsActiveClusters(t *testing.T) {
	cfg := cluster.DefaultConfiguration()
	cfg.MaxActiveClusters = 10
	f := newFrame(t, 0, cfg)
	n := int(f.res.Computed().ClusterCount())

	counts := make([]uint32, n)
	for i := range counts {
		counts[i] = 1
	}
	f.dev.WriteBuffer(f.buffer(t, cluster.RoleFragmentCounts), 0, gpu.MarshalU32s(counts))
	require.NoError(t, f.pipe.Execute(f.res, nil))

	totals := cluster.UnmarshalGPUTotals(f.dev.Bytes(f.buffer(t, cluster.RoleTotals)))
	assert.Equal(t, uint32(10), totals.ActiveClusters)
	assert.Equal(t, []uint32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, f.u32s(t, cluster.RoleActiveIndices)[:10])

	maybe := f.u32s(t, cluster.RoleMaybeActiveIndices)
	assert.Equal(t, uint32(9), maybe[9])
	assert.Equal(t, uint32(cluster.InactiveCluster), maybe[10])
	assert.Zero(t, totals.LightIndices)
}

func TestExecuteDropsIndicesPastCapacity(t *testing.T) {
	cfg := cluster.DefaultConfiguration()
	cfg.MaxLightIndices = 3
	f := newFrame(t, 0, cfg)
	n := int(f.res.Computed().ClusterCount())

	counts := make([]uint32, n)
	for i := range counts {
		counts[i] = 1
	}
	f.dev.WriteBuffer(f.buffer(t, cluster.RoleFragmentCounts), 0, gpu.MarshalU32s(counts))

	// a huge light touches every cell
	lights := []light.Light{light.NewLight(light.LightTypePoint, light.WithPosition(0, 0, -10), light.WithRange(1e5))}
	require.NoError(t, f.pipe.Execute(f.res, lights))

	prof := cluster.UnmarshalGPUProfiling(f.dev.Bytes(f.buffer(t, cluster.RoleProfiling)))
	assert.Equal(t, uint32(n), prof.LightIndices)
	assert.Equal(t, uint32(n-3), prof.Dropped)
	assert.Len(t, f.u32s(t, cluster.RoleLightIndices), 4)
}

func TestExecuteRunsStagesInOrder(t *testing.T) {
	f := newFrame(t, 0, cluster.DefaultConfiguration())
	f.dev.ClearLog()

	lights := []light.Light{light.NewLight(light.LightTypePoint, light.WithPosition(0, 0, -3), light.WithRange(1))}
	require.NoError(t, f.pipe.Execute(f.res, lights))

	log := f.dev.Log()
	dispatches := soft.Filter(log, soft.CommandDispatch, soft.CommandDispatchIndirect)
	assert.Equal(t, []string{
		cluster.StageCompactClusters.Title(),
		cluster.StageCountLights.Title(),
		cluster.StageLightOffsets.Title(),
		cluster.StageAssignLights.Title(),
	}, soft.Labels(dispatches))
	assert.Equal(t, soft.CommandDispatch, dispatches[0].Kind)
	assert.Equal(t, cluster.LightOffsetsCommandOffset, dispatches[2].Offset)

	// the light upload sits between compaction and counting
	upload := slices.IndexFunc(log, func(c soft.Command) bool {
		return c.Kind == soft.CommandWriteBuffer && c.Label == cluster.RoleLightXYZR
	})
	compact := slices.IndexFunc(log, func(c soft.Command) bool { return c.Label == cluster.StageCompactClusters.Title() })
	count := slices.IndexFunc(log, func(c soft.Command) bool { return c.Label == cluster.StageCountLights.Title() })
	require.NotEqual(t, -1, upload)
	assert.Less(t, compact, upload)
	assert.Less(t, upload, count)

	for _, s := range cluster.Stages {
		idx := f.res.Sample(s)
		assert.Equal(t, s.Title(), f.prof.Title(idx))
		assert.Equal(t, 1, f.prof.Stats(idx).Count, s.Title())
	}
}

func TestExecuteRequiresGrid(t *testing.T) {
	dev := soft.NewDevice()
	clustersoft.Register(dev)
	pipe, err := cluster.NewPipeline(dev)
	require.NoError(t, err)

	res := cluster.NewResources(dev, profiler.NewContext(), cluster.NewParameters(cluster.DefaultConfiguration(), mgl64.Ident4()))
	assert.ErrorIs(t, pipe.Execute(res, nil), cluster.ErrNotComputed)
	assert.Empty(t, soft.Filter(dev.Log(), soft.CommandDispatch, soft.CommandDispatchIndirect))
}

func TestNewPipelineNeedsKernels(t *testing.T) {
	_, err := cluster.NewPipeline(soft.NewDevice())
	assert.Error(t, err)
}

func TestPipelineShaders(t *testing.T) {
	dev := soft.NewDevice()
	clustersoft.Register(dev)
	pipe, err := cluster.NewPipeline(dev)
	require.NoError(t, err)

	assert.Nil(t, pipe.Shader(cluster.StageUploadLights))
	s := pipe.Shader(cluster.StageCountLights)
	require.NotNil(t, s)
	assert.Equal(t, "count_lights", s.EntryPoint())
	assert.Contains(t, s.Source(), "struct ClusterSpace")
}

func TestExecuteAfterSlotReuseWithLargerMaxima(t *testing.T) {
	dev := soft.NewDevice()
	clustersoft.Register(dev)
	pipe, err := cluster.NewPipeline(dev)
	require.NoError(t, err)
	targets := cluster.NewResourcesPool(dev, profiler.NewContext(), 1)
	cam := camera.NewCamera(camera.WithFrameDims(256, 256)).Parameters()

	small := cluster.DefaultConfiguration()
	small.MaxActiveClusters = 4
	small.MaxLightIndices = 4
	idx, err := targets.Acquire(cluster.NewParameters(small, mgl64.Ident4()))
	require.NoError(t, err)
	res := targets.Get(idx)
	_, err = res.AddCamera(cam)
	require.NoError(t, err)
	res.Recompute()
	res.BeginFrame()
	require.NoError(t, pipe.Execute(res, nil))

	targets.Reset()
	idx, err = targets.Acquire(cluster.NewParameters(cluster.DefaultConfiguration(), mgl64.Ident4()))
	require.NoError(t, err)
	require.Same(t, res, targets.Get(idx))
	_, err = res.AddCamera(cam)
	require.NoError(t, err)
	res.Recompute()
	res.BeginFrame()

	caps := res.Capacities()
	assert.GreaterOrEqual(t, caps[cluster.RoleActiveIndices], 4*cluster.DefaultMaxActiveClusters)
	assert.GreaterOrEqual(t, caps[cluster.RoleLightCounts], 4*cluster.DefaultMaxActiveClusters)
	assert.GreaterOrEqual(t, caps[cluster.RoleLightOffsets], 4*cluster.DefaultMaxActiveClusters)
	assert.GreaterOrEqual(t, caps[cluster.RoleLightIndices], 4*cluster.DefaultMaxLightIndices)

	n := int(res.Computed().ClusterCount())
	counts := make([]uint32, n)
	for i := range counts {
		counts[i] = 1
	}
	frag, ok := res.Buffer(cluster.RoleFragmentCounts)
	require.True(t, ok)
	dev.WriteBuffer(frag, 0, gpu.MarshalU32s(counts))

	lights := []light.Light{light.NewLight(light.LightTypePoint, light.WithPosition(0, 0, -10), light.WithRange(1e5))}
	require.NotPanics(t, func() { require.NoError(t, pipe.Execute(res, lights)) })

	profBuf, _ := res.Buffer(cluster.RoleProfiling)
	prof := cluster.UnmarshalGPUProfiling(dev.Bytes(profBuf))
	assert.Equal(t, uint32(n), prof.ActiveClusters)
	assert.Equal(t, uint32(n), prof.LightIndices)
	assert.Zero(t, prof.Dropped)
}
