package cluster

import (
	"encoding/binary"

	"github.com/Carmen-Shannon/oxy-cls/common"
	"github.com/Carmen-Shannon/oxy-cls/engine/camera"
	"github.com/Carmen-Shannon/oxy-cls/engine/gpu"
	"github.com/Carmen-Shannon/oxy-cls/engine/light"
	"github.com/Carmen-Shannon/oxy-cls/engine/pool"
	"github.com/Carmen-Shannon/oxy-cls/engine/profiler"
)

// MaxCameras is the number of cameras a single render target can register per frame.
const MaxCameras = 8

// Buffer roles. Programs name the buffers they bind with these roles.
const (
	RoleClusterSpace       = "cluster_space"
	RoleFragmentCounts     = "fragment_counts"
	RoleMaybeActiveIndices = "maybe_active_indices"
	RoleActiveIndices      = "active_indices"
	RoleLightCounts        = "light_counts"
	RoleLightOffsets       = "light_offsets"
	RoleLightXYZR          = "light_xyzr"
	RoleLightIndices       = "light_indices"
	RoleTotals             = "totals"
	RoleComputeCommands    = "compute_commands"
	RoleDrawCommands       = "draw_commands"
	RoleProfiling          = "profiling"
)

// RoleSlots maps every buffer role to its binding slot.
var RoleSlots = map[string]uint32{
	RoleClusterSpace:       SlotClusterSpace,
	RoleFragmentCounts:     SlotFragmentCounts,
	RoleMaybeActiveIndices: SlotMaybeActiveIndices,
	RoleActiveIndices:      SlotActiveIndices,
	RoleLightCounts:        SlotLightCounts,
	RoleLightOffsets:       SlotLightOffsets,
	RoleLightXYZR:          SlotLightXYZR,
	RoleLightIndices:       SlotLightIndices,
	RoleTotals:             SlotTotals,
	RoleComputeCommands:    SlotComputeCommands,
	RoleDrawCommands:       SlotDrawCommands,
	RoleProfiling:          SlotProfiling,
}

// initialDrawCommand draws the 36-index unit cube zero times until compaction sets the instance count.
var initialDrawCommand = gpu.DrawCommand{Count: 36}

// initialComputeCommands are the count, offsets and assign dispatch arguments before compaction.
var initialComputeCommands = []gpu.ComputeCommand{
	{WorkGroupX: 0, WorkGroupY: 1, WorkGroupZ: 1},
	{WorkGroupX: 0, WorkGroupY: 1, WorkGroupZ: 1},
	{WorkGroupX: 0, WorkGroupY: 1, WorkGroupZ: 1},
}

// Resources is the device-resident state of one render target's cluster grid: its
// parameters, registered cameras, fitted grid and every buffer the pipeline binds.
// A Resources is driven from the frame thread and is not safe for concurrent use.
type Resources struct {
	prof *profiler.Context

	parameters Parameters
	computed   Computed
	cameras    *pool.Pool[camera.Parameters, camera.Parameters]
	samples    StageMap[profiler.SampleIndex]
	lightCount int

	clusterSpace       *gpu.DynamicBuffer
	fragmentCounts     *gpu.StorageBuffer
	maybeActiveIndices *gpu.DynamicBuffer
	activeIndices      *gpu.DynamicBuffer
	lightCounts        *gpu.DynamicBuffer
	lightOffsets       *gpu.DynamicBuffer
	lightXYZR          *gpu.DynamicBuffer
	lightIndices       *gpu.DynamicBuffer
	totals             *gpu.DynamicBuffer
	computeCommands    *gpu.DynamicBuffer
	drawCommands       *gpu.DynamicBuffer
	profiling          *gpu.DynamicBuffer
}

// NewResources creates and pre-sizes every buffer of a cluster grid and registers one
// profiler sample per pipeline stage.
//
// Parameters:
//   - dev: the device owning the buffers
//   - prof: the profiler context receiving the stage samples
//   - params: the initial cluster parameters; zero capacities take their defaults
//
// Returns:
//   - *Resources: the resource set with an empty camera pool and the default grid
func NewResources(dev gpu.Device, prof *profiler.Context, params Parameters) *Resources {
	params = withDefaults(params)
	cfg := params.Configuration

	r := &Resources{
		prof:       prof,
		parameters: params,
		computed:   DefaultComputed(),
		cameras: pool.New[camera.Parameters, camera.Parameters](MaxCameras,
			func(p camera.Parameters) (camera.Parameters, error) { return p, nil },
			func(v *camera.Parameters, p camera.Parameters) error { *v = p; return nil },
		),
		samples: NewStageMap(func(s Stage) profiler.SampleIndex {
			return prof.AddSample(s.Title())
		}),

		clusterSpace:       gpu.NewDynamicBuffer(dev, RoleClusterSpace, gpu.UsageUniform),
		fragmentCounts:     gpu.NewStorageBuffer(dev, RoleFragmentCounts, gpu.UsageStorage),
		maybeActiveIndices: gpu.NewDynamicBuffer(dev, RoleMaybeActiveIndices, gpu.UsageStorage),
		activeIndices:      gpu.NewDynamicBuffer(dev, RoleActiveIndices, gpu.UsageStorage),
		lightCounts:        gpu.NewDynamicBuffer(dev, RoleLightCounts, gpu.UsageStorage),
		lightOffsets:       gpu.NewDynamicBuffer(dev, RoleLightOffsets, gpu.UsageStorage),
		lightXYZR:          gpu.NewDynamicBuffer(dev, RoleLightXYZR, gpu.UsageStorage),
		lightIndices:       gpu.NewDynamicBuffer(dev, RoleLightIndices, gpu.UsageStorage),
		totals:             gpu.NewDynamicBuffer(dev, RoleTotals, gpu.UsageStorage),
		computeCommands:    gpu.NewDynamicBuffer(dev, RoleComputeCommands, gpu.UsageStorage|gpu.UsageIndirect),
		drawCommands:       gpu.NewDynamicBuffer(dev, RoleDrawCommands, gpu.UsageStorage|gpu.UsageIndirect),
		profiling:          gpu.NewDynamicBuffer(dev, RoleProfiling, gpu.UsageStorage),
	}

	r.clusterSpace.EnsureCapacity(GPUClusterSpaceSize)
	r.fragmentCounts.Reconcile(4 * int(cfg.MaxClusters))
	r.maybeActiveIndices.EnsureCapacity(4 * int(cfg.MaxClusters))
	r.ensureCapacities()
	r.totals.EnsureCapacity(GPUTotalsSize)
	r.computeCommands.EnsureCapacity(len(initialComputeCommands) * gpu.ComputeCommandSize)
	r.drawCommands.EnsureCapacity(gpu.DrawCommandSize)
	r.profiling.EnsureCapacity(GPUProfilingSize)
	r.resetCommands()

	return r
}

// withDefaults fills zero configuration fields with their defaults.
func withDefaults(p Parameters) Parameters {
	d := DefaultConfiguration()
	p.MaxClusters = common.Coalesce(p.MaxClusters, d.MaxClusters)
	p.MaxActiveClusters = common.Coalesce(p.MaxActiveClusters, d.MaxActiveClusters)
	p.MaxLightIndices = common.Coalesce(p.MaxLightIndices, d.MaxLightIndices)
	for i := range p.OrthographicSides {
		p.OrthographicSides[i] = common.Coalesce(p.OrthographicSides[i], d.OrthographicSides[i])
	}
	return p
}

// Parameters returns the current cluster parameters.
func (r *Resources) Parameters() Parameters {
	return r.parameters
}

// Computed returns the grid produced by the last Recompute.
func (r *Resources) Computed() Computed {
	return r.computed
}

// Sample returns the profiler sample of a stage.
func (r *Resources) Sample(s Stage) profiler.SampleIndex {
	return r.samples[s]
}

// Profiler returns the profiler context the stage samples belong to.
func (r *Resources) Profiler() *profiler.Context {
	return r.prof
}

// LightCount returns the number of light spheres uploaded this frame.
func (r *Resources) LightCount() int {
	return r.lightCount
}

// AddCamera registers a camera for the next Recompute.
//
// Parameters:
//   - cam: the posed camera
//
// Returns:
//   - pool.Index: the camera's slot
//   - error: pool.ErrPoolExhausted when MaxCameras cameras are already registered
func (r *Resources) AddCamera(cam camera.Parameters) (pool.Index, error) {
	return r.cameras.Acquire(cam)
}

// Cameras returns the registered cameras in slot order.
func (r *Resources) Cameras() []camera.Parameters {
	used := r.cameras.Used()
	out := make([]camera.Parameters, len(used))
	for i, c := range used {
		out[i] = *c
	}
	return out
}

// Recompute replaces the fitted grid with one enclosing the registered cameras.
// Unsupported camera setups panic (see Fit).
func (r *Resources) Recompute() {
	r.computed = Fit(r.parameters, r.Cameras())
	common.Logger().Debug("cluster grid recomputed",
		"projection", r.parameters.Projection,
		"dimensions", r.computed.Dimensions,
		"clusters", r.computed.ClusterCount(),
	)
}

// Reset prepares the resources for reuse by another render target within a frame.
// Cameras are dropped and the parameters replaced. Buffers keep their capacity. Builds
// with the clusterdebug tag also reset the grid so stale reuse is detectable.
//
// Parameters:
//   - params: the new cluster parameters
func (r *Resources) Reset(params Parameters) {
	r.parameters = withDefaults(params)
	r.cameras.Reset()
	if common.DebugChecks {
		r.computed = DefaultComputed()
	}
}

// BeginFrame writes the cluster-space uniform for the current grid, sizes and zeroes the
// fragment counts, grows the capacity-bound buffers to the current maxima and restores
// the indirect commands. Call it after Recompute and before
// rendering geometry into the fragment counts.
func (r *Resources) BeginFrame() {
	n := int(r.computed.ClusterCount())

	space := NewGPUClusterSpace(r.computed, r.parameters.Configuration, uint32(r.lightCount))
	r.clusterSpace.Write(space.Marshal())

	r.fragmentCounts.Reconcile(4 * n)
	r.fragmentCounts.ClearU32(4 * n)
	r.maybeActiveIndices.EnsureCapacity(4 * n)
	r.ensureCapacities()

	r.totals.ClearU32(GPUTotalsSize)
	r.profiling.ClearU32(GPUProfilingSize)
	r.resetCommands()
}

// uploadLights writes the bounding spheres of lights and records their count in the uniform.
func (r *Resources) uploadLights(lights []light.Light) {
	data, n := light.MarshalLightXYZR(lights)
	r.lightXYZR.Upload(data)
	r.lightCount = n

	var count [4]byte
	binary.LittleEndian.PutUint32(count[:], uint32(n))
	r.clusterSpace.WriteAt(ClusterSpaceLightCountOffset, count[:])
}

// ensureCapacities grows the buffers sized by the configured maxima. A slot reused for a
// target with larger maxima grows here, before any stage writes through the new bounds.
func (r *Resources) ensureCapacities() {
	cfg := r.parameters.Configuration
	r.activeIndices.EnsureCapacity(4 * int(cfg.MaxActiveClusters))
	r.lightCounts.EnsureCapacity(4 * int(cfg.MaxActiveClusters))
	r.lightOffsets.EnsureCapacity(4 * int(cfg.MaxActiveClusters))
	r.lightIndices.EnsureCapacity(4 * int(cfg.MaxLightIndices))
}

func (r *Resources) resetCommands() {
	r.drawCommands.Write(initialDrawCommand.Marshal())
	r.computeCommands.Write(gpu.MarshalComputeCommands(initialComputeCommands))
}

// Buffer returns the device buffer currently serving a role.
//
// Parameters:
//   - role: one of the Role constants
//
// Returns:
//   - gpu.BufferName: the buffer handle
//   - bool: false for an unknown role
func (r *Resources) Buffer(role string) (gpu.BufferName, bool) {
	switch role {
	case RoleClusterSpace:
		return r.clusterSpace.Name(), true
	case RoleFragmentCounts:
		return r.fragmentCounts.Name(), true
	case RoleMaybeActiveIndices:
		return r.maybeActiveIndices.Name(), true
	case RoleActiveIndices:
		return r.activeIndices.Name(), true
	case RoleLightCounts:
		return r.lightCounts.Name(), true
	case RoleLightOffsets:
		return r.lightOffsets.Name(), true
	case RoleLightXYZR:
		return r.lightXYZR.Name(), true
	case RoleLightIndices:
		return r.lightIndices.Name(), true
	case RoleTotals:
		return r.totals.Name(), true
	case RoleComputeCommands:
		return r.computeCommands.Name(), true
	case RoleDrawCommands:
		return r.drawCommands.Name(), true
	case RoleProfiling:
		return r.profiling.Name(), true
	default:
		return 0, false
	}
}

// Capacities reports the byte capacity of every buffer keyed by role.
func (r *Resources) Capacities() map[string]int {
	return map[string]int{
		RoleClusterSpace:       r.clusterSpace.Capacity(),
		RoleFragmentCounts:     r.fragmentCounts.Capacity(),
		RoleMaybeActiveIndices: r.maybeActiveIndices.Capacity(),
		RoleActiveIndices:      r.activeIndices.Capacity(),
		RoleLightCounts:        r.lightCounts.Capacity(),
		RoleLightOffsets:       r.lightOffsets.Capacity(),
		RoleLightXYZR:          r.lightXYZR.Capacity(),
		RoleLightIndices:       r.lightIndices.Capacity(),
		RoleTotals:             r.totals.Capacity(),
		RoleComputeCommands:    r.computeCommands.Capacity(),
		RoleDrawCommands:       r.drawCommands.Capacity(),
		RoleProfiling:          r.profiling.Capacity(),
	}
}

// Release deletes every device buffer. The Resources must not be used afterwards.
func (r *Resources) Release() {
	r.clusterSpace.Release()
	r.fragmentCounts.Release()
	r.maybeActiveIndices.Release()
	r.activeIndices.Release()
	r.lightCounts.Release()
	r.lightOffsets.Release()
	r.lightXYZR.Release()
	r.lightIndices.Release()
	r.totals.Release()
	r.computeCommands.Release()
	r.drawCommands.Release()
	r.profiling.Release()
}
