package engine

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-cls/common"
	"github.com/Carmen-Shannon/oxy-cls/engine/camera"
	"github.com/Carmen-Shannon/oxy-cls/engine/cluster"
	"github.com/Carmen-Shannon/oxy-cls/engine/clusterviz"
	"github.com/Carmen-Shannon/oxy-cls/engine/config"
	"github.com/Carmen-Shannon/oxy-cls/engine/gpu"
	"github.com/Carmen-Shannon/oxy-cls/engine/light"
	"github.com/Carmen-Shannon/oxy-cls/engine/pool"
	"github.com/Carmen-Shannon/oxy-cls/engine/profiler"
)

// engine implements the Engine interface.
// Owns the per-frame pool of cluster resources and the programs that fill them.
type engine struct {
	dev      gpu.Device
	pipeline *cluster.Pipeline
	targets  *cluster.ResourcesPool

	maxRenderTargets int

	profiler         *profiler.Profiler
	profilerContext  *profiler.Context
	profilingEnabled bool
	profilerOptions  []profiler.ProfilerBuilderOption

	debug    config.Debug
	debugger clusterviz.Renderer

	frame int
}

// Engine clusters the lights of every render target of a frame.
//
// A frame is driven as BeginFrame, then Cluster and Execute once per render target,
// then EndFrame. Render target handles are only valid until the next BeginFrame.
type Engine interface {
	// Device returns the device the engine submits to.
	//
	// Returns:
	//   - gpu.Device: the device
	Device() gpu.Device

	// Pipeline returns the compiled cluster programs.
	//
	// Returns:
	//   - *cluster.Pipeline: the pipeline
	Pipeline() *cluster.Pipeline

	// Profiler returns the frame profiler. Its Context holds the per-stage samples.
	//
	// Returns:
	//   - *profiler.Profiler: the profiler
	Profiler() *profiler.Profiler

	// EnableProfiler turns on stage timing and statistics logging.
	EnableProfiler()

	// DisableProfiler turns off stage timing and statistics logging.
	DisableProfiler()

	// BeginFrame returns every render target of the previous frame to the pool.
	// Their buffers are kept and reused by the next Cluster calls.
	BeginFrame()

	// Cluster fits a grid for one render target and begins its frame.
	//
	// Parameters:
	//   - params: the render target's cluster parameters
	//   - cams: the cameras of the render target, one or two for perspective clustering
	//
	// Returns:
	//   - pool.Index: the render target handle, valid until the next BeginFrame
	//   - error: pool.ErrPoolExhausted when too many targets are clustered in one frame,
	//     or an error when more cameras are given than a target holds
	Cluster(params cluster.Parameters, cams ...camera.Parameters) (pool.Index, error)

	// Resources returns the cluster resources of a render target of the current frame.
	//
	// Parameters:
	//   - idx: the render target handle
	//
	// Returns:
	//   - *cluster.Resources: the resources
	//   - bool: false when the handle is stale
	Resources(idx pool.Index) (*cluster.Resources, bool)

	// Execute assigns lights to the active clusters of a render target. When the debug
	// visualiser is enabled the grid is drawn afterwards.
	//
	// Parameters:
	//   - idx: the render target handle
	//   - lights: the scene lights
	//
	// Returns:
	//   - error: error if the handle is stale or the target has no grid
	Execute(idx pool.Index, lights []light.Light) error

	// EndFrame finishes the frame and ticks the profiler.
	//
	// Returns:
	//   - bool: true if profiler statistics were logged this frame
	EndFrame() bool

	// Frame returns the number of frames begun so far.
	//
	// Returns:
	//   - int: the frame counter
	Frame() int

	// Release deletes every buffer the engine created. The device itself is left to the caller.
	Release()
}

var _ Engine = &engine{}

// NewEngine compiles the cluster programs on dev and prepares the render target pool.
//
// Parameters:
//   - dev: the device to submit to
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the ready engine
//   - error: error if a program fails to compile
func NewEngine(dev gpu.Device, options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		dev:              dev,
		maxRenderTargets: config.DefaultMaxRenderTargets,
		profilerContext:  profiler.NewContext(),
	}
	for _, opt := range options {
		opt(e)
	}

	if e.pipeline == nil {
		p, err := cluster.NewPipeline(dev)
		if err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
		e.pipeline = p
	}

	if e.debug.Enabled {
		drawer, ok := dev.(clusterviz.Device)
		if !ok {
			return nil, fmt.Errorf("engine: device %T cannot draw the cluster visualiser", dev)
		}
		r, err := clusterviz.NewRenderer(drawer)
		if err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
		e.debugger = r
	}

	e.profilerContext.SetEnabled(e.profilingEnabled)
	e.profiler = profiler.NewProfiler(append([]profiler.ProfilerBuilderOption{profiler.WithContext(e.profilerContext)}, e.profilerOptions...)...)
	e.targets = cluster.NewResourcesPool(dev, e.profilerContext, e.maxRenderTargets)

	common.Logger().Debug("engine ready", "render_targets", e.maxRenderTargets, "profiling", e.profilingEnabled)
	return e, nil
}

func (e *engine) Device() gpu.Device {
	return e.dev
}

func (e *engine) Pipeline() *cluster.Pipeline {
	return e.pipeline
}

func (e *engine) Profiler() *profiler.Profiler {
	return e.profiler
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
	e.profilerContext.SetEnabled(true)
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
	e.profilerContext.SetEnabled(false)
}

func (e *engine) BeginFrame() {
	e.targets.Reset()
	e.frame++
}

func (e *engine) Cluster(params cluster.Parameters, cams ...camera.Parameters) (pool.Index, error) {
	idx, err := e.targets.Acquire(params)
	if err != nil {
		return pool.Index{}, fmt.Errorf("engine: acquiring render target: %w", err)
	}
	r := e.targets.Get(idx)
	for _, cam := range cams {
		if _, err := r.AddCamera(cam); err != nil {
			e.targets.Free(idx)
			return pool.Index{}, fmt.Errorf("engine: adding camera: %w", err)
		}
	}
	r.Recompute()
	r.BeginFrame()
	return idx, nil
}

func (e *engine) Resources(idx pool.Index) (*cluster.Resources, bool) {
	return e.targets.Lookup(idx)
}

func (e *engine) Execute(idx pool.Index, lights []light.Light) error {
	r, ok := e.targets.Lookup(idx)
	if !ok {
		return fmt.Errorf("engine: %w", pool.ErrStaleIndex)
	}
	if err := e.pipeline.Execute(r, lights); err != nil {
		return err
	}
	if e.debugger == nil {
		return nil
	}

	cams := r.Cameras()
	if len(cams) == 0 {
		return nil
	}
	cam := cams[0]
	return e.debugger.Render(clusterviz.Parameters{
		Resources:      r,
		CluCamToRenClp: cam.CamToClp.Mul4(cam.WldToCam).Mul4(r.Computed().CCamToWld),
		Visualisation:  e.debug.Visualisation,
		VisibleOnly:    e.debug.VisibleOnly,
	})
}

func (e *engine) EndFrame() bool {
	if !e.profilingEnabled {
		return false
	}
	return e.profiler.Tick()
}

func (e *engine) Frame() int {
	return e.frame
}

func (e *engine) Release() {
	if e.debugger != nil {
		e.debugger.Release()
	}
	e.targets.Release()
}
