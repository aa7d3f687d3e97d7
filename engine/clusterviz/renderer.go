// Package clusterviz draws the cluster grid of a render target for debugging: every cell
// (or only the active ones) as a box colored by index, light count or fragment count.
package clusterviz

import (
	_ "embed"
	"fmt"

	"github.com/Carmen-Shannon/oxy-cls/common"
	"github.com/Carmen-Shannon/oxy-cls/engine/cluster"
	"github.com/Carmen-Shannon/oxy-cls/engine/gpu"
	"github.com/Carmen-Shannon/oxy-cls/engine/renderstate"
	"github.com/Carmen-Shannon/oxy-cls/engine/shader"
	"github.com/go-gl/mathgl/mgl64"
)

// ProgramLabel is the label of the debug draw program.
const ProgramLabel = "cluster.debug"

// RoleDebugParams is the binding role of the per-pass uniform block.
const RoleDebugParams = "debug_params"

// SlotDebugParams is the binding slot of the per-pass uniform block, after the cluster slots.
const SlotDebugParams uint32 = 12

// CubeIndexCount is the index count of the unit cube drawn per cell.
const CubeIndexCount = 36

//go:embed assets/cluster_debug.wgsl
var clusterDebugSource string

// Device is a device that can dispatch, draw and switch fixed-function state.
type Device interface {
	gpu.Device
	gpu.Drawer
	renderstate.Device
}

// Parameters selects what Render draws.
type Parameters struct {
	// Resources is the render target whose grid is drawn. Its pipeline must have run this frame
	// for the active-cell modes to show anything.
	Resources *cluster.Resources

	// CluCamToRenClp maps cluster camera space into the clip space of the target being drawn to.
	CluCamToRenClp mgl64.Mat4

	// Visualisation is the coloring mode.
	Visualisation Visualisation

	// VisibleOnly draws only active cells using the indirect draw command written by compaction.
	VisibleOnly bool
}

type binding struct {
	slot uint32
	role string
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	dev      Device
	shader   shader.Shader
	program  gpu.Program
	bindings []binding
	params   [2]*gpu.DynamicBuffer

	state     *renderstate.Cache
	baseState renderstate.RenderState
}

// Renderer draws cluster grids for inspection.
type Renderer interface {
	// Render draws the grid of p.Resources. The opaque pass always runs; volumetric modes add
	// a second pass with depth writes off and additive blending. Fixed-function state is
	// returned to the base state afterwards.
	//
	// Parameters:
	//   - p: what to draw
	//
	// Returns:
	//   - error: cluster.ErrNotComputed when the resources hold no grid
	Render(p Parameters) error

	// Shader returns the parsed debug program.
	Shader() shader.Shader

	// Release deletes the uniform buffers.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer parses and compiles the debug program on dev.
//
// Parameters:
//   - dev: the device to draw with
//   - options: functional options for the renderer
//
// Returns:
//   - Renderer: the ready renderer
//   - error: error if the program fails to compile or binds an unknown buffer
func NewRenderer(dev Device, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		dev:       dev,
		state:     &renderstate.Cache{},
		baseState: renderstate.Default(),
	}
	for _, opt := range options {
		opt(r)
	}

	structs := append(cluster.ShaderStructs(), shader.WithStruct("debug_params", GPUDebugParamsSource, "DebugParams"))
	r.shader = shader.NewShader(ProgramLabel, shader.ShaderTypeVertex, clusterDebugSource, structs...)

	for _, decl := range r.shader.Declarations() {
		role := decl.Role()
		slot, ok := cluster.RoleSlots[role]
		if role == RoleDebugParams {
			slot, ok = SlotDebugParams, true
		}
		if !ok {
			return nil, fmt.Errorf("clusterviz: unknown buffer %q", role)
		}
		if *decl.Group != 0 || uint32(*decl.Binding) != slot {
			return nil, fmt.Errorf("clusterviz: %q bound at %d/%d, want 0/%d", role, *decl.Group, *decl.Binding, slot)
		}
		r.bindings = append(r.bindings, binding{slot: slot, role: role})
	}

	prog, err := dev.CreateProgram(gpu.ProgramDesc{
		Label:      r.shader.Key(),
		Source:     r.shader.Source(),
		EntryPoint: r.shader.EntryPoint(),
	})
	if err != nil {
		return nil, fmt.Errorf("clusterviz: compiling debug program: %w", err)
	}
	r.program = prog

	for i := range r.params {
		r.params[i] = gpu.NewDynamicBuffer(dev, RoleDebugParams, gpu.UsageUniform)
		r.params[i].EnsureCapacity(GPUDebugParamsSize)
	}
	return r, nil
}

func (r *renderer) Shader() shader.Shader {
	return r.shader
}

func (r *renderer) Render(p Parameters) error {
	if p.Resources == nil || p.Resources.Computed().ClusterCount() == 0 {
		return cluster.ErrNotComputed
	}

	opaque := r.baseState
	opaque.Depth = renderstate.DepthState{Enabled: true, Func: renderstate.CompareGreater, Mask: true}
	opaque.Blend.Enabled = false
	r.state.Reconcile(r.dev, opaque)
	r.draw(p, 0)

	if p.Visualisation.Volumetric() {
		additive := opaque
		additive.Depth.Mask = false
		additive.Blend = renderstate.BlendState{Enabled: true, Src: renderstate.BlendSrcAlpha, Dst: renderstate.BlendOne}
		r.state.Reconcile(r.dev, additive)
		r.draw(p, 1)
	}

	r.state.Reconcile(r.dev, r.baseState)

	common.Logger().Debug("cluster grid drawn",
		"visualisation", p.Visualisation,
		"visible_only", p.VisibleOnly,
	)
	return nil
}

func (r *renderer) draw(p Parameters, pass uint32) {
	block := NewGPUDebugParams(p.CluCamToRenClp, p.Visualisation, p.VisibleOnly, pass)
	r.params[pass].Write(block.Marshal())

	bindings := make([]gpu.Binding, len(r.bindings))
	for i, b := range r.bindings {
		name := r.params[pass].Name()
		if b.role != RoleDebugParams {
			name, _ = p.Resources.Buffer(b.role)
		}
		bindings[i] = gpu.Binding{Slot: b.slot, Buffer: name}
	}

	if p.VisibleOnly {
		commands, _ := p.Resources.Buffer(cluster.RoleDrawCommands)
		r.dev.DrawIndirect(r.program, bindings, commands, 0)
		return
	}
	r.dev.DrawInstanced(r.program, bindings, CubeIndexCount, p.Resources.Computed().ClusterCount())
}

func (r *renderer) Release() {
	for _, b := range r.params {
		b.Release()
	}
}
