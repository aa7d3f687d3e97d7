package cluster

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-cls/common"
	"github.com/Carmen-Shannon/oxy-cls/engine/gpu"
	"github.com/Carmen-Shannon/oxy-cls/engine/light"
	"github.com/Carmen-Shannon/oxy-cls/engine/shader"
)

// ErrNotComputed is returned by Execute when the resources hold no fitted grid.
var ErrNotComputed = errors.New("cluster: grid has not been computed")

var (
	//go:embed assets/compact_clusters.wgsl
	compactClustersSource string

	//go:embed assets/count_lights.wgsl
	countLightsSource string

	//go:embed assets/light_offsets.wgsl
	lightOffsetsSource string

	//go:embed assets/assign_lights.wgsl
	assignLightsSource string
)

// programSources holds the WGSL of every stage that runs on the device.
// StageUploadLights is a host write and has no program.
var programSources = map[Stage]string{
	StageCompactClusters: compactClustersSource,
	StageCountLights:     countLightsSource,
	StageLightOffsets:    lightOffsetsSource,
	StageAssignLights:    assignLightsSource,
}

// binding pairs a program slot with the buffer role bound to it.
type binding struct {
	slot uint32
	role string
}

// Pipeline runs the five light assignment stages over a Resources.
// Programs are compiled once and shared by every render target on the device.
type Pipeline struct {
	dev      gpu.Device
	shaders  StageMap[shader.Shader]
	programs StageMap[gpu.Program]
	bindings StageMap[[]binding]
}

// NewPipeline parses and compiles every stage program on dev. The software device
// resolves programs by stage title, so the matching kernels must be registered first.
//
// Parameters:
//   - dev: the device to compile on
//
// Returns:
//   - *Pipeline: the ready pipeline
//   - error: error if a program fails to compile or declares an unknown binding
func NewPipeline(dev gpu.Device) (*Pipeline, error) {
	p := &Pipeline{dev: dev}

	for _, stage := range Stages {
		src, ok := programSources[stage]
		if !ok {
			continue
		}
		s := shader.NewShader(stage.Title(), shader.ShaderTypeCompute, src, ShaderStructs()...)

		bindings, err := stageBindings(s)
		if err != nil {
			return nil, err
		}

		prog, err := dev.CreateProgram(gpu.ProgramDesc{
			Label:      s.Key(),
			Source:     s.Source(),
			EntryPoint: s.EntryPoint(),
		})
		if err != nil {
			return nil, fmt.Errorf("cluster: compiling %s: %w", stage, err)
		}

		p.shaders[stage] = s
		p.programs[stage] = prog
		p.bindings[stage] = bindings
	}
	return p, nil
}

// stageBindings maps a program's binding declarations onto buffer roles, checking each
// declared slot against RoleSlots.
func stageBindings(s shader.Shader) ([]binding, error) {
	var out []binding
	for _, decl := range s.Declarations() {
		role := decl.Role()
		slot, ok := RoleSlots[role]
		if !ok {
			return nil, fmt.Errorf("cluster: %s binds unknown buffer %q", s.Key(), role)
		}
		if *decl.Group != 0 || uint32(*decl.Binding) != slot {
			return nil, fmt.Errorf("cluster: %s binds %q at %d/%d, want 0/%d", s.Key(), role, *decl.Group, *decl.Binding, slot)
		}
		out = append(out, binding{slot: slot, role: role})
	}
	return out, nil
}

// Shader returns the parsed program of a stage, or nil for host-only stages.
func (p *Pipeline) Shader(s Stage) shader.Shader {
	return p.shaders[s]
}

// Execute submits every stage in order on the device's command stream, each wrapped in
// the stage's profiler sample. Nothing is read back; results stay on the device.
//
// Parameters:
//   - r: the resources of one render target, after Recompute and BeginFrame
//   - lights: the scene lights; disabled and directional lights are skipped
//
// Returns:
//   - error: ErrNotComputed when the grid is empty
func (p *Pipeline) Execute(r *Resources, lights []light.Light) error {
	if r.Computed().ClusterCount() == 0 {
		return ErrNotComputed
	}

	prof := r.Profiler()
	for _, stage := range Stages {
		prof.Begin(r.Sample(stage))
		p.run(stage, r, lights)
		prof.End(r.Sample(stage))
	}

	common.Logger().Debug("cluster pipeline submitted",
		"clusters", r.Computed().ClusterCount(),
		"lights", r.LightCount(),
	)
	return nil
}

func (p *Pipeline) run(stage Stage, r *Resources, lights []light.Light) {
	switch stage {
	case StageCompactClusters:
		p.dev.Dispatch(p.programs[stage], p.bind(stage, r), [3]uint32{1, 1, 1})
	case StageUploadLights:
		r.uploadLights(lights)
	case StageCountLights:
		p.dispatchIndirect(stage, r, CountLightsCommandOffset)
	case StageLightOffsets:
		p.dispatchIndirect(stage, r, LightOffsetsCommandOffset)
	case StageAssignLights:
		p.dispatchIndirect(stage, r, AssignLightsCommandOffset)
	}
}

func (p *Pipeline) dispatchIndirect(stage Stage, r *Resources, offset int) {
	commands, _ := r.Buffer(RoleComputeCommands)
	p.dev.DispatchIndirect(p.programs[stage], p.bind(stage, r), commands, offset)
}

// bind resolves buffer names every frame since storage buffers are renamed on resize.
func (p *Pipeline) bind(stage Stage, r *Resources) []gpu.Binding {
	decls := p.bindings[stage]
	out := make([]gpu.Binding, len(decls))
	for i, b := range decls {
		name, _ := r.Buffer(b.role)
		out[i] = gpu.Binding{Slot: b.slot, Buffer: name}
	}
	return out
}
