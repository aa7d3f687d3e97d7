package gpu

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-cls/common"
	"github.com/Carmen-Shannon/oxy-cls/engine/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/naga"
)

// wgpuMinBufferSize is the smallest allocation made for a buffer; zero-sized bindings are invalid.
const wgpuMinBufferSize = 16

type wgpuBuffer struct {
	label string
	usage wgpu.BufferUsage
	buf   *wgpu.Buffer
	size  int
}

type wgpuProgram struct {
	label          string
	pipeline       *wgpu.ComputePipeline
	pipelineLayout *wgpu.PipelineLayout
	layout         *wgpu.BindGroupLayout
}

// WGPUDevice is a headless compute Device backed by WebGPU.
//
// Each dispatch is encoded and submitted immediately on the device queue, so queue
// order is submission order. Host writes go through the queue as well and are ordered
// with dispatches.
type WGPUDevice struct {
	mu *sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	buffers    map[BufferName]*wgpuBuffer
	programs   []wgpuProgram
	nextBuffer BufferName

	forceFallbackAdapter bool
	validate             bool
}

var _ Device = &WGPUDevice{}

// WGPUDeviceBuilderOption is a function that configures a WGPUDevice during construction.
type WGPUDeviceBuilderOption func(*WGPUDevice)

// WithFallbackAdapter forces the software fallback adapter.
//
// Parameters:
//   - force: true to request the fallback adapter
//
// Returns:
//   - WGPUDeviceBuilderOption: option function to apply
func WithFallbackAdapter(force bool) WGPUDeviceBuilderOption {
	return func(d *WGPUDevice) {
		d.forceFallbackAdapter = force
	}
}

// WithShaderValidation enables or disables WGSL validation with naga before module creation.
// Enabled by default.
//
// Parameters:
//   - enabled: true to validate
//
// Returns:
//   - WGPUDeviceBuilderOption: option function to apply
func WithShaderValidation(enabled bool) WGPUDeviceBuilderOption {
	return func(d *WGPUDevice) {
		d.validate = enabled
	}
}

// NewWGPUDevice requests an adapter and device without a presentation surface.
//
// Parameters:
//   - options: functional options for device configuration
//
// Returns:
//   - *WGPUDevice: the ready device
//   - error: error if no adapter or device could be acquired
func NewWGPUDevice(options ...WGPUDeviceBuilderOption) (*WGPUDevice, error) {
	d := &WGPUDevice{
		mu:       &sync.Mutex{},
		buffers:  make(map[BufferName]*wgpuBuffer),
		validate: true,
	}
	for _, opt := range options {
		opt(d)
	}

	d.instance = wgpu.CreateInstance(nil)
	a, err := d.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: d.forceFallbackAdapter,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: requesting adapter: %w", err)
	}
	d.adapter = a

	dev, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Cluster Device",
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: requesting device: %w", err)
	}
	d.device = dev
	d.queue = dev.GetQueue()

	common.Logger().Info("wgpu device ready", "fallback", d.forceFallbackAdapter)
	return d, nil
}

func (d *WGPUDevice) CreateBuffer(label string, usage Usage) BufferName {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextBuffer++
	d.buffers[d.nextBuffer] = &wgpuBuffer{label: label, usage: toWGPUUsage(usage)}
	return d.nextBuffer
}

func (d *WGPUDevice) DeleteBuffer(name BufferName) {
	d.mu.Lock()
	defer d.mu.Unlock()

	b := d.lookup(name)
	if b.buf != nil {
		b.buf.Release()
	}
	delete(d.buffers, name)
}

// ReserveBuffer replaces the backing wgpu buffer. Allocation failure is unrecoverable.
func (d *WGPUDevice) ReserveBuffer(name BufferName, size int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	b := d.lookup(name)
	if b.buf != nil {
		b.buf.Release()
		b.buf = nil
	}
	alloc := common.RoundUp(max(size, wgpuMinBufferSize), 4)
	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: b.label,
		Size:  uint64(alloc),
		Usage: b.usage,
	})
	if err != nil {
		panic(fmt.Errorf("gpu: allocating %d bytes for %q: %w", alloc, b.label, err))
	}
	b.buf = buf
	b.size = size
}

func (d *WGPUDevice) WriteBuffer(name BufferName, offset int, data []byte) {
	if len(data) == 0 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	b := d.lookup(name)
	d.queue.WriteBuffer(b.buf, uint64(offset), data)
}

func (d *WGPUDevice) ClearBuffer(name BufferName, offset, size int) {
	if size == 0 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	b := d.lookup(name)
	d.submit(func(encoder *wgpu.CommandEncoder) {
		encoder.ClearBuffer(b.buf, uint64(offset), uint64(size))
	})
}

// InvalidateBuffer is a no-op: WebGPU has no contents-discard hint.
func (d *WGPUDevice) InvalidateBuffer(name BufferName) {}

func (d *WGPUDevice) CreateProgram(desc ProgramDesc) (Program, error) {
	if d.validate {
		if _, err := naga.Compile(desc.Source); err != nil {
			return 0, fmt.Errorf("gpu: validating %q: %w", desc.Label, err)
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	module, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: desc.Label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: desc.Source,
		},
	})
	if err != nil {
		return 0, fmt.Errorf("gpu: creating shader module %q: %w", desc.Label, err)
	}
	defer module.Release()

	descriptors, _ := shader.ParseBindGroupLayouts(desc.Source, wgpu.ShaderStageCompute)
	groupDesc, ok := descriptors[0]
	if !ok || len(descriptors) != 1 {
		return 0, fmt.Errorf("gpu: program %q must declare its bindings in group 0 only", desc.Label)
	}
	groupDesc.Label = desc.Label + " Bind Group Layout"
	bgl, err := d.device.CreateBindGroupLayout(&groupDesc)
	if err != nil {
		return 0, fmt.Errorf("gpu: creating bind group layout %q: %w", desc.Label, err)
	}

	layout, err := d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Label,
		BindGroupLayouts: []*wgpu.BindGroupLayout{bgl},
	})
	if err != nil {
		bgl.Release()
		return 0, fmt.Errorf("gpu: creating pipeline layout %q: %w", desc.Label, err)
	}

	pipeline, err := d.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  desc.Label + " Compute Pipeline",
		Layout: layout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: desc.EntryPoint,
		},
	})
	if err != nil {
		layout.Release()
		bgl.Release()
		return 0, fmt.Errorf("gpu: creating compute pipeline %q: %w", desc.Label, err)
	}

	d.programs = append(d.programs, wgpuProgram{
		label:          desc.Label,
		pipeline:       pipeline,
		pipelineLayout: layout,
		layout:         bgl,
	})
	common.Logger().Debug("program created", "label", desc.Label)
	return Program(len(d.programs)), nil
}

func (d *WGPUDevice) Dispatch(p Program, bindings []Binding, groups [3]uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.dispatch(p, bindings, func(pass *wgpu.ComputePassEncoder) {
		pass.DispatchWorkgroups(groups[0], groups[1], groups[2])
	})
}

func (d *WGPUDevice) DispatchIndirect(p Program, bindings []Binding, commands BufferName, offset int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	cmd := d.lookup(commands)
	d.dispatch(p, bindings, func(pass *wgpu.ComputePassEncoder) {
		pass.DispatchWorkgroupsIndirect(cmd.buf, uint64(offset))
	})
}

// Release destroys every buffer and program and the device itself.
func (d *WGPUDevice) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for name, b := range d.buffers {
		if b.buf != nil {
			b.buf.Release()
		}
		delete(d.buffers, name)
	}
	for _, p := range d.programs {
		p.pipeline.Release()
		p.pipelineLayout.Release()
		p.layout.Release()
	}
	d.programs = nil
	d.queue.Release()
	d.device.Release()
	d.adapter.Release()
	d.instance.Release()
}

func (d *WGPUDevice) dispatch(p Program, bindings []Binding, encode func(pass *wgpu.ComputePassEncoder)) {
	prog := d.programs[p-1]

	entries := make([]wgpu.BindGroupEntry, len(bindings))
	for i, b := range bindings {
		entries[i] = wgpu.BindGroupEntry{
			Binding: b.Slot,
			Buffer:  d.lookup(b.Buffer).buf,
			Offset:  0,
			Size:    wgpu.WholeSize,
		}
	}
	bindGroup, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   prog.label + " Bind Group",
		Layout:  prog.layout,
		Entries: entries,
	})
	if err != nil {
		common.Logger().Warn("dispatch skipped", "program", prog.label, "error", err)
		return
	}
	defer bindGroup.Release()

	d.submit(func(encoder *wgpu.CommandEncoder) {
		pass := encoder.BeginComputePass(nil)
		pass.SetPipeline(prog.pipeline)
		pass.SetBindGroup(0, bindGroup, nil)
		encode(pass)
		pass.End()
	})
}

// submit encodes one command buffer and queues it. Callers hold d.mu.
func (d *WGPUDevice) submit(encode func(encoder *wgpu.CommandEncoder)) {
	encoder, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		common.Logger().Warn("command encoder unavailable", "error", err)
		return
	}
	defer encoder.Release()

	encode(encoder)

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		common.Logger().Warn("command encoding failed", "error", err)
		return
	}
	d.queue.Submit(commandBuffer)
	commandBuffer.Release()
}

func (d *WGPUDevice) lookup(name BufferName) *wgpuBuffer {
	b, ok := d.buffers[name]
	if !ok {
		panic(fmt.Sprintf("gpu: unknown buffer %d", name))
	}
	return b
}

func toWGPUUsage(u Usage) wgpu.BufferUsage {
	var out wgpu.BufferUsage
	if u&UsageStorage != 0 {
		out |= wgpu.BufferUsageStorage
	}
	if u&UsageUniform != 0 {
		out |= wgpu.BufferUsageUniform
	}
	if u&UsageIndirect != 0 {
		out |= wgpu.BufferUsageIndirect
	}
	if u&UsageCopyDst != 0 {
		out |= wgpu.BufferUsageCopyDst
	}
	return out
}
