// Package soft provides a host-memory implementation of gpu.Device.
//
// Programs are not compiled: each ProgramDesc label resolves to a Go Kernel registered
// on the device, which runs once per workgroup. Workgroups of a single dispatch may run
// in parallel on a worker pool; dispatches themselves run in submission order.
// Every submitted operation is appended to a command log for inspection.
package soft

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-cls/engine/gpu"
	"github.com/Carmen-Shannon/oxy-cls/engine/renderstate"
)

// invalidFill is written over invalidated buffers so stale reads are visible.
const invalidFill = 0xCD

// Invocation is the context passed to a Kernel for one workgroup.
type Invocation struct {
	Group   [3]uint32
	Groups  [3]uint32
	buffers map[uint32][]byte
}

// Buffer returns the storage bound at slot, or nil when nothing is bound.
// Kernels running in parallel must write disjoint byte ranges.
func (inv Invocation) Buffer(slot uint32) []byte {
	return inv.buffers[slot]
}

// U32 reads the little-endian word at index i of the buffer bound at slot.
func (inv Invocation) U32(slot uint32, i int) uint32 {
	return binary.LittleEndian.Uint32(inv.buffers[slot][4*i:])
}

// PutU32 writes the little-endian word at index i of the buffer bound at slot.
func (inv Invocation) PutU32(slot uint32, i int, v uint32) {
	binary.LittleEndian.PutUint32(inv.buffers[slot][4*i:], v)
}

// Words returns the number of whole 32-bit words in the buffer bound at slot.
func (inv Invocation) Words(slot uint32) int {
	return len(inv.buffers[slot]) / 4
}

// Kernel executes one workgroup of a dispatch.
type Kernel func(inv Invocation)

type buffer struct {
	label string
	usage gpu.Usage
	data  []byte
}

type program struct {
	label  string
	kernel Kernel
}

// Device is a software gpu.Device, gpu.Drawer and renderstate.Device.
// It is not safe for concurrent use.
type Device struct {
	kernels    map[string]Kernel
	buffers    map[gpu.BufferName]*buffer
	programs   []program
	nextBuffer gpu.BufferName
	log        []Command

	workers int
	pool    worker.DynamicWorkerPool
}

var (
	_ gpu.Device         = &Device{}
	_ gpu.Drawer         = &Device{}
	_ renderstate.Device = &Device{}
)

// NewDevice creates a software device with the provided options applied.
//
// Parameters:
//   - options: functional options for device configuration
//
// Returns:
//   - *Device: the new device
func NewDevice(options ...DeviceBuilderOption) *Device {
	d := &Device{
		kernels: make(map[string]Kernel),
		buffers: make(map[gpu.BufferName]*buffer),
	}
	for _, opt := range options {
		opt(d)
	}
	if d.workers > 1 {
		d.pool = worker.NewDynamicWorkerPool(d.workers, 256, 1*time.Second)
	}
	return d
}

// Register binds a kernel to a program label. Programs created with that label run it.
func (d *Device) Register(label string, k Kernel) {
	d.kernels[label] = k
}

func (d *Device) CreateBuffer(label string, usage gpu.Usage) gpu.BufferName {
	d.nextBuffer++
	name := d.nextBuffer
	d.buffers[name] = &buffer{label: label, usage: usage}
	d.record(Command{Kind: CommandCreateBuffer, Buffer: name, Label: label})
	return name
}

func (d *Device) DeleteBuffer(name gpu.BufferName) {
	b := d.lookup(name)
	delete(d.buffers, name)
	d.record(Command{Kind: CommandDeleteBuffer, Buffer: name, Label: b.label})
}

func (d *Device) ReserveBuffer(name gpu.BufferName, size int) {
	b := d.lookup(name)
	b.data = make([]byte, size)
	d.record(Command{Kind: CommandReserveBuffer, Buffer: name, Label: b.label, Size: size})
}

func (d *Device) WriteBuffer(name gpu.BufferName, offset int, data []byte) {
	b := d.lookup(name)
	if offset < 0 || offset+len(data) > len(b.data) {
		panic(fmt.Sprintf("soft: write of %d bytes at %d overflows %q (%d bytes)", len(data), offset, b.label, len(b.data)))
	}
	copy(b.data[offset:], data)
	d.record(Command{Kind: CommandWriteBuffer, Buffer: name, Label: b.label, Offset: offset, Size: len(data)})
}

func (d *Device) ClearBuffer(name gpu.BufferName, offset, size int) {
	b := d.lookup(name)
	if offset < 0 || offset+size > len(b.data) {
		panic(fmt.Sprintf("soft: clear of %d bytes at %d overflows %q (%d bytes)", size, offset, b.label, len(b.data)))
	}
	clear(b.data[offset : offset+size])
	d.record(Command{Kind: CommandClearBuffer, Buffer: name, Label: b.label, Offset: offset, Size: size})
}

func (d *Device) InvalidateBuffer(name gpu.BufferName) {
	b := d.lookup(name)
	for i := range b.data {
		b.data[i] = invalidFill
	}
	d.record(Command{Kind: CommandInvalidateBuffer, Buffer: name, Label: b.label})
}

func (d *Device) CreateProgram(desc gpu.ProgramDesc) (gpu.Program, error) {
	k, ok := d.kernels[desc.Label]
	if !ok {
		return 0, fmt.Errorf("soft: no kernel registered for program %q", desc.Label)
	}
	d.programs = append(d.programs, program{label: desc.Label, kernel: k})
	return gpu.Program(len(d.programs)), nil
}

func (d *Device) Dispatch(p gpu.Program, bindings []gpu.Binding, groups [3]uint32) {
	prog := d.program(p)
	d.record(Command{Kind: CommandDispatch, Label: prog.label, Groups: groups})
	d.run(prog, bindings, groups)
}

func (d *Device) DispatchIndirect(p gpu.Program, bindings []gpu.Binding, commands gpu.BufferName, offset int) {
	prog := d.program(p)
	cmd := gpu.UnmarshalComputeCommand(d.lookup(commands).data[offset:])
	groups := [3]uint32{cmd.WorkGroupX, cmd.WorkGroupY, cmd.WorkGroupZ}
	d.record(Command{Kind: CommandDispatchIndirect, Label: prog.label, Buffer: commands, Offset: offset, Groups: groups})
	d.run(prog, bindings, groups)
}

func (d *Device) DrawIndirect(p gpu.Program, bindings []gpu.Binding, commands gpu.BufferName, offset int) {
	prog := d.program(p)
	cmd := gpu.UnmarshalDrawCommand(d.lookup(commands).data[offset:])
	d.record(Command{
		Kind:      CommandDrawIndirect,
		Label:     prog.label,
		Buffer:    commands,
		Offset:    offset,
		Indices:   cmd.Count,
		Instances: cmd.PrimCount,
		Bindings:  d.bindingLabels(bindings),
	})
}

func (d *Device) DrawInstanced(p gpu.Program, bindings []gpu.Binding, indexCount, instanceCount uint32) {
	prog := d.program(p)
	d.record(Command{
		Kind:      CommandDrawInstanced,
		Label:     prog.label,
		Indices:   indexCount,
		Instances: instanceCount,
		Bindings:  d.bindingLabels(bindings),
	})
}

// Bytes returns a copy of the buffer contents.
func (d *Device) Bytes(name gpu.BufferName) []byte {
	return append([]byte(nil), d.lookup(name).data...)
}

// U32s returns the buffer contents decoded as little-endian words.
func (d *Device) U32s(name gpu.BufferName) []uint32 {
	return gpu.UnmarshalU32s(d.lookup(name).data)
}

// Live reports whether name refers to an existing buffer.
func (d *Device) Live(name gpu.BufferName) bool {
	_, ok := d.buffers[name]
	return ok
}

// BufferCount returns the number of live buffers.
func (d *Device) BufferCount() int {
	return len(d.buffers)
}

// Log returns the commands recorded since creation or the last ClearLog.
func (d *Device) Log() []Command {
	return append([]Command(nil), d.log...)
}

// ClearLog discards the recorded commands.
func (d *Device) ClearLog() {
	d.log = d.log[:0]
}

func (d *Device) run(prog program, bindings []gpu.Binding, groups [3]uint32) {
	total := int(groups[0]) * int(groups[1]) * int(groups[2])
	if total == 0 {
		return
	}

	bufs := make(map[uint32][]byte, len(bindings))
	for _, b := range bindings {
		bufs[b.Slot] = d.lookup(b.Buffer).data
	}

	invocation := func(i int) Invocation {
		x := uint32(i) % groups[0]
		y := (uint32(i) / groups[0]) % groups[1]
		z := uint32(i) / (groups[0] * groups[1])
		return Invocation{Group: [3]uint32{x, y, z}, Groups: groups, buffers: bufs}
	}

	if d.pool == nil || total == 1 {
		for i := 0; i < total; i++ {
			prog.kernel(invocation(i))
		}
		return
	}

	// the WaitGroup is the per-dispatch barrier; pool workers persist across dispatches
	var wg sync.WaitGroup
	wg.Add(total)
	for i := 0; i < total; i++ {
		inv := invocation(i)
		d.pool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				prog.kernel(inv)
				return nil, nil
			},
		})
	}
	wg.Wait()
}

func (d *Device) lookup(name gpu.BufferName) *buffer {
	b, ok := d.buffers[name]
	if !ok {
		panic(fmt.Sprintf("soft: unknown buffer %d", name))
	}
	return b
}

func (d *Device) program(p gpu.Program) program {
	if p == 0 || int(p) > len(d.programs) {
		panic(fmt.Sprintf("soft: unknown program %d", p))
	}
	return d.programs[p-1]
}

func (d *Device) bindingLabels(bindings []gpu.Binding) map[uint32]string {
	out := make(map[uint32]string, len(bindings))
	for _, b := range bindings {
		out[b.Slot] = d.lookup(b.Buffer).label
	}
	return out
}

func (d *Device) record(c Command) {
	d.log = append(d.log, c)
}
