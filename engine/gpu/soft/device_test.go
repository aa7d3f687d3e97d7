package soft

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-cls/engine/gpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fill writes each workgroup's flattened index into its own word.
func fill(inv Invocation) {
	i := inv.Group[0] + inv.Groups[0]*(inv.Group[1]+inv.Groups[1]*inv.Group[2])
	inv.PutU32(0, int(i), i+1)
}

func TestDispatchRunsEveryGroup(t *testing.T) {
	for _, workers := range []int{0, 4} {
		dev := NewDevice(WithWorkers(workers), WithKernel("fill", fill))
		out := dev.CreateBuffer("out", gpu.UsageStorage)
		dev.ReserveBuffer(out, 4*24)

		p, err := dev.CreateProgram(gpu.ProgramDesc{Label: "fill"})
		require.NoError(t, err)
		dev.Dispatch(p, []gpu.Binding{{Slot: 0, Buffer: out}}, [3]uint32{2, 3, 4})

		words := dev.U32s(out)
		for i, w := range words {
			assert.Equal(t, uint32(i+1), w, "workers=%d word=%d", workers, i)
		}
	}
}

func TestDispatchIndirectReadsCommand(t *testing.T) {
	dev := NewDevice(WithKernel("fill", fill))
	out := dev.CreateBuffer("out", gpu.UsageStorage)
	dev.ReserveBuffer(out, 16)
	cmds := dev.CreateBuffer("cmds", gpu.UsageIndirect)
	dev.ReserveBuffer(cmds, 24)
	dev.WriteBuffer(cmds, 0, gpu.MarshalComputeCommands([]gpu.ComputeCommand{{WorkGroupX: 0, WorkGroupY: 1, WorkGroupZ: 1}, {WorkGroupX: 3, WorkGroupY: 1, WorkGroupZ: 1}}))

	p, err := dev.CreateProgram(gpu.ProgramDesc{Label: "fill"})
	require.NoError(t, err)

	dev.DispatchIndirect(p, []gpu.Binding{{Slot: 0, Buffer: out}}, cmds, 0)
	assert.Equal(t, []uint32{0, 0, 0, 0}, dev.U32s(out))

	dev.DispatchIndirect(p, []gpu.Binding{{Slot: 0, Buffer: out}}, cmds, 12)
	assert.Equal(t, []uint32{1, 2, 3, 0}, dev.U32s(out))

	dispatches := Filter(dev.Log(), CommandDispatchIndirect)
	require.Len(t, dispatches, 2)
	assert.Equal(t, [3]uint32{3, 1, 1}, dispatches[1].Groups)
}

func TestUnknownKernel(t *testing.T) {
	dev := NewDevice()
	_, err := dev.CreateProgram(gpu.ProgramDesc{Label: "missing"})
	assert.Error(t, err)
}

func TestWriteOverflowPanics(t *testing.T) {
	dev := NewDevice()
	b := dev.CreateBuffer("small", gpu.UsageStorage)
	dev.ReserveBuffer(b, 4)
	assert.Panics(t, func() { dev.WriteBuffer(b, 0, make([]byte, 8)) })
}

func TestInvalidateFillsPattern(t *testing.T) {
	dev := NewDevice()
	b := dev.CreateBuffer("b", gpu.UsageStorage)
	dev.ReserveBuffer(b, 4)
	dev.InvalidateBuffer(b)
	assert.Equal(t, []byte{invalidFill, invalidFill, invalidFill, invalidFill}, dev.Bytes(b))
}
