package gpu_test

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-cls/engine/gpu"
	"github.com/Carmen-Shannon/oxy-cls/engine/gpu/soft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureCapacityNeverShrinks(t *testing.T) {
	dev := soft.NewDevice()
	b := gpu.NewDynamicBuffer(dev, "test", gpu.UsageStorage)

	assert.True(t, b.EnsureCapacity(100))
	assert.Equal(t, 112, b.Capacity())

	for _, n := range []int{0, 1, 50, 112} {
		assert.False(t, b.EnsureCapacity(n), "n=%d", n)
		assert.Equal(t, 112, b.Capacity())
	}
}

func TestEnsureCapacityGrowth(t *testing.T) {
	tests := []struct {
		name     string
		initial  int
		request  int
		expected int
	}{
		{name: "from empty", initial: 0, request: 4, expected: 16},
		{name: "heuristic wins", initial: 160, request: 161, expected: 240},
		{name: "request wins", initial: 160, request: 1000, expected: 1008},
		{name: "heuristic rounded", initial: 112, request: 120, expected: 176},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := soft.NewDevice()
			b := gpu.NewDynamicBuffer(dev, "test", gpu.UsageStorage)
			if tt.initial > 0 {
				b.EnsureCapacity(tt.initial)
				require.Equal(t, tt.initial, b.Capacity())
			}
			old := b.Capacity()

			b.EnsureCapacity(tt.request)
			c := b.Capacity()
			assert.Equal(t, tt.expected, c)
			assert.GreaterOrEqual(t, c, max(tt.request, old+old/2))
			assert.Zero(t, c%gpu.DynamicBufferAlignment)
			assert.Len(t, dev.Bytes(b.Name()), c)
		})
	}
}

func TestDynamicBufferWriteAndClear(t *testing.T) {
	dev := soft.NewDevice()
	b := gpu.NewDynamicBuffer(dev, "test", gpu.UsageStorage)
	b.EnsureCapacity(16)

	b.Write(gpu.MarshalU32s([]uint32{1, 2, 3, 4}))
	b.WriteAt(4, gpu.MarshalU32s([]uint32{9}))
	assert.Equal(t, []uint32{1, 9, 3, 4}, dev.U32s(b.Name()))

	b.ClearU32(8)
	assert.Equal(t, []uint32{0, 0, 3, 4}, dev.U32s(b.Name()))
}

func TestUploadIsExact(t *testing.T) {
	dev := soft.NewDevice()
	b := gpu.NewDynamicBuffer(dev, "lights", gpu.UsageStorage)

	b.Upload(make([]byte, 48))
	assert.Equal(t, 48, b.Capacity())
	b.Upload(make([]byte, 16))
	assert.Equal(t, 16, b.Capacity())
	b.Upload(nil)
	assert.Equal(t, 0, b.Capacity())
}

func TestStorageReconcile(t *testing.T) {
	dev := soft.NewDevice()
	b := gpu.NewStorageBuffer(dev, "counts", gpu.UsageStorage)

	assert.Equal(t, gpu.ReconcileInvalidated, b.Reconcile(0))
	assert.Equal(t, 0, b.Capacity())

	assert.Equal(t, gpu.ReconcileGrown, b.Reconcile(100))
	assert.Equal(t, 128, b.Capacity())
	first := b.Name()

	// within [2/3 cap, cap]: keep the allocation
	dev.ClearLog()
	assert.Equal(t, gpu.ReconcileInvalidated, b.Reconcile(90))
	assert.Equal(t, 128, b.Capacity())
	assert.Equal(t, first, b.Name())
	invalidations := soft.Filter(dev.Log(), soft.CommandInvalidateBuffer)
	assert.Len(t, invalidations, 1)

	// grow uses the 1.5x heuristic and recreates the buffer
	assert.Equal(t, gpu.ReconcileGrown, b.Reconcile(130))
	assert.Equal(t, 192, b.Capacity())
	assert.NotEqual(t, first, b.Name())
	assert.False(t, dev.Live(first))

	// below two thirds: shrink to the request
	second := b.Name()
	assert.Equal(t, gpu.ReconcileShrunk, b.Reconcile(10))
	assert.Equal(t, 64, b.Capacity())
	assert.NotEqual(t, second, b.Name())
	assert.Equal(t, 1, dev.BufferCount())
}

func TestStorageReconcileShrinkToSameRoundedCapacity(t *testing.T) {
	dev := soft.NewDevice()
	b := gpu.NewStorageBuffer(dev, "counts", gpu.UsageStorage)
	require.Equal(t, gpu.ReconcileGrown, b.Reconcile(64))
	name := b.Name()

	dev.ClearLog()
	assert.Equal(t, gpu.ReconcileInvalidated, b.Reconcile(1))
	assert.Equal(t, 64, b.Capacity())
	assert.Equal(t, name, b.Name())
	assert.True(t, dev.Live(name))
	assert.Len(t, soft.Filter(dev.Log(), soft.CommandInvalidateBuffer), 1)
}

func TestCommandLayouts(t *testing.T) {
	draw := gpu.DrawCommand{Count: 36, PrimCount: 7, FirstIndex: 1, BaseVertex: 2, BaseInstance: 3}
	raw := draw.Marshal()
	require.Len(t, raw, 20)
	assert.Equal(t, []uint32{36, 7, 1, 2, 3}, gpu.UnmarshalU32s(raw))

	cmds := gpu.MarshalComputeCommands([]gpu.ComputeCommand{{WorkGroupX: 1, WorkGroupY: 2, WorkGroupZ: 3}, {WorkGroupX: 4, WorkGroupY: 5, WorkGroupZ: 6}})
	require.Len(t, cmds, 24)
	assert.Equal(t, gpu.ComputeCommand{WorkGroupX: 4, WorkGroupY: 5, WorkGroupZ: 6}, gpu.UnmarshalComputeCommand(cmds[12:]))
}
