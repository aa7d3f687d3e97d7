package gpu

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-cls/common"
)

// DynamicBufferAlignment is the byte multiple DynamicBuffer capacities are rounded to.
const DynamicBufferAlignment = 16

// DynamicBuffer is a grow-only device buffer.
//
// Capacity never shrinks implicitly. Growth reallocates the device storage and discards
// its contents. Writes larger than the current capacity are programmer errors and are
// only checked when built with the clusterdebug tag.
type DynamicBuffer struct {
	dev      Device
	name     BufferName
	label    string
	capacity int
}

// NewDynamicBuffer registers an empty buffer on dev.
//
// Parameters:
//   - dev: the owning device
//   - label: debug label for the buffer
//   - usage: binding capabilities
//
// Returns:
//   - *DynamicBuffer: the buffer with zero capacity
func NewDynamicBuffer(dev Device, label string, usage Usage) *DynamicBuffer {
	return &DynamicBuffer{
		dev:   dev,
		name:  dev.CreateBuffer(label, usage|UsageCopyDst),
		label: label,
	}
}

// Name returns the device handle of the buffer.
func (b *DynamicBuffer) Name() BufferName { return b.name }

// Label returns the debug label of the buffer.
func (b *DynamicBuffer) Label() string { return b.label }

// Capacity returns the current capacity in bytes.
func (b *DynamicBuffer) Capacity() int { return b.capacity }

// EnsureCapacity grows the buffer so it holds at least n bytes.
// The new capacity is max(n, 1.5 * old) rounded up to DynamicBufferAlignment.
// A request that already fits is a no-op.
//
// Parameters:
//   - n: the required capacity in bytes
//
// Returns:
//   - bool: true if the buffer was reallocated
func (b *DynamicBuffer) EnsureCapacity(n int) bool {
	if b.capacity >= n {
		return false
	}
	n = max(n, b.capacity+b.capacity/2)
	n = common.RoundUp(n, DynamicBufferAlignment)

	b.dev.ReserveBuffer(b.name, n)
	common.Logger().Debug("dynamic buffer grown", "label", b.label, "from", b.capacity, "to", n)
	b.capacity = n
	return true
}

// Write replaces the buffer contents starting at offset 0.
func (b *DynamicBuffer) Write(data []byte) {
	b.WriteAt(0, data)
}

// WriteAt copies data into the buffer at offset.
func (b *DynamicBuffer) WriteAt(offset int, data []byte) {
	if common.DebugChecks && offset+len(data) > b.capacity {
		panic(fmt.Sprintf("gpu: write of %d bytes at %d exceeds capacity %d of %q", len(data), offset, b.capacity, b.label))
	}
	b.dev.WriteBuffer(b.name, offset, data)
}

// ClearU32 zeroes the first byteCount bytes of the buffer.
func (b *DynamicBuffer) ClearU32(byteCount int) {
	if common.DebugChecks && byteCount > b.capacity {
		panic(fmt.Sprintf("gpu: clear of %d bytes exceeds capacity %d of %q", byteCount, b.capacity, b.label))
	}
	b.dev.ClearBuffer(b.name, 0, byteCount)
}

// Invalidate discards the contents without reallocating.
func (b *DynamicBuffer) Invalidate() {
	if b.capacity > 0 {
		b.dev.InvalidateBuffer(b.name)
	}
}

// Upload reallocates the buffer to exactly len(data) bytes and writes data.
// No growth heuristic is applied; callers reissue the upload whenever the data length changes.
func (b *DynamicBuffer) Upload(data []byte) {
	b.dev.ReserveBuffer(b.name, len(data))
	b.capacity = len(data)
	if len(data) > 0 {
		b.dev.WriteBuffer(b.name, 0, data)
	}
}

// Release deletes the device buffer.
func (b *DynamicBuffer) Release() {
	if b.name != 0 {
		b.dev.DeleteBuffer(b.name)
		b.name = 0
		b.capacity = 0
	}
}
