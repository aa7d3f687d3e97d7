package gpu

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-cls/common"
)

// StorageBufferAlignment is the byte multiple StorageBuffer capacities are rounded to.
const StorageBufferAlignment = 64

// ReconcileAction reports what StorageBuffer.Reconcile did.
type ReconcileAction int

const (
	// ReconcileInvalidated kept the capacity and discarded the contents.
	ReconcileInvalidated ReconcileAction = iota
	// ReconcileGrown reallocated to a larger capacity.
	ReconcileGrown
	// ReconcileShrunk reallocated to a smaller capacity.
	ReconcileShrunk
)

// StorageBuffer is a device buffer with fixed creation flags that can grow or shrink.
// Every resize destroys the old allocation and creates a fresh buffer under a new name.
type StorageBuffer struct {
	dev      Device
	name     BufferName
	label    string
	usage    Usage
	capacity int
}

// NewStorageBuffer registers an empty storage buffer on dev.
//
// Parameters:
//   - dev: the owning device
//   - label: debug label for the buffer
//   - usage: binding capabilities
//
// Returns:
//   - *StorageBuffer: the buffer with zero capacity
func NewStorageBuffer(dev Device, label string, usage Usage) *StorageBuffer {
	usage |= UsageCopyDst
	return &StorageBuffer{
		dev:   dev,
		name:  dev.CreateBuffer(label, usage),
		label: label,
		usage: usage,
	}
}

// Name returns the current device handle. It changes whenever the buffer is resized.
func (b *StorageBuffer) Name() BufferName { return b.name }

// Label returns the debug label of the buffer.
func (b *StorageBuffer) Label() string { return b.label }

// Capacity returns the current capacity in bytes.
func (b *StorageBuffer) Capacity() int { return b.capacity }

// Reconcile adapts the capacity to n bytes. Old contents never survive.
//
// A request above capacity grows to max(n, 1.5 * old). A request below two thirds of
// capacity shrinks to n. Capacities are rounded up to StorageBufferAlignment; any request
// whose rounded size equals the current capacity keeps the allocation and invalidates it.
//
// Parameters:
//   - n: the required capacity in bytes
//
// Returns:
//   - ReconcileAction: what was done
func (b *StorageBuffer) Reconcile(n int) ReconcileAction {
	var (
		target int
		action ReconcileAction
	)
	switch {
	case n > b.capacity:
		target, action = max(n, b.capacity+b.capacity/2), ReconcileGrown
	case n+n/2 < b.capacity:
		target, action = n, ReconcileShrunk
	}
	target = common.RoundUp(target, StorageBufferAlignment)

	if action == ReconcileInvalidated || target == b.capacity {
		if b.capacity > 0 {
			b.dev.InvalidateBuffer(b.name)
		}
		return ReconcileInvalidated
	}

	if b.capacity > 0 {
		b.dev.DeleteBuffer(b.name)
		b.name = b.dev.CreateBuffer(b.label, b.usage)
	}
	if target > 0 {
		b.dev.ReserveBuffer(b.name, target)
	}
	common.Logger().Debug("storage buffer reconciled", "label", b.label, "from", b.capacity, "to", target)
	b.capacity = target
	return action
}

// ClearU32 zeroes the first byteCount bytes of the buffer.
func (b *StorageBuffer) ClearU32(byteCount int) {
	if common.DebugChecks && byteCount > b.capacity {
		panic(fmt.Sprintf("gpu: clear of %d bytes exceeds capacity %d of %q", byteCount, b.capacity, b.label))
	}
	if byteCount > 0 {
		b.dev.ClearBuffer(b.name, 0, byteCount)
	}
}

// WriteAt copies data into the buffer at offset.
func (b *StorageBuffer) WriteAt(offset int, data []byte) {
	if common.DebugChecks && offset+len(data) > b.capacity {
		panic(fmt.Sprintf("gpu: write of %d bytes at %d exceeds capacity %d of %q", len(data), offset, b.capacity, b.label))
	}
	b.dev.WriteBuffer(b.name, offset, data)
}

// Release deletes the device buffer.
func (b *StorageBuffer) Release() {
	if b.name != 0 {
		b.dev.DeleteBuffer(b.name)
		b.name = 0
		b.capacity = 0
	}
}
