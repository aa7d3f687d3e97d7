package gpu

// BufferName identifies a device buffer. The zero value never names a live buffer.
type BufferName uint32

// Program identifies a compiled device program. The zero value is invalid.
type Program uint32

// Usage is a bit set describing how a buffer is bound.
type Usage uint32

const (
	// UsageStorage allows binding as a read/write storage buffer.
	UsageStorage Usage = 1 << iota
	// UsageUniform allows binding as a uniform buffer.
	UsageUniform
	// UsageIndirect allows the buffer to supply indirect draw or dispatch arguments.
	UsageIndirect
	// UsageCopyDst allows host writes and device clears.
	UsageCopyDst
)

// Binding attaches a buffer to a numbered slot of a program.
type Binding struct {
	Slot   uint32
	Buffer BufferName
}

// ProgramDesc describes a compute or draw program.
type ProgramDesc struct {
	// Label names the program. Software devices resolve kernels by label.
	Label string
	// Source is the WGSL program text.
	Source string
	// EntryPoint is the entry function name within Source.
	EntryPoint string
}

// Device is the narrow capability set the clustering core needs from a graphics device.
//
// Operations are submitted in call order onto a single command stream. A Device is
// driven from one frame thread and is not required to be safe for concurrent use.
type Device interface {
	// CreateBuffer registers a new, empty buffer.
	//
	// Parameters:
	//   - label: debug label for the buffer
	//   - usage: binding capabilities the buffer needs
	//
	// Returns:
	//   - BufferName: the new buffer handle
	CreateBuffer(label string, usage Usage) BufferName

	// DeleteBuffer destroys a buffer and its storage.
	DeleteBuffer(name BufferName)

	// ReserveBuffer (re)allocates storage of size bytes for name, discarding previous contents.
	ReserveBuffer(name BufferName, size int)

	// WriteBuffer copies data into the buffer at offset.
	WriteBuffer(name BufferName, offset int, data []byte)

	// ClearBuffer zeroes size bytes starting at offset.
	ClearBuffer(name BufferName, offset, size int)

	// InvalidateBuffer marks the buffer contents as undefined without reallocating.
	InvalidateBuffer(name BufferName)

	// CreateProgram compiles a program.
	//
	// Parameters:
	//   - desc: the program description
	//
	// Returns:
	//   - Program: the compiled program handle
	//   - error: error if compilation fails
	CreateProgram(desc ProgramDesc) (Program, error)

	// Dispatch submits a compute dispatch with an explicit workgroup count.
	Dispatch(p Program, bindings []Binding, groups [3]uint32)

	// DispatchIndirect submits a compute dispatch whose workgroup count is read by the device
	// from a ComputeCommand stored in commands at offset.
	DispatchIndirect(p Program, bindings []Binding, commands BufferName, offset int)
}

// Drawer is implemented by devices that can rasterise the indexed unit cube used by
// debug visualisation.
type Drawer interface {
	// DrawIndirect draws using a DrawCommand stored in commands at offset.
	DrawIndirect(p Program, bindings []Binding, commands BufferName, offset int)

	// DrawInstanced draws indexCount indices instanceCount times.
	DrawInstanced(p Program, bindings []Binding, indexCount, instanceCount uint32)
}
