package gpu

import (
	"encoding/binary"
)

// DrawCommandSize is the byte size of DrawCommand.
const DrawCommandSize = 20

// ComputeCommandSize is the byte size of ComputeCommand.
const ComputeCommandSize = 12

// DrawCommand matches the device's indexed indirect draw argument layout.
// Size: 20 bytes.
type DrawCommand struct {
	Count        uint32 // offset  0: indices per instance
	PrimCount    uint32 // offset  4: instance count
	FirstIndex   uint32 // offset  8
	BaseVertex   uint32 // offset 12
	BaseInstance uint32 // offset 16
}

// Size returns the size of the DrawCommand in bytes.
//
// Returns:
//   - int: the struct size in bytes (20)
func (c *DrawCommand) Size() int {
	return DrawCommandSize
}

// Marshal serializes the DrawCommand into its device layout.
//
// Returns:
//   - []byte: 20-byte buffer ready for upload
func (c *DrawCommand) Marshal() []byte {
	buf := make([]byte, DrawCommandSize)
	binary.LittleEndian.PutUint32(buf[0:4], c.Count)
	binary.LittleEndian.PutUint32(buf[4:8], c.PrimCount)
	binary.LittleEndian.PutUint32(buf[8:12], c.FirstIndex)
	binary.LittleEndian.PutUint32(buf[12:16], c.BaseVertex)
	binary.LittleEndian.PutUint32(buf[16:20], c.BaseInstance)
	return buf
}

// UnmarshalDrawCommand decodes a DrawCommand from its device layout.
func UnmarshalDrawCommand(b []byte) DrawCommand {
	return DrawCommand{
		Count:        binary.LittleEndian.Uint32(b[0:4]),
		PrimCount:    binary.LittleEndian.Uint32(b[4:8]),
		FirstIndex:   binary.LittleEndian.Uint32(b[8:12]),
		BaseVertex:   binary.LittleEndian.Uint32(b[12:16]),
		BaseInstance: binary.LittleEndian.Uint32(b[16:20]),
	}
}

// ComputeCommand matches the device's indirect dispatch argument layout.
// Size: 12 bytes.
type ComputeCommand struct {
	WorkGroupX uint32
	WorkGroupY uint32
	WorkGroupZ uint32
}

// Size returns the size of the ComputeCommand in bytes.
func (c *ComputeCommand) Size() int {
	return ComputeCommandSize
}

// Marshal serializes the ComputeCommand into its device layout.
//
// Returns:
//   - []byte: 12-byte buffer ready for upload
func (c *ComputeCommand) Marshal() []byte {
	buf := make([]byte, ComputeCommandSize)
	binary.LittleEndian.PutUint32(buf[0:4], c.WorkGroupX)
	binary.LittleEndian.PutUint32(buf[4:8], c.WorkGroupY)
	binary.LittleEndian.PutUint32(buf[8:12], c.WorkGroupZ)
	return buf
}

// UnmarshalComputeCommand decodes a ComputeCommand from its device layout.
func UnmarshalComputeCommand(b []byte) ComputeCommand {
	return ComputeCommand{
		WorkGroupX: binary.LittleEndian.Uint32(b[0:4]),
		WorkGroupY: binary.LittleEndian.Uint32(b[4:8]),
		WorkGroupZ: binary.LittleEndian.Uint32(b[8:12]),
	}
}

// MarshalComputeCommands serializes a contiguous array of ComputeCommands.
func MarshalComputeCommands(cmds []ComputeCommand) []byte {
	buf := make([]byte, 0, len(cmds)*ComputeCommandSize)
	for i := range cmds {
		buf = append(buf, cmds[i].Marshal()...)
	}
	return buf
}

// MarshalU32s serializes a slice of uint32 values in little-endian order.
func MarshalU32s(values []uint32) []byte {
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[4*i:], v)
	}
	return buf
}

// UnmarshalU32s decodes little-endian uint32 values. Trailing bytes are ignored.
func UnmarshalU32s(b []byte) []uint32 {
	out := make([]uint32, len(b)/4)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(b[4*i:])
	}
	return out
}
