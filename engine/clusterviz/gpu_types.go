package clusterviz

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-cls/common"
	"github.com/go-gl/mathgl/mgl64"
)

// GPUDebugParamsSource is the canonical WGSL definition of the DebugParams struct.
// Matches GPUDebugParams layout exactly (80 bytes, uniform aligned).
//
//go:embed assets/debug_params.wgsl
var GPUDebugParamsSource string

// GPUDebugParams is the per-pass uniform block of the debug renderer.
// Size: 80 bytes.
type GPUDebugParams struct {
	CluCamToRenClp [16]float32 // offset  0: cluster camera to render clip space
	VisibleOnly    uint32      // offset 64: 1 when drawing only active cells
	Visualisation  uint32      // offset 68
	Pass           uint32      // offset 72: 0 opaque, 1 additive
	_pad0          uint32      // offset 76
}

// GPUDebugParamsSize is the byte size of GPUDebugParams.
const GPUDebugParamsSize = 80

// NewGPUDebugParams packs the uniform block of one pass.
//
// Parameters:
//   - cluCamToRenClp: the cluster camera to render clip transform
//   - v: the visualisation mode
//   - visibleOnly: whether only active cells are drawn
//   - pass: 0 for the opaque pass, 1 for the additive pass
//
// Returns:
//   - GPUDebugParams: the uniform block
func NewGPUDebugParams(cluCamToRenClp mgl64.Mat4, v Visualisation, visibleOnly bool, pass uint32) GPUDebugParams {
	var vis uint32
	if visibleOnly {
		vis = 1
	}
	return GPUDebugParams{
		CluCamToRenClp: common.Mat4ToF32(cluCamToRenClp),
		VisibleOnly:    vis,
		Visualisation:  uint32(v),
		Pass:           pass,
	}
}

// Size returns the size of the GPUDebugParams struct in bytes.
func (g *GPUDebugParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUDebugParams struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 80-byte buffer ready for GPU upload
func (g *GPUDebugParams) Marshal() []byte {
	buf := make([]byte, GPUDebugParamsSize)
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(g.CluCamToRenClp[i]))
	}
	binary.LittleEndian.PutUint32(buf[64:68], g.VisibleOnly)
	binary.LittleEndian.PutUint32(buf[68:72], g.Visualisation)
	binary.LittleEndian.PutUint32(buf[72:76], g.Pass)
	return buf
}

// UnmarshalGPUDebugParams decodes a uniform block written by Marshal.
func UnmarshalGPUDebugParams(buf []byte) GPUDebugParams {
	var g GPUDebugParams
	for i := range 16 {
		g.CluCamToRenClp[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	g.VisibleOnly = binary.LittleEndian.Uint32(buf[64:68])
	g.Visualisation = binary.LittleEndian.Uint32(buf[68:72])
	g.Pass = binary.LittleEndian.Uint32(buf[72:76])
	return g
}
