package cluster

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-cls/common"
	"github.com/Carmen-Shannon/oxy-cls/engine/light"
	"github.com/Carmen-Shannon/oxy-cls/engine/shader"
)

// Binding slots shared by every cluster program. A program declares only the slots it uses.
const (
	SlotClusterSpace       uint32 = 0
	SlotFragmentCounts     uint32 = 1
	SlotMaybeActiveIndices uint32 = 2
	SlotActiveIndices      uint32 = 3
	SlotLightCounts        uint32 = 4
	SlotLightOffsets       uint32 = 5
	SlotLightXYZR          uint32 = 6
	SlotLightIndices       uint32 = 7
	SlotTotals             uint32 = 8
	SlotComputeCommands    uint32 = 9
	SlotDrawCommands       uint32 = 10
	SlotProfiling          uint32 = 11
)

// InactiveCluster marks a cell with no fragments in the maybe-active index buffer.
const InactiveCluster = 0xFFFFFFFF

// Byte offsets of the indirect dispatch arguments in the compute command buffer.
const (
	CountLightsCommandOffset  = 0 * 12
	LightOffsetsCommandOffset = 1 * 12
	AssignLightsCommandOffset = 2 * 12
)

// WorkgroupSize is the invocation count of every one-dimensional cluster program.
const WorkgroupSize = 64

// GPUClusterSpaceSource is the canonical WGSL definition of the ClusterSpace struct.
// Matches GPUClusterSpace layout exactly (192 bytes, uniform aligned).
//
//go:embed assets/cluster_space.wgsl
var GPUClusterSpaceSource string

// GPUClusterSpace is the GPU-aligned uniform describing the current grid.
// Matches the WGSL ClusterSpace struct layout exactly (see GPUClusterSpaceSource).
// Size: 192 bytes.
type GPUClusterSpace struct {
	Dimensions        [3]uint32   // offset   0: cells per axis
	ClusterCount      uint32      // offset  12
	FrustumXY         [4]float32  // offset  16: x0, x1, y0, y1
	FrustumZ          [2]float32  // offset  32: z0, z1
	LightCount        uint32      // offset  40
	MaxActiveClusters uint32      // offset  44
	MaxLightIndices   uint32      // offset  48
	Projection        uint32      // offset  52
	_pad0             uint32      // offset  56
	_pad1             uint32      // offset  60
	WldToCCam         [16]float32 // offset  64: mat4x4<f32>
	CCamToWld         [16]float32 // offset 128: mat4x4<f32>
}

// GPUClusterSpaceSize is the byte size of GPUClusterSpace.
const GPUClusterSpaceSize = 192

// ClusterSpaceLightCountOffset is the byte offset of LightCount within GPUClusterSpace.
const ClusterSpaceLightCountOffset = 40

// NewGPUClusterSpace packs a fitted grid and its capacities.
//
// Parameters:
//   - c: the fitted grid
//   - cfg: the configuration providing capacities and projection
//   - lightCount: the number of uploaded light spheres
//
// Returns:
//   - GPUClusterSpace: the uniform block
func NewGPUClusterSpace(c Computed, cfg Configuration, lightCount uint32) GPUClusterSpace {
	f := c.Frustum
	return GPUClusterSpace{
		Dimensions:        c.Dimensions,
		ClusterCount:      c.ClusterCount(),
		FrustumXY:         [4]float32{float32(f.X0), float32(f.X1), float32(f.Y0), float32(f.Y1)},
		FrustumZ:          [2]float32{float32(f.Z0), float32(f.Z1)},
		LightCount:        lightCount,
		MaxActiveClusters: cfg.MaxActiveClusters,
		MaxLightIndices:   cfg.MaxLightIndices,
		Projection:        uint32(cfg.Projection),
		WldToCCam:         common.Mat4ToF32(c.WldToCCam),
		CCamToWld:         common.Mat4ToF32(c.CCamToWld),
	}
}

// Size returns the size of the GPUClusterSpace struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (192)
func (g *GPUClusterSpace) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUClusterSpace struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 192-byte buffer ready for GPU upload
func (g *GPUClusterSpace) Marshal() []byte {
	buf := make([]byte, GPUClusterSpaceSize)
	for i := range 3 {
		binary.LittleEndian.PutUint32(buf[4*i:], g.Dimensions[i])
	}
	binary.LittleEndian.PutUint32(buf[12:16], g.ClusterCount)
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[16+4*i:], math.Float32bits(g.FrustumXY[i]))
	}
	binary.LittleEndian.PutUint32(buf[32:36], math.Float32bits(g.FrustumZ[0]))
	binary.LittleEndian.PutUint32(buf[36:40], math.Float32bits(g.FrustumZ[1]))
	binary.LittleEndian.PutUint32(buf[40:44], g.LightCount)
	binary.LittleEndian.PutUint32(buf[44:48], g.MaxActiveClusters)
	binary.LittleEndian.PutUint32(buf[48:52], g.MaxLightIndices)
	binary.LittleEndian.PutUint32(buf[52:56], g.Projection)
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[64+4*i:], math.Float32bits(g.WldToCCam[i]))
		binary.LittleEndian.PutUint32(buf[128+4*i:], math.Float32bits(g.CCamToWld[i]))
	}
	return buf
}

// UnmarshalGPUClusterSpace decodes a ClusterSpace uniform block.
func UnmarshalGPUClusterSpace(buf []byte) GPUClusterSpace {
	var g GPUClusterSpace
	for i := range 3 {
		g.Dimensions[i] = binary.LittleEndian.Uint32(buf[4*i:])
	}
	g.ClusterCount = binary.LittleEndian.Uint32(buf[12:16])
	for i := range 4 {
		g.FrustumXY[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[16+4*i:]))
	}
	g.FrustumZ[0] = math.Float32frombits(binary.LittleEndian.Uint32(buf[32:36]))
	g.FrustumZ[1] = math.Float32frombits(binary.LittleEndian.Uint32(buf[36:40]))
	g.LightCount = binary.LittleEndian.Uint32(buf[40:44])
	g.MaxActiveClusters = binary.LittleEndian.Uint32(buf[44:48])
	g.MaxLightIndices = binary.LittleEndian.Uint32(buf[48:52])
	g.Projection = binary.LittleEndian.Uint32(buf[52:56])
	for i := range 16 {
		g.WldToCCam[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[64+4*i:]))
		g.CCamToWld[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[128+4*i:]))
	}
	return g
}

// GPUTotalsSource is the canonical WGSL definition of the Totals struct.
// Matches GPUTotals layout exactly (16 bytes).
//
//go:embed assets/totals.wgsl
var GPUTotalsSource string

// GPUTotals holds the grand totals produced on the device by compaction and the offset scan.
// Size: 16 bytes.
type GPUTotals struct {
	ActiveClusters uint32 // offset 0
	LightIndices   uint32 // offset 4: total light indices before clamping
	_pad0          uint32 // offset 8
	_pad1          uint32 // offset 12
}

// GPUTotalsSize is the byte size of GPUTotals.
const GPUTotalsSize = 16

// Size returns the size of the GPUTotals struct in bytes.
func (g *GPUTotals) Size() int {
	return int(unsafe.Sizeof(*g))
}

// UnmarshalGPUTotals decodes a Totals block.
func UnmarshalGPUTotals(buf []byte) GPUTotals {
	return GPUTotals{
		ActiveClusters: binary.LittleEndian.Uint32(buf[0:4]),
		LightIndices:   binary.LittleEndian.Uint32(buf[4:8]),
	}
}

// GPUProfilingSource is the canonical WGSL definition of the Profiling struct.
// Matches GPUProfiling layout exactly (16 bytes).
//
//go:embed assets/profiling.wgsl
var GPUProfilingSource string

// GPUProfiling holds per-frame counters written by the pipeline for offline inspection.
// Size: 16 bytes.
type GPUProfiling struct {
	Fragments      uint32 // offset 0: fragments counted into the grid
	ActiveClusters uint32 // offset 4
	LightIndices   uint32 // offset 8
	Dropped        uint32 // offset 12: light indices beyond capacity
}

// GPUProfilingSize is the byte size of GPUProfiling.
const GPUProfilingSize = 16

// Size returns the size of the GPUProfiling struct in bytes.
func (g *GPUProfiling) Size() int {
	return int(unsafe.Sizeof(*g))
}

// UnmarshalGPUProfiling decodes a Profiling block.
func UnmarshalGPUProfiling(buf []byte) GPUProfiling {
	return GPUProfiling{
		Fragments:      binary.LittleEndian.Uint32(buf[0:4]),
		ActiveClusters: binary.LittleEndian.Uint32(buf[4:8]),
		LightIndices:   binary.LittleEndian.Uint32(buf[8:12]),
		Dropped:        binary.LittleEndian.Uint32(buf[12:16]),
	}
}

// cellBoundsSource holds the CellBounds struct and the cell/sphere overlap helpers shared by
// the count and assign programs.
//
//go:embed assets/cell_bounds.wgsl
var cellBoundsSource string

// ShaderStructs registers the cluster WGSL structs with a shader pre-processor.
//
// Returns:
//   - []shader.PreProcessorOption: options for shader.NewShader
func ShaderStructs() []shader.PreProcessorOption {
	return []shader.PreProcessorOption{
		shader.WithStruct("cluster_space", GPUClusterSpaceSource, "ClusterSpace"),
		shader.WithStruct("totals", GPUTotalsSource, "Totals"),
		shader.WithStruct("profiling", GPUProfilingSource, "Profiling"),
		shader.WithStruct("light_xyzr", light.GPULightXYZRSource, "LightXYZR"),
		shader.WithStruct("cell_bounds", cellBoundsSource, "CellBounds"),
	}
}
