package light

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPULightXYZRSize is the byte size of one packed light sphere.
const GPULightXYZRSize = 16

// GPULightXYZRSource is the canonical WGSL definition of the LightXYZR struct.
// Matches GPULightXYZR layout exactly (16 bytes, std430 aligned).
//
//go:embed assets/light_xyzr.wgsl
var GPULightXYZRSource string

// GPULightXYZR is the GPU-aligned bounding sphere of one light, matching the WGSL LightXYZR
// struct (see GPULightXYZRSource) with the world-space center and the radius.
// Size: 16 bytes.
type GPULightXYZR struct {
	Position [3]float32 // offset  0: world-space sphere center
	Radius   float32    // offset 12: sphere radius
}

// Size returns the size of the GPULightXYZR struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (16)
func (g *GPULightXYZR) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the sphere into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 16-byte buffer ready for GPU upload
func (g *GPULightXYZR) Marshal() []byte {
	buf := make([]byte, GPULightXYZRSize)
	g.put(buf)
	return buf
}

func (g *GPULightXYZR) put(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Position[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Position[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Position[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(g.Radius))
}

// UnmarshalLightXYZR decodes the sphere at index i of a packed xyzr buffer.
func UnmarshalLightXYZR(buf []byte, i int) GPULightXYZR {
	b := buf[i*GPULightXYZRSize:]
	return GPULightXYZR{
		Position: [3]float32{
			math.Float32frombits(binary.LittleEndian.Uint32(b[0:4])),
			math.Float32frombits(binary.LittleEndian.Uint32(b[4:8])),
			math.Float32frombits(binary.LittleEndian.Uint32(b[8:12])),
		},
		Radius: math.Float32frombits(binary.LittleEndian.Uint32(b[12:16])),
	}
}

// ToGPULightXYZR converts a light to its packed bounding sphere.
//
// Parameters:
//   - l: the light to convert
//
// Returns:
//   - GPULightXYZR: the packed sphere
//   - bool: false if the light is disabled or has no bounded volume
func ToGPULightXYZR(l Light) (GPULightXYZR, bool) {
	if !l.Enabled() {
		return GPULightXYZR{}, false
	}
	center, radius, ok := l.BoundingSphere()
	if !ok {
		return GPULightXYZR{}, false
	}
	return GPULightXYZR{Position: center, Radius: radius}, true
}

// MarshalLightXYZR packs the bounding spheres of every enabled positional light.
// Directional and disabled lights are skipped, so the returned count may be smaller than len(lights).
// Light indices produced by cluster assignment refer to positions in this packed list.
//
// Parameters:
//   - lights: the lights to pack
//
// Returns:
//   - []byte: count*16 bytes ready for upload
//   - int: the number of packed lights
func MarshalLightXYZR(lights []Light) ([]byte, int) {
	buf := make([]byte, 0, len(lights)*GPULightXYZRSize)
	var tmp [GPULightXYZRSize]byte
	count := 0
	for _, l := range lights {
		g, ok := ToGPULightXYZR(l)
		if !ok {
			continue
		}
		g.put(tmp[:])
		buf = append(buf, tmp[:]...)
		count++
	}
	return buf, count
}
