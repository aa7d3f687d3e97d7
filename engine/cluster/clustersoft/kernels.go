// Package clustersoft provides host implementations of the cluster pipeline programs for
// the software device. Each kernel mirrors its WGSL counterpart workgroup for workgroup.
package clustersoft

import (
	"math"

	"github.com/Carmen-Shannon/oxy-cls/engine/cluster"
	"github.com/Carmen-Shannon/oxy-cls/engine/gpu/soft"
	"github.com/Carmen-Shannon/oxy-cls/engine/light"
	"github.com/go-gl/mathgl/mgl32"
)

// Register installs a kernel for every device stage of the cluster pipeline on dev.
// It must run before cluster.NewPipeline compiles the programs.
//
// Parameters:
//   - dev: the software device
func Register(dev *soft.Device) {
	dev.Register(cluster.StageCompactClusters.Title(), CompactClusters)
	dev.Register(cluster.StageCountLights.Title(), CountLights)
	dev.Register(cluster.StageLightOffsets.Title(), LightOffsets)
	dev.Register(cluster.StageAssignLights.Title(), AssignLights)
}

// CompactClusters gathers every cell with fragments into the active list in cell order,
// up to the active capacity, and writes the indirect arguments of the later stages.
// Dispatched as a single workgroup.
func CompactClusters(inv soft.Invocation) {
	space := cluster.UnmarshalGPUClusterSpace(inv.Buffer(cluster.SlotClusterSpace))
	capacity := space.MaxActiveClusters

	var active, fragments uint32
	for i := 0; i < int(space.ClusterCount); i++ {
		c := inv.U32(cluster.SlotFragmentCounts, i)
		if c == 0 {
			inv.PutU32(cluster.SlotMaybeActiveIndices, i, cluster.InactiveCluster)
			continue
		}
		fragments += c
		if active < capacity {
			inv.PutU32(cluster.SlotMaybeActiveIndices, i, active)
			inv.PutU32(cluster.SlotActiveIndices, int(active), uint32(i))
		} else {
			inv.PutU32(cluster.SlotMaybeActiveIndices, i, cluster.InactiveCluster)
		}
		active++
	}

	count := min(active, capacity)
	groups := (count + cluster.WorkgroupSize - 1) / cluster.WorkgroupSize
	inv.PutU32(cluster.SlotTotals, 0, count)

	commands := [9]uint32{groups, 1, 1, 1, 1, 1, groups, 1, 1}
	for i, v := range commands {
		inv.PutU32(cluster.SlotComputeCommands, i, v)
	}
	inv.PutU32(cluster.SlotDrawCommands, 1, count)

	inv.PutU32(cluster.SlotProfiling, 0, fragments)
	inv.PutU32(cluster.SlotProfiling, 1, count)
}

// CountLights counts, for each active cell of the workgroup, the light spheres overlapping it.
func CountLights(inv soft.Invocation) {
	space := cluster.UnmarshalGPUClusterSpace(inv.Buffer(cluster.SlotClusterSpace))
	spheres := lightSpheres(inv, space)

	forEachActive(inv, func(i int, cell uint32) {
		lo, hi := CellBounds(space, cell)
		var count uint32
		for _, s := range spheres {
			if SphereOverlaps(lo, hi, s.center, s.radius) {
				count++
			}
		}
		inv.PutU32(cluster.SlotLightCounts, i, count)
	})
}

// LightOffsets turns the per-cell light counts into exclusive offsets and records the
// total and the number of indices beyond capacity. Dispatched as a single workgroup.
func LightOffsets(inv soft.Invocation) {
	space := cluster.UnmarshalGPUClusterSpace(inv.Buffer(cluster.SlotClusterSpace))
	n := int(inv.U32(cluster.SlotTotals, 0))

	var running uint32
	for i := 0; i < n; i++ {
		inv.PutU32(cluster.SlotLightOffsets, i, running)
		running += inv.U32(cluster.SlotLightCounts, i)
	}

	var dropped uint32
	if running > space.MaxLightIndices {
		dropped = running - space.MaxLightIndices
	}
	inv.PutU32(cluster.SlotTotals, 1, running)
	inv.PutU32(cluster.SlotProfiling, 2, running)
	inv.PutU32(cluster.SlotProfiling, 3, dropped)
}

// AssignLights writes the indices of the lights overlapping each active cell of the
// workgroup into that cell's range of the index list, dropping indices past capacity.
func AssignLights(inv soft.Invocation) {
	space := cluster.UnmarshalGPUClusterSpace(inv.Buffer(cluster.SlotClusterSpace))
	spheres := lightSpheres(inv, space)

	forEachActive(inv, func(i int, cell uint32) {
		lo, hi := CellBounds(space, cell)
		at := inv.U32(cluster.SlotLightOffsets, i)
		for l, s := range spheres {
			if !SphereOverlaps(lo, hi, s.center, s.radius) {
				continue
			}
			if at < space.MaxLightIndices {
				inv.PutU32(cluster.SlotLightIndices, int(at), uint32(l))
			}
			at++
		}
	})
}

// forEachActive visits the active cells handled by the invocation's workgroup.
func forEachActive(inv soft.Invocation, fn func(i int, cell uint32)) {
	active := int(inv.U32(cluster.SlotTotals, 0))
	base := int(inv.Group[0]) * cluster.WorkgroupSize
	for lane := 0; lane < cluster.WorkgroupSize; lane++ {
		i := base + lane
		if i >= active {
			return
		}
		fn(i, inv.U32(cluster.SlotActiveIndices, i))
	}
}

type sphere struct {
	center mgl32.Vec3
	radius float32
}

// lightSpheres decodes the uploaded spheres and moves their centers into cluster-camera space.
func lightSpheres(inv soft.Invocation, space cluster.GPUClusterSpace) []sphere {
	buf := inv.Buffer(cluster.SlotLightXYZR)
	wldToCCam := mgl32.Mat4(space.WldToCCam)

	out := make([]sphere, space.LightCount)
	for i := range out {
		l := light.UnmarshalLightXYZR(buf, i)
		p := mgl32.Vec3(l.Position)
		out[i] = sphere{
			center: wldToCCam.Mul4x1(p.Vec4(1)).Vec3(),
			radius: l.Radius,
		}
	}
	return out
}

// CellBounds returns the cluster-camera space bounding box of a cell.
// Perspective cells are bounded by tangent slopes and exponentially spaced depth slices;
// orthographic cells are uniform boxes. Slice 0 is nearest the camera in both cases.
//
// Parameters:
//   - space: the uniform block describing the grid
//   - index: the linear cell index (x fastest)
//
// Returns:
//   - lo, hi: the box corners
func CellBounds(space cluster.GPUClusterSpace, index uint32) (lo, hi mgl32.Vec3) {
	d := space.Dimensions
	x := index % d[0]
	y := (index / d[0]) % d[1]
	z := index / (d[0] * d[1])

	f := space.FrustumXY
	sx0 := f[0] + (f[1]-f[0])*float32(x)/float32(d[0])
	sx1 := f[0] + (f[1]-f[0])*float32(x+1)/float32(d[0])
	sy0 := f[2] + (f[3]-f[2])*float32(y)/float32(d[1])
	sy1 := f[2] + (f[3]-f[2])*float32(y+1)/float32(d[1])
	z0, z1 := space.FrustumZ[0], space.FrustumZ[1]

	if cluster.Projection(space.Projection) == cluster.ProjectionOrthographic {
		zn := z1 - (z1-z0)*float32(z)/float32(d[2])
		zf := z1 - (z1-z0)*float32(z+1)/float32(d[2])
		return mgl32.Vec3{sx0, sy0, zf}, mgl32.Vec3{sx1, sy1, zn}
	}

	ratio := float64(z0 / z1)
	zn := z1 * float32(math.Pow(ratio, float64(z)/float64(d[2])))
	zf := z1 * float32(math.Pow(ratio, float64(z+1)/float64(d[2])))

	xs := [4]float32{-sx0 * zn, -sx0 * zf, -sx1 * zn, -sx1 * zf}
	ys := [4]float32{-sy0 * zn, -sy0 * zf, -sy1 * zn, -sy1 * zf}
	lo = mgl32.Vec3{min(xs[0], xs[1], xs[2], xs[3]), min(ys[0], ys[1], ys[2], ys[3]), zf}
	hi = mgl32.Vec3{max(xs[0], xs[1], xs[2], xs[3]), max(ys[0], ys[1], ys[2], ys[3]), zn}
	return lo, hi
}

// SphereOverlaps reports whether a sphere touches the box [lo, hi].
func SphereOverlaps(lo, hi, center mgl32.Vec3, radius float32) bool {
	var dist2 float32
	for i := 0; i < 3; i++ {
		c := min(max(center[i], lo[i]), hi[i])
		d := center[i] - c
		dist2 += d * d
	}
	return dist2 <= radius*radius
}
