package cluster

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-cls/engine/light"
	"github.com/Carmen-Shannon/oxy-cls/engine/shader"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWGSLStructLayoutsMatchHost(t *testing.T) {
	tests := []struct {
		source string
		name   string
		size   int
		align  uint64
	}{
		{GPUClusterSpaceSource, "ClusterSpace", (&GPUClusterSpace{}).Size(), 16},
		{GPUTotalsSource, "Totals", (&GPUTotals{}).Size(), 4},
		{GPUProfilingSource, "Profiling", (&GPUProfiling{}).Size(), 4},
		{light.GPULightXYZRSource, "LightXYZR", (&light.GPULightXYZR{}).Size(), 16},
	}
	for _, tt := range tests {
		size, align, ok := shader.StructLayout(tt.source, tt.name)
		require.True(t, ok, tt.name)
		assert.Equal(t, uint64(tt.size), size, tt.name)
		assert.Equal(t, tt.align, align, tt.name)
	}
	assert.Equal(t, GPUClusterSpaceSize, (&GPUClusterSpace{}).Size())
	assert.Equal(t, GPUTotalsSize, (&GPUTotals{}).Size())
	assert.Equal(t, GPUProfilingSize, (&GPUProfiling{}).Size())
}

func TestGPUClusterSpacePacksGrid(t *testing.T) {
	cfg := DefaultConfiguration()
	cfg.Projection = ProjectionOrthographic
	c := Computed{
		Dimensions: [3]uint32{3, 4, 5},
		WldToCCam:  mgl64.Translate3D(1, 2, 3),
		CCamToWld:  mgl64.Translate3D(-1, -2, -3),
	}
	c.Frustum.X0, c.Frustum.X1 = -2, 2
	c.Frustum.Z0, c.Frustum.Z1 = -50, -1

	g := NewGPUClusterSpace(c, cfg, 7)
	buf := g.Marshal()
	require.Len(t, buf, GPUClusterSpaceSize)

	back := UnmarshalGPUClusterSpace(buf)
	assert.Equal(t, g, back)
	assert.Equal(t, uint32(60), back.ClusterCount)
	assert.Equal(t, uint32(7), back.LightCount)
	assert.Equal(t, uint32(ProjectionOrthographic), back.Projection)
	assert.Equal(t, float32(3), back.WldToCCam[14])
	assert.Equal(t, [2]float32{-50, -1}, back.FrustumZ)
	assert.Equal(t, byte(7), buf[ClusterSpaceLightCountOffset])
}

func TestProjectionText(t *testing.T) {
	for _, p := range []Projection{ProjectionPerspective, ProjectionOrthographic} {
		text, err := p.MarshalText()
		require.NoError(t, err)

		var back Projection
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, p, back)
	}

	var p Projection
	assert.Error(t, p.UnmarshalText([]byte("fisheye")))
	_, err := Projection(9).MarshalText()
	assert.Error(t, err)
	assert.Equal(t, "projection(9)", Projection(9).String())
}

func TestStageOrderAndTitles(t *testing.T) {
	assert.Equal(t, [StageCount]Stage{
		StageCompactClusters,
		StageUploadLights,
		StageCountLights,
		StageLightOffsets,
		StageAssignLights,
	}, Stages)

	titles := NewStageMap(Stage.Title)
	assert.Equal(t, StageMap[string]{
		"cluster.compact_clusters",
		"cluster.upload_lights",
		"cluster.count_lights",
		"cluster.compact_lights",
		"cluster.assign_lights",
	}, titles)

	titles.Set(StageCountLights, "x")
	assert.Equal(t, "x", titles.Get(StageCountLights))
}

func TestProgramBindingsMatchRoles(t *testing.T) {
	for stage, src := range programSources {
		s := shader.NewShader(stage.Title(), shader.ShaderTypeCompute, src, ShaderStructs()...)
		bindings, err := stageBindings(s)
		require.NoError(t, err, stage.Title())
		assert.NotEmpty(t, bindings, stage.Title())
		assert.Equal(t, [3]uint32{WorkgroupSize, 1, 1}, s.WorkgroupSize(), stage.Title())

		for _, b := range bindings {
			assert.Equal(t, RoleSlots[b.role], b.slot)
			assert.Equal(t, b.role, s.BindGroupVarName(0, int(b.slot)), stage.Title())
		}
	}
	assert.NotContains(t, programSources, StageUploadLights)
}

func TestStageBindingsRejectsMismatches(t *testing.T) {
	const body = `
@compute @workgroup_size(64)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {}
`
	tests := []struct {
		name   string
		header string
	}{
		{"unknown role", "//@oxy:group 0 1 storage_read_write histogram array<u32>\n"},
		{"wrong slot", "//@oxy:group 0 2 storage_read_write fragment_counts array<u32>\n"},
		{"wrong group", "//@oxy:group 1 1 storage_read_write fragment_counts array<u32>\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := shader.NewShader("bad", shader.ShaderTypeCompute, tt.header+body, ShaderStructs()...)
			_, err := stageBindings(s)
			assert.Error(t, err)
		})
	}
}
