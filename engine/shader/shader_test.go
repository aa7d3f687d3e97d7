package shader

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pairStruct = `struct Pair {
    a: vec3<u32>,
    b: u32,
    m: mat4x4<f32>,
}`

const annotatedSource = `//@oxy:include pair
//@oxy:group 0 0 storage_uniform pair_data pair
//@oxy:group 0 3 storage_read_write counts array<u32>
//@oxy:provider 0 5 extra
@group(0) @binding(5) var<storage, read> extra: array<vec4<f32>>;

@compute @workgroup_size(64)
fn count_main(@builtin(global_invocation_id) id: vec3<u32>) {
    counts[id.x] = pair_data.b;
}
`

func TestParseAnnotationRejectsMalformed(t *testing.T) {
	cases := []string{
		"//@oxy:",
		"//@oxy:include",
		"//@oxy:group 0 0 storage_uniform x",
		"//@oxy:group a 0 storage_uniform x u32",
		"//@oxy:group 0 0 private x u32",
		"//@oxy:provider 0 1",
		"//@oxy:nope 1",
	}
	for _, c := range cases {
		_, err := parseAnnotation(c, 1)
		assert.Error(t, err, c)
	}

	a, err := parseAnnotation("let x = 1;", 1)
	assert.NoError(t, err)
	assert.Nil(t, a)
}

func TestPreProcessorExpandsAnnotations(t *testing.T) {
	pp := NewPreProcessor(WithStruct("pair", pairStruct, "Pair"))
	out, err := pp.Process(annotatedSource)
	require.NoError(t, err)

	assert.Contains(t, out, "struct Pair {")
	assert.Contains(t, out, "@group(0) @binding(0) var<uniform> pair_data: Pair;")
	assert.Contains(t, out, "@group(0) @binding(3) var<storage, read_write> counts: array<u32>;")
	assert.NotContains(t, out, "@oxy:")

	decls := pp.Declarations()
	require.Len(t, decls, 3)
	assert.Equal(t, "pair_data", decls[0].Role())
	assert.Equal(t, "counts", decls[1].Role())
	assert.Equal(t, "extra", decls[2].Role())
	assert.Equal(t, 5, *decls[2].Binding)
}

func TestPreProcessorUnknownStruct(t *testing.T) {
	_, err := NewPreProcessor().Process("//@oxy:include pair")
	assert.Error(t, err)

	_, err = NewPreProcessor().Process("//@oxy:group 0 0 storage_read x array<Nope>")
	assert.Error(t, err)
}

func TestPreProcessorResolvesPrimitiveTypes(t *testing.T) {
	tests := []struct {
		arg  string
		want string
	}{
		{"u32", "var<uniform> v: u32;"},
		{"vec4<f32>", "var<uniform> v: vec4<f32>;"},
		{"vec3f", "var<uniform> v: vec3f;"},
		{"mat4x4<f32>", "var<uniform> v: mat4x4<f32>;"},
		{"array<atomic<u32>>", "var<uniform> v: array<atomic<u32>>;"},
	}
	for _, tt := range tests {
		out, err := NewPreProcessor().Process("//@oxy:group 0 0 storage_uniform v " + tt.arg)
		require.NoError(t, err, tt.arg)
		assert.Contains(t, out, tt.want, tt.arg)
	}

	for _, bad := range []string{"u", "vec5<f32>", "atomic<f32>", "mat4x4<bool2>"} {
		_, err := NewPreProcessor().Process("//@oxy:group 0 0 storage_uniform v " + bad)
		assert.Error(t, err, bad)
	}
}

func TestNewShaderParsesLayout(t *testing.T) {
	s := NewShader("test.count", ShaderTypeCompute, annotatedSource, WithStruct("pair", pairStruct, "Pair"))

	assert.Equal(t, "count_main", s.EntryPoint())
	assert.Equal(t, [3]uint32{64, 1, 1}, s.WorkgroupSize())
	assert.Equal(t, "test.count", s.Key())

	layouts := s.BindGroupLayoutDescriptors()
	require.Contains(t, layouts, 0)
	entries := layouts[0].Entries
	require.Len(t, entries, 3)
	assert.Equal(t, uint32(0), entries[0].Binding)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, entries[0].Buffer.Type)
	assert.Equal(t, uint64(80), entries[0].Buffer.MinBindingSize)
	assert.Equal(t, wgpu.BufferBindingTypeStorage, entries[1].Buffer.Type)
	assert.Equal(t, uint64(4), entries[1].Buffer.MinBindingSize)
	assert.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, entries[2].Buffer.Type)

	assert.Equal(t, "counts", s.BindGroupVarName(0, 3))
	assert.Empty(t, s.BindGroupVarName(1, 0))
	assert.Equal(t, "extra", s.BindGroupVarName(0, 5))
	assert.Len(t, s.Declarations(), 3)
}

func TestNewShaderPanicsOnBadSource(t *testing.T) {
	assert.Panics(t, func() { NewShader("empty", ShaderTypeCompute, "") })
	assert.Panics(t, func() { NewShader("bad", ShaderTypeCompute, "//@oxy:include missing") })
}

func TestStructLayout(t *testing.T) {
	size, align, ok := StructLayout(pairStruct, "Pair")
	require.True(t, ok)
	assert.Equal(t, uint64(80), size)
	assert.Equal(t, uint64(16), align)

	_, _, ok = StructLayout(pairStruct, "Missing")
	assert.False(t, ok)
}

func TestResolveLayout(t *testing.T) {
	structs := map[string]typeLayout{"Pair": {80, 16}}
	tests := []struct {
		typ  string
		want typeLayout
	}{
		{"u32", typeLayout{4, 4}},
		{"f16", typeLayout{2, 2}},
		{"vec2f", typeLayout{8, 8}},
		{"vec3<u32>", typeLayout{12, 16}},
		{"vec3h", typeLayout{6, 8}},
		{"vec4i", typeLayout{16, 16}},
		{"mat3x3<f32>", typeLayout{48, 16}},
		{"mat4x2f", typeLayout{32, 8}},
		{"atomic<u32>", typeLayout{4, 4}},
		{"array<vec3<f32>, 4>", typeLayout{64, 16}},
		{"array<u32>", typeLayout{4, 4}},
		{"array<array<u32, 2>, 3>", typeLayout{24, 4}},
		{"array<Pair, 2>", typeLayout{160, 16}},
	}
	for _, tt := range tests {
		got, ok := resolveLayout(tt.typ, structs)
		require.True(t, ok, tt.typ)
		assert.Equal(t, tt.want, got, tt.typ)
	}

	for _, bad := range []string{"vec5f", "mat1x4f", "atomic<f32>", "array<Nope>", "array<u32, n>", "texture_2d<f32>", "f"} {
		_, ok := resolveLayout(bad, structs)
		assert.False(t, ok, bad)
	}
}

func TestStripComments(t *testing.T) {
	src := "a /* x /* nested */ y */ b // tail\nc /* open"
	assert.Equal(t, "a  b \nc ", stripComments(src))
}

func TestStructLayoutOutOfOrder(t *testing.T) {
	src := `
struct Outer {
    head: u32,
    inner: Inner, // declared below
    @builtin(position) pos: vec4<f32>,
}
/* Inner is 32 bytes aligned to 16 */
struct Inner {
    v: vec3<f32>,
    w: array<f32, 4>,
}`
	size, align, ok := StructLayout(src, "Outer")
	require.True(t, ok)
	assert.Equal(t, uint64(48), size)
	assert.Equal(t, uint64(16), align)
}
