package shader

import (
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// typeLayout is the host-shareable size and alignment of a WGSL type.
// See https://www.w3.org/TR/WGSL/#alignment-and-size.
type typeLayout struct {
	size  uint64
	align uint64
}

type structField struct {
	name    string
	typ     string
	builtin bool
}

type structDecl struct {
	name   string
	fields []structField
}

func alignUp(v, align uint64) uint64 {
	if align == 0 {
		return v
	}
	return (v + align - 1) &^ (align - 1)
}

// scalarSize returns the byte size of a WGSL scalar, accepting the one-letter suffixes of
// the vecNx/matCxRx shorthands.
func scalarSize(t string) (uint64, bool) {
	switch t {
	case "f32", "i32", "u32", "bool", "f", "i", "u":
		return 4, true
	case "f16", "h":
		return 2, true
	}
	return 0, false
}

// elementType splits "name<T>" into T, or the shorthand "nameT" into T.
func elementType(t, prefix string) (string, bool) {
	rest, ok := strings.CutPrefix(t, prefix)
	if !ok {
		return "", false
	}
	if inner, ok := strings.CutPrefix(rest, "<"); ok {
		inner, ok = strings.CutSuffix(inner, ">")
		return strings.TrimSpace(inner), ok
	}
	return rest, rest != ""
}

func vectorLayout(n uint64, elem string) (typeLayout, bool) {
	s, ok := scalarSize(elem)
	if !ok || n < 2 || n > 4 {
		return typeLayout{}, false
	}
	// vec3 aligns like vec4
	if n == 3 {
		return typeLayout{3 * s, 4 * s}, true
	}
	return typeLayout{n * s, n * s}, true
}

// primitiveLayout resolves scalars, vectors, matrices and atomics.
func primitiveLayout(t string) (typeLayout, bool) {
	if s, ok := scalarSize(t); ok && len(t) > 1 {
		return typeLayout{s, s}, true
	}
	if inner, ok := elementType(t, "atomic"); ok {
		if inner == "u32" || inner == "i32" {
			return typeLayout{4, 4}, true
		}
		return typeLayout{}, false
	}
	if len(t) > 4 && strings.HasPrefix(t, "vec") {
		elem, ok := elementType(t[4:], "")
		if !ok {
			return typeLayout{}, false
		}
		return vectorLayout(uint64(t[3]-'0'), elem)
	}
	if len(t) > 6 && strings.HasPrefix(t, "mat") && t[4] == 'x' {
		elem, ok := elementType(t[6:], "")
		if !ok {
			return typeLayout{}, false
		}
		col, ok := vectorLayout(uint64(t[5]-'0'), elem)
		cols := uint64(t[3] - '0')
		if !ok || cols < 2 || cols > 4 {
			return typeLayout{}, false
		}
		return typeLayout{cols * alignUp(col.size, col.align), col.align}, true
	}
	return typeLayout{}, false
}

// resolveLayout resolves a type against the primitives and the structs laid out so far.
// A runtime-sized array resolves to one element stride, the smallest useful binding.
func resolveLayout(t string, structs map[string]typeLayout) (typeLayout, bool) {
	t = strings.TrimSpace(t)
	if l, ok := primitiveLayout(t); ok {
		return l, true
	}
	if l, ok := structs[t]; ok {
		return l, true
	}

	inner, ok := elementType(t, "array")
	if !ok || !strings.HasPrefix(t, "array<") {
		return typeLayout{}, false
	}
	parts := splitTopLevel(inner)
	elem, ok := resolveLayout(parts[0], structs)
	if !ok {
		return typeLayout{}, false
	}
	stride := alignUp(elem.size, elem.align)
	switch len(parts) {
	case 1:
		return typeLayout{stride, elem.align}, true
	case 2:
		n, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 64)
		if err != nil {
			return typeLayout{}, false
		}
		return typeLayout{n * stride, elem.align}, true
	}
	return typeLayout{}, false
}

// layoutStruct places each non-builtin member at its aligned offset and rounds the total up
// to the largest member alignment.
func layoutStruct(d structDecl, structs map[string]typeLayout) (typeLayout, bool) {
	var offset uint64
	align := uint64(1)
	for _, f := range d.fields {
		if f.builtin {
			continue
		}
		l, ok := resolveLayout(f.typ, structs)
		if !ok {
			return typeLayout{}, false
		}
		offset = alignUp(offset, l.align) + l.size
		align = max(align, l.align)
	}
	return typeLayout{alignUp(offset, align), align}, true
}

// structLayouts lays out every struct, repeating until no further struct can be resolved
// so that declaration order does not matter.
func structLayouts(decls []structDecl) map[string]typeLayout {
	out := make(map[string]typeLayout, len(decls))
	pending := decls
	for len(pending) > 0 {
		var next []structDecl
		for _, d := range pending {
			if l, ok := layoutStruct(d, out); ok {
				out[d.name] = l
			} else {
				next = append(next, d)
			}
		}
		if len(next) == len(pending) {
			break
		}
		pending = next
	}
	return out
}

// layoutEntry maps a var<...> address space to a buffer binding entry. Non-buffer
// resources keep an undefined buffer type.
func layoutEntry(binding uint32, visibility wgpu.ShaderStage, addressSpace string) wgpu.BindGroupLayoutEntry {
	e := wgpu.BindGroupLayoutEntry{Binding: binding, Visibility: visibility}
	space, access, _ := strings.Cut(addressSpace, ",")
	switch strings.TrimSpace(space) {
	case "uniform":
		e.Buffer.Type = wgpu.BufferBindingTypeUniform
	case "storage":
		if strings.TrimSpace(access) == "read_write" {
			e.Buffer.Type = wgpu.BufferBindingTypeStorage
		} else {
			e.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
		}
	}
	return e
}

// stripComments drops line comments and (nested) block comments in one pass. Newlines
// are kept so line-oriented matching still works.
func stripComments(src string) string {
	var sb strings.Builder
	sb.Grow(len(src))
	depth := 0
	for i := 0; i < len(src); i++ {
		switch {
		case strings.HasPrefix(src[i:], "/*"):
			depth++
			i++
		case depth > 0 && strings.HasPrefix(src[i:], "*/"):
			depth--
			i++
		case depth > 0:
		case strings.HasPrefix(src[i:], "//"):
			end := strings.IndexByte(src[i:], '\n')
			if end < 0 {
				return sb.String()
			}
			i += end - 1
		default:
			sb.WriteByte(src[i])
		}
	}
	return sb.String()
}

// splitTopLevel splits at commas outside angle brackets, so array<u32, 4> stays whole.
func splitTopLevel(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i, c := range s {
		switch c {
		case '<':
			depth++
		case '>':
			depth = max(depth-1, 0)
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}
